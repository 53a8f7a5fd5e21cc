/**
 * Copyright 2026 aou-systems
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads umpfd's startup configuration: a JSON file
// naming the listener addresses and the database to open, with
// command-line flags able to override individual keys.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// DB names either a SQLite file or a MySQL connection's parts. Exactly
// one shape is populated, matching spec.md §4.4's open(...) contract.
type DB struct {
	File string `json:"file,omitempty"`

	Host   string `json:"host,omitempty"`
	User   string `json:"user,omitempty"`
	Pass   string `json:"pass,omitempty"`
	Schema string `json:"schema,omitempty"`
}

// Config is the top-level shape read from the configuration file.
type Config struct {
	Sock       string `json:"sock"`
	Port       int    `json:"port"`
	Daemonise  bool   `json:"daemonise"`
	PIDFile    string `json:"pidfile"`
	DB         DB     `json:"db"`
	AutoSparse *bool  `json:"autoSparse,omitempty"`
	AutoPrune  *bool  `json:"autoPrune,omitempty"`
}

// Default mirrors the defaults a fresh install would want: no Unix
// socket, the client's documented default TCP port, no daemonising.
var Default = Config{
	Port: 8675,
	DB:   DB{File: "./umpfd.db"},
}

// Load reads path (if non-empty and it exists) over a copy of
// Default, unmarshaling unknown-keys-disallowed like the pack's
// cluster-monitoring backend does for its own program config.
func Load(path string) (Config, error) {
	cfg := Default
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	// A "db" group in the file replaces the default one wholesale, so a
	// MySQL group does not keep the default SQLite file alongside it.
	cfg.DB = DB{}
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.DB == (DB{}) {
		cfg.DB = Default.DB
	}
	return cfg, nil
}

// AutoSparseEnabled returns the configured value, defaulting to true
// when unset.
func (c Config) AutoSparseEnabled() bool {
	if c.AutoSparse == nil {
		return true
	}
	return *c.AutoSparse
}

// AutoPruneEnabled returns the configured value, defaulting to true
// when unset.
func (c Config) AutoPruneEnabled() bool {
	if c.AutoPrune == nil {
		return true
	}
	return *c.AutoPrune
}

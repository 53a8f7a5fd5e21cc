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

// Command umpfd is the portfolio-accounting daemon: it opens the
// configured database, binds the configured listeners, and serves
// FIXML requests until told to stop.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aou-systems/umpfd/internal/config"
	"github.com/aou-systems/umpfd/internal/dispatch"
	"github.com/aou-systems/umpfd/internal/server"
	"github.com/aou-systems/umpfd/internal/store"
	ulog "github.com/aou-systems/umpfd/pkg/log"
)

func main() {
	var configPath, pidFile string
	var daemon bool
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.StringVar(&pidFile, "pidfile", "", "override the configured pidfile path")
	flag.BoolVar(&daemon, "daemon", false, "override the configured daemonise flag")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		ulog.Fatal(err)
	}
	if pidFile != "" {
		cfg.PIDFile = pidFile
	}
	if daemon {
		cfg.Daemonise = true
	}

	if cfg.PIDFile != "" {
		if err := os.WriteFile(cfg.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
			ulog.Fatalf("cannot write pidfile %s: %v", cfg.PIDFile, err)
		}
		defer os.Remove(cfg.PIDFile)
	}

	db, err := openStore(cfg.DB)
	if err != nil {
		ulog.Fatal(err)
	}
	defer db.Close()
	db.AutoPrune = cfg.AutoPruneEnabled()

	disp := dispatch.New(db)
	disp.AutoSparse = cfg.AutoSparseEnabled()

	srv := server.New(server.Config{
		TCPAddr:    tcpAddr(cfg.Port),
		UnixSocket: cfg.Sock,
	}, disp)

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGPIPE)
	go func() {
		for sig := range sigs {
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				ulog.Info("umpfd: shutting down")
				close(stop)
				return
			case syscall.SIGHUP, syscall.SIGPIPE:
				ulog.Warnf("umpfd: ignoring %v", sig)
			}
		}
	}()

	if err := srv.Run(stop); err != nil {
		ulog.Fatal(err)
	}
}

func tcpAddr(port int) string {
	if port <= 0 {
		return ""
	}
	return fmt.Sprintf(":%d", port)
}

func openStore(db config.DB) (*store.Store, error) {
	if db.File != "" {
		return store.Open("", "", "", db.File)
	}
	return store.Open(db.Host, db.User, db.Pass, db.Schema)
}

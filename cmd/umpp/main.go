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

// Command umpp preprocesses position files before they reach umpf.
// Its one subcommand, meld, consolidates duplicate symbols across one
// or more tab-separated position files into a single summed snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/aou-systems/umpfd/internal/client"
	"github.com/aou-systems/umpfd/internal/message"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) < 2 || argv[0] != "meld" {
		fmt.Fprintln(os.Stderr, "usage: umpp meld FILE...")
		return 1
	}

	melded, order, err := meld(argv[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "umpp:", err)
		return 1
	}

	for _, symbol := range order {
		pos := melded[symbol]
		fmt.Printf("%s\t%s\t%s\n", pos.Symbol, formatQty(pos.Long), formatQty(pos.Short))
	}
	return 0
}

// meld reads each file's tab-separated symbol/long/short lines and
// sums duplicate symbols, preserving first-seen order the same way
// internal/dispatch compacts a PATCH request.
func meld(paths []string) (map[string]message.Position, []string, error) {
	melded := make(map[string]message.Position)
	var order []string

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		positions, err := client.ParsePositions(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}

		for _, pos := range positions {
			existing, seen := melded[pos.Symbol]
			if !seen {
				order = append(order, pos.Symbol)
				melded[pos.Symbol] = pos
				continue
			}
			existing.Long += pos.Long
			existing.Short += pos.Short
			melded[pos.Symbol] = existing
		}
	}

	return melded, order, nil
}

func formatQty(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

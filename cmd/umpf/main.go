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

// Command umpf is the portfolio-accounting command line client: it
// sends exactly one FIXML request to umpfd and prints the reply.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aou-systems/umpfd/internal/client"
	"github.com/aou-systems/umpfd/internal/message"
)

const version = "umpf 1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	top := flag.NewFlagSet("umpf", flag.ContinueOnError)
	top.SetOutput(os.Stderr)
	host := top.String("host", "localhost", "umpfd host[:port] to connect to")
	help := top.Bool("h", false, "show usage")
	top.BoolVar(help, "help", false, "show usage")
	ver := top.Bool("V", false, "show version")
	top.BoolVar(ver, "version", false, "show version")
	top.Usage = usage

	if err := top.Parse(argv); err != nil {
		return 1
	}
	if *help {
		usage()
		return 0
	}
	if *ver {
		fmt.Println(version)
		return 0
	}

	args := top.Args()
	if len(args) == 0 {
		usage()
		return 1
	}

	req, err := buildRequest(args[0], args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "umpf:", err)
		return 1
	}

	conn, err := client.Dial(*host)
	if err != nil {
		fmt.Fprintln(os.Stderr, "umpf:", err)
		return 1
	}
	defer conn.Close()

	reply, err := client.Send(conn, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "umpf:", err)
		return 1
	}

	fmt.Print(client.PrettyPrint(reply))
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: umpf [--host=HOST[:PORT]] COMMAND ARGS...

commands:
  new-pf NAME [-d DESCR|-f FILE]
  get-pf NAME
  set-pf NAME [-d DESCR|-f FILE]
  new-sec NAME -p PORTFOLIO [-d DESCR|-f FILE]
  get-sec NAME -p PORTFOLIO
  set-sec NAME -p PORTFOLIO [-d DESCR|-f FILE]
  get-poss NAME [-d DATE]
  set-poss [NAME] [-d DATE] [-f FILE]`)
}

// buildRequest parses one subcommand's arguments and returns the wire
// request it maps to.
func buildRequest(cmd string, args []string) (*message.Message, error) {
	switch cmd {
	case "new-pf":
		return descrCommand(message.KindNewPF, args)
	case "set-pf":
		return descrCommand(message.KindNewPF, args)
	case "get-pf":
		return getDescrCommand(args)
	case "new-sec":
		return secDescrCommand(message.KindNewSec, args)
	case "set-sec":
		return secDescrCommand(message.KindSetSec, args)
	case "get-sec":
		return getSecCommand(args)
	case "get-poss":
		return getPossCommand(args)
	case "set-poss":
		return setPossCommand(args)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

// descrCommand handles new-pf and set-pf, which share NEW_PF's wire
// shape (NEW_PF doubles as SET_DESCR).
func descrCommand(kind message.Kind, args []string) (*message.Message, error) {
	fs := flag.NewFlagSet("descr", flag.ContinueOnError)
	descr := fs.String("d", "", "description text")
	file := fs.String("f", "", "read description from FILE")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected a single NAME argument")
	}

	body, err := descrBody(*descr, *file)
	if err != nil {
		return nil, err
	}

	req := message.NewRequest(kind)
	req.Mnemonic = fs.Arg(0)
	req.Descr = body
	return req, nil
}

func getDescrCommand(args []string) (*message.Message, error) {
	fs := flag.NewFlagSet("get-pf", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected a single NAME argument")
	}
	req := message.NewRequest(message.KindGetDescr)
	req.Mnemonic = fs.Arg(0)
	return req, nil
}

func secDescrCommand(kind message.Kind, args []string) (*message.Message, error) {
	fs := flag.NewFlagSet("sec", flag.ContinueOnError)
	portfolio := fs.String("p", "", "owning portfolio mnemonic")
	descr := fs.String("d", "", "description text")
	file := fs.String("f", "", "read description from FILE")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected a single NAME argument")
	}
	if *portfolio == "" {
		return nil, fmt.Errorf("-p PORTFOLIO is required")
	}

	body, err := descrBody(*descr, *file)
	if err != nil {
		return nil, err
	}

	req := message.NewRequest(kind)
	req.Symbol = fs.Arg(0)
	req.Mnemonic = *portfolio
	req.Descr = body
	return req, nil
}

func getSecCommand(args []string) (*message.Message, error) {
	fs := flag.NewFlagSet("get-sec", flag.ContinueOnError)
	portfolio := fs.String("p", "", "owning portfolio mnemonic")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected a single NAME argument")
	}
	if *portfolio == "" {
		return nil, fmt.Errorf("-p PORTFOLIO is required")
	}
	req := message.NewRequest(message.KindGetSec)
	req.Symbol = fs.Arg(0)
	req.Mnemonic = *portfolio
	return req, nil
}

func getPossCommand(args []string) (*message.Message, error) {
	fs := flag.NewFlagSet("get-poss", flag.ContinueOnError)
	date := fs.String("d", "", "instant to resolve the snapshot at")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected a single NAME argument")
	}
	stamp, err := client.ParseDate(*date)
	if err != nil {
		return nil, err
	}

	req := message.NewRequest(message.KindGetPF)
	req.Mnemonic = fs.Arg(0)
	req.Stamp = stamp
	return req, nil
}

func setPossCommand(args []string) (*message.Message, error) {
	fs := flag.NewFlagSet("set-poss", flag.ContinueOnError)
	date := fs.String("d", "", "stamp to record the new tag at")
	file := fs.String("f", "", "read positions from FILE instead of stdin")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one NAME argument")
	}

	stamp, err := client.ParseDate(*date)
	if err != nil {
		return nil, err
	}

	var positions []message.Position
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		positions, err = client.ParsePositions(f)
		if err != nil {
			return nil, err
		}
	} else {
		positions, err = client.ParsePositions(os.Stdin)
		if err != nil {
			return nil, err
		}
	}

	req := message.NewRequest(message.KindSetPF)
	if fs.NArg() == 1 {
		req.Mnemonic = fs.Arg(0)
	}
	req.Stamp = stamp
	req.Positions = positions
	return req, nil
}

func descrBody(descr, file string) ([]byte, error) {
	if descr != "" && file != "" {
		return nil, fmt.Errorf("-d and -f are mutually exclusive")
	}
	if file != "" {
		return os.ReadFile(file)
	}
	return []byte(descr), nil
}

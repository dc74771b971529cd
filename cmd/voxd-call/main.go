// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"golang.org/x/term"

	"github.com/voxforge/voxd/lib/rpc"
	"github.com/voxforge/voxd/lib/version"
)

// Default socket path (can be overridden via VOXD_SOCKET env var).
const defaultSocketPath = "/tmp/voxd.sock"

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	// Handle --version before flag parsing to match other voxd binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("voxd-call %s\n", version.Info())
		return 0
	}

	flagSet := pflag.NewFlagSet("voxd-call", pflag.ContinueOnError)
	socketPath := flagSet.String("socket", "", "daemon socket path (default: $VOXD_SOCKET, else "+defaultSocketPath+")")
	timeout := flagSet.Duration("timeout", 30*time.Second, "dial and response deadline")
	notify := flagSet.Bool("notify", false, "send as a notification and expect no response")
	pretty := flagSet.Bool("pretty", false, "pretty-print the result even when stdout is not a terminal")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return 0
	}

	args := flagSet.Args()
	if len(args) < 1 || len(args) > 2 {
		printHelp(flagSet)
		return 1
	}
	method := args[0]

	// PARAMS is JSON in relaxed form: // comments, /* blocks */, and
	// trailing commas are stripped so heredocs from shells stay
	// readable. "-" reads the params from stdin.
	var params json.RawMessage
	if len(args) == 2 {
		raw := []byte(args[1])
		if args[1] == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: reading params from stdin: %v\n", err)
				return 1
			}
			raw = data
		}
		params = jsonc.ToJSON(raw)
	}

	request := struct {
		Version string          `json:"version"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
		ID      json.RawMessage `json:"id,omitempty"`
	}{
		Version: rpc.ProtocolVersion,
		Method:  method,
	}
	if !*notify {
		request.ID = json.RawMessage("1")
	}
	if len(params) > 0 {
		request.Params = params
	}

	// Marshal validates the params bytes; malformed input fails here
	// instead of producing a corrupt request line.
	line, err := json.Marshal(request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: params is not valid JSON: %v\n", err)
		return 1
	}

	path := *socketPath
	if path == "" {
		path = os.Getenv("VOXD_SOCKET")
	}
	if path == "" {
		path = defaultSocketPath
	}

	conn, err := net.DialTimeout("unix", path, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connecting to %s: %v\n", path, err)
		return 1
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(*timeout))

	if _, err := conn.Write(append(line, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing request: %v\n", err)
		return 1
	}
	if *notify {
		return 0
	}

	reply, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading response: %v\n", err)
		return 1
	}
	response, err := rpc.DecodeResponse(bytes.TrimSpace(reply))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: parsing response: %v\n", err)
		return 1
	}

	if response.Err != nil {
		fmt.Fprintf(os.Stderr, "error %d: %s\n", response.Err.Code, response.Err.Message)
		if response.Err.Data != nil {
			if detail, err := json.Marshal(response.Err.Data); err == nil {
				fmt.Fprintf(os.Stderr, "%s\n", detail)
			}
		}
		return 2
	}

	printResult(response.Result, *pretty)
	return 0
}

// printResult writes the result JSON to stdout: indented when stdout
// is a terminal or --pretty is set, compact otherwise.
func printResult(result json.RawMessage, forcePretty bool) {
	if len(result) == 0 {
		return
	}
	if forcePretty || term.IsTerminal(int(os.Stdout.Fd())) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, result, "", "  "); err == nil {
			fmt.Println(buf.String())
			return
		}
	}
	fmt.Println(string(result))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `voxd-call — send one JSON-RPC request to a running voxd daemon.

usage: voxd-call [flags] METHOD [PARAMS]

METHOD is the method name (e.g. ping, vox.add_voxel). PARAMS is a JSON
object or array; JSONC comments and trailing commas are accepted, and
"-" reads the params from stdin.

examples:
  voxd-call ping
  voxd-call vox.create_project '{"name": "castle", "width": 64}'
  voxd-call vox.add_voxel '[1, 2, 3, "#FF0000"]'
  voxd-call --notify vox.save_project '{"path": "castle.vxp"}'

exit codes: 0 success, 1 transport or usage failure, 2 RPC error.

flags:
%s
environment:
  VOXD_SOCKET  Socket path (default: %s)
`, flagSet.FlagUsages(), defaultSocketPath)
}

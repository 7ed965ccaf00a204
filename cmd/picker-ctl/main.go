package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// picker-ctl sends commands to a running pickerd daemon over its unix
// domain socket. Handy for development without hardware and for scripting.
//
// Usage:
//   picker-ctl rotate 2
//   picker-ctl rotate -- -1
//   picker-ctl press
//   picker-ctl selections
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/pickerd.sock)

// Wire types, duplicated from the daemon for a standalone binary.
type ipcRequest struct {
	Type  string `json:"type"`
	Delta int    `json:"delta,omitempty"`
}

type ipcResponse struct {
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Selections map[string]string `json:"selections,omitempty"`
}

func main() {
	socketPath := "/tmp/pickerd.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var req ipcRequest

	switch args[0] {
	case "rotate":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: rotate requires a detent count\n")
			os.Exit(1)
		}
		arg := args[1]
		if arg == "--" && len(args) > 2 {
			arg = args[2]
		}
		delta, err := strconv.Atoi(arg)
		if err != nil || delta == 0 {
			fmt.Fprintf(os.Stderr, "error: rotate needs a nonzero integer, got %q\n", arg)
			os.Exit(1)
		}
		req = ipcRequest{Type: "rotate", Delta: delta}

	case "press":
		req = ipcRequest{Type: "press"}

	case "selections", "sel":
		req = ipcRequest{Type: "selections"}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	resp, err := send(socketPath, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if req.Type == "selections" {
		out, err := json.MarshalIndent(resp.Selections, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}
	fmt.Println("ok")
}

func send(socketPath string, req ipcRequest) (ipcResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return ipcResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return ipcResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return ipcResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp ipcResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return ipcResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status == "error" {
		return resp, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return resp, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `picker-ctl - Control a running pickerd daemon via IPC

Usage:
  picker-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/pickerd.sock)

Commands:
  rotate N        Inject N detents (negative = counter-clockwise)
  press           Inject a button press
  selections      Print committed selections as JSON
  help            Show this help

Examples:
  picker-ctl rotate 2
  picker-ctl -socket /run/pickerd.sock press
  picker-ctl selections
`)
}

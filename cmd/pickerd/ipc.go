package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// The IPC server accepts line-delimited JSON on a unix domain socket so
// external tools can drive the daemon without hardware:
//
//	{"type": "rotate", "delta": 2}   inject detents
//	{"type": "press"}                inject a button press
//	{"type": "selections"}           query committed selections
//
// Responses: {"status": "ok", "selections": {...}} or
// {"status": "error", "error": "msg"}.

// IPCRequest is one client line.
type IPCRequest struct {
	Type  string `json:"type"`
	Delta int    `json:"delta,omitempty"`
}

// IPCResponse is sent back for every request line.
type IPCResponse struct {
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Selections map[string]string `json:"selections,omitempty"`
}

// runIPCServer serves the unix socket until ctx is canceled.
func runIPCServer(ctx context.Context, socketPath string, commands chan<- Command, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Closing the listener unblocks Accept on shutdown.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, commands, logger)
	}
}

func handleIPCConnection(conn net.Conn, commands chan<- Command, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection opened")

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	respond := func(resp IPCResponse) {
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		var req IPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			respond(IPCResponse{Status: "error", Error: fmt.Sprintf("parse request: %v", err)})
			continue
		}

		cmd, reply, err := commandForRequest(req)
		if err != nil {
			respond(IPCResponse{Status: "error", Error: err.Error()})
			continue
		}

		select {
		case commands <- cmd:
		default:
			respond(IPCResponse{Status: "error", Error: "command queue full"})
			continue
		}

		resp := IPCResponse{Status: "ok"}
		if reply != nil {
			select {
			case resp.Selections = <-reply:
			case <-time.After(time.Second):
				resp = IPCResponse{Status: "error", Error: "selections query timed out"}
			}
		}
		respond(resp)
	}

	logger.Debug("IPC connection closed")
}

func commandForRequest(req IPCRequest) (Command, chan map[string]string, error) {
	switch req.Type {
	case "rotate":
		if req.Delta == 0 {
			return nil, nil, fmt.Errorf("rotate needs a nonzero delta")
		}
		return CmdRotate{Delta: req.Delta}, nil, nil
	case "press":
		return CmdPress{}, nil, nil
	case "selections":
		reply := make(chan map[string]string, 1)
		return CmdSelections{Reply: reply}, reply, nil
	default:
		return nil, nil, fmt.Errorf("unknown request type %q", req.Type)
	}
}

// SendIPCRequest sends one request to a running daemon and returns the
// response. Used by picker-ctl and tests.
func SendIPCRequest(socketPath string, req IPCRequest) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return resp, fmt.Errorf("ipc error: %s", resp.Error)
	}
	return resp, nil
}

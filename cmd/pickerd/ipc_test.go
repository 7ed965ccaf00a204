package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// TestCommandForRequest_Translation covers the request-to-command mapping and
// its error cases.
func TestCommandForRequest_Translation(t *testing.T) {
	cmd, reply, err := commandForRequest(IPCRequest{Type: "rotate", Delta: -3})
	if err != nil {
		t.Fatalf("rotate request failed: %v", err)
	}
	if reply != nil {
		t.Errorf("rotate request produced a reply channel")
	}
	if rot, ok := cmd.(CmdRotate); !ok || rot.Delta != -3 {
		t.Errorf("rotate request = %#v, want CmdRotate{-3}", cmd)
	}

	if _, _, err := commandForRequest(IPCRequest{Type: "rotate"}); err == nil {
		t.Errorf("rotate with zero delta accepted")
	}

	cmd, _, err = commandForRequest(IPCRequest{Type: "press"})
	if err != nil {
		t.Fatalf("press request failed: %v", err)
	}
	if _, ok := cmd.(CmdPress); !ok {
		t.Errorf("press request = %#v, want CmdPress", cmd)
	}

	cmd, reply, err = commandForRequest(IPCRequest{Type: "selections"})
	if err != nil {
		t.Fatalf("selections request failed: %v", err)
	}
	if reply == nil {
		t.Fatalf("selections request has no reply channel")
	}
	if _, ok := cmd.(CmdSelections); !ok {
		t.Errorf("selections request = %#v, want CmdSelections", cmd)
	}

	if _, _, err := commandForRequest(IPCRequest{Type: "dance"}); err == nil {
		t.Errorf("unknown request type accepted")
	}
}

// TestIPCServer_RoundTrip drives a real unix socket end to end: the client
// helper sends a rotate and the command arrives on the channel.
func TestIPCServer_RoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "pickerd.sock")
	commands := make(chan Command, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- runIPCServer(ctx, socketPath, commands, discardLogger())
	}()

	// Wait for the socket to exist before dialing.
	waitFor(t, time.Second, func() bool {
		_, err := SendIPCRequest(socketPath, IPCRequest{Type: "press"})
		return err == nil
	}, "IPC server did not come up")

	// The probe press above must have been delivered.
	select {
	case cmd := <-commands:
		if _, ok := cmd.(CmdPress); !ok {
			t.Fatalf("got %#v, want CmdPress", cmd)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for press command")
	}

	resp, err := SendIPCRequest(socketPath, IPCRequest{Type: "rotate", Delta: 2})
	if err != nil {
		t.Fatalf("rotate request failed: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("rotate response status = %q", resp.Status)
	}

	select {
	case cmd := <-commands:
		if rot, ok := cmd.(CmdRotate); !ok || rot.Delta != 2 {
			t.Fatalf("got %#v, want CmdRotate{2}", cmd)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for rotate command")
	}

	// Malformed requests get an error response, not a dropped connection.
	if _, err := SendIPCRequest(socketPath, IPCRequest{Type: "dance"}); err == nil {
		t.Errorf("unknown request type returned ok")
	}

	cancel()
	select {
	case err := <-serverDone:
		if err != nil {
			t.Errorf("server exited with error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for server shutdown")
	}
}

// TestIPCServer_SelectionsQuery verifies the reply path: a responder drains
// the command channel and answers like the daemon loop would.
func TestIPCServer_SelectionsQuery(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "pickerd.sock")
	commands := make(chan Command, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runIPCServer(ctx, socketPath, commands, discardLogger())

	// Stand-in for the daemon tick loop.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-commands:
				if sel, ok := cmd.(CmdSelections); ok {
					sel.Reply <- map[string]string{"Age": "Adult"}
				}
			}
		}
	}()

	var resp IPCResponse
	waitFor(t, time.Second, func() bool {
		var err error
		resp, err = SendIPCRequest(socketPath, IPCRequest{Type: "selections"})
		return err == nil
	}, "selections query did not succeed")

	if resp.Selections["Age"] != "Adult" {
		t.Errorf("selections reply = %v, want Age=Adult", resp.Selections)
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// picker-watch tails a running pickerd state websocket and prints navigation
// changes, actions and generation results as they happen. Useful for
// debugging input tuning without staring at the e-paper panel.

type envelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type navState struct {
	Mode       string            `json:"mode"`
	Title      string            `json:"title"`
	Items      []string          `json:"items"`
	Cursor     int               `json:"cursor"`
	Selections map[string]string `json:"selections"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:3002/ws", "pickerd state websocket URL")
		raw   = flag.Bool("raw", false, "Print raw JSON frames instead of formatted output")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected (press Ctrl+C to exit)")

	// The daemon pings periodically; keep the read deadline moving on pongs
	// we never see and on every received frame instead.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if messageType != websocket.TextMessage {
				continue
			}
			if *raw {
				fmt.Printf("%s\n", message)
				continue
			}
			printFrame(message)
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	case <-done:
		log.Printf("connection closed")
	}
}

func printFrame(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", message)
		return
	}

	switch env.Type {
	case "state_init", "nav_changed":
		var st navState
		if err := json.Unmarshal(env.Data, &st); err != nil {
			fmt.Printf("[%s] %s\n", strings.ToUpper(env.Type), env.Data)
			return
		}
		printNavState(env.Type, st)

	case "action":
		var a struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(env.Data, &a); err == nil {
			fmt.Printf("[ACTION] %s\n", a.Name)
		}

	case "generated":
		var g struct {
			Path   string `json:"path"`
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(env.Data, &g); err == nil {
			fmt.Printf("[GENERATED] %s (prompt: %q)\n", g.Path, g.Prompt)
		}

	default:
		pretty, err := json.MarshalIndent(json.RawMessage(message), "", "  ")
		if err != nil {
			fmt.Printf("[%s] %s\n", env.Type, message)
			return
		}
		fmt.Printf("%s\n", pretty)
	}
}

func printNavState(frameType string, st navState) {
	fmt.Printf("[%s] %s %q cursor=%d\n", strings.ToUpper(frameType), st.Mode, st.Title, st.Cursor)
	for i, item := range st.Items {
		marker := "  "
		if i == st.Cursor {
			marker = "> "
		}
		if item == "" {
			item = "(blank)"
		}
		fmt.Printf("  %s%s\n", marker, item)
	}
	if len(st.Selections) > 0 {
		parts := make([]string, 0, len(st.Selections))
		for title, v := range st.Selections {
			if v != "" {
				parts = append(parts, fmt.Sprintf("%s=%s", title, v))
			}
		}
		if len(parts) > 0 {
			fmt.Printf("  selections: %s\n", strings.Join(parts, ", "))
		}
	}
}

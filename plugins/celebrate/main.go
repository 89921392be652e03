// Package main provides a celebration plugin.
// It shows a desktop notification when a gesture repetition completes.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event    string          `json:"event"`
	Gesture  string          `json:"gesture"`
	Category string          `json:"category"`
	Total    int64           `json:"total"`
	Session  string          `json:"session"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Options are read from the manifest config.
type Options struct {
	Title  string `json:"title"`
	DryRun bool   `json:"dryRun"` // build the message without notifying
}

// notifier shows a notification. Replaced in tests.
var notifier = notify

func main() {
	resp := handle(os.Stdin)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}
	if req.Event != "completed" {
		return Response{Error: fmt.Sprintf("unknown event: %s", req.Event)}
	}

	opts := Options{Title: "Hands-On"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			return Response{Error: fmt.Sprintf("failed to parse config: %v", err)}
		}
	}

	msg := message(req)
	if !opts.DryRun {
		if err := notifier(opts.Title, msg); err != nil {
			return Response{Error: fmt.Sprintf("notify failed: %v", err)}
		}
	}

	data, _ := json.Marshal(map[string]string{"message": msg})
	return Response{Success: true, Data: data}
}

func message(req Request) string {
	if req.Category == "" || req.Total <= 0 {
		return fmt.Sprintf("Nice! %s complete.", req.Gesture)
	}
	return fmt.Sprintf("Nice! %s complete. %d %s so far.", req.Gesture, req.Total, strings.ToLower(req.Category))
}

// notify shows a desktop notification with the platform tool.
func notify(title, msg string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, msg, title)
		cmd = exec.Command("osascript", "-e", script)
	case "windows":
		return nil
	default:
		cmd = exec.Command("notify-send", title, msg)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

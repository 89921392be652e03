package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string, events ...string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Events:     events,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "hello", `echo '{"success":true,"data":{"message":"hello world"}}'
`, EventCompleted)

	executor := NewExecutor(5000)
	response, err := executor.Execute(context.Background(), plugin, &Request{Event: EventCompleted, Gesture: "A"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`, EventCompleted)
	plugin.Manifest.Config = json.RawMessage(`{"sound":"chime"}`)

	request := &Request{
		Event:    EventCompleted,
		Gesture:  "I Love You",
		Category: "Phrases",
		Total:    7,
		Session:  "s-1",
	}

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Event != EventCompleted || got.Gesture != "I Love You" || got.Category != "Phrases" || got.Total != 7 {
		t.Errorf("plugin received %+v", got)
	}
	if string(got.Config) != `{"sound":"chime"}` {
		t.Errorf("expected manifest config to be forwarded, got %s", got.Config)
	}
	if request.Config != nil {
		t.Error("Execute() should not modify the caller's request")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `sleep 10
echo '{"success":true}'
`)

	start := time.Now()
	_, err := NewExecutor(100).Execute(context.Background(), plugin, &Request{Event: EventCompleted})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestExecutor_Cancelled(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `sleep 10
echo '{"success":true}'
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(5000).Execute(ctx, plugin, &Request{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantErr     bool
		wantMessage string
	}{
		{
			name:        "error response",
			script:      `echo '{"success":false,"error":"something went wrong"}'` + "\n",
			wantMessage: "something went wrong",
		},
		{
			name:    "invalid json",
			script:  "echo 'not valid json'\n",
			wantErr: true,
		},
		{
			name:    "non-zero exit",
			script:  "echo \"Error: something failed\" >&2\nexit 1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, "failing", tt.script)

			response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Event: EventCompleted})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if response.Success {
				t.Error("expected success=false")
			}
			if response.Error != tt.wantMessage {
				t.Errorf("Error = %q, want %q", response.Error, tt.wantMessage)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3000).timeoutMs; got != 3000 {
		t.Errorf("expected timeoutMs=3000, got %d", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeoutMs*time.Millisecond {
		t.Errorf("expected default timeout, got %v", got)
	}
}

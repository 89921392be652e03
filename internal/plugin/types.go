// Package plugin runs external effect programs when a gesture repetition
// completes.
package plugin

import "encoding/json"

// EventCompleted is sent when a repetition reaches its target count.
const EventCompleted = "completed"

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"`
}

// Handles reports whether the manifest subscribes to event.
func (m Manifest) Handles(event string) bool {
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is written to a plugin's stdin as JSON.
type Request struct {
	Event    string          `json:"event"`
	Gesture  string          `json:"gesture"`
	Category string          `json:"category"`
	Total    int64           `json:"total"`
	Session  string          `json:"session"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

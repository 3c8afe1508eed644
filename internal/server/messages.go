package server

import (
	"encoding/json"
	"fmt"

	"github.com/acheong08/pkgdrift/internal/aggregate"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	TypeTree  MessageType = "tree"  // Build dependency trees
	TypeDiff  MessageType = "diff"  // Compare two sets of packages
	TypeCheck MessageType = "check" // Trees plus missing / out-of-range findings
	TypePing  MessageType = "ping"  // Keep-alive

	// Server -> Client
	TypeProgress    MessageType = "progress"     // Progress updates
	TypeLog         MessageType = "log"          // Log messages for terminal
	TypeTreeResult  MessageType = "tree_result"  // Trees and their statistics
	TypeDiffResult  MessageType = "diff_result"  // Diff entries and counts
	TypeCheckResult MessageType = "check_result" // Check report
	TypeComplete    MessageType = "complete"     // Request complete
	TypeError       MessageType = "error"        // Error message
	TypePong        MessageType = "pong"         // Reply to ping
)

// Message is the base WebSocket message structure
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TreeRequest sent by client to build trees. No names means the root and every member.
type TreeRequest struct {
	Names []string `json:"names"`
	Depth *int     `json:"depth,omitempty"` // overrides the server default, -1 is unlimited
	Dev   *bool    `json:"dev,omitempty"`
}

// DiffRequest sent by client to compare two sets of packages
type DiffRequest struct {
	Left       []string `json:"left"`
	Right      []string `json:"right"`
	Transitive bool     `json:"transitive,omitempty"`
	Dev        *bool    `json:"dev,omitempty"`
}

// CheckRequest sent by client to check packages
type CheckRequest struct {
	Names []string `json:"names"`
	Depth *int     `json:"depth,omitempty"`
	Dev   *bool    `json:"dev,omitempty"`
}

// ProgressPayload for progress bar updates
type ProgressPayload struct {
	Percent int    `json:"percent"` // 0-100
	Stage   string `json:"stage"`   // "load", "index", "tree", "diff", "check"
	Message string `json:"message"` // Human-readable status
}

// LogPayload for terminal output
type LogPayload struct {
	Message string `json:"message"`         // Log message
	Level   string `json:"level,omitempty"` // "info", "success", "warning", "error"
}

// TreeResultPayload contains the built trees
type TreeResultPayload struct {
	Trees []*models.DependencyNode `json:"trees"`
	Stats *aggregate.TreeStats     `json:"stats"`
}

// CompletePayload sent when a request is done
type CompletePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Helper functions to create messages

func newMessage(t MessageType, payload any) Message {
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: t, Payload: payloadBytes}
}

func NewProgressMessage(percent int, stage, message string) Message {
	return newMessage(TypeProgress, ProgressPayload{
		Percent: percent,
		Stage:   stage,
		Message: message,
	})
}

func NewLogMessage(message, level string) Message {
	return newMessage(TypeLog, LogPayload{
		Message: message,
		Level:   level,
	})
}

func NewTreeResultMessage(trees []*models.DependencyNode, stats *aggregate.TreeStats) Message {
	return newMessage(TypeTreeResult, TreeResultPayload{Trees: trees, Stats: stats})
}

func NewDiffResultMessage(report *drift.DiffReport) Message {
	return newMessage(TypeDiffResult, report)
}

func NewCheckResultMessage(report *drift.CheckReport) Message {
	return newMessage(TypeCheckResult, report)
}

func NewCompleteMessage(success bool, message string) Message {
	return newMessage(TypeComplete, CompletePayload{
		Success: success,
		Message: message,
	})
}

func NewPongMessage() Message {
	return Message{Type: TypePong}
}

func NewErrorMessage(message string, err error) Message {
	errMsg := message
	if err != nil {
		errMsg = fmt.Sprintf("%s: %v", message, err)
	}
	return newMessage(TypeError, ErrorPayload{Message: errMsg, Code: errorCode(err)})
}

// ParsePayload extracts a request payload from a message. An empty payload leaves v untouched.
func ParsePayload(msg Message, v any) error {
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", msg.Type, err)
	}
	return nil
}

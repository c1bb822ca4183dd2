// Package tools defines the contract every tool exposed to the client
// implements.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Tool is one operation the client can call.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "navigate")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the given JSON arguments.
	// Returns: (result text, structured result, error)
	// The structured result is optional and can be nil. A *Failure error
	// reports a failure the caller caused rather than a fault in the server.
	Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error)
}

// Failure is a tool failure caused by the request, such as a script that
// threw. It is reported to the client as a failed result, not a fault.
type Failure struct {
	Message string
	Details map[string]interface{}
}

func (f *Failure) Error() string {
	return f.Message
}

// Failf creates a Failure with a formatted message.
func Failf(format string, args ...interface{}) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// DecodeArgs unmarshals tool arguments into v. Empty arguments leave v
// untouched so tools without required parameters accept no input.
func DecodeArgs(arguments json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(arguments)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// Text renders a structured result as indented JSON for the text channel.
func Text(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

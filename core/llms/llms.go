// Package llms holds the model-facing vocabulary shared by the completion
// leg and the tool declarations sent during the session handshake.
package llms

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Tool is a function the model may invoke. Parameters are described by a
// JSON schema derived from the handler's argument type.
type Tool struct {
	Name        string
	Description string

	schema  *jsonschema.Schema
	execute func(arguments string) (string, error)
}

// NewTool builds a tool whose parameter schema is reflected from T and whose
// handler receives the unmarshalled arguments.
func NewTool[T any](name, description string, handler func(T) (string, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}
	var zero T
	schema := reflector.Reflect(zero)
	schema.Version = ""

	return Tool{
		Name:        name,
		Description: description,
		schema:      schema,
		execute: func(arguments string) (string, error) {
			var parameters T
			if err := json.Unmarshal([]byte(arguments), &parameters); err != nil {
				return "", fmt.Errorf("failed to parse tool arguments: %w", err)
			}
			return handler(parameters)
		},
	}
}

// Schema returns the reflected parameter schema.
func (t Tool) Schema() *jsonschema.Schema { return t.schema }

// Execute runs the handler against raw JSON arguments.
func (t Tool) Execute(arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %q has no handler", t.Name)
	}
	return t.execute(arguments)
}

// ToolCall is one tool invocation surfaced by the model, and its response
// once executed.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is one conversational turn kept as completion-leg history.
type Turn struct {
	Role      TurnRole
	Content   string
	ToolCalls []ToolCall
}

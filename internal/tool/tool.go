package tool

import (
	"context"
	"encoding/json"
)

// Tool is the common abstraction for all surfaces exposed to the agent.
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Validate(raw json.RawMessage) error
	Execute(ctx context.Context, raw json.RawMessage) (Result, error)
}

// ParamKind is the JSON type of a tool parameter.
type ParamKind string

const (
	KindString ParamKind = "string"
	KindNumber ParamKind = "number"
)

// Param describes one tool argument for transport schemas.
type Param struct {
	Name        string
	Kind        ParamKind
	Description string
	Required    bool
}

func decodeInput(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	return json.Unmarshal(raw, v)
}

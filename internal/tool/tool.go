// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool exposes plain Go functions to language models as callable tools.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ErrBadArguments is returned by Call when the model's arguments do not decode
// into the tool's input type.
var ErrBadArguments = errors.New("invalid tool arguments")

// Declaration describes a tool to the model: its name, what it does, and the
// JSON schema of its arguments.
type Declaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Tool is a function a model can ask to invoke.
type Tool interface {
	Declaration() Declaration
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Option configures a FunctionTool.
type Option func(*Declaration)

// WithName sets the tool name the model uses to call it.
func WithName(name string) Option {
	return func(d *Declaration) { d.Name = name }
}

// WithDescription sets the natural-language description given to the model.
func WithDescription(desc string) Option {
	return func(d *Declaration) { d.Description = desc }
}

// FunctionTool adapts fn into a Tool. I is decoded from the model's JSON
// arguments; O is returned to the caller as-is.
type FunctionTool[I, O any] struct {
	decl Declaration
	fn   func(context.Context, I) (O, error)
}

// NewFunctionTool reflects I into the argument schema and wraps fn.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var zero I
	decl := Declaration{Parameters: reflector.Reflect(&zero)}
	for _, opt := range opts {
		opt(&decl)
	}
	return &FunctionTool[I, O]{decl: decl, fn: fn}
}

// Declaration implements Tool.
func (t *FunctionTool[I, O]) Declaration() Declaration { return t.decl }

// Call decodes args into I and invokes the wrapped function. Empty args are
// treated as an empty JSON object.
func (t *FunctionTool[I, O]) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var in I
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("%w: decoding %s arguments: %w", ErrBadArguments, t.decl.Name, err)
	}
	return t.fn(ctx, in)
}

// ParametersMap returns the argument schema as a plain JSON object, with the
// draft and id keywords removed, ready to embed in a model request.
func ParametersMap(d Declaration) (map[string]any, error) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	if d.Parameters == nil {
		return params, nil
	}
	raw, err := json.Marshal(d.Parameters)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s schema: %w", d.Name, err)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("unmarshaling %s schema: %w", d.Name, err)
	}
	delete(params, "$schema")
	delete(params, "$id")
	return params, nil
}

// Find returns the tool declared under name.
func Find(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Declaration().Name == name {
			return t, true
		}
	}
	return nil, false
}

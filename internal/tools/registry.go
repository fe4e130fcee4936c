// Package tools holds the local deterministic functions the model may call
// by name, plus the registry that advertises and dispatches them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"smartassistant/internal/llm"
)

// Handler executes one tool with its serialized JSON arguments. Handlers are
// pure: identical arguments produce identical results.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Definition pairs a tool schema with its handler.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Result is one tool outcome. Content is the serialized form fed back to the
// model; Value keeps the structured record for deterministic formatting.
type Result struct {
	Name    string
	Content string
	Value   any
}

// Registry maps tool names to handlers and advertises their schemas.
type Registry struct {
	defs   []Definition
	byName map[string]Definition

	// OnDispatch, when set, observes every dispatch outcome
	// (outcome is "ok", "miss" or "error").
	OnDispatch func(name, outcome string)
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{byName: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.Register(d)
	}
	return r
}

func (r *Registry) Register(d Definition) {
	r.defs = append(r.defs, d)
	r.byName[d.Name] = d
}

// Schemas returns the tool definitions in registration order, for
// advertising to the model.
func (r *Registry) Schemas() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, llm.Tool{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return out
}

// Dispatch looks up and invokes a tool. It never fails: an unknown name or a
// broken invocation yields a diagnostic textual result, so the caller can
// always close the tool-call/tool-result pairing the model protocol expects.
func (r *Registry) Dispatch(ctx context.Context, name, argsJSON string) Result {
	d, ok := r.byName[name]
	if !ok {
		r.observe(name, "miss")
		return Result{Name: name, Content: fmt.Sprintf("未找到名为 %s 的工具。", name)}
	}
	value, err := d.Handler(ctx, json.RawMessage(argsJSON))
	if err != nil {
		r.observe(name, "error")
		return Result{Name: name, Content: fmt.Sprintf("工具 %s 执行失败：%v", name, err)}
	}
	r.observe(name, "ok")
	if s, ok := value.(string); ok {
		return Result{Name: name, Content: s, Value: value}
	}
	content, err := json.Marshal(value)
	if err != nil {
		return Result{Name: name, Content: fmt.Sprintf("工具 %s 结果序列化失败：%v", name, err)}
	}
	return Result{Name: name, Content: string(content), Value: value}
}

func (r *Registry) observe(name, outcome string) {
	if r.OnDispatch != nil {
		r.OnDispatch(name, outcome)
	}
}

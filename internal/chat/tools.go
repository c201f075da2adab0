package chat

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sort"

    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// ErrUnknownTool is returned for a tool call naming no registered tool.
var ErrUnknownTool = errors.New("unknown tool")

// ToolFunc runs one tool.  args is the raw JSON object the model sent.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tools is a registry of functions the model may call.  It is filled at
// start-up and read-only afterwards.
type Tools struct {
    specs map[string]FunctionSpec
    funcs map[string]ToolFunc
}

func NewTools() *Tools {
    return &Tools{specs: make(map[string]FunctionSpec), funcs: make(map[string]ToolFunc)}
}

// Register adds a tool.  A later registration under the same name wins.
func (t *Tools) Register(spec FunctionSpec, fn ToolFunc) {
    t.specs[spec.Name] = spec
    t.funcs[spec.Name] = fn
}

// Definitions lists the tools in name order, ready to send to the model.
func (t *Tools) Definitions() []Tool {
    if t == nil || len(t.specs) == 0 {
        return nil
    }
    names := make([]string, 0, len(t.specs))
    for n := range t.specs {
        names = append(names, n)
    }
    sort.Strings(names)
    out := make([]Tool, 0, len(names))
    for _, n := range names {
        out = append(out, Tool{Type: "function", Function: t.specs[n]})
    }
    return out
}

// Call runs the named tool.  Empty arguments are treated as {}.
func (t *Tools) Call(ctx context.Context, name, arguments string) (any, error) {
    fn, ok := t.funcs[name]
    if !ok {
        return nil, fmt.Errorf("%s: %w", name, ErrUnknownTool)
    }
    if arguments == "" {
        arguments = "{}"
    }
    if !json.Valid([]byte(arguments)) {
        return nil, fmt.Errorf("%s: arguments are not valid JSON: %w", name, repository.ErrInvalidInput)
    }
    return fn(ctx, json.RawMessage(arguments))
}

type callerKey struct{}

// WithCaller attaches the requesting user's id to ctx.  Booking tools act
// on behalf of that user and ignore any user_id the model supplies.
func WithCaller(ctx context.Context, userID string) context.Context {
    return context.WithValue(ctx, callerKey{}, userID)
}

func callerFrom(ctx context.Context) string {
    s, _ := ctx.Value(callerKey{}).(string)
    return s
}

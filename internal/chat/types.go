// Package chat is the AI assistant collaborator: an OpenAI-compatible
// chat completion client, knowledge-base sources found by keyword and a
// small set of booking tools the model may call.
package chat

// Message is one turn of a conversation.  ToolCalls and ToolCallID only
// appear on the wire to the model; clients never send them.
type Message struct {
    Role       string     `json:"role" validate:"required,oneof=user assistant"`
    Content    string     `json:"content" validate:"required"`
    ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
    ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Request is what the client sends to POST /ai/chat.  UserID scopes the
// booking tools; it falls back to the caller's X-User-ID.
type Request struct {
    Message string    `json:"message" validate:"required,max=4000"`
    History []Message `json:"history" validate:"max=40,dive"`
    BaseID  string    `json:"base_id" validate:"omitempty,uuid"`
    UserID  string    `json:"user_id" validate:"max=128"`
}

// Source is a knowledge item the answer was grounded on.
type Source struct {
    ID      string  `json:"id"`
    Title   string  `json:"title"`
    Content string  `json:"content"`
    Score   float64 `json:"score"`
}

// Action records one tool the model ran while answering.
type Action struct {
    Tool   string `json:"tool"`
    Result any    `json:"result,omitempty"`
    Error  string `json:"error,omitempty"`
}

// Response is the assistant's answer.
type Response struct {
    Message string   `json:"message"`
    Sources []Source `json:"sources"`
    Actions []Action `json:"actions,omitempty"`
}

// Tool is a function definition offered to the model.
type Tool struct {
    Type     string       `json:"type"`
    Function FunctionSpec `json:"function"`
}

// FunctionSpec describes a callable function with a JSON Schema for its
// arguments.
type FunctionSpec struct {
    Name        string         `json:"name"`
    Description string         `json:"description"`
    Parameters  map[string]any `json:"parameters"`
}

// ToolCall is the model asking to run a function.  Arguments is a JSON
// object encoded as a string, as the API sends it.
type ToolCall struct {
    ID       string       `json:"id"`
    Type     string       `json:"type"`
    Function FunctionCall `json:"function"`
}

type FunctionCall struct {
    Name      string `json:"name"`
    Arguments string `json:"arguments"`
}

// Completion is one model turn: either an answer or tool calls.
type Completion struct {
    Content   string
    ToolCalls []ToolCall
}

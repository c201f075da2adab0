package chat

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"
)

// Upstream failures the handler maps to dedicated statuses.
var (
    ErrInsufficientBalance = errors.New("ai account balance exhausted")
    ErrUnauthorized        = errors.New("ai api key rejected")
    ErrRateLimited         = errors.New("ai rate limit exceeded")
)

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
    apiKey  string
    baseURL string
    model   string
    http    *http.Client
}

// NewClient returns a Client.  baseURL is the API root without the
// /chat/completions suffix.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
    return &Client{
        apiKey:  apiKey,
        baseURL: strings.TrimRight(baseURL, "/"),
        model:   model,
        http:    &http.Client{Timeout: timeout},
    }
}

type completionRequest struct {
    Model    string    `json:"model"`
    Messages []Message `json:"messages"`
    Tools    []Tool    `json:"tools,omitempty"`
}

type completionResponse struct {
    Choices []struct {
        Message Message `json:"message"`
    } `json:"choices"`
}

// Complete sends messages, offering tools when there are any, and returns
// the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
    body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages, Tools: tools})
    if err != nil {
        return nil, fmt.Errorf("marshal request: %w", err)
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
    if err != nil {
        return nil, fmt.Errorf("build request: %w", err)
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Authorization", "Bearer "+c.apiKey)

    resp, err := c.http.Do(req)
    if err != nil {
        return nil, fmt.Errorf("chat completion: %w", err)
    }
    defer resp.Body.Close()
    raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
    if err != nil {
        return nil, fmt.Errorf("read response: %w", err)
    }

    switch resp.StatusCode {
    case http.StatusOK:
    case http.StatusUnauthorized:
        return nil, fmt.Errorf("%w: %s", ErrUnauthorized, snippet(raw))
    case http.StatusPaymentRequired:
        return nil, fmt.Errorf("%w: %s", ErrInsufficientBalance, snippet(raw))
    case http.StatusTooManyRequests:
        return nil, fmt.Errorf("%w: %s", ErrRateLimited, snippet(raw))
    default:
        if bytes.Contains(bytes.ToLower(raw), []byte("insufficient balance")) {
            return nil, fmt.Errorf("%w: %s", ErrInsufficientBalance, snippet(raw))
        }
        return nil, fmt.Errorf("chat completion: status %d: %s", resp.StatusCode, snippet(raw))
    }

    var out completionResponse
    if err := json.Unmarshal(raw, &out); err != nil {
        return nil, fmt.Errorf("decode response: %w", err)
    }
    if len(out.Choices) == 0 {
        return nil, errors.New("chat completion: no choices returned")
    }
    msg := out.Choices[0].Message
    return &Completion{Content: msg.Content, ToolCalls: msg.ToolCalls}, nil
}

func snippet(b []byte) string {
    const max = 200
    s := strings.TrimSpace(string(b))
    if len(s) > max {
        s = s[:max] + "..."
    }
    return s
}

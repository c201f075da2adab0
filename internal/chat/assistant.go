package chat

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"
    "unicode"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

const (
    maxToolRounds  = 4
    maxSources     = 5
    maxKeywords    = 8
    maxSourceRunes = 600
)

// Completer produces the next model turn for a conversation, offering
// tools when there are any.  *Client implements it.
type Completer interface {
    Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error)
}

// KnowledgeSearcher finds knowledge items by keyword.  uuid.Nil means all
// bases.
type KnowledgeSearcher interface {
    SearchItems(ctx context.Context, baseID uuid.UUID, keywords []string, limit int) ([]model.KnowledgeItem, error)
}

// Assistant answers questions, grounding them on knowledge items when any
// match.  A failed lookup degrades to an ungrounded answer.  When tools
// are registered the model may call them; their results are fed back
// until it answers or maxToolRounds is used up.
type Assistant struct {
    completer Completer
    knowledge KnowledgeSearcher
    tools     *Tools
    logger    *zap.Logger
}

// NewAssistant returns an Assistant.  tools may be nil.
func NewAssistant(completer Completer, knowledge KnowledgeSearcher, tools *Tools, logger *zap.Logger) *Assistant {
    return &Assistant{completer: completer, knowledge: knowledge, tools: tools, logger: logger.Named("assistant")}
}

// Chat answers req.
func (a *Assistant) Chat(ctx context.Context, req Request) (*Response, error) {
    ctx, span := observability.StartSpan(ctx, "Assistant.Chat")
    defer span.End()

    var baseID uuid.UUID
    if req.BaseID != "" {
        id, err := uuid.Parse(req.BaseID)
        if err != nil {
            return nil, fmt.Errorf("base_id: %w", err)
        }
        baseID = id
    }
    sources := a.sources(ctx, baseID, req.Message)

    defs := a.tools.Definitions()
    messages := make([]Message, 0, len(req.History)+2)
    messages = append(messages, Message{Role: "system", Content: systemPrompt(sources, len(defs) > 0)})
    for _, m := range req.History {
        messages = append(messages, Message{Role: m.Role, Content: m.Content})
    }
    messages = append(messages, Message{Role: "user", Content: req.Message})

    ctx = WithCaller(ctx, strings.TrimSpace(req.UserID))
    actions := []Action{}
    for round := 0; ; round++ {
        offered := defs
        if round == maxToolRounds {
            offered = nil
        }
        turn, err := a.completer.Complete(ctx, messages, offered)
        if err != nil {
            span.RecordError(err)
            return nil, err
        }
        if len(turn.ToolCalls) == 0 || offered == nil {
            return &Response{Message: turn.Content, Sources: sources, Actions: actions}, nil
        }
        messages = append(messages, Message{Role: "assistant", Content: turn.Content, ToolCalls: turn.ToolCalls})
        for _, call := range turn.ToolCalls {
            act := a.run(ctx, call)
            actions = append(actions, act)
            messages = append(messages, Message{Role: "tool", ToolCallID: call.ID, Content: toolContent(act)})
        }
    }
}

func (a *Assistant) run(ctx context.Context, call ToolCall) Action {
    act := Action{Tool: call.Function.Name}
    result, err := a.tools.Call(ctx, call.Function.Name, call.Function.Arguments)
    if err != nil {
        e := toolError(err)
        act.Error = e["message"]
        act.Result = e
        if e["error"] == repository.KindInternal {
            a.logger.Error("tool failed", zap.String("tool", act.Tool), zap.Error(err))
        } else {
            a.logger.Info("tool rejected", zap.String("tool", act.Tool), zap.Error(err))
        }
        return act
    }
    a.logger.Info("tool ran", zap.String("tool", act.Tool))
    act.Result = result
    return act
}

func toolContent(act Action) string {
    b, err := json.Marshal(act.Result)
    if err != nil {
        return `{"error":"Internal","message":"unencodable result"}`
    }
    return string(b)
}

func (a *Assistant) sources(ctx context.Context, baseID uuid.UUID, message string) []Source {
    keywords := Keywords(message)
    out := []Source{}
    if a.knowledge == nil || len(keywords) == 0 {
        return out
    }
    items, err := a.knowledge.SearchItems(ctx, baseID, keywords, maxSources)
    if err != nil {
        a.logger.Warn("knowledge lookup failed", zap.Error(err))
        return out
    }
    for _, it := range items {
        out = append(out, Source{
            ID:      it.ID.String(),
            Title:   it.Title,
            Content: truncateRunes(it.Content, maxSourceRunes),
            Score:   score(it, keywords),
        })
    }
    return out
}

// Keywords splits a question into distinct lower-case search terms of at
// least two runes.  Text without separators, as in Chinese, is kept whole.
func Keywords(message string) []string {
    fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
        return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
    })
    seen := map[string]bool{}
    out := make([]string, 0, len(fields))
    for _, f := range fields {
        if len([]rune(f)) < 2 || seen[f] {
            continue
        }
        seen[f] = true
        out = append(out, truncateRunes(f, 32))
        if len(out) == maxKeywords {
            break
        }
    }
    return out
}

// score is the share of keywords found in the item.
func score(it model.KnowledgeItem, keywords []string) float64 {
    text := strings.ToLower(it.Title + " " + it.Content)
    hits := 0
    for _, kw := range keywords {
        if strings.Contains(text, kw) {
            hits++
        }
    }
    return float64(hits) / float64(len(keywords))
}

func systemPrompt(sources []Source, withTools bool) string {
    const intro = "You are the studio's friendly assistant. Answer questions about yoga practice, classes and bookings."
    const toolHint = " Use the tools to look up the schedule and to book or cancel classes; never claim a booking the tools did not confirm."
    var b strings.Builder
    b.WriteString(intro)
    if withTools {
        b.WriteString(toolHint)
    }
    if len(sources) == 0 {
        return b.String()
    }
    b.WriteString("\n\nAnswer from the following knowledge base entries where they apply:\n\n")
    for i, s := range sources {
        fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, s.Title, s.Content)
    }
    b.WriteString("If the entries do not cover the question, say that your answer comes from general knowledge.")
    return b.String()
}

func truncateRunes(s string, n int) string {
    r := []rune(s)
    if len(r) <= n {
        return s
    }
    return string(r[:n])
}

package record

import (
	"encoding/json"
	"strings"
	"time"
)

// MaxLineSize bounds a single JSONL line. Lines beyond this are treated as
// malformed by callers configuring their scanner buffers.
const MaxLineSize = 10 * 1024 * 1024 // 10MB

// Kind discriminates parsed log records.
type Kind int

const (
	KindOther Kind = iota
	KindUser
	KindAssistant
	KindProgress
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	case KindProgress:
		return "progress"
	default:
		return "other"
	}
}

// TokenUsage holds per-record token counters as reported by the chat tool.
type TokenUsage struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheRead  int64 `json:"cache_read"`
	CacheWrite int64 `json:"cache_write"`
}

// Add accumulates u2 into u.
func (u *TokenUsage) Add(u2 TokenUsage) {
	u.Input += u2.Input
	u.Output += u2.Output
	u.CacheRead += u2.CacheRead
	u.CacheWrite += u2.CacheWrite
}

// Total returns the sum of all counters.
func (u TokenUsage) Total() int64 {
	return u.Input + u.Output + u.CacheRead + u.CacheWrite
}

// Block is one content block inside a user or assistant message.
type Block struct {
	Type      string // "text", "thinking", "tool_use", "tool_result"
	Text      string
	Thinking  string
	ToolName  string
	ToolInput map[string]json.RawMessage
	IsError   bool
}

// Record is one parsed log line. Records are transient: they exist only
// during a scan pass and are never persisted.
type Record struct {
	Kind      Kind
	Timestamp time.Time
	IsMeta    bool
	Model     string
	Usage     TokenUsage
	Blocks    []Block
	HookEvent string // progress records: hook event name, "" if none
	Subagent  bool   // progress records: nested-agent event
}

// Text concatenates the record's plain text blocks.
func (r Record) Text() string {
	var parts []string
	for _, b := range r.Blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

type rawRecord struct {
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype"`
	IsMeta        bool            `json:"isMeta"`
	Timestamp     string          `json:"timestamp"`
	Message       json.RawMessage `json:"message"`
	HookEventName string          `json:"hookEventName"`
	AgentID       string          `json:"agentId"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *rawUsage       `json:"usage"`
}

type rawUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

type rawBlock struct {
	Type     string                     `json:"type"`
	Text     string                     `json:"text"`
	Thinking string                     `json:"thinking"`
	Name     string                     `json:"name"`
	Input    map[string]json.RawMessage `json:"input"`
	IsError  bool                       `json:"is_error"`
}

// ParseLine decodes one JSONL line into a Record. Malformed lines return
// ok=false and are expected to be skipped by the caller.
func ParseLine(line []byte) (Record, bool) {
	if len(line) == 0 {
		return Record{}, false
	}

	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, false
	}

	rec := Record{
		Timestamp: ParseTimestamp(raw.Timestamp),
		IsMeta:    raw.IsMeta,
	}

	switch raw.Type {
	case "user":
		rec.Kind = KindUser
	case "assistant":
		rec.Kind = KindAssistant
	case "progress":
		rec.Kind = KindProgress
		rec.HookEvent = raw.HookEventName
		rec.Subagent = raw.AgentID != "" || raw.Subtype == "agent_progress"
		return rec, true
	default:
		rec.Kind = KindOther
		return rec, true
	}

	if len(raw.Message) > 0 {
		var msg rawMessage
		if err := json.Unmarshal(raw.Message, &msg); err == nil {
			rec.Model = msg.Model
			if msg.Usage != nil {
				rec.Usage = TokenUsage{
					Input:      msg.Usage.InputTokens,
					Output:     msg.Usage.OutputTokens,
					CacheRead:  msg.Usage.CacheReadInputTokens,
					CacheWrite: msg.Usage.CacheCreationInputTokens,
				}
			}
			rec.Blocks = parseContent(msg.Content)
		}
	}

	return rec, true
}

func parseContent(raw json.RawMessage) []Block {
	if len(raw) == 0 {
		return nil
	}

	// plain string content
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return []Block{{Type: "text", Text: s}}
	}

	// array of content blocks
	var rbs []rawBlock
	if err := json.Unmarshal(raw, &rbs); err != nil {
		return nil
	}

	var blocks []Block
	for _, rb := range rbs {
		switch rb.Type {
		case "text":
			if rb.Text != "" {
				blocks = append(blocks, Block{Type: "text", Text: rb.Text})
			}
		case "thinking":
			if rb.Thinking != "" {
				blocks = append(blocks, Block{Type: "thinking", Thinking: rb.Thinking})
			}
		case "tool_use":
			blocks = append(blocks, Block{Type: "tool_use", ToolName: rb.Name, ToolInput: rb.Input})
		case "tool_result":
			blocks = append(blocks, Block{Type: "tool_result", IsError: rb.IsError})
		}
	}
	return blocks
}

// ParseTimestamp parses the timestamp formats the chat tool has emitted over
// time. RFC3339 covers fractional seconds too; the bare form has no zone
// suffix. Unknown formats yield the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

package session

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ccsweep/ccsweep/internal/record"
)

// Category describes what kind of content a session file holds.
type Category string

const (
	CategoryEmpty        Category = "empty"
	CategoryHookOnly     Category = "hook-only"
	CategorySnapshotOnly Category = "snapshot-only"
	CategoryConversation Category = "conversation"
)

// Tier is a disposability class. Lower is more disposable.
type Tier int

const (
	TierNone       Tier = 0 // unclassified / no override
	TierAutoDelete Tier = 1
	TierSuggested  Tier = 2
	TierReview     Tier = 3
	TierKeep       Tier = 4
)

func (t Tier) Label() string {
	switch t {
	case TierAutoDelete:
		return "auto-delete"
	case TierSuggested:
		return "suggested"
	case TierReview:
		return "review"
	case TierKeep:
		return "keep"
	default:
		return "unclassified"
	}
}

// Score maps a tier to the legacy scalar score used by older consumers.
// This mapping is frozen: junk/maybe/real labelling depends on it.
func (t Tier) Score() float64 {
	switch t {
	case TierAutoDelete:
		return 1.0
	case TierSuggested:
		return 0.7
	case TierReview:
		return 0.4
	case TierKeep:
		return 0.1
	default:
		return 0
	}
}

// LegacyLabel maps a legacy score to the old binary-ish junk/maybe/real label.
func LegacyLabel(score float64) string {
	switch {
	case score >= 0.6:
		return "junk"
	case score >= 0.3:
		return "maybe"
	default:
		return "real"
	}
}

// Enrichment holds fields produced only by the deep analysis pass.
type Enrichment struct {
	ToolCalls      map[string]int `json:"tool_calls,omitempty"`
	ToolCallTotal  int            `json:"tool_call_total,omitempty"`
	ToolErrors     int            `json:"tool_errors,omitempty"`
	ThinkingBlocks int            `json:"thinking_blocks,omitempty"`
	ThinkingChars  int            `json:"thinking_chars,omitempty"`
	TurnCount      int            `json:"turn_count,omitempty"`
	FilesTouched   []string       `json:"files_touched,omitempty"`
	FileCount      int            `json:"file_count,omitempty"`
	Language       string         `json:"language,omitempty"`
	AutoTags       []string       `json:"auto_tags,omitempty"`
	HasSubagent    bool           `json:"has_subagent,omitempty"`
}

// Summary is the durable unit of the system: the derived, structured
// representation of one session file. Identity (ID, Path) is immutable;
// derived fields are fully replaced on every re-scan, never merged.
type Summary struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Project string `json:"project,omitempty"`

	Title             string             `json:"title"`
	Category          Category           `json:"category"`
	UserMessages      int                `json:"user_messages"`
	AssistantMessages int                `json:"assistant_messages"`
	ProgressRecords   int                `json:"progress_records"`
	RecordCount       int                `json:"record_count"`
	Size              int64              `json:"size"`
	FirstAt           time.Time          `json:"first_at,omitzero"`
	LastAt            time.Time          `json:"last_at,omitzero"`
	Duration          time.Duration      `json:"duration"`
	Tokens            record.TokenUsage  `json:"tokens"`
	Models            []string           `json:"models,omitempty"`

	// Classification fields, written by each classification pass.
	Tier      Tier     `json:"tier,omitempty"`
	AutoTier  Tier     `json:"auto_tier,omitempty"`
	TierLabel string   `json:"tier_label,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	Score     float64  `json:"score,omitempty"`
	Label     string   `json:"label,omitempty"`

	// Analyzed discriminates fast-scan summaries from deep ones. Enrichment
	// is meaningful only when Analyzed is true.
	Analyzed   bool       `json:"analyzed"`
	Enrichment Enrichment `json:"enrichment,omitzero"`
}

// IDFromPath derives the stable session id from the file basename.
func IDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}

// CompanionDir returns the path of the session's companion artifact
// directory: the log path with the extension dropped.
func CompanionDir(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Package analyze is the optional deep pass over a fully parsed record
// sequence. It only adds enrichment fields to a summary; it never changes
// what the summarizer derived.
package analyze

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/ccsweep/ccsweep/internal/record"
	"github.com/ccsweep/ccsweep/internal/session"
)

// Apply computes enrichment fields from the full record sequence and marks
// the summary as analyzed.
func Apply(sum *session.Summary, recs []record.Record) {
	e := session.Enrichment{
		ToolCalls: make(map[string]int),
	}

	files := make(map[string]struct{})
	var userText strings.Builder
	var lastRole record.Kind

	for _, rec := range recs {
		switch rec.Kind {
		case record.KindUser, record.KindAssistant:
			if rec.IsMeta {
				break
			}
			if rec.Kind != lastRole {
				if lastRole != record.KindOther {
					e.TurnCount++
				}
				lastRole = rec.Kind
			}
		case record.KindProgress:
			if rec.Subagent {
				e.HasSubagent = true
			}
		}

		if rec.Kind == record.KindUser && !rec.IsMeta {
			if t := rec.Text(); t != "" {
				userText.WriteString(t)
				userText.WriteString("\n")
			}
		}

		for _, b := range rec.Blocks {
			switch b.Type {
			case "tool_use":
				if b.ToolName != "" {
					e.ToolCalls[b.ToolName]++
					e.ToolCallTotal++
				}
				for _, key := range []string{"file_path", "path", "notebook_path"} {
					if raw, ok := b.ToolInput[key]; ok {
						var p string
						if err := json.Unmarshal(raw, &p); err == nil && p != "" {
							files[p] = struct{}{}
						}
					}
				}
			case "tool_result":
				if b.IsError {
					e.ToolErrors++
				}
			case "thinking":
				e.ThinkingBlocks++
				e.ThinkingChars += len(b.Thinking)
			}
		}
	}

	for p := range files {
		e.FilesTouched = append(e.FilesTouched, p)
	}
	sort.Strings(e.FilesTouched)
	e.FileCount = len(e.FilesTouched)

	text := userText.String()
	e.AutoTags = autoTags(e.FilesTouched, e.ToolCalls, text)
	e.Language = guessLanguage(text)

	if len(e.ToolCalls) == 0 {
		e.ToolCalls = nil
	}
	sum.Enrichment = e
	sum.Analyzed = true
}

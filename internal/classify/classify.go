// Package classify assigns each session summary one of four disposability
// tiers. Classification is a pure function of the summary: it never fails,
// and absent enrichment fields are zero-valued so fast-scan summaries still
// classify deterministically.
package classify

import (
	"regexp"
	"time"

	"github.com/ccsweep/ccsweep/internal/session"
)

const (
	tinyFileSize  = 1024
	smallFileSize = 4096
	bigFileSize   = 50 * 1024
)

// Junk titles: trivial command-like utterances that rarely carry a
// conversation worth keeping.
var junkTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|yo|test|testing)[.!?]?$`),
	regexp.MustCompile(`(?i)^(ls|pwd|cd|exit|quit|q|clear|help)[.!?]?$`),
	regexp.MustCompile(`(?i)^(ok|okay|yes|no|thanks|thank you)[.!?]?$`),
	regexp.MustCompile(`(?i)^(what|who|why|how) `),
}

func junkTitle(title string) bool {
	for _, re := range junkTitleRes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// Apply computes the summary's tier and writes the classification fields in
// place. An override of TierNone means no override; otherwise it replaces
// the visible tier while AutoTier keeps the rule engine's verdict for audit.
func Apply(sum *session.Summary, override session.Tier) {
	tier, reasons := evaluate(sum)

	sum.AutoTier = tier
	sum.Tier = tier
	if override != session.TierNone {
		sum.Tier = override
	}
	sum.TierLabel = sum.Tier.Label()
	sum.Reasons = reasons
	sum.Score = sum.Tier.Score()
	sum.Label = session.LegacyLabel(sum.Score)
}

// evaluate tests tiers out of numeric order: 1, then 4, then 2, with 3 as
// the fallback. KEEP is tested right after AUTO_DELETE to bias conservatively
// toward retention.
func evaluate(sum *session.Summary) (session.Tier, []string) {
	if reasons := autoDeleteReasons(sum); len(reasons) > 0 {
		return session.TierAutoDelete, reasons
	}
	if keep(sum) {
		return session.TierKeep, nil
	}
	if reasons := suggestedReasons(sum); len(reasons) > 0 {
		return session.TierSuggested, reasons
	}
	return session.TierReview, reviewReasons(sum)
}

func autoDeleteReasons(sum *session.Summary) []string {
	var reasons []string
	switch sum.Category {
	case session.CategoryEmpty:
		reasons = append(reasons, "empty session")
	case session.CategoryHookOnly:
		reasons = append(reasons, "hook events only")
	case session.CategorySnapshotOnly:
		reasons = append(reasons, "snapshots only")
	}
	if sum.Size < tinyFileSize && sum.UserMessages == 0 {
		reasons = append(reasons, "tiny file without user input")
	}
	if sum.RecordCount <= 2 && sum.UserMessages == 0 {
		reasons = append(reasons, "nearly no records and no user input")
	}
	return reasons
}

func keep(sum *session.Summary) bool {
	e := sum.Enrichment
	if e.TurnCount >= 4 || e.ToolCallTotal >= 3 || e.ThinkingBlocks >= 2 || e.FileCount >= 2 {
		return true
	}
	// fallback signals for fast-scan summaries without deep fields
	if sum.Duration > 5*time.Minute {
		return true
	}
	if sum.UserMessages >= 3 && sum.AssistantMessages >= 3 {
		return true
	}
	if sum.Size > bigFileSize && sum.UserMessages >= 2 {
		return true
	}
	return false
}

func suggestedReasons(sum *session.Summary) []string {
	var reasons []string
	if sum.UserMessages == 1 && sum.AssistantMessages <= 1 && sum.Duration < time.Minute {
		reasons = append(reasons, "single short exchange")
	}
	if junkTitle(sum.Title) {
		reasons = append(reasons, "trivial first message")
	}
	if sum.UserMessages > 0 && sum.AssistantMessages == 0 {
		reasons = append(reasons, "abandoned before a response")
	}
	if sum.Enrichment.ToolCallTotal == 0 && sum.UserMessages <= 2 && sum.Duration < 2*time.Minute {
		reasons = append(reasons, "short session without tool use")
	}
	if sum.Size < smallFileSize && sum.UserMessages+sum.AssistantMessages <= 2 {
		reasons = append(reasons, "small file with little content")
	}
	return reasons
}

// reviewReasons accumulates every matching reason; REVIEW sessions always
// carry at least one explanation.
func reviewReasons(sum *session.Summary) []string {
	var reasons []string
	if sum.UserMessages <= 2 {
		reasons = append(reasons, "few user messages")
	}
	if sum.Duration > 0 && sum.Duration < 2*time.Minute {
		reasons = append(reasons, "short duration")
	}
	if sum.AssistantMessages == 0 {
		reasons = append(reasons, "no assistant response")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "needs manual review")
	}
	return reasons
}

// All classifies every summary in place, honoring per-session tier
// overrides keyed by session id.
func All(sums []*session.Summary, overrides map[string]session.Tier) {
	for _, sum := range sums {
		Apply(sum, overrides[sum.ID])
	}
}

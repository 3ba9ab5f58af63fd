package analyze

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const maxAutoTags = 5

// Ordered rule tables: each rule contributes its tag once per hit, and the
// top tags by frequency win, ties broken by first-seen order.

var extTags = []struct {
	ext string
	tag string
}{
	{".go", "go"},
	{".py", "python"},
	{".ts", "typescript"},
	{".tsx", "typescript"},
	{".js", "javascript"},
	{".jsx", "javascript"},
	{".rs", "rust"},
	{".rb", "ruby"},
	{".java", "java"},
	{".sql", "database"},
	{".sh", "shell"},
	{".md", "docs"},
	{".yaml", "config"},
	{".yml", "config"},
	{".toml", "config"},
	{".json", "config"},
	{".css", "frontend"},
	{".html", "frontend"},
}

var toolTags = []struct {
	tool string
	tag  string
}{
	{"Bash", "shell"},
	{"Edit", "coding"},
	{"Write", "coding"},
	{"NotebookEdit", "coding"},
	{"Read", "exploration"},
	{"Grep", "exploration"},
	{"Glob", "exploration"},
	{"WebSearch", "research"},
	{"WebFetch", "research"},
	{"Task", "subagents"},
}

var keywordTags = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)\b(bug|fix|error|crash|broken|fail)`), "debugging"},
	{regexp.MustCompile(`(?i)\b(test|spec|coverage)`), "testing"},
	{regexp.MustCompile(`(?i)\brefactor`), "refactoring"},
	{regexp.MustCompile(`(?i)\b(deploy|docker|kubernetes|terraform|ci)\b`), "devops"},
	{regexp.MustCompile(`(?i)\b(readme|document|docs)\b`), "docs"},
	{regexp.MustCompile(`(?i)\bgit\b|\bcommit\b|\brebase\b`), "git"},
	{regexp.MustCompile(`(?i)\b(review|explain|understand)\b`), "review"},
}

type tagCounter struct {
	counts map[string]int
	order  []string
}

func newTagCounter() *tagCounter {
	return &tagCounter{counts: make(map[string]int)}
}

func (c *tagCounter) add(tag string, n int) {
	if n <= 0 {
		return
	}
	if _, ok := c.counts[tag]; !ok {
		c.order = append(c.order, tag)
	}
	c.counts[tag] += n
}

func (c *tagCounter) top(n int) []string {
	firstSeen := make(map[string]int, len(c.order))
	for i, t := range c.order {
		firstSeen[t] = i
	}
	tags := append([]string(nil), c.order...)
	sort.SliceStable(tags, func(i, j int) bool {
		if c.counts[tags[i]] != c.counts[tags[j]] {
			return c.counts[tags[i]] > c.counts[tags[j]]
		}
		return firstSeen[tags[i]] < firstSeen[tags[j]]
	})
	if len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

func autoTags(filesTouched []string, toolCalls map[string]int, userText string) []string {
	c := newTagCounter()

	extCounts := make(map[string]int)
	for _, p := range filesTouched {
		extCounts[strings.ToLower(filepath.Ext(p))]++
	}
	for _, r := range extTags {
		c.add(r.tag, extCounts[r.ext])
	}

	for _, r := range toolTags {
		c.add(r.tag, toolCalls[r.tool])
	}

	for _, r := range keywordTags {
		c.add(r.tag, len(r.re.FindAllStringIndex(userText, -1)))
	}

	return c.top(maxAutoTags)
}

// minLangTextLen is the minimum user text length before a non-English guess
// is considered at all.
const minLangTextLen = 20

// minLangHits is how often a language's hint pattern must match, and it must
// beat every other candidate strictly. Otherwise the default stands.
const minLangHits = 3

var langHints = []struct {
	lang string
	re   *regexp.Regexp
}{
	{"es", regexp.MustCompile(`(?i)\b(el|la|los|las|que|por favor|gracias|cómo|está|pero|también)\b`)},
	{"fr", regexp.MustCompile(`(?i)\b(le|la|les|des|est|avec|pour|mais|c'est|merci|s'il)\b`)},
	{"de", regexp.MustCompile(`(?i)\b(der|die|das|und|nicht|ist|mit|für|aber|bitte|danke)\b`)},
	{"pt", regexp.MustCompile(`(?i)\b(o|os|uma|não|está|com|para|mas|também|obrigado)\b`)},
	{"ja", regexp.MustCompile(`[\p{Hiragana}\p{Katakana}]`)},
	{"zh", regexp.MustCompile(`\p{Han}`)},
}

// guessLanguage is a heuristic, not a statistical classifier; false
// negatives toward "en" are expected.
func guessLanguage(userText string) string {
	if len(userText) < minLangTextLen {
		return "en"
	}

	best, bestHits, runnerUp := "", 0, 0
	for _, h := range langHints {
		hits := len(h.re.FindAllStringIndex(userText, -1))
		if hits > bestHits {
			runnerUp = bestHits
			best, bestHits = h.lang, hits
		} else if hits > runnerUp {
			runnerUp = hits
		}
	}

	if bestHits >= minLangHits && bestHits > runnerUp {
		return best
	}
	return "en"
}

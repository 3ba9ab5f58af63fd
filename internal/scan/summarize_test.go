package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ccsweep/ccsweep/internal/record"
)

func writeSession(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func userLine(ts, text string) string {
	return fmt.Sprintf(`{"type":"user","timestamp":"%s","message":{"role":"user","content":%q}}`, ts, text)
}

func assistantLine(ts, text string) string {
	return fmt.Sprintf(`{"type":"assistant","timestamp":"%s","message":{"role":"assistant","model":"claude-sonnet-4","content":[{"type":"text","text":%q}],"usage":{"input_tokens":10,"output_tokens":5,"cache_read_input_tokens":2,"cache_creation_input_tokens":1}}}`, ts, text)
}

func TestSummarizeConversation(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "abc-123.jsonl",
		userLine("2025-06-01T10:00:00Z", "fix the flaky test in scanner"),
		assistantLine("2025-06-01T10:01:30Z", "sure"),
		`not json at all`,
		userLine("2025-06-01T10:02:00Z", "thanks"),
	)

	sum, _, err := Summarize(path, Full)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if sum.ID != "abc-123" {
		t.Fatalf("unexpected id: %q", sum.ID)
	}
	if sum.Category != "conversation" {
		t.Fatalf("unexpected category: %q", sum.Category)
	}
	if sum.UserMessages != 2 || sum.AssistantMessages != 1 {
		t.Fatalf("unexpected counts: %du/%da", sum.UserMessages, sum.AssistantMessages)
	}
	if sum.RecordCount != 3 {
		t.Fatalf("malformed line should not be counted, got %d records", sum.RecordCount)
	}
	if sum.Title != "fix the flaky test in scanner" {
		t.Fatalf("unexpected title: %q", sum.Title)
	}
	if sum.Tokens.Input != 10 || sum.Tokens.Output != 5 {
		t.Fatalf("unexpected tokens: %+v", sum.Tokens)
	}
	if len(sum.Models) != 1 || sum.Models[0] != "claude-sonnet-4" {
		t.Fatalf("unexpected models: %v", sum.Models)
	}
	if sum.Duration.Seconds() != 120 {
		t.Fatalf("unexpected duration: %v", sum.Duration)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "s.jsonl",
		userLine("2025-06-01T10:00:00Z", "hello"),
		assistantLine("2025-06-01T10:00:10Z", "hi"),
	)

	for _, mode := range []Mode{Fast, Full} {
		first, _, err := Summarize(path, mode)
		if err != nil {
			t.Fatalf("first %s scan: %v", mode, err)
		}
		second, _, err := Summarize(path, mode)
		if err != nil {
			t.Fatalf("second %s scan: %v", mode, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s scan not idempotent:\n%+v\n%+v", mode, first, second)
		}
	}
}

func TestSummarizeCategories(t *testing.T) {
	dir := t.TempDir()

	empty := writeSession(t, dir, "empty.jsonl",
		`{"type":"file-history-snapshot","messageId":"a"}`,
	)
	hooks := writeSession(t, dir, "hooks.jsonl",
		`{"type":"progress","timestamp":"2025-06-01T10:00:00Z","hookEventName":"SessionStart"}`,
		`{"type":"progress","timestamp":"2025-06-01T10:00:01Z","hookEventName":"SessionEnd"}`,
	)
	snapshots := writeSession(t, dir, "snap.jsonl",
		`{"type":"progress","timestamp":"2025-06-01T10:00:00Z"}`,
	)

	for _, tc := range []struct {
		path string
		want string
	}{
		{empty, "empty"},
		{hooks, "hook-only"},
		{snapshots, "snapshot-only"},
	} {
		sum, _, err := Summarize(tc.path, Full)
		if err != nil {
			t.Fatalf("Summarize %s: %v", tc.path, err)
		}
		if string(sum.Category) != tc.want {
			t.Fatalf("%s: expected category %q, got %q", filepath.Base(tc.path), tc.want, sum.Category)
		}
	}
}

func TestSummarizeFastReadsHeadAndTail(t *testing.T) {
	dir := t.TempDir()

	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, userLine(fmt.Sprintf("2025-06-01T10:%02d:00Z", i%60), fmt.Sprintf("message %d", i)))
	}
	path := writeSession(t, dir, "big.jsonl", lines...)

	sum, recs, err := Summarize(path, Fast)
	if err != nil {
		t.Fatalf("fast scan: %v", err)
	}
	if len(recs) != fastHeadLines+fastTailLines {
		t.Fatalf("expected %d records in fast mode, got %d", fastHeadLines+fastTailLines, len(recs))
	}
	if sum.Title != "message 0" {
		t.Fatalf("fast scan should still see the first user message, got %q", sum.Title)
	}
	if sum.Category != "conversation" {
		t.Fatalf("unexpected category: %q", sum.Category)
	}

	full, recsFull, err := Summarize(path, Full)
	if err != nil {
		t.Fatalf("full scan: %v", err)
	}
	if len(recsFull) != 100 {
		t.Fatalf("expected 100 records in full mode, got %d", len(recsFull))
	}
	if full.UserMessages != 100 {
		t.Fatalf("expected exact counts in full mode, got %d", full.UserMessages)
	}
}

func TestSummarizeSkipsOversizedLine(t *testing.T) {
	dir := t.TempDir()
	huge := `{"type":"user","message":{"role":"user","content":"` +
		strings.Repeat("x", record.MaxLineSize) + `"}}`
	path := writeSession(t, dir, "s.jsonl",
		userLine("2025-06-01T10:00:00Z", "hello"),
		huge,
		assistantLine("2025-06-01T10:00:05Z", "hi"),
	)

	sum, _, err := Summarize(path, Full)
	if err != nil {
		t.Fatalf("oversized line must not abort the scan: %v", err)
	}
	if sum.UserMessages != 1 || sum.AssistantMessages != 1 {
		t.Fatalf("expected 1u/1a around the oversized line, got %du/%da",
			sum.UserMessages, sum.AssistantMessages)
	}
}

func TestExtractTitle(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"plain request", "plain request"},
		{"<system-reminder>noise</system-reminder>\nreal question", "real question"},
		{"  collapse    inner   spaces  ", "collapse inner spaces"},
		{"<custom-block>" + strings.Repeat("x", 300) + "</custom-block>keep this", "keep this"},
		{"<b>bold</b> stays", "<b>bold</b> stays"},
		{"", ""},
	} {
		if got := ExtractTitle(tc.in); got != tc.want {
			t.Fatalf("ExtractTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractTitleTruncates(t *testing.T) {
	got := ExtractTitle(strings.Repeat("a", 200))
	if len([]rune(got)) != titleMaxLen+1 || !strings.HasSuffix(got, "…") {
		t.Fatalf("expected 80-rune title with ellipsis, got %q (%d runes)", got, len([]rune(got)))
	}
}

func TestFilesSkipsNonSessions(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "keep.jsonl", userLine("2025-06-01T10:00:00Z", "hi"))
	writeSession(t, dir, "sessions-index.jsonl", `{}`)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	sub := filepath.Join(dir, "subagents")
	os.MkdirAll(sub, 0o755)
	writeSession(t, sub, "agent.jsonl", userLine("2025-06-01T10:00:00Z", "nested"))

	files, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0].Path) != "keep.jsonl" {
		t.Fatalf("unexpected enumeration: %+v", files)
	}
}

func TestFilesExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "keep.jsonl", userLine("2025-06-01T10:00:00Z", "hi"))
	writeSession(t, dir, "scratch.jsonl", userLine("2025-06-01T10:00:00Z", "hi"))

	files, err := Files(dir, CompileExcludes([]string{"**/scratch.jsonl"}))
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0].Path) != "keep.jsonl" {
		t.Fatalf("exclude glob not honored: %+v", files)
	}
}

func TestFilesMissingRoot(t *testing.T) {
	files, err := Files(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatalf("missing root should not error, got %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}

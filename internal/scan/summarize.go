package scan

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ccsweep/ccsweep/internal/record"
	"github.com/ccsweep/ccsweep/internal/session"
)

// Mode selects scan fidelity. Fast reads a bounded prefix and suffix of the
// file; Full reads every line and is required before deep analysis and
// before any destructive operation.
type Mode int

const (
	Fast Mode = iota
	Full
)

func (m Mode) String() string {
	if m == Full {
		return "full"
	}
	return "fast"
}

const (
	fastHeadLines = 30
	fastTailLines = 10
	tailChunk     = 256 * 1024

	titleMaxLen      = 80
	largeWrapperSize = 200
)

// Summarize parses one session file into a Summary. The returned records are
// the parsed lines (partial in Fast mode) for an optional deep pass.
// Malformed lines are skipped and never abort the scan.
func Summarize(path string, mode Mode) (*session.Summary, []record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	var lines [][]byte
	if mode == Full {
		lines, err = readAllLines(f)
	} else {
		lines, err = readHeadTail(f, info.Size())
	}
	if err != nil {
		return nil, nil, err
	}

	var recs []record.Record
	for _, line := range lines {
		if rec, ok := record.ParseLine(line); ok {
			recs = append(recs, rec)
		}
	}

	sum := fold(path, info.Size(), recs)
	return sum, recs, nil
}

// readAllLines reads every line, discarding empty lines and lines over
// record.MaxLineSize. Over-long lines count as malformed, not as a scan
// failure.
func readAllLines(f *os.File) ([][]byte, error) {
	reader := bufio.NewReaderSize(f, 64*1024)
	var lines [][]byte
	for {
		line, err := reader.ReadBytes('\n')
		line = bytes.TrimRight(line, "\n")
		if len(line) > 0 && len(line) <= record.MaxLineSize {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
	}
}

// readHeadTail reads the first fastHeadLines lines, and if the file extends
// beyond them, up to fastTailLines complete lines from the end of the file.
func readHeadTail(f *os.File, size int64) ([][]byte, error) {
	var lines [][]byte

	reader := bufio.NewReaderSize(f, 64*1024)
	var consumed int64
	for len(lines) < fastHeadLines {
		line, err := reader.ReadBytes('\n')
		consumed += int64(len(line))
		line = bytes.TrimRight(line, "\n")
		if len(line) > 0 && len(line) <= record.MaxLineSize {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
	}

	if consumed >= size {
		return lines, nil
	}

	tailStart := size - tailChunk
	if tailStart < consumed {
		tailStart = consumed
	}
	if _, err := f.Seek(tailStart, io.SeekStart); err != nil {
		return lines, err
	}
	buf, err := io.ReadAll(f)
	if err != nil {
		return lines, err
	}

	parts := bytes.Split(buf, []byte("\n"))
	if tailStart > consumed && len(parts) > 0 {
		parts = parts[1:] // first segment may be a partial line
	}
	var tail [][]byte
	for _, p := range parts {
		if len(p) > 0 && len(p) <= record.MaxLineSize {
			tail = append(tail, p)
		}
	}
	if len(tail) > fastTailLines {
		tail = tail[len(tail)-fastTailLines:]
	}
	return append(lines, tail...), nil
}

// fold reduces a record sequence into a Summary. It fully replaces derived
// fields: parsing is a pure function of file content, so two scans of
// byte-identical content yield identical summaries.
func fold(path string, size int64, recs []record.Record) *session.Summary {
	sum := &session.Summary{
		ID:      session.IDFromPath(path),
		Path:    path,
		Project: filepath.Base(filepath.Dir(path)),
		Size:    size,
	}

	var firstTS, lastTS time.Time
	var hookCount int
	models := make(map[string]struct{})
	var title string

	for _, rec := range recs {
		sum.RecordCount++

		if ts := rec.Timestamp; !ts.IsZero() {
			if firstTS.IsZero() || ts.Before(firstTS) {
				firstTS = ts
			}
			if ts.After(lastTS) {
				lastTS = ts
			}
		}

		switch rec.Kind {
		case record.KindUser:
			if rec.IsMeta {
				continue
			}
			sum.UserMessages++
			if title == "" {
				title = ExtractTitle(rec.Text())
			}
		case record.KindAssistant:
			if rec.IsMeta {
				continue
			}
			sum.AssistantMessages++
			sum.Tokens.Add(rec.Usage)
			if rec.Model != "" {
				models[rec.Model] = struct{}{}
			}
		case record.KindProgress:
			sum.ProgressRecords++
			if rec.HookEvent != "" {
				hookCount++
			}
		}
	}

	sum.Title = title
	sum.FirstAt = firstTS
	sum.LastAt = lastTS
	if !firstTS.IsZero() && !lastTS.IsZero() {
		sum.Duration = lastTS.Sub(firstTS)
	}

	for m := range models {
		sum.Models = append(sum.Models, m)
	}
	sort.Strings(sum.Models)

	sum.Category = inferCategory(sum, hookCount)
	return sum
}

// inferCategory applies the priority order: empty, conversation, hook-only,
// snapshot-only.
func inferCategory(sum *session.Summary, hookCount int) session.Category {
	switch {
	case sum.UserMessages == 0 && sum.AssistantMessages == 0 && sum.ProgressRecords == 0:
		return session.CategoryEmpty
	case sum.UserMessages > 0 || sum.AssistantMessages > 0:
		return session.CategoryConversation
	case hookCount > 0:
		return session.CategoryHookOnly
	default:
		return session.CategorySnapshotOnly
	}
}

// Wrapper tags the chat tool injects around user text. These and any large
// XML-ish block are stripped before title extraction.
var wrapperTags = map[string]bool{
	"system-reminder":      true,
	"command-name":         true,
	"command-message":      true,
	"command-args":         true,
	"local-command-stdout": true,
	"background-info":      true,
	"env":                  true,
}

var tagBlockRe = regexp.MustCompile(`(?s)<([a-zA-Z][a-zA-Z0-9_-]*)>.*?</([a-zA-Z][a-zA-Z0-9_-]*)>`)

func stripWrappers(s string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		loc := tagBlockRe.FindStringSubmatchIndex(s[i:])
		if loc == nil {
			out.WriteString(s[i:])
			break
		}
		start, end := i+loc[0], i+loc[1]
		open := s[i+loc[2] : i+loc[3]]
		clos := s[i+loc[4] : i+loc[5]]
		out.WriteString(s[i:start])
		if !(open == clos && (wrapperTags[open] || end-start >= largeWrapperSize)) {
			out.WriteString(s[start:end])
		}
		i = end
	}
	return out.String()
}

// ExtractTitle derives a session title from the first user message: wrapper
// blocks stripped, first non-empty line, whitespace collapsed, truncated to
// 80 characters.
func ExtractTitle(text string) string {
	text = stripWrappers(text)
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > titleMaxLen {
			line = string(runes[:titleMaxLen]) + "…"
		}
		return line
	}
	return ""
}

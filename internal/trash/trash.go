// Package trash implements the manifest-journaled soft-delete subsystem.
// The journal is the single source of truth for where a trashed file came
// from; it persists synchronously on every mutating operation because,
// unlike the scan cache, it cannot be reconstructed from source files.
package trash

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccsweep/ccsweep/internal/session"
)

const journalName = "journal.json"

var (
	ErrNotFound    = errors.New("trash item not found")
	ErrAmbiguousID = errors.New("trash id prefix is ambiguous")
)

// Item is one journal entry describing a soft-deleted session.
type Item struct {
	ID           string    `json:"id"`
	OpID         string    `json:"op_id"`
	OriginalPath string    `json:"original_path"` // root-relative; legacy journals hold absolute paths
	TrashPath    string    `json:"trash_path"`
	TrashedAt    time.Time `json:"trashed_at"`
	Reason       string    `json:"reason"`
	Size         int64     `json:"size"`
	Title        string    `json:"title,omitempty"`
	Project      string    `json:"project,omitempty"`
	Tier         int       `json:"tier,omitempty"`
	Score        float64   `json:"score,omitempty"`
	Reasons      []string  `json:"reasons,omitempty"`
}

type journalFile struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

// Journal manages the trash directory and its manifest.
type Journal struct {
	root  string // scan root original paths are stored relative to
	dir   string // physical trash directory
	items []Item
}

// Open loads the journal for the given trash directory. A corrupt journal
// file loads as empty so the cleanup subsystem stays usable; the parse error
// is returned alongside for the consumer to log, and the journal is valid
// either way.
func Open(root, dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trash dir: %w", err)
	}

	j := &Journal{root: root, dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, journalName))
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return j, fmt.Errorf("read trash journal: %w", err)
	}

	var jf journalFile
	if err := json.Unmarshal(data, &jf); err != nil {
		// restore ability for previously trashed items is forfeited here
		return j, fmt.Errorf("parse trash journal: %w", err)
	}
	j.items = jf.Items
	return j, nil
}

// List returns the journal entries, newest first.
func (j *Journal) List() []Item {
	items := append([]Item(nil), j.items...)
	for i, k := 0, len(items)-1; i < k; i, k = i+1, k-1 {
		items[i], items[k] = items[k], items[i]
	}
	return items
}

func (j *Journal) persist() error {
	data, err := json.MarshalIndent(journalFile{Version: 1, Items: j.items}, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(j.dir, journalName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// find matches an exact id first, then a unique prefix.
func (j *Journal) find(id string) (int, error) {
	for i, it := range j.items {
		if it.ID == id {
			return i, nil
		}
	}
	match := -1
	for i, it := range j.items {
		if strings.HasPrefix(it.ID, id) {
			if match >= 0 {
				return -1, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

func (j *Journal) remove(i int) {
	j.items = append(j.items[:i], j.items[i+1:]...)
}

// resolveOriginal turns a stored original path back into an absolute one,
// accepting both legacy absolute values and newer root-relative ones.
func (j *Journal) resolveOriginal(stored string) string {
	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(j.root, stored)
}

// trashTarget picks a destination basename, suffixing on collision so a
// re-trashed id never overwrites an older trashed file.
func (j *Journal) trashTarget(base string) string {
	target := filepath.Join(j.dir, base)
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return target
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(j.dir, fmt.Sprintf("%s.%d%s", stem, time.Now().UnixNano(), ext))
}

// Trash moves the session's backing file (and companion directory, if any)
// into the trash area. The journal entry is persisted before the move; a
// failed move rolls the entry back, so an error means no partial state.
func (j *Journal) Trash(sum *session.Summary, reason string) (*Item, error) {
	if _, err := os.Stat(sum.Path); err != nil {
		return nil, fmt.Errorf("trash %s: %w", sum.ID, err)
	}

	rel, err := filepath.Rel(j.root, sum.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = sum.Path // outside the root: fall back to the absolute path
	}

	item := Item{
		ID:           sum.ID,
		OpID:         uuid.NewString(),
		OriginalPath: rel,
		TrashPath:    j.trashTarget(filepath.Base(sum.Path)),
		TrashedAt:    time.Now().UTC(),
		Reason:       reason,
		Size:         sum.Size,
		Title:        sum.Title,
		Project:      sum.Project,
		Tier:         int(sum.Tier),
		Score:        sum.Score,
		Reasons:      sum.Reasons,
	}

	// journal first: a crash after this point is recoverable by replay
	j.items = append(j.items, item)
	if err := j.persist(); err != nil {
		j.remove(len(j.items) - 1)
		return nil, fmt.Errorf("journal %s: %w", sum.ID, err)
	}

	if err := movePath(sum.Path, item.TrashPath); err != nil {
		j.remove(len(j.items) - 1)
		j.persist()
		return nil, fmt.Errorf("move %s: %w", sum.ID, err)
	}

	if companion := session.CompanionDir(sum.Path); dirExists(companion) {
		if err := movePath(companion, session.CompanionDir(item.TrashPath)); err != nil {
			// undo the file move too so the failed operation leaves nothing
			// half-trashed
			movePath(item.TrashPath, sum.Path)
			j.remove(len(j.items) - 1)
			j.persist()
			return nil, fmt.Errorf("move companion of %s: %w", sum.ID, err)
		}
	}

	return &item, nil
}

// Restore moves a trashed session back to its original location, recreating
// the original directory if needed, and drops the journal entry. The id may
// be exact or a unique prefix.
func (j *Journal) Restore(id string) (string, error) {
	i, err := j.find(id)
	if err != nil {
		return "", err
	}
	item := j.items[i]
	dest := j.resolveOriginal(item.OriginalPath)

	if _, err := os.Stat(item.TrashPath); os.IsNotExist(err) {
		// interrupted trash: the entry was journaled but the move never
		// happened, so the original is already in place
		if _, oerr := os.Stat(dest); oerr == nil {
			j.remove(i)
			return dest, j.persist()
		}
		return "", fmt.Errorf("restore %s: trashed file missing: %w", item.ID, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("restore %s: %w", item.ID, err)
	}
	if err := movePath(item.TrashPath, dest); err != nil {
		return "", fmt.Errorf("restore %s: %w", item.ID, err)
	}

	if companion := session.CompanionDir(item.TrashPath); dirExists(companion) {
		if err := movePath(companion, session.CompanionDir(dest)); err != nil {
			// put the file back in the trash so the entry stays accurate
			movePath(dest, item.TrashPath)
			return "", fmt.Errorf("restore companion of %s: %w", item.ID, err)
		}
	}

	j.remove(i)
	if err := j.persist(); err != nil {
		return "", fmt.Errorf("journal: %w", err)
	}
	return dest, nil
}

// Purge permanently deletes a trashed file and its journal entry. The entry
// must exist; the file already being gone is tolerated.
func (j *Journal) Purge(id string) error {
	i, err := j.find(id)
	if err != nil {
		return err
	}
	item := j.items[i]

	if err := os.Remove(item.TrashPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("purge %s: %w", item.ID, err)
	}
	if companion := session.CompanionDir(item.TrashPath); dirExists(companion) {
		// the entry stays until the companion is gone, so a retry works
		if err := os.RemoveAll(companion); err != nil {
			return fmt.Errorf("purge companion of %s: %w", item.ID, err)
		}
	}

	j.remove(i)
	if err := j.persist(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// EmptyOlderThan purges every item trashed more than the given number of
// days ago and reports how many were removed and how many remain. Zero days
// purges everything.
func (j *Journal) EmptyOlderThan(days int) (removed, remaining int, err error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var keep []Item
	for _, item := range j.items {
		if item.TrashedAt.After(cutoff) && days > 0 {
			keep = append(keep, item)
			continue
		}
		if err := os.Remove(item.TrashPath); err != nil && !os.IsNotExist(err) {
			keep = append(keep, item)
			continue
		}
		if companion := session.CompanionDir(item.TrashPath); dirExists(companion) {
			if err := os.RemoveAll(companion); err != nil {
				keep = append(keep, item)
				continue
			}
		}
		removed++
	}

	j.items = keep
	if err := j.persist(); err != nil {
		return removed, len(keep), fmt.Errorf("journal: %w", err)
	}
	return removed, len(keep), nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// movePath renames src to dst, falling back to copy+remove when the rename
// crosses filesystems.
func movePath(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if err := copyDir(src, dst); err != nil {
			return err
		}
		return os.RemoveAll(src)
	}
	if err := copyFile(src, dst, info.Mode()); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, info.Mode())
	})
}

// Package session stores advisory conversations as JSONL files so the CLI
// can resume them.
//
// File format:
//
//	Line 1:  {"_type":"metadata","key":"…","segment":"…","messages":N,
//	           "created_at":"…","updated_at":"…"}
//	Line 2+: one JSON message object per line
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/crowagent/crowagent/internal/schema"
)

// Manager loads and persists sessions under one directory.
type Manager struct {
	dir string
}

// NewManager creates a Manager rooted at dir, creating it if necessary.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the directory sessions are stored in.
func (m *Manager) Dir() string { return m.dir }

// GetOrCreate loads the session for key, or returns an empty one bound to
// segment. A stored session keeps its own segment.
func (m *Manager) GetOrCreate(key, segment string) (*Session, error) {
	s, err := m.load(key)
	if errors.Is(err, os.ErrNotExist) {
		now := time.Now()
		return &Session{Key: key, Segment: segment, Messages: schema.NewMessages(), CreatedAt: now, UpdatedAt: now}, nil
	}
	return s, err
}

// Save writes the whole session, replacing the file.
func (m *Manager) Save(s *Session) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	s.UpdatedAt = time.Now()
	meta := metadataLine{
		Type:      metadataType,
		Key:       s.Key,
		Segment:   s.Segment,
		Messages:  s.Messages.Len(),
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	for _, msg := range s.Messages.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}

	path := m.sessionPath(s.Key)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	return nil
}

// Delete removes the stored session for key. Missing sessions are not an
// error.
func (m *Manager) Delete(key string) error {
	err := os.Remove(m.sessionPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ListSessions returns the metadata of every stored session, newest first.
func (m *Manager) ListSessions() []Summary {
	entries, _ := filepath.Glob(filepath.Join(m.dir, "*.jsonl"))
	var out []Summary

	for _, path := range entries {
		meta, err := readMetadata(path)
		if err != nil {
			slog.Warn("Skipping unreadable session", "path", path, "err", err)
			continue
		}
		out = append(out, Summary{
			Key:       meta.Key,
			Segment:   meta.Segment,
			Messages:  meta.Messages,
			CreatedAt: meta.CreatedAt,
			UpdatedAt: meta.UpdatedAt,
			Path:      path,
		})
	}

	// RFC 3339 timestamps sort lexicographically.
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

func readMetadata(path string) (metadataLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return metadataLine{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	if !scanner.Scan() {
		return metadataLine{}, fmt.Errorf("empty session file")
	}
	var meta metadataLine
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return metadataLine{}, err
	}
	if meta.Type != metadataType {
		return metadataLine{}, fmt.Errorf("missing metadata line")
	}
	return meta, nil
}

// sessionPath converts a session key to its JSONL file path.
func (m *Manager) sessionPath(key string) string {
	return filepath.Join(m.dir, safeFilename(key)+".jsonl")
}

// safeFilename replaces filesystem-unsafe characters with underscores.
func safeFilename(name string) string {
	const unsafe = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if strings.ContainsRune(unsafe, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// load reads one session. Malformed message lines are skipped.
func (m *Manager) load(key string) (*Session, error) {
	f, err := os.Open(m.sessionPath(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Session{Key: key, Messages: schema.NewMessages()}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20) // 1 MB per line
	first := true
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var meta metadataLine
			if json.Unmarshal(line, &meta) == nil && meta.Type == metadataType {
				s.Segment = meta.Segment
				s.CreatedAt, _ = time.Parse(time.RFC3339, meta.CreatedAt)
				s.UpdatedAt, _ = time.Parse(time.RFC3339, meta.UpdatedAt)
				continue
			}
		}

		var msg schema.Message
		if err := json.Unmarshal(line, &msg); err != nil || msg.Role == "" {
			slog.Warn("Skipping malformed session line", "key", key, "err", err)
			continue
		}
		s.Messages.Messages = append(s.Messages.Messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session %s: %w", key, err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	return s, nil
}

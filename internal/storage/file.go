package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"coopsched/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.firings.jsonl (append-only JSON Lines)
//
// With a retention bound the file is periodically rewritten to its newest
// records.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	path   string
	file   *os.File
	retain int

	writes       int
	compactEvery int
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	journalPath := filepath.Join(dir, base) + ".firings.jsonl"

	f, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	s := &fileStore{
		log:          log,
		path:         journalPath,
		file:         f,
		retain:       cfg.Retain,
		compactEvery: 1000,
	}
	if s.retain > 0 && s.retain < s.compactEvery {
		s.compactEvery = s.retain
	}
	return s, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileStore) AppendFiring(ctx context.Context, f Firing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.At.IsZero() {
		f.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("journal file closed")
	}
	if err := json.NewEncoder(s.file).Encode(f); err != nil {
		return err
	}
	s.writes++
	if s.retain > 0 && s.writes%s.compactEvery == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("journal compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) Recent(ctx context.Context, n int) ([]Firing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readTail(s.path, n)
}

// compactLocked rewrites the journal to its newest s.retain records.
func (s *fileStore) compactLocked() error {
	keep, err := readTail(s.path, s.retain)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range keep {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}

	nf, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_ = s.file.Close()
	s.file = nf
	return nil
}

// readTail returns the last n decodable records of a JSON Lines file, oldest first.
func readTail(path string, n int) ([]Firing, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	ring := make([]Firing, 0, min(n, 1024))
	head := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Firing
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		if len(ring) < n {
			ring = append(ring, r)
			continue
		}
		ring[head] = r
		head = (head + 1) % n
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	out := make([]Firing, 0, len(ring))
	out = append(out, ring[head:]...)
	out = append(out, ring[:head]...)
	return out, nil
}

// Package jsonfile persists the game state as two flat JSON documents: one
// mapping player IDs to character records and one holding the world-boss
// record. The whole state lives in memory; every mutation schedules an
// asynchronous full rewrite through a single writer goroutine, so concurrent
// commands never race on the files and a crash loses at most the latest
// coalesced batch.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

// Store implements storage.Store on top of two JSON files.
type Store struct {
	charsPath       string
	bossPath        string
	defaultLocation string
	log             *zap.Logger

	mu    sync.RWMutex
	chars map[string]*character.Character
	boss  *boss.Boss

	saveCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

var _ storage.Store = (*Store)(nil)

// Open loads both documents (missing files start empty), repairs loaded
// records, and starts the writer goroutine.
//
// Precondition: charsPath and bossPath must be writable paths;
// defaultLocation must be a valid location ID.
// Postcondition: Returns a ready Store or a non-nil error; on success the
// caller must Close to flush pending writes.
func Open(charsPath, bossPath, defaultLocation string, log *zap.Logger) (*Store, error) {
	s := &Store{
		charsPath:       charsPath,
		bossPath:        bossPath,
		defaultLocation: defaultLocation,
		log:             log,
		chars:           make(map[string]*character.Character),
		saveCh:          make(chan struct{}, 1),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}

	if err := readJSON(charsPath, &s.chars); err != nil {
		return nil, fmt.Errorf("loading character table: %w", err)
	}
	for id, c := range s.chars {
		if c == nil {
			delete(s.chars, id)
			continue
		}
		if c.ID == "" {
			c.ID = id
		}
		c.Normalize(defaultLocation)
	}

	var b boss.Boss
	switch err := readJSON(bossPath, &b); {
	case err != nil:
		return nil, fmt.Errorf("loading boss record: %w", err)
	case b.ID != "":
		b.Normalize()
		s.boss = &b
	}

	go s.writeLoop()
	return s, nil
}

// readJSON decodes path into out; a missing file is not an error.
func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Close stops the writer after a final flush.
//
// Postcondition: All accepted mutations are on disk unless the final write
// itself failed (logged).
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return nil
}

func (s *Store) writeLoop() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			s.flush()
			return
		case <-s.saveCh:
			s.flush()
		}
	}
}

// scheduleSave nudges the writer; a pending nudge coalesces with this one.
func (s *Store) scheduleSave() {
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

func (s *Store) flush() {
	s.mu.RLock()
	charsData, charsErr := json.MarshalIndent(s.chars, "", "  ")
	var bossData []byte
	var bossErr error
	if s.boss != nil {
		bossData, bossErr = json.MarshalIndent(s.boss, "", "  ")
	}
	s.mu.RUnlock()

	if charsErr != nil {
		s.log.Error("marshaling character table", zap.Error(charsErr))
	} else if err := writeAtomic(s.charsPath, charsData); err != nil {
		s.log.Error("writing character table", zap.String("path", s.charsPath), zap.Error(err))
	}

	if bossErr != nil {
		s.log.Error("marshaling boss record", zap.Error(bossErr))
	} else if bossData != nil {
		if err := writeAtomic(s.bossPath, bossData); err != nil {
			s.log.Error("writing boss record", zap.String("path", s.bossPath), zap.Error(err))
		}
	}
}

// writeAtomic writes data to a sibling temp file and renames it over path,
// so readers never observe a partial document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Create inserts a new character record.
func (s *Store) Create(_ context.Context, c *character.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.chars[c.ID]; taken {
		return storage.ErrExists
	}
	s.chars[c.ID] = c.Clone()
	s.scheduleSave()
	return nil
}

// Get returns a deep copy of the record for id.
func (s *Store) Get(_ context.Context, id string) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chars[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c.Clone(), nil
}

// Put upserts the record.
func (s *Store) Put(_ context.Context, c *character.Character) error {
	s.mu.Lock()
	s.chars[c.ID] = c.Clone()
	s.mu.Unlock()
	s.scheduleSave()
	return nil
}

// Delete removes the record for id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chars[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.chars, id)
	s.scheduleSave()
	return nil
}

// List returns deep copies of every record.
func (s *Store) List(_ context.Context) ([]*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*character.Character, 0, len(s.chars))
	for _, c := range s.chars {
		out = append(out, c.Clone())
	}
	return out, nil
}

// GetBoss returns a deep copy of the current encounter record.
func (s *Store) GetBoss(_ context.Context) (*boss.Boss, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.boss == nil {
		return nil, storage.ErrNotFound
	}
	return s.boss.Clone(), nil
}

// PutBoss upserts the encounter record.
func (s *Store) PutBoss(_ context.Context, b *boss.Boss) error {
	s.mu.Lock()
	s.boss = b.Clone()
	s.mu.Unlock()
	s.scheduleSave()
	return nil
}

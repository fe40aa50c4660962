package optout

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store holds the set of authors who opted out of tracking, persisted as a
// JSON array of author IDs. Mutations hold the lock across the whole
// read-modify-persist sequence.
type Store struct {
	mu   sync.Mutex
	path string
	ids  map[int64]struct{}
}

// Load reads the opt-out file. A missing file is not an error: tracking
// starts with an empty set.
func Load(path string) (*Store, error) {
	s := &Store{
		path: path,
		ids:  make(map[int64]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read opt-out file: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode opt-out file: %w", err)
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s, nil
}

// Contains reports whether the author has opted out.
func (s *Store) Contains(authorID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[authorID]
	return ok
}

// OptOut adds the author to the set and persists it. Returns false if the
// author was already opted out; the file is untouched in that case.
func (s *Store) OptOut(authorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[authorID]; ok {
		return false, nil
	}
	s.ids[authorID] = struct{}{}
	if err := s.save(); err != nil {
		delete(s.ids, authorID)
		return false, err
	}
	return true, nil
}

// OptIn removes the author from the set and persists it. Returns false if the
// author was not opted out.
func (s *Store) OptIn(authorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[authorID]; !ok {
		return false, nil
	}
	delete(s.ids, authorID)
	if err := s.save(); err != nil {
		s.ids[authorID] = struct{}{}
		return false, err
	}
	return true, nil
}

// save writes the set as a JSON array. Caller holds the lock.
func (s *Store) save() error {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode opt-out list: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write opt-out file: %w", err)
	}
	return nil
}

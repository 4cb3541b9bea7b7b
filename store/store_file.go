package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// FileStore persists state as a JSON object in a single file, created with
// 0600 permissions since it holds bearer credentials.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	log    zerolog.Logger
}

// NewFileStore loads existing state from path. A missing file is a fresh
// store; an unreadable or corrupt file is logged and treated as empty so
// callers always get a usable store back.
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	fs := &FileStore{
		path:   path,
		values: make(map[string]string),
		log:    log,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed reading state file, starting empty")
		}
		return fs
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("corrupt state file, starting empty")
		fs.values = make(map[string]string)
	}
	return fs
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persist()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.persist()
}

// persist writes through a temp file and rename so a crash mid-write never
// leaves a truncated state file. Caller holds the lock.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileStore.persist] marshal state")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "[FileStore.persist] create state dir")
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.persist] write temp file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "[FileStore.persist] rename temp file")
	}
	return nil
}

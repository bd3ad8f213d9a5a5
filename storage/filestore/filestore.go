// Package filestore persists client state as a single JSON object on disk.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/storage"
)

var _ storage.Storage = (*FileStore)(nil)

// FileStore keeps every key in one JSON file. Each write replaces the file
// atomically (temp file + rename) so a crash never leaves half a document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// New returns a FileStore backed by path. The file and its directory are
// created on first write.
func New(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future write
		if !errors.Is(err, hrerrors.ErrStorageCorrupt) {
			return err
		}
		data = map[string]string{}
	}
	data[key] = value
	return fs.save(data)
}

func (fs *FileStore) Remove(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		if !errors.Is(err, hrerrors.ErrStorageCorrupt) {
			return err
		}
		data = map[string]string{}
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return fs.save(data)
}

func (fs *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStore load] read %s: %w", fs.path, err)
	}
	if len(b) == 0 {
		return map[string]string{}, nil
	}

	data := map[string]string{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, hrerrors.Join(hrerrors.ErrStorageCorrupt, err)
	}
	return data, nil
}

func (fs *FileStore) save(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileStore save] encode: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileStore save] mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("[FileStore save] temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore save] write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore save] close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("[FileStore save] chmod: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("[FileStore save] rename: %w", err)
	}
	return nil
}

package kv

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

const fileExt = ".json"

// record is the on-disk form of a single key.
type record struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// FileStore keeps one JSON file per key in a directory. File names are the xxhash of the key.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "dir", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the files of keys. Missing files are skipped.
func (s *FileStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := s.read(s.filename(k))
		if err != nil {
			return nil, zerr.With(err, "key", k)
		}
		if rec == nil || rec.Key != k {
			continue
		}
		out[k] = rec.Value
	}
	return out, nil
}

// Set writes one file per entry. Each file is replaced atomically.
func (s *FileStore) Set(ctx context.Context, values map[string][]byte) error {
	for k, v := range values {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.write(k, v); err != nil {
			return zerr.With(err, "key", k)
		}
	}
	return nil
}

// Remove deletes the files of keys. A file holding another key is left alone.
func (s *FileStore) Remove(_ context.Context, keys []string) error {
	for _, k := range keys {
		name := s.filename(k)
		rec, err := s.read(name)
		if err != nil {
			return zerr.With(err, "key", k)
		}
		if rec == nil || rec.Key != k {
			continue
		}
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "key", k)
		}
	}
	return nil
}

// Keys scans the directory and returns the sorted keys starting with prefix.
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, zerr.With(err, "file", e.Name())
		}
		if rec != nil && strings.HasPrefix(rec.Key, prefix) {
			keys = append(keys, rec.Key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(filename string) (*record, error) {
	//nolint:gosec // Path is constructed from the store directory and a hashed key
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
	}
	return &rec, nil
}

func (s *FileStore) write(key string, value []byte) error {
	data, err := json.Marshal(record{Key: key, Value: value})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	filename := s.filename(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(filename)+".*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Chmod(tmp.Name(), domain.PrivateFilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

func (s *FileStore) filename(key string) string {
	return filepath.Join(s.dir, strconv.FormatUint(xxhash.Sum64String(key), 16)+fileExt)
}

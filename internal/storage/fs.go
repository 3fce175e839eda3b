package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// FSStore keeps blobs as files under a base directory.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) path(key string) (string, string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(s.base, filepath.FromSlash(k)), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	k, dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	// write to a temp file first so readers never see half a blob
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return k, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	_, p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) Delete(key string) error {
	_, p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

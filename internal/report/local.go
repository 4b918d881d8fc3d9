package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultLocalPath = "reports"

// LocalFileStore stores reports as files on the local filesystem.
type LocalFileStore struct {
	basePath string
}

// NewLocalFileStore creates a LocalFileStore at basePath, creating the
// directory if needed. An empty path means "./reports".
func NewLocalFileStore(basePath string) (*LocalFileStore, error) {
	if basePath == "" {
		basePath = defaultLocalPath
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("report: create base directory: %w", err)
	}
	return &LocalFileStore{basePath: basePath}, nil
}

func (s *LocalFileStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("report: invalid name %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}

// Put writes a report using a temp file and rename so readers never see a
// partial file.
func (s *LocalFileStore) Put(_ context.Context, name string, data []byte) error {
	finalPath, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("report: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: rename temp file: %w", err)
	}
	return nil
}

// Get reads a report. Returns ErrNotFound if it does not exist.
func (s *LocalFileStore) Get(_ context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("report: read file: %w", err)
	}
	return data, nil
}

// Delete removes a report. Deleting a missing report is not an error.
func (s *LocalFileStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("report: remove file: %w", err)
	}
	return nil
}

package lstore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/rfs/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
	"io/fs"
	"path/filepath"
)

var Logger = logger.GetLogger("store")

const filePerm = 0o644

type storeImpl struct {
	fs  afero.Fs
	dir string
}

// NewLocalStore creates a new store for the files in dir.
// The directory is created if it does not exist.
// Use afero.NewOsFs() for the real filesystem and afero.NewMemMapFs() in tests.
func NewLocalStore(fsys afero.Fs, dir string) (store.IFileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &storeImpl{
		fs:  fsys,
		dir: dir,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("failed to list files: %v", err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *storeImpl) Read(name string) ([]byte, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(s.fs, s.path(name))
	if err != nil {
		return nil, s.wrapError(name, err)
	}
	return content, nil
}

func (s *storeImpl) Write(name string, content []byte) error {
	if err := s.checkName(name); err != nil {
		return err
	}

	if err := afero.WriteFile(s.fs, s.path(name), content, filePerm); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to write %s: %v", name, err))
	}
	Logger.Debugf("wrote %s (%d bytes)", name, len(content))
	return nil
}

func (s *storeImpl) Delete(name string) error {
	if err := s.checkName(name); err != nil {
		return err
	}

	info, err := s.fs.Stat(s.path(name))
	if err != nil {
		return s.wrapError(name, err)
	}
	if !info.Mode().IsRegular() {
		return store.NewError(store.RetCInvalidArgument, fmt.Sprintf("not a regular file: %s", name))
	}

	if err := s.fs.Remove(s.path(name)); err != nil {
		return s.wrapError(name, err)
	}
	Logger.Debugf("deleted %s", name)
	return nil
}

func (s *storeImpl) Exists(name string) (bool, error) {
	if err := s.checkName(name); err != nil {
		return false, err
	}

	info, err := s.fs.Stat(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, s.wrapError(name, err)
	}
	return info.Mode().IsRegular(), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// path joins the data directory and the file name. The name is not confined
// to the data directory.
func (s *storeImpl) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *storeImpl) checkName(name string) error {
	if name == "" {
		return store.NewError(store.RetCInvalidArgument, "empty file name")
	}
	return nil
}

// wrapError converts filesystem errors into store errors
func (s *storeImpl) wrapError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return store.NewError(store.RetCNotFound, fmt.Sprintf("file not found: %s", name))
	}
	return store.NewError(store.RetCInternalError, fmt.Sprintf("%s: %v", name, err))
}

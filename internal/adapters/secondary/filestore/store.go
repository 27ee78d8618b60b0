package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

const tempPrefix = ".tmp-"

// Store is a ports.ContentStore rooted at a directory on the local disk
type Store struct {
	root string
}

// New creates a store rooted at root, creating the directory if needed
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving content root %s: %w", root, err)
	}

	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("creating content root %s: %w", abs, err)
	}

	return &Store{root: abs}, nil
}

// Root returns the absolute content root
func (s *Store) Root() string {
	return s.root
}

// resolve maps a slash path relative to the root onto the disk. Any ".."
// segment is rejected outright.
func (s *Store) resolve(p string) (string, error) {
	if strings.ContainsAny(p, "\\\x00") {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", entities.ErrInvalidPath, p)
		}
	}

	clean := path.Clean("/" + p)
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *Store) entry(full string, info fs.FileInfo) ports.Entry {
	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		rel = info.Name()
	}
	return ports.Entry{
		Name:    info.Name(),
		Path:    filepath.ToSlash(rel),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

func wrapNotExist(err error, p string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", entities.ErrNotFound, p)
	}
	return err
}

// Read returns the whole file
func (s *Store) Read(p string) ([]byte, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full) // #nosec G304 - resolved inside the content root
	if err != nil {
		return nil, wrapNotExist(err, p)
	}
	return data, nil
}

// Write replaces the file atomically through a temp file and rename
func (s *Store) Write(p string, data []byte) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", p, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", p, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", p, err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("replacing %s: %w", p, err)
	}
	return nil
}

// List returns the direct children of dir sorted by name
func (s *Store) List(dir string) ([]ports.Entry, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}

	items, err := os.ReadDir(full)
	if err != nil {
		return nil, wrapNotExist(err, dir)
	}

	entries := make([]ports.Entry, 0, len(items))
	for _, item := range items {
		if strings.HasPrefix(item.Name(), tempPrefix) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue // removed while listing
		}
		entries = append(entries, s.entry(filepath.Join(full, item.Name()), info))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Exists reports whether path names a file or directory
func (s *Store) Exists(p string) bool {
	full, err := s.resolve(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Stat describes a single path
func (s *Store) Stat(p string) (ports.Entry, error) {
	full, err := s.resolve(p)
	if err != nil {
		return ports.Entry{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return ports.Entry{}, wrapNotExist(err, p)
	}
	return s.entry(full, info), nil
}

// Remove deletes a file or an empty directory
func (s *Store) Remove(p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if full == s.root {
		return fmt.Errorf("%w: cannot remove content root", entities.ErrInvalidPath)
	}

	if err := os.Remove(full); err != nil {
		return wrapNotExist(err, p)
	}
	return nil
}

// RemoveAll deletes path and everything below it
func (s *Store) RemoveAll(p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if full == s.root {
		return fmt.Errorf("%w: cannot remove content root", entities.ErrInvalidPath)
	}

	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	return nil
}

// MkdirAll creates dir and any missing parents
func (s *Store) MkdirAll(dir string) error {
	full, err := s.resolve(dir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(full, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// Walk calls fn for every regular file below dir in lexical order
func (s *Store) Walk(dir string, fn func(ports.Entry) error) error {
	full, err := s.resolve(dir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(full); err != nil {
		return wrapNotExist(err, dir)
	}

	return filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(s.entry(p, info))
	})
}

// Open streams a regular file
func (s *Store) Open(p string) (io.ReadSeekCloser, ports.Entry, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, ports.Entry{}, err
	}

	f, err := os.Open(full) // #nosec G304 - resolved inside the content root
	if err != nil {
		return nil, ports.Entry{}, wrapNotExist(err, p)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ports.Entry{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ports.Entry{}, fmt.Errorf("%w: %s is a directory", entities.ErrNotFound, p)
	}

	return f, s.entry(full, info), nil
}

// CreateUnique writes data to dir/name, or to dir/<stem>_<N><ext> for the
// first free N, and returns the name used
func (s *Store) CreateUnique(dir, name string, data []byte) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidPath, name)
	}

	fullDir, err := s.resolve(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(fullDir, 0750); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}

	candidate := name
	for counter := 1; ; counter++ {
		full, err := s.resolve(path.Join(dir, candidate))
		if err != nil {
			return "", err
		}

		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // #nosec G304 - resolved inside the content root
		if errors.Is(err, fs.ErrExist) {
			candidate = stem + "_" + strconv.Itoa(counter) + ext
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", candidate, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(full)
			return "", fmt.Errorf("writing %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(full)
			return "", fmt.Errorf("closing %s: %w", candidate, err)
		}
		return candidate, nil
	}
}

var _ ports.ContentStore = (*Store)(nil)

// Package fsutil provides the filesystem primitives the index stores are
// built on: atomic whole-file replacement, append-only writes and
// memory-mapped reads.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// AtomicFile writes a file via a temp file and rename so readers never
// observe a torn write.
type AtomicFile struct {
	path     string
	tempPath string
	file     *os.File
}

// NewAtomicFile creates an atomic writer for path, creating parent
// directories as needed.
func NewAtomicFile(path string) (*AtomicFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	tempPath := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{path: path, tempPath: tempPath, file: file}, nil
}

// Write writes data to the temporary file.
func (af *AtomicFile) Write(p []byte) (int, error) {
	if af.file == nil {
		return 0, fmt.Errorf("file is closed")
	}
	return af.file.Write(p)
}

// Commit syncs and atomically renames the temporary file into place.
func (af *AtomicFile) Commit() error {
	if af.file == nil {
		return fmt.Errorf("file is closed")
	}
	if err := af.file.Sync(); err != nil {
		return fmt.Errorf("sync file: %w", err)
	}
	if err := af.file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	af.file = nil
	if err := os.Rename(af.tempPath, af.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	if err := SyncDir(filepath.Dir(af.path)); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}

// Abort removes the temporary file without committing.
func (af *AtomicFile) Abort() error {
	if af.file != nil {
		af.file.Close()
		af.file = nil
	}
	return os.Remove(af.tempPath)
}

// WriteAtomic replaces the contents of path with data in one atomic step.
func WriteAtomic(path string, data []byte) error {
	af, err := NewAtomicFile(path)
	if err != nil {
		return err
	}
	if _, err := af.Write(data); err != nil {
		af.Abort()
		return err
	}
	return af.Commit()
}

// AppendFile appends data to path with a single write, creating the file
// and parent directories as needed.
func AppendFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SyncDir syncs a directory so renames within it are persisted.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MemoryMap is a read-only memory-mapped file.
type MemoryMap struct {
	data []byte
	file *os.File
}

// MapFile memory-maps a file for reading. Empty files map to an empty
// slice without an mmap call.
func MapFile(path string) (*MemoryMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if stat.Size() == 0 {
		return &MemoryMap{data: []byte{}, file: file}, nil
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()),
		unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &MemoryMap{data: data, file: file}, nil
}

// Data returns the mapped bytes.
func (m *MemoryMap) Data() []byte { return m.data }

// Close unmaps and closes the file.
func (m *MemoryMap) Close() error {
	if len(m.data) > 0 {
		if err := unix.Munmap(m.data); err != nil {
			m.file.Close()
			return err
		}
	}
	return m.file.Close()
}

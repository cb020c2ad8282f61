package store

import (
	"os"
	"path/filepath"
)

// LocalFS writes files below a base directory on the local file system.
type LocalFS struct {
	baseDir string
}

// NewLocalFS creates a new LocalFS. The directory is not created until
// Ensure or WriteFile is called.
func NewLocalFS(baseDir string) *LocalFS {
	return &LocalFS{baseDir}
}

// Path joins name onto the base directory.
func (fs *LocalFS) Path(name string) string {
	return filepath.Join(fs.baseDir, name)
}

// Ensure creates the base directory and any missing parents.
func (fs *LocalFS) Ensure() error {
	return os.MkdirAll(fs.baseDir, 0755)
}

// WriteFile writes data to name, replacing any existing file.
//
// The data goes to a temporary file in the same directory first and is then
// renamed into place, so readers never observe a half written image.
func (fs *LocalFS) WriteFile(name string, data []byte) error {
	if err := fs.Ensure(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fs.baseDir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, fs.Path(name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

package publish

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
)

// imageExts are the file types the publisher will post, compared in lower case.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Source is one directory of the image pool.
type Source struct {
	Dir   string
	Label string
	Kind  fetch.SourceKind
}

// DefaultLabel is the human readable name used in captions for a source kind.
func DefaultLabel(kind fetch.SourceKind) string {
	switch kind {
	case fetch.SourceAPOD:
		return "NASA APOD"
	case fetch.SourceEPIC:
		return "NASA EPIC"
	case fetch.SourceSpaceX:
		return "SpaceX"
	}
	return "space"
}

// Exists reports whether the source directory is present on disk.
func (s Source) Exists() bool {
	info, err := os.Stat(s.Dir)
	return err == nil && info.IsDir()
}

// Images lists the image files directly inside the source directory, sorted by name.
func (s Source) Images() ([]string, error) {
	files, err := doublestar.Glob(os.DirFS(s.Dir), "*.*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var names []string
	for _, name := range files {
		if imageExts[strings.ToLower(path.Ext(name))] {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

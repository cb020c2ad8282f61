// Package history keeps an optional on-disk record of downloads and posts.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
	"github.com/Alextopher/cosmosnaps/internal/publish"
)

var (
	downloadsBucket = []byte("downloads")
	postsBucket     = []byte("posts")
)

// Download is a stored download record.
type Download struct {
	fetch.ImageRecord
	Time time.Time `json:"time"`
}

// Ledger is a bolt backed history of downloads and posts.
//
// bolt locks the file for as long as a Ledger is open, so long running
// processes should record through a File instead.
type Ledger struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the ledger at path for writing.
func Open(path string) (*Ledger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{downloadsBucket, postsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create buckets: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// OpenReadOnly opens an existing ledger for reading. Any number of readers
// may hold it at once.
func OpenReadOnly(path string) (*Ledger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordDownload stores a download, keyed by its local path. Downloading to
// the same path again replaces the previous record.
func (l *Ledger) RecordDownload(rec fetch.ImageRecord) error {
	data, err := json.Marshal(Download{ImageRecord: rec, Time: l.now().UTC()})
	if err != nil {
		return err
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(downloadsBucket).Put([]byte(rec.LocalPath), data)
	})
}

// RecordPost stores a published post. Keys start with the big endian post time
// so Posts can walk them newest first.
func (l *Ledger) RecordPost(post publish.Post) error {
	if post.Time.IsZero() {
		post.Time = l.now()
	}

	data, err := json.Marshal(post)
	if err != nil {
		return err
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(postsBucket).Put(postKey(post.Time), data)
	})
}

// postKey is the post time in nanoseconds followed by a random id, so posts
// made at the same instant do not collide.
func postKey(t time.Time) []byte {
	id := uuid.New()

	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return append(key, id[:]...)
}

// Posts returns up to limit posts, newest first. A limit <= 0 returns all of them.
func (l *Ledger) Posts(limit int) ([]publish.Post, error) {
	var posts []publish.Post

	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(postsBucket)
		if b == nil {
			return nil
		}

		c := b.Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(posts) >= limit {
				break
			}

			var post publish.Post
			if err := json.Unmarshal(v, &post); err != nil {
				return fmt.Errorf("post %x: %w", k, err)
			}
			posts = append(posts, post)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return posts, nil
}

// DownloadCounts returns the number of recorded downloads per source.
func (l *Ledger) DownloadCounts() (map[fetch.SourceKind]int, error) {
	counts := make(map[fetch.SourceKind]int)

	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(downloadsBucket)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var d Download
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("download %s: %w", k, err)
			}
			counts[d.Kind]++
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return counts, nil
}

// File records into the ledger at a path, holding it open only for the
// duration of each write. Other processes can use the same ledger between
// writes.
type File struct {
	path string
}

// NewFile returns a File for the ledger at path. Nothing is opened yet.
func NewFile(path string) *File {
	return &File{path: path}
}

// RecordDownload opens the ledger, records rec and closes it again.
func (f *File) RecordDownload(rec fetch.ImageRecord) error {
	return f.with(func(l *Ledger) error { return l.RecordDownload(rec) })
}

// RecordPost opens the ledger, records post and closes it again.
func (f *File) RecordPost(post publish.Post) error {
	return f.with(func(l *Ledger) error { return l.RecordPost(post) })
}

func (f *File) with(fn func(l *Ledger) error) error {
	l, err := Open(f.path)
	if err != nil {
		return err
	}

	if err := fn(l); err != nil {
		l.Close()
		return err
	}
	return l.Close()
}

// Discard is a ledger that records nothing. It is used when no history
// database is configured.
type Discard struct{}

// RecordDownload does nothing.
func (Discard) RecordDownload(fetch.ImageRecord) error { return nil }

// RecordPost does nothing.
func (Discard) RecordPost(publish.Post) error { return nil }

// Package epic downloads full disc Earth images from NASA's EPIC camera.
package epic

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
)

const (
	// DefaultURL lists the most recent natural color images
	DefaultURL = "https://api.nasa.gov/EPIC/api/natural/images"
	// DefaultArchiveURL is the root of the date partitioned image archive
	DefaultArchiveURL = "https://api.nasa.gov/EPIC/archive/natural"
	// MaxCount is the largest batch accepted by Fetch
	MaxCount = 10
	// Prefix is prepended to every downloaded file name
	Prefix = "nasa_epic"

	dateLayout = "2006-01-02 15:04:05"
)

// Entry is one item of the EPIC metadata listing.
type Entry struct {
	Identifier string `json:"identifier"`
	Caption    string `json:"caption"`
	Image      string `json:"image"`
	Date       string `json:"date"`
}

// Record is an Entry whose capture date has been parsed.
type Record struct {
	CapturedAt time.Time
	Image      string
}

// Parse validates the entry and converts it to a Record.
func (e Entry) Parse() (Record, error) {
	if e.Image == "" {
		return Record{}, fmt.Errorf("%w: epic entry %q has no image", fetch.ErrInvalidInput, e.Identifier)
	}

	t, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return Record{}, fmt.Errorf("%w: epic image %s: bad date %q", fetch.ErrInvalidInput, e.Image, e.Date)
	}

	return Record{CapturedAt: t, Image: e.Image}, nil
}

// ArchiveURL returns where the PNG for the record lives: {base}/YYYY/MM/DD/png/{image}.png
func (r Record) ArchiveURL(base string) string {
	return fmt.Sprintf("%s/%s/png/%s.png", strings.TrimSuffix(base, "/"), r.CapturedAt.Format("2006/01/02"), r.Image)
}

// EPIC is a client for the NASA EPIC API
type EPIC struct {
	key        string
	baseURL    string
	archiveURL string
	client     *fetch.Client
	logger     *slog.Logger
}

// Option configures an EPIC client
type Option func(e *EPIC)

// BaseURL overrides the metadata endpoint
func BaseURL(u string) Option {
	return func(e *EPIC) {
		e.baseURL = u
	}
}

// ArchiveURL overrides the image archive root
func ArchiveURL(u string) Option {
	return func(e *EPIC) {
		e.archiveURL = u
	}
}

// NewClient creates a new EPIC client
func NewClient(key string, client *fetch.Client, logger *slog.Logger, opts ...Option) *EPIC {
	e := &EPIC{
		key:        key,
		baseURL:    DefaultURL,
		archiveURL: DefaultArchiveURL,
		client:     client,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Latest returns the metadata of the most recent images, truncated to count
func (e *EPIC) Latest(ctx context.Context, count int) ([]Entry, error) {
	if err := ValidateCount(count); err != nil {
		return nil, err
	}

	var entries []Entry
	if err := e.client.GetJSON(ctx, e.baseURL, url.Values{"api_key": {e.key}}, &entries); err != nil {
		return nil, fmt.Errorf("epic: %w", err)
	}

	if len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Fetch downloads the count most recent images into saveDir.
//
// An image keeps the position of its entry in the listing as its index, so
// an entry that cannot be parsed or downloaded leaves a gap.
func (e *EPIC) Fetch(ctx context.Context, saveDir string, count int) ([]fetch.Outcome, error) {
	entries, err := e.Latest(ctx, count)
	if err != nil {
		return nil, err
	}

	outcomes := make([]fetch.Outcome, 0, len(entries))
	for i, entry := range entries {
		record := fetch.ImageRecord{Index: i, Kind: fetch.SourceEPIC}

		parsed, err := entry.Parse()
		if err != nil {
			e.logger.Error("skipped entry", "image", entry.Image, "error", err)
			outcomes = append(outcomes, fetch.Outcome{Record: record, Err: err})
			continue
		}

		record.SourceURL = parsed.ArchiveURL(e.archiveURL)
		record.LocalPath, err = e.client.Download(ctx, record.SourceURL, saveDir, i, Prefix, url.Values{"api_key": {e.key}})
		outcomes = append(outcomes, fetch.Outcome{Record: record, Err: err})
	}

	return outcomes, nil
}

// ValidateCount rejects batch sizes above MaxCount
func ValidateCount(count int) error {
	if count < 0 || count > MaxCount {
		return fmt.Errorf("%w: epic count must be between 0 and %d, got %d", fetch.ErrValidation, MaxCount, count)
	}
	return nil
}

// Package apod downloads random Astronomy Pictures of the Day.
package apod

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
)

const (
	// DefaultURL is the NASA APOD endpoint
	DefaultURL = "https://api.nasa.gov/planetary/apod"
	// MaxCount is the largest batch the APOD API will serve in one request
	MaxCount = 100
	// Prefix is prepended to every downloaded file name
	Prefix = "nasa_apod"
)

// APOD is a client for the NASA APOD API
type APOD struct {
	key     string
	baseURL string
	hd      bool
	client  *fetch.Client
	logger  *slog.Logger
}

// Option configures an APOD client
type Option func(a *APOD)

// BaseURL overrides the APOD endpoint
func BaseURL(u string) Option {
	return func(a *APOD) {
		a.baseURL = u
	}
}

// HD makes the client download the high resolution image when one exists
func HD(hd bool) Option {
	return func(a *APOD) {
		a.hd = hd
	}
}

// NewClient creates a new APOD client
func NewClient(key string, client *fetch.Client, logger *slog.Logger, opts ...Option) *APOD {
	a := &APOD{
		key:     key,
		baseURL: DefaultURL,
		client:  client,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Random returns count random APOD entries
func (a *APOD) Random(ctx context.Context, count int) ([]*Response, error) {
	if err := ValidateCount(count); err != nil {
		return nil, err
	}

	query := url.Values{
		"api_key": {a.key},
		"count":   {strconv.Itoa(count)},
		"thumbs":  {"true"},
	}

	var responses []*Response
	if err := a.client.GetJSON(ctx, a.baseURL, query, &responses); err != nil {
		return nil, fmt.Errorf("apod: %w", err)
	}

	return responses, nil
}

// Fetch downloads count random pictures into saveDir.
//
// Entries that are not images are skipped. Images are numbered from zero in
// response order, and the number only advances after a successful download.
// A failed download is reported in its Outcome and does not stop the batch.
func (a *APOD) Fetch(ctx context.Context, saveDir string, count int) ([]fetch.Outcome, error) {
	responses, err := a.Random(ctx, count)
	if err != nil {
		return nil, err
	}

	var outcomes []fetch.Outcome
	index := 0
	for _, entry := range responses {
		if entry == nil || !entry.IsImage() {
			name := "untitled"
			if entry != nil {
				name = entry.Name()
			}
			a.logger.Warn("skipped entry without an image", "title", name)
			continue
		}

		record := fetch.ImageRecord{
			SourceURL: entry.ImageURL(a.hd),
			Index:     index,
			Kind:      fetch.SourceAPOD,
		}

		record.LocalPath, err = a.client.Download(ctx, record.SourceURL, saveDir, index, Prefix, nil)
		outcomes = append(outcomes, fetch.Outcome{Record: record, Err: err})
		if err != nil {
			continue
		}
		index++
	}

	return outcomes, nil
}

// ValidateCount rejects batch sizes the API does not accept
func ValidateCount(count int) error {
	if count < 1 || count > MaxCount {
		return fmt.Errorf("%w: apod count must be between 1 and %d, got %d", fetch.ErrValidation, MaxCount, count)
	}
	return nil
}

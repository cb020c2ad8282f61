// Package spacex downloads launch photos from the SpaceX v4 API.
package spacex

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
)

const (
	// DefaultURL is the launches collection of the SpaceX v4 API
	DefaultURL = "https://api.spacexdata.com/v4/launches"
	// DefaultFallbackLaunchID is a launch known to have a full Flickr gallery
	DefaultFallbackLaunchID = "5eb87d47ffd86e000604b38a"

	latest = "latest"
)

// Launch is the subset of a v4 launch document we care about.
type Launch struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Links struct {
		Patch struct {
			Small string `json:"small"`
			Large string `json:"large"`
		} `json:"patch"`
		Flickr struct {
			Small    []string `json:"small"`
			Original []string `json:"original"`
		} `json:"flickr"`
	} `json:"links"`
}

// ImageURLs returns the Flickr originals of the launch, or if there are
// none, its mission patches (small, then large).
func (l *Launch) ImageURLs() []string {
	var urls []string
	for _, u := range l.Links.Flickr.Original {
		if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > 0 {
		return urls
	}

	if l.Links.Patch.Small != "" {
		urls = append(urls, l.Links.Patch.Small)
	}
	if l.Links.Patch.Large != "" {
		urls = append(urls, l.Links.Patch.Large)
	}
	return urls
}

// Metadata is the set of images resolved for one invocation.
type Metadata struct {
	// LaunchID is the launch the images belong to, empty for the latest launch.
	LaunchID     string
	ImageURLs    []string
	FallbackUsed bool
}

// Prefix names the downloaded files after the launch they came from.
func (m Metadata) Prefix() string {
	if m.LaunchID == "" {
		return "spacex_" + latest
	}
	return "spacex_" + m.LaunchID
}

// SpaceX is a client for the SpaceX launches API
type SpaceX struct {
	baseURL  string
	fallback string
	client   *fetch.Client
	logger   *slog.Logger
}

// Option configures a SpaceX client
type Option func(s *SpaceX)

// BaseURL overrides the launches endpoint
func BaseURL(u string) Option {
	return func(s *SpaceX) {
		s.baseURL = u
	}
}

// Fallback sets the launch used when the requested one has no images.
// An empty id disables the fallback.
func Fallback(id string) Option {
	return func(s *SpaceX) {
		s.fallback = id
	}
}

// NewClient creates a new SpaceX client
func NewClient(client *fetch.Client, logger *slog.Logger, opts ...Option) *SpaceX {
	s := &SpaceX{
		baseURL:  DefaultURL,
		fallback: DefaultFallbackLaunchID,
		client:   client,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Launch fetches a launch by id, or the latest launch if id is empty
func (s *SpaceX) Launch(ctx context.Context, id string) (*Launch, error) {
	if id == "" {
		id = latest
	}

	endpoint := strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(id)

	var launch Launch
	if err := s.client.GetJSON(ctx, endpoint, nil, &launch); err != nil {
		return nil, fmt.Errorf("spacex launch %s: %w", id, err)
	}
	return &launch, nil
}

// Resolve finds the images to download for launchID.
//
// When the launch has neither photos nor patches the fallback launch is tried
// instead. A failure fetching the requested launch is returned; a failure
// fetching the fallback only produces empty Metadata.
func (s *SpaceX) Resolve(ctx context.Context, launchID string) (Metadata, error) {
	launch, err := s.Launch(ctx, launchID)
	if err != nil {
		return Metadata{LaunchID: launchID}, err
	}

	meta := Metadata{LaunchID: launchID, ImageURLs: launch.ImageURLs()}
	if len(meta.ImageURLs) > 0 {
		s.logger.Info("resolved launch images", "launch", meta.Prefix(), "count", len(meta.ImageURLs))
		return meta, nil
	}

	if s.fallback == "" || s.fallback == launchID {
		s.logger.Warn("no photos or patches found", "launch", meta.Prefix())
		return meta, nil
	}

	s.logger.Info("no images for launch, trying fallback", "launch", meta.Prefix(), "fallback", s.fallback)

	meta = Metadata{LaunchID: s.fallback, FallbackUsed: true}
	launch, err = s.Launch(ctx, s.fallback)
	if err != nil {
		s.logger.Error("fallback launch request failed", "fallback", s.fallback, "error", err)
		return meta, nil
	}

	meta.ImageURLs = launch.ImageURLs()
	if len(meta.ImageURLs) == 0 {
		s.logger.Warn("no photos or patches found for the requested or fallback launch", "fallback", s.fallback)
	}
	return meta, nil
}

// Fetch downloads the images of launchID (or the latest launch) into saveDir.
func (s *SpaceX) Fetch(ctx context.Context, saveDir, launchID string) ([]fetch.Outcome, error) {
	meta, err := s.Resolve(ctx, launchID)
	if err != nil {
		return nil, err
	}

	prefix := meta.Prefix()
	outcomes := make([]fetch.Outcome, 0, len(meta.ImageURLs))
	for i, u := range meta.ImageURLs {
		record := fetch.ImageRecord{SourceURL: u, Index: i, Kind: fetch.SourceSpaceX}
		record.LocalPath, err = s.client.Download(ctx, u, saveDir, i, prefix, nil)
		outcomes = append(outcomes, fetch.Outcome{Record: record, Err: err})
	}

	return outcomes, nil
}

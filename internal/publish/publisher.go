// Package publish posts random images from the local pool to a messaging channel.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"
)

// ErrNoContent is returned when there is no image to publish.
var ErrNoContent = errors.New("no content available")

// Photo is an image ready to be sent.
type Photo struct {
	Name string
	Data []byte
}

// Channel is a messaging channel that accepts photos.
type Channel interface {
	SendPhoto(ctx context.Context, channelID string, photo Photo, caption string) error
}

// Post describes a published image.
type Post struct {
	Path    string    `json:"path"`
	Source  string    `json:"source"`
	Caption string    `json:"caption"`
	Time    time.Time `json:"time"`
}

// Recorder stores published posts.
type Recorder interface {
	RecordPost(post Post) error
}

// Publisher picks random images from a set of directories and sends them to a channel.
type Publisher struct {
	channel   Channel
	channelID string
	sources   []Source
	captions  []string
	maxBytes  int
	rand      *rand.Rand
	recorder  Recorder
	logger    *slog.Logger
}

// Option configures a Publisher.
type Option func(p *Publisher)

// Captions replaces the caption templates.
func Captions(templates []string) Option {
	return func(p *Publisher) {
		p.captions = templates
	}
}

// MaxBytes shrinks images larger than n bytes before sending. Zero disables shrinking.
func MaxBytes(n int) Option {
	return func(p *Publisher) {
		p.maxBytes = n
	}
}

// Rand sets the random source, mostly useful for tests.
func Rand(r *rand.Rand) Option {
	return func(p *Publisher) {
		p.rand = r
	}
}

// WithRecorder records every successful post.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) {
		p.recorder = r
	}
}

// New creates a new Publisher.
func New(channel Channel, channelID string, sources []Source, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		channel:   channel,
		channelID: channelID,
		sources:   sources,
		captions:  DefaultCaptions,
		rand:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid()))),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Pick chooses a random existing directory, then a random image inside it.
func (p *Publisher) Pick() (Source, string, error) {
	var existing []Source
	for _, s := range p.sources {
		if s.Exists() {
			existing = append(existing, s)
		}
	}

	if len(existing) == 0 {
		return Source{}, "", fmt.Errorf("%w: none of the image directories exist", ErrNoContent)
	}

	source := existing[p.rand.IntN(len(existing))]
	images, err := source.Images()
	if err != nil {
		return source, "", fmt.Errorf("scan %s: %w", source.Dir, err)
	}
	if len(images) == 0 {
		return source, "", fmt.Errorf("%w: %s has no images", ErrNoContent, source.Dir)
	}

	return source, filepath.Join(source.Dir, images[p.rand.IntN(len(images))]), nil
}

// Caption renders a random caption template for the label.
func (p *Publisher) Caption(label string) string {
	if len(p.captions) == 0 {
		return label
	}
	return renderCaption(p.captions[p.rand.IntN(len(p.captions))], label)
}

// Publish sends one random image with a random caption.
func (p *Publisher) Publish(ctx context.Context) (*Post, error) {
	source, path, err := p.Pick()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	name, data, err := Shrink(filepath.Base(path), data, p.maxBytes)
	if err != nil {
		return nil, err
	}

	label := source.Label
	if label == "" {
		label = DefaultLabel(source.Kind)
	}

	post := &Post{
		Path:    path,
		Source:  label,
		Caption: p.Caption(label),
	}

	if err := p.channel.SendPhoto(ctx, p.channelID, Photo{Name: name, Data: data}, post.Caption); err != nil {
		return nil, fmt.Errorf("send %s: %w", path, err)
	}
	post.Time = time.Now().UTC()

	p.logger.Info("published", "path", path, "source", label)

	if p.recorder != nil {
		if err := p.recorder.RecordPost(*post); err != nil {
			p.logger.Warn("failed to record post", "path", path, "error", err)
		}
	}

	return post, nil
}

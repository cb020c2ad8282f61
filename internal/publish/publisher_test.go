package publish

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
)

type sent struct {
	channelID string
	photo     Photo
	caption   string
}

type fakeChannel struct {
	calls []sent
	err   error
}

func (c *fakeChannel) SendPhoto(_ context.Context, channelID string, photo Photo, caption string) error {
	c.calls = append(c.calls, sent{channelID, photo, caption})
	return c.err
}

type fakeRecorder struct {
	posts []Post
}

func (r *fakeRecorder) RecordPost(post Post) error {
	r.posts = append(r.posts, post)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPublisher(ch Channel, sources []Source, opts ...Option) *Publisher {
	opts = append([]Option{Rand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return New(ch, "@cosmos", sources, testLogger(), opts...)
}

func TestPublishNoSources(t *testing.T) {
	ch := &fakeChannel{}

	_, err := newTestPublisher(ch, nil).Publish(context.Background())
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
	if len(ch.calls) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestPublishMissingDirectories(t *testing.T) {
	ch := &fakeChannel{}
	root := t.TempDir()
	sources := []Source{
		{Dir: filepath.Join(root, "nasa_images"), Kind: fetch.SourceAPOD},
		{Dir: filepath.Join(root, "spacex_images"), Kind: fetch.SourceSpaceX},
	}

	_, err := newTestPublisher(ch, sources).Publish(context.Background())
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestPublishDirectoryWithoutImages(t *testing.T) {
	ch := &fakeChannel{}
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644)
	os.WriteFile(filepath.Join(dir, ".nasa_apod_000.jpg.123.tmp"), []byte("partial"), 0644)
	os.Mkdir(filepath.Join(dir, "folder.jpg"), 0755)

	_, err := newTestPublisher(ch, []Source{{Dir: dir}}).Publish(context.Background())
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestImagesIgnoresExtensionCase(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.Jpg", "b.JPEG", "c.pNg", "d.jpg", "e.gif", "f.JPG.txt", "noext"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Source{Dir: dir}.Images()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a.Jpg", "b.JPEG", "c.pNg", "d.jpg"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestPublishRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "galaxy")
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "nasa_images")
	client := fetch.NewClient(testLogger())
	path, err := client.Download(context.Background(), srv.URL+"/image/2401/galaxy.jpg", dir, 3, "nasa_apod", nil)
	if err != nil {
		t.Fatal(err)
	}

	ch := &fakeChannel{}
	rec := &fakeRecorder{}
	sources := []Source{
		{Dir: filepath.Join(t.TempDir(), "missing"), Kind: fetch.SourceEPIC},
		{Dir: dir, Kind: fetch.SourceAPOD},
	}

	post, err := newTestPublisher(ch, sources, WithRecorder(rec)).Publish(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if post.Path != path || filepath.Base(path) != "nasa_apod_003.jpg" {
		t.Errorf("published %q, want %q", post.Path, path)
	}
	if len(ch.calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(ch.calls))
	}

	call := ch.calls[0]
	if call.channelID != "@cosmos" {
		t.Errorf("channel id = %q", call.channelID)
	}
	if string(call.photo.Data) != "galaxy" || call.photo.Name != "nasa_apod_003.jpg" {
		t.Errorf("unexpected photo %q %q", call.photo.Name, call.photo.Data)
	}
	if !strings.Contains(call.caption, "NASA APOD") {
		t.Errorf("caption %q does not name the source", call.caption)
	}

	if len(rec.posts) != 1 || rec.posts[0].Source != "NASA APOD" || rec.posts[0].Time.IsZero() {
		t.Errorf("unexpected recorded posts %+v", rec.posts)
	}
}

func TestPublishSendFailure(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "spacex_latest_000.png"), []byte("patch"), 0644)

	ch := &fakeChannel{err: errors.New("telegram is down")}
	rec := &fakeRecorder{}

	_, err := newTestPublisher(ch, []Source{{Dir: dir, Label: "SpaceX"}}, WithRecorder(rec)).Publish(context.Background())
	if err == nil || !strings.Contains(err.Error(), "telegram is down") {
		t.Errorf("expected the transport error, got %v", err)
	}
	if len(rec.posts) != 0 {
		t.Error("failed posts must not be recorded")
	}
}

func TestCaption(t *testing.T) {
	p := newTestPublisher(&fakeChannel{}, nil, Captions([]string{"from {source} with love"}))
	if got := p.Caption("NASA EPIC"); got != "from NASA EPIC with love" {
		t.Errorf("Caption = %q", got)
	}

	p = newTestPublisher(&fakeChannel{}, nil)
	for i := 0; i < 20; i++ {
		c := p.Caption("SpaceX")
		if !strings.Contains(c, "SpaceX") || strings.Contains(c, "{source}") {
			t.Fatalf("bad caption %q", c)
		}
	}
}

func noise(w, h int) []byte {
	r := rand.New(rand.NewPCG(3, 4))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256)), 255})
		}
	}

	buf := &bytes.Buffer{}
	png.Encode(buf, img)
	return buf.Bytes()
}

func TestShrink(t *testing.T) {
	data := noise(400, 300)
	limit := len(data) / 20

	name, out, err := Shrink("epic.png", data, limit)
	if err != nil {
		t.Fatal(err)
	}
	if name != "epic.jpg" {
		t.Errorf("name = %q", name)
	}
	if len(out) > limit {
		t.Errorf("shrunk image is %d bytes, limit %d", len(out), limit)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("result is not a jpeg: %v", err)
	}
}

func TestShrinkNoop(t *testing.T) {
	data := []byte("not even an image")

	name, out, err := Shrink("x.png", data, 1024)
	if err != nil || name != "x.png" || !bytes.Equal(out, data) {
		t.Errorf("small images must pass through unchanged")
	}

	if _, _, err := Shrink("x.png", data, 4); err == nil {
		t.Error("expected a decode error for an oversized non-image")
	}
}

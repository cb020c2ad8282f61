package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes:" + r.URL.Path + "?" + r.URL.RawQuery))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadExtension(t *testing.T) {
	srv := imageServer(t)
	c := NewClient(testLogger())

	tests := []struct {
		name   string
		path   string
		prefix string
		index  int
		want   string
	}{
		{"png", "/a/b/photo.png", "nasa_apod", 3, "nasa_apod_003.png"},
		{"jpg", "/photo.jpg", "spacex_latest", 0, "spacex_latest_000.jpg"},
		{"no extension", "/photo", "nasa_epic", 12, "nasa_epic_012.jpg"},
		{"no prefix", "/photo.gif", "", 7, "image_007.gif"},
		{"wide index", "/x.png", "p", 1234, "p_1234.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			got, err := c.Download(context.Background(), srv.URL+tt.path, dir, tt.index, tt.prefix, nil)
			if err != nil {
				t.Fatal(err)
			}

			want := filepath.Join(dir, tt.want)
			if got != want {
				t.Errorf("path = %q, want %q", got, want)
			}

			data, err := os.ReadFile(want)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "bytes:"+tt.path+"?" {
				t.Errorf("unexpected content %q", data)
			}
		})
	}
}

func TestDownloadCreatesDirectoryAndOverwrites(t *testing.T) {
	srv := imageServer(t)
	c := NewClient(testLogger())
	dir := filepath.Join(t.TempDir(), "nested", "images")

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "img_000.png"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := c.Download(context.Background(), srv.URL+"/new.png", dir, 0, "img", nil)
	if err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "bytes:/new.png?" {
		t.Errorf("file was not overwritten: %q", data)
	}

	// No temporary files may be left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 file, got %d", len(entries))
	}
}

func TestDownloadQueryParams(t *testing.T) {
	srv := imageServer(t)
	c := NewClient(testLogger())
	dir := t.TempDir()

	path, err := c.Download(context.Background(), srv.URL+"/earth.png", dir, 1, "nasa_epic", url.Values{"api_key": {"KEY"}})
	if err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "bytes:/earth.png?api_key=KEY" {
		t.Errorf("query not forwarded: %q", data)
	}
}

func TestDownloadInvalidURL(t *testing.T) {
	c := NewClient(testLogger())
	dir := filepath.Join(t.TempDir(), "never")

	for _, u := range []string{"", "not a url", "/relative/path.jpg", "example.com/x.jpg"} {
		_, err := c.Download(context.Background(), u, dir, 0, "x", nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", u, err)
		}
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("destination directory should not be created for invalid input")
	}
}

func TestDownloadRemoteError(t *testing.T) {
	srv := imageServer(t)
	c := NewClient(testLogger())
	dir := t.TempDir()

	_, err := c.Download(context.Background(), srv.URL+"/missing.jpg", dir, 0, "x", nil)

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", remote.StatusCode)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Error("nothing should be written on a failed download")
	}
}

func TestDownloadStorageError(t *testing.T) {
	srv := imageServer(t)
	c := NewClient(testLogger())

	// A regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := c.Download(context.Background(), srv.URL+"/x.jpg", filepath.Join(blocker, "dir"), 0, "x", nil)

	var storage *StorageError
	if !errors.As(err, &storage) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"name":"` + r.URL.Query().Get("name") + `"}`))
		case "/bad":
			w.Write([]byte(`{"name":`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(testLogger(), RateLimit(0, 0))

	var v struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(context.Background(), srv.URL+"/ok", url.Values{"name": {"falcon"}}, &v); err != nil {
		t.Fatal(err)
	}
	if v.Name != "falcon" {
		t.Errorf("name = %q", v.Name)
	}

	var remote *RemoteError
	if err := c.GetJSON(context.Background(), srv.URL+"/bad", nil, &v); !errors.As(err, &remote) {
		t.Errorf("malformed json: expected RemoteError, got %v", err)
	}
	if err := c.GetJSON(context.Background(), srv.URL+"/fail", nil, &v); !errors.As(err, &remote) || remote.StatusCode != 500 {
		t.Errorf("expected RemoteError with status 500, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	u, _ := url.Parse("https://api.nasa.gov/planetary/apod?api_key=SECRET&count=3")
	if got := redact(u); got != "https://api.nasa.gov/planetary/apod?api_key=REDACTED&count=3" {
		t.Errorf("redact = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{{}, {Err: ErrInvalidInput}, {}}
	ok, failed := Summarize(outcomes)
	if ok != 2 || failed != 1 {
		t.Errorf("Summarize = %d, %d", ok, failed)
	}
}

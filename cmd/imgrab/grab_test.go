package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgrab/pkg/auth"
	"imgrab/pkg/config"
	"imgrab/pkg/errors"
	"imgrab/pkg/logger"
	"imgrab/pkg/media/direct"
	"imgrab/pkg/media/imgur"
	"imgrab/pkg/ui"
)

// albumServer serves one album with three items:
//
//	L1.png  named through Content-Disposition
//	L2.jpg  always 404
//	L3.gif  500 on the first request
type albumServer struct {
	*httptest.Server
	albumHits atomic.Int32
	itemHits  atomic.Int32
	l3Hits    atomic.Int32
	pageFails int32
}

func newAlbumServer(t *testing.T, pageFails int32) *albumServer {
	s := &albumServer{pageFails: pageFails}
	mux := http.NewServeMux()

	mux.HandleFunc("/album/AbCdE/images", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Client-ID test-client-id", r.Header.Get("Authorization"))
		if s.albumHits.Add(1) <= s.pageFails {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"data":[{"link":"%[1]s/L1.png"},{"link":"%[1]s/L2.jpg"},{"link":"%[1]s/L3.gif"}],"success":true,"status":200}`, s.URL)
	})
	mux.HandleFunc("/L1.png", func(w http.ResponseWriter, r *http.Request) {
		s.itemHits.Add(1)
		w.Header().Set("Content-Disposition", `attachment; filename="first.png"`)
		fmt.Fprint(w, "first")
	})
	mux.HandleFunc("/L2.jpg", func(w http.ResponseWriter, r *http.Request) {
		s.itemHits.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/L3.gif", func(w http.ResponseWriter, r *http.Request) {
		s.itemHits.Add(1)
		if s.l3Hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "third")
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testConfig(t *testing.T, apiURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Imgur.APIBaseURL = apiURL
	cfg.Imgur.ClientID = "test-client-id"
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxWait = time.Millisecond
	return cfg
}

func testGrabber(t *testing.T, cfg *config.Config) (*grabber, *bytes.Buffer, *logger.TestLogger) {
	var out bytes.Buffer
	g, log := testGrabberTo(t, cfg, &out)
	return g, &out, log
}

func testGrabberTo(t *testing.T, cfg *config.Config, w io.Writer) (*grabber, *logger.TestLogger) {
	log := logger.NewTestLogger()
	g, err := newGrabber(cfg, log, ui.NewPrinter(w, false, true))
	require.NoError(t, err)
	return g, log
}

// cancelOnSave cancels the run as soon as the first saved item is printed
type cancelOnSave struct {
	bytes.Buffer
	cancel context.CancelFunc
}

func (c *cancelOnSave) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("✓ ")) {
		c.cancel()
	}
	return c.Buffer.Write(p)
}

func TestGrabAlbum(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)
	g, out, log := testGrabber(t, cfg)

	err := g.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"})
	require.Error(t, err, "the missing item must fail the run")
	assert.Contains(t, err.Error(), "/L2.jpg")
	assert.True(t, stderrors.As(err, new(*errors.ItemError)))

	dir := filepath.Join(cfg.Output.BaseDirectory, "AbCdE")
	data, err := os.ReadFile(filepath.Join(dir, "first.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "L3.gif"))
	require.NoError(t, err)
	assert.Equal(t, "third", string(data))

	assert.NoFileExists(t, filepath.Join(dir, "L2.jpg"))
	assert.Equal(t, int32(2), srv.l3Hits.Load(), "the server error is retried once")
	assert.Equal(t, int32(4), srv.itemHits.Load(), "404 is not retried")

	assert.Equal(t, 2, g.tracker.Downloaded)
	assert.Equal(t, 1, g.tracker.Failed)
	assert.Contains(t, out.String(), "Done: 2 downloaded (10 B), 0 skipped, 1 failed")
	assert.True(t, log.HasMessage("grab finished"))
}

func TestGrabSkipsExisting(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)

	first, _, _ := testGrabber(t, cfg)
	_ = first.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"})

	second, out, _ := testGrabber(t, cfg)
	_ = second.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"})
	assert.Equal(t, 0, second.tracker.Downloaded)
	assert.Equal(t, 2, second.tracker.Skipped)
	assert.Contains(t, out.String(), "exists ")
}

func TestGrabRetriesPageFailure(t *testing.T) {
	srv := newAlbumServer(t, 1)
	cfg := testConfig(t, srv.URL)
	g, _, _ := testGrabber(t, cfg)

	_ = g.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"})
	assert.Equal(t, int32(2), srv.albumHits.Load(), "the resolution is re-run after a page failure")
	assert.Equal(t, 2, g.tracker.Downloaded)
}

func TestGrabPageFailureExhaustsRetries(t *testing.T) {
	srv := newAlbumServer(t, 100)
	cfg := testConfig(t, srv.URL)
	cfg.Retry.MaxAttempts = 2
	g, _, _ := testGrabber(t, cfg)

	err := g.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"})
	require.Error(t, err)
	assert.Equal(t, int32(2), srv.albumHits.Load())
	assert.Zero(t, srv.itemHits.Load())
}

func TestGrabContinuesAfterUnsupportedLink(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)
	g, _, _ := testGrabber(t, cfg)

	err := g.Run(context.Background(), []string{
		"https://example.com/page.html",
		srv.URL + "/L1.png",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedSource)

	// The direct file link is still downloaded, flat in the output directory
	data, err := os.ReadFile(filepath.Join(cfg.Output.BaseDirectory, "first.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestGrabMissingCredential(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)
	cfg.Imgur.ClientID = ""
	g, _, _ := testGrabber(t, cfg)

	err := g.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"})
	assert.ErrorIs(t, err, errors.ErrMissingCredential)
	assert.Zero(t, srv.albumHits.Load())
}

func TestGrabDryRun(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)
	g, out, _ := testGrabber(t, cfg)
	g.dryRun = true

	require.NoError(t, g.Run(context.Background(), []string{"https://imgur.com/a/AbCdE"}))
	assert.Zero(t, srv.itemHits.Load())
	for _, name := range []string{"L1.png", "L2.jpg", "L3.gif"} {
		assert.Contains(t, out.String(), srv.URL+"/"+name+"\n")
	}

	entries, err := os.ReadDir(cfg.Output.BaseDirectory)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGrabStopsWhenCancelled(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)
	g, _, _ := testGrabber(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Run(ctx, []string{"https://imgur.com/a/AbCdE"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, srv.albumHits.Load())
}

func TestGrabStopsBetweenItems(t *testing.T) {
	srv := newAlbumServer(t, 0)
	cfg := testConfig(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &cancelOnSave{cancel: cancel}
	g, _ := testGrabberTo(t, cfg, out)

	err := g.Run(ctx, []string{"https://imgur.com/a/AbCdE"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, filepath.Join(cfg.Output.BaseDirectory, "AbCdE", "first.png"))
	assert.Equal(t, int32(1), srv.albumHits.Load())
	assert.Equal(t, int32(1), srv.itemHits.Load(), "no item is requested after cancellation")
	assert.Equal(t, 1, g.tracker.Downloaded)
}

func TestSourceFolder(t *testing.T) {
	cfg := config.DefaultConfig()
	registry, err := newRegistry(cfg)
	require.NoError(t, err)

	tests := []struct {
		link string
		want string
	}{
		{"https://imgur.com/a/AbCdE", "AbCdE"},
		{"https://imgur.com/gallery/cats-QwErT", "QwErT"},
		{"https://imgur.com/XyZ12", ""},
		{"https://i.imgur.com/XyZ12.png", ""},
	}
	for _, tt := range tests {
		res, err := registry.Resolve(tt.link)
		require.NoError(t, err)
		assert.Equal(t, tt.want, sourceFolder(cfg, res.Accessor), tt.link)
	}

	cfg.Output.CreateSourceFolders = false
	res, err := registry.Resolve("https://imgur.com/a/AbCdE")
	require.NoError(t, err)
	assert.Empty(t, sourceFolder(cfg, res.Accessor))
}

type fixedSource struct{ id string }

func (f fixedSource) Name() string { return "fixed" }

func (f fixedSource) Lookup() (string, error) {
	if f.id == "" {
		return "", auth.ErrCredentialsNotFound
	}
	return f.id, nil
}

func TestLookupClientID(t *testing.T) {
	log := logger.NewTestLogger()

	cfg := config.DefaultConfig()
	lookupClientID(cfg, auth.NewManagerWithSources(fixedSource{}), log)
	assert.Empty(t, cfg.Imgur.ClientID)

	lookupClientID(cfg, auth.NewManagerWithSources(fixedSource{id: "0123456789abcdef"}), log)
	assert.Equal(t, "0123456789abcdef", cfg.Imgur.ClientID)
	assert.True(t, log.HasMessage("using stored client id"))
	assert.NotContains(t, log.String(), "0123456789abcdef", "the client id is masked in logs")
}

func TestProvidersOrder(t *testing.T) {
	registry, err := newRegistry(config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{imgur.Name, direct.Name}, registry.Names())
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		configForce = false
	})
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	out, err := executeCommand(t, "resolve",
		"https://imgur.com/a/AbCdE",
		"https://imgur.com/gallery/funny-cats-QwErT",
		"https://i.imgur.com/XyZ12.gifv",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `imgur\s+album\s+AbCdE$`, lines[1])
	assert.Regexp(t, `imgur\s+gallery\s+QwErT$`, lines[2])
	assert.Regexp(t, `direct\s+file\s+XyZ12$`, lines[3])
}

func TestResolveCommandUnsupported(t *testing.T) {
	_, err := executeCommand(t, "resolve", "https://example.com/", "not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedSource)
	assert.ErrorIs(t, err, errors.ErrInvalidURL)
}

func TestProvidersCommand(t *testing.T) {
	out, err := executeCommand(t, "providers")
	require.NoError(t, err)
	assert.Equal(t, "1. imgur\n2. direct\n", out)
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgrab", "config.yaml")

	_, err := executeCommand(t, "config", "init", path)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, config.DefaultAPIBaseURL, cfg.Imgur.APIBaseURL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = executeCommand(t, "config", "init", path)
	assert.Error(t, err, "an existing file is not overwritten")

	_, err = executeCommand(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

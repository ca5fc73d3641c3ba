package imgur

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgrab/pkg/errors"
	"imgrab/pkg/logger"
	"imgrab/pkg/media"
	"imgrab/pkg/transport"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// newRoutedClient answers each URL from routes and 404s everything else
func newRoutedClient(t *testing.T, routes map[string]string, requests *[]*http.Request) *transport.Client {
	t.Helper()
	httpClient := &http.Client{Transport: &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		*requests = append(*requests, req)
		body, ok := routes[req.URL.String()]
		status := http.StatusOK
		if !ok {
			status = http.StatusNotFound
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}}}

	base := transport.NewBuilder().WithCredential("test-client").WithHTTPClient(httpClient)
	client, err := New("").ConfigureTransport(base)
	require.NoError(t, err)
	return client
}

// jsonGetter decodes canned bodies and counts requests
type jsonGetter struct {
	bodies map[string]string
	err    error
	calls  int
}

func (g *jsonGetter) Get(u string) (*http.Response, error) {
	return nil, stderrors.New("not used")
}

func (g *jsonGetter) GetJSON(u string, target interface{}) error {
	g.calls++
	if g.err != nil {
		return g.err
	}
	body, ok := g.bodies[u]
	if !ok {
		return &errors.Error{Type: errors.ErrorTypeNotFound, Code: 404, Message: "resource not found"}
	}
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return &errors.Error{Type: errors.ErrorTypeParsing, Message: err.Error(), Err: err}
	}
	return nil
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestProviderAccessor(t *testing.T) {
	p := New("")

	tests := []struct {
		url     string
		ok      bool
		variant string
		id      string
	}{
		{"https://imgur.com/a/AbCdE", true, "album", "AbCdE"},
		{"https://imgur.com/a/AbCdE/", true, "album", "AbCdE"},
		{"https://www.imgur.com/a/my-cat-pics-AbCdE", true, "album", "AbCdE"},
		{"https://imgur.com/gallery/XyZ12", true, "gallery", "XyZ12"},
		{"https://m.imgur.com/gallery/funny-title-XyZ12", true, "gallery", "XyZ12"},
		{"https://imgur.com/QwErT", true, "image", "QwErT"},
		{"https://IMGUR.com/QwErT.jpg", true, "image", "QwErT"},
		{"https://imgur.com/QwErT?tag=x#frag", true, "image", "QwErT"},
		{"https://imgur.com/", false, "", ""},
		{"https://imgur.com", false, "", ""},
		{"https://imgur.com/a/", false, "", ""},
		{"https://imgur.com/gallery/", false, "", ""},
		{"https://imgur.com/.png", false, "", ""},
		{"https://i.imgur.com/QwErT.jpg", false, "", ""},
		{"https://example.com/a/AbCdE", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			a, ok := p.Accessor(mustParse(t, tt.url))
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Nil(t, a)
				return
			}
			assert.Equal(t, tt.variant, media.VariantOf(a))
			assert.Equal(t, tt.id, a.ID())
		})
	}
}

func TestAccessorTypes(t *testing.T) {
	p := New("")

	a, _ := p.Accessor(mustParse(t, "https://imgur.com/a/AbCdE"))
	assert.IsType(t, &AlbumAccessor{}, a)
	a, _ = p.Accessor(mustParse(t, "https://imgur.com/gallery/AbCdE"))
	assert.IsType(t, &GalleryAccessor{}, a)
	a, _ = p.Accessor(mustParse(t, "https://imgur.com/AbCdE"))
	assert.IsType(t, &SingleImageAccessor{}, a)
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "https://api.imgur.com/3/image/AbCdE", GetImageURL("", "AbCdE"))
	assert.Equal(t, "https://api.imgur.com/3/album/AbCdE/images", GetAlbumImagesURL(DefaultBaseURL, "AbCdE"))
	assert.Equal(t, "https://api.imgur.com/3/gallery/album/AbCdE", GetGalleryAlbumURL(DefaultBaseURL, "AbCdE"))
	assert.Equal(t, "http://localhost:8080/v3/image/x", GetImageURL("http://localhost:8080/v3/", "x"))
	assert.Equal(t, "https://api.imgur.com/3/image/a%2Fb", GetImageURL("", "a/b"))

	p := New("http://localhost:8080/v3/")
	assert.Equal(t, "http://localhost:8080/v3", p.BaseURL())
	a, ok := p.Accessor(mustParse(t, "https://imgur.com/a/AbCdE"))
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080/v3/album/AbCdE/images", a.(*AlbumAccessor).endpoint)
}

func TestConfigureTransport(t *testing.T) {
	p := New("")

	t.Run("missing credential", func(t *testing.T) {
		_, err := p.ConfigureTransport(transport.NewBuilder())
		assert.ErrorIs(t, err, errors.ErrMissingCredential)
	})

	t.Run("headers and timeout", func(t *testing.T) {
		base := transport.NewBuilder().WithCredential("abc123").WithTimeout(30 * time.Second)
		client, err := p.ConfigureTransport(base)
		require.NoError(t, err)

		assert.Equal(t, "application/json", client.Header("Accept"))
		assert.Equal(t, "Client-ID abc123", client.Header("Authorization"))
		assert.Equal(t, "imgrab/"+logger.Version, client.Header("User-Agent"))
		assert.Zero(t, client.Timeout())

		_, ok := base.Header("Authorization")
		assert.False(t, ok, "base builder must not be modified")
		assert.Equal(t, 30*time.Second, base.Timeout())
	})

	t.Run("keeps configured user agent", func(t *testing.T) {
		base := transport.NewBuilder().WithCredential("abc123").WithUserAgent("custom/1.0")
		client, err := p.ConfigureTransport(base)
		require.NoError(t, err)
		assert.Equal(t, "custom/1.0", client.Header("User-Agent"))
	})

	t.Run("deterministic", func(t *testing.T) {
		base := transport.NewBuilder().WithCredential("abc123")
		first, err := p.ConfigureTransport(base)
		require.NoError(t, err)
		second, err := p.ConfigureTransport(base)
		require.NoError(t, err)
		for _, h := range []string{"Accept", "Authorization", "User-Agent"} {
			assert.Equal(t, first.Header(h), second.Header(h))
		}
	})
}

func TestNextPage(t *testing.T) {
	getter := &jsonGetter{bodies: map[string]string{
		GetImageURL("", "img"): `{"data":{"id":"img","link":"https://i.imgur.com/img.png"},"success":true,"status":200}`,
		GetAlbumImagesURL("", "alb"): `{"data":[{"link":"https://i.imgur.com/1.png"},{"link":"https://i.imgur.com/2.mp4"}],"success":true,"status":200}`,
		GetGalleryAlbumURL("", "gal"): `{"data":{"id":"gal","images":[{"link":"https://i.imgur.com/g1.gif"},{"link":"https://i.imgur.com/g2.jpg"}]},"success":true,"status":200}`,
		GetAlbumImagesURL("", "empty"): `{"data":[],"success":true,"status":200}`,
	}}

	tests := []struct {
		name     string
		accessor media.Accessor
		want     []string
	}{
		{"single", NewSingleImageAccessor("", "img"), []string{"https://i.imgur.com/img.png"}},
		{"album", NewAlbumAccessor("", "alb"), []string{"https://i.imgur.com/1.png", "https://i.imgur.com/2.mp4"}},
		{"gallery", NewGalleryAccessor("", "gal"), []string{"https://i.imgur.com/g1.gif", "https://i.imgur.com/g2.jpg"}},
		{"empty album", NewAlbumAccessor("", "empty"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := tt.accessor.NextPage(getter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)

			calls := getter.calls
			page, err = tt.accessor.NextPage(getter)
			require.NoError(t, err)
			assert.Empty(t, page, "complete accessors return empty pages")
			assert.Equal(t, calls, getter.calls, "complete accessors make no requests")
		})
	}
}

func TestNextPageExtractionFailures(t *testing.T) {
	tests := []struct {
		name     string
		accessor func() media.Accessor
		body     string
		kind     errors.ExtractionKind
	}{
		{"missing data", func() media.Accessor { return NewAlbumAccessor("", "x") }, `{"success":true,"status":200}`, errors.ExtractionMetadata},
		{"null data", func() media.Accessor { return NewSingleImageAccessor("", "x") }, `{"data":null}`, errors.ExtractionMetadata},
		{"unsuccessful", func() media.Accessor { return NewSingleImageAccessor("", "x") }, `{"data":{"error":"Unable to find an image with the id, x","method":"GET"},"success":false,"status":404}`, errors.ExtractionMetadata},
		{"single without link", func() media.Accessor { return NewSingleImageAccessor("", "x") }, `{"data":{"id":"x"}}`, errors.ExtractionImage},
		{"single link not a string", func() media.Accessor { return NewSingleImageAccessor("", "x") }, `{"data":{"link":42}}`, errors.ExtractionImage},
		{"album item without link", func() media.Accessor { return NewAlbumAccessor("", "x") }, `{"data":[{"link":"https://i.imgur.com/1.png"},{"id":"2"}]}`, errors.ExtractionImage},
		{"album data is an object", func() media.Accessor { return NewAlbumAccessor("", "x") }, `{"data":{"link":"https://i.imgur.com/1.png"}}`, errors.ExtractionImage},
		{"gallery without images", func() media.Accessor { return NewGalleryAccessor("", "x") }, `{"data":{"id":"x"}}`, errors.ExtractionImage},
		{"album data is an empty object", func() media.Accessor { return NewAlbumAccessor("", "x") }, `{"data":{},"success":true}`, errors.ExtractionImage},
		{"album data keyed by id", func() media.Accessor { return NewAlbumAccessor("", "x") }, `{"data":{"b":{"link":"https://i.imgur.com/2.png"},"a":{"link":"https://i.imgur.com/1.png"}}}`, errors.ExtractionImage},
		{"gallery images is an object", func() media.Accessor { return NewGalleryAccessor("", "x") }, `{"data":{"images":{"a":{"link":"https://i.imgur.com/1.png"}}}}`, errors.ExtractionImage},
		{"gallery images is an empty object", func() media.Accessor { return NewGalleryAccessor("", "x") }, `{"data":{"images":{}}}`, errors.ExtractionImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.accessor()
			getter := &jsonGetter{bodies: map[string]string{inner(a).endpoint: tt.body}}

			page, err := a.NextPage(getter)
			assert.Nil(t, page)
			var extErr *errors.ExtractionError
			require.True(t, stderrors.As(err, &extErr), "got %v", err)
			assert.Equal(t, tt.kind, extErr.Kind)
			assert.Equal(t, "x", extErr.Source)
			assert.False(t, errors.IsRetryable(err))
			assert.False(t, inner(a).complete)
		})
	}
}

// inner returns the shared state behind any imgur accessor
func inner(a media.Accessor) *accessor {
	switch v := a.(type) {
	case *SingleImageAccessor:
		return &v.accessor
	case *AlbumAccessor:
		return &v.accessor
	case *GalleryAccessor:
		return &v.accessor
	}
	return nil
}

func TestUnsuccessfulMessage(t *testing.T) {
	a := NewSingleImageAccessor("", "x")
	getter := &jsonGetter{bodies: map[string]string{
		a.endpoint: `{"data":{"error":{"message":"Imgur is over capacity"}},"success":false,"status":500}`,
	}}
	_, err := a.NextPage(getter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "Imgur is over capacity")
}

func TestNextPageTransportFailure(t *testing.T) {
	a := NewAlbumAccessor("", "AbCdE")

	getter := &jsonGetter{err: &errors.RateLimitError{Wait: 7 * time.Second}}
	_, err := a.NextPage(getter)
	var rateErr *errors.RateLimitError
	require.True(t, stderrors.As(err, &rateErr))
	assert.Equal(t, 7*time.Second, rateErr.Wait)
	assert.Equal(t, "AbCdE", rateErr.Source)
	assert.False(t, a.complete, "a failed fetch must not complete the accessor")

	getter = &jsonGetter{bodies: map[string]string{a.endpoint: `{"data":`}}
	_, err = a.NextPage(getter)
	var netErr *errors.Error
	require.True(t, stderrors.As(err, &netErr))
	assert.Equal(t, errors.ErrorTypeParsing, netErr.Type)
	assert.Equal(t, "AbCdE", netErr.Source)

	getter = &jsonGetter{bodies: map[string]string{a.endpoint: `{"data":[{"link":"https://i.imgur.com/1.png"}]}`}}
	page, err := a.NextPage(getter)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.imgur.com/1.png"}, page)
	assert.True(t, a.complete)
}

func TestEndToEndAlbum(t *testing.T) {
	routes := map[string]string{
		"https://api.imgur.com/3/album/AbCdE/images": `{"data":[` +
			`{"link":"https://i.imgur.com/L1.png"},` +
			`{"link":"https://i.imgur.com/L2.jpg"},` +
			`{"link":"https://i.imgur.com/L3.gif"}],"success":true,"status":200}`,
		"https://i.imgur.com/L1.png": "first",
		"https://i.imgur.com/L2.jpg": "second",
		"https://i.imgur.com/L3.gif": "third",
	}
	var requests []*http.Request
	client := newRoutedClient(t, routes, &requests)

	registry, err := media.NewRegistry(New(""))
	require.NoError(t, err)
	res, err := registry.Resolve("https://imgur.com/a/AbCdE")
	require.NoError(t, err)
	assert.Empty(t, requests, "resolving must not touch the network")

	tp := media.NewTaskProvider(res.Accessor, client, logger.NewTestLogger())

	var locations, bodies []string
	for i := 0; i < 3; i++ {
		task, err := tp.Next()
		require.NoError(t, err)
		data, err := io.ReadAll(task)
		require.NoError(t, err)
		require.NoError(t, task.Close())
		locations = append(locations, task.Context().Location)
		bodies = append(bodies, string(data))
	}

	_, err = tp.Next()
	assert.ErrorIs(t, err, media.ErrDone)

	assert.Equal(t, []string{"https://i.imgur.com/L1.png", "https://i.imgur.com/L2.jpg", "https://i.imgur.com/L3.gif"}, locations)
	assert.Equal(t, []string{"first", "second", "third"}, bodies)

	require.Len(t, requests, 4, "one page fetch and three item fetches")
	assert.Equal(t, "https://api.imgur.com/3/album/AbCdE/images", requests[0].URL.String())
	assert.Equal(t, "Client-ID test-client", requests[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", requests[0].Header.Get("Accept"))
}

func TestEndToEndMissingData(t *testing.T) {
	routes := map[string]string{
		"https://api.imgur.com/3/album/AbCdE/images": `{"success":true,"status":200}`,
	}
	var requests []*http.Request
	client := newRoutedClient(t, routes, &requests)

	accessor, ok := New("").Accessor(mustParse(t, "https://imgur.com/a/AbCdE"))
	require.True(t, ok)
	tp := media.NewTaskProvider(accessor, client, nil)

	_, err := tp.Next()
	kind, ok := errors.ExtractionKindOf(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, errors.ExtractionMetadata, kind)

	_, err = tp.Next()
	assert.ErrorIs(t, err, media.ErrDone)
	assert.Len(t, requests, 1)
}

func TestEndToEndItemNotFound(t *testing.T) {
	routes := map[string]string{
		"https://api.imgur.com/3/image/QwErT": `{"data":{"link":"https://i.imgur.com/gone.png"},"success":true,"status":200}`,
	}
	var requests []*http.Request
	client := newRoutedClient(t, routes, &requests)

	accessor, ok := New("").Accessor(mustParse(t, "https://imgur.com/QwErT"))
	require.True(t, ok)
	tp := media.NewTaskProvider(accessor, client, nil)

	_, err := tp.Next()
	var itemErr *errors.ItemError
	require.True(t, stderrors.As(err, &itemErr))
	assert.Equal(t, "https://i.imgur.com/gone.png", itemErr.Location)

	_, err = tp.Next()
	assert.ErrorIs(t, err, media.ErrDone)
}

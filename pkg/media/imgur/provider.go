package imgur

import (
	"net/url"
	"path"
	"strings"

	"imgrab/pkg/errors"
	"imgrab/pkg/logger"
	"imgrab/pkg/media"
	"imgrab/pkg/transport"
)

// Name is the provider name used in the registry
const Name = "imgur"

var hosts = map[string]bool{
	"imgur.com":     true,
	"www.imgur.com": true,
	"m.imgur.com":   true,
}

// Provider recognizes imgur.com image, album and gallery pages
type Provider struct {
	baseURL string
}

var _ media.Provider = (*Provider)(nil)

// New creates a provider that talks to the API at baseURL (DefaultBaseURL when empty)
func New(baseURL string) *Provider {
	return &Provider{baseURL: normalizeBaseURL(baseURL)}
}

func (p *Provider) Name() string {
	return Name
}

// BaseURL is the API root the accessors fetch from
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// Accessor classifies u by its path:
//
//	/a/{id}          album
//	/gallery/{id}    gallery post
//	anything else    single image, identified by the last segment
func (p *Provider) Accessor(u *url.URL) (media.Accessor, bool) {
	if u == nil || !hosts[strings.ToLower(u.Hostname())] {
		return nil, false
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return nil, false
	}
	last := segments[len(segments)-1]

	switch {
	case strings.HasPrefix(u.Path, "/a/"):
		if len(segments) < 2 {
			return nil, false
		}
		if id := postID(last); id != "" {
			return NewAlbumAccessor(p.baseURL, id), true
		}
	case strings.HasPrefix(u.Path, "/gallery/"):
		if len(segments) < 2 {
			return nil, false
		}
		if id := postID(last); id != "" {
			return NewGalleryAccessor(p.baseURL, id), true
		}
	default:
		if id := stripExt(last); id != "" {
			return NewSingleImageAccessor(p.baseURL, id), true
		}
	}
	return nil, false
}

// ConfigureTransport adds the API headers to a clone of base. The request
// timeout is disabled because large albums and videos are slow to serve.
func (p *Provider) ConfigureTransport(base *transport.Builder) (*transport.Client, error) {
	credential := base.Credential()
	if credential == "" {
		return nil, errors.ErrMissingCredential
	}

	b := base.Clone().
		WithHeader("Accept", "application/json").
		WithHeader("Authorization", "Client-ID "+credential).
		WithTimeout(0)
	if _, ok := b.Header("User-Agent"); !ok {
		b.WithUserAgent("imgrab/" + logger.Version)
	}
	return b.Build()
}

// postID drops the file extension and the title slug from an album or gallery
// segment: "my-cat-pics-AbCdE" becomes "AbCdE".
func postID(segment string) string {
	id := stripExt(segment)
	if i := strings.LastIndex(id, "-"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

func stripExt(segment string) string {
	return strings.TrimSuffix(segment, path.Ext(segment))
}

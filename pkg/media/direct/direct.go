// Package direct handles links that already point at a media file, such as
// i.imgur.com/AbCdE.jpg. No API call is needed: the URL is its own single item.
package direct

import (
	"net/url"
	"path"
	"strings"

	"imgrab/pkg/media"
	"imgrab/pkg/transport"
)

// Name is the provider name used in the registry
const Name = "direct"

// Config lists what the provider accepts
type Config struct {
	Protocols  map[string]bool
	Extensions map[string]bool
	// Rewrites maps an extension to the one actually fetched
	Rewrites map[string]string
}

// NewConfig returns the default image and video extensions
func NewConfig() Config {
	return Config{
		Protocols: map[string]bool{
			"http":  true,
			"https": true,
		},
		Extensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".webp": true,
			".mp4":  true,
			".webm": true,
			".gifv": true,
		},
		// gifv is an HTML player page around an mp4
		Rewrites: map[string]string{
			".gifv": ".mp4",
		},
	}
}

// Provider matches URLs by file extension
type Provider struct {
	cfg Config
}

var _ media.Provider = (*Provider)(nil)

// New creates a provider with the default configuration
func New() *Provider {
	return NewWithConfig(NewConfig())
}

// NewWithConfig creates a provider accepting what cfg lists
func NewWithConfig(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string {
	return Name
}

// Accessor matches when the last path segment has a known media extension
func (p *Provider) Accessor(u *url.URL) (media.Accessor, bool) {
	if u == nil || !p.cfg.Protocols[strings.ToLower(u.Scheme)] {
		return nil, false
	}
	filename := path.Base(strings.TrimRight(u.Path, "/"))
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || !p.cfg.Extensions[ext] || filename == ext {
		return nil, false
	}

	target := *u
	if rewrite, ok := p.cfg.Rewrites[ext]; ok {
		target.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), path.Ext(filename)) + rewrite
		target.RawPath = ""
	}
	return &Accessor{
		id:       strings.TrimSuffix(filename, path.Ext(filename)),
		location: target.String(),
	}, true
}

// ConfigureTransport uses the shared configuration unchanged. No credential is needed.
func (p *Provider) ConfigureTransport(base *transport.Builder) (*transport.Client, error) {
	return base.Clone().Build()
}

// Accessor yields its own URL once
type Accessor struct {
	id       string
	location string
	complete bool
}

func (a *Accessor) ID() string {
	return a.id
}

func (a *Accessor) Variant() string {
	return "file"
}

// Location is the URL that will be fetched
func (a *Accessor) Location() string {
	return a.location
}

// NextPage returns the location without a request, then empty pages
func (a *Accessor) NextPage(transport.Getter) ([]string, error) {
	if a.complete {
		return nil, nil
	}
	a.complete = true
	return []string{a.location}, nil
}

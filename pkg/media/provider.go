package media

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	"imgrab/pkg/errors"
	"imgrab/pkg/transport"
)

var (
	ErrDuplicateProvider = stderrors.New("duplicate provider name")
	ErrInvalidProvider   = stderrors.New("invalid provider")
)

// A Provider recognizes the URLs of one source and creates the Accessor that
// fetches their item locations. Matching is purely structural and never touches
// the network.
type Provider interface {
	// Name identifies the provider in logs and the CLI
	Name() string
	// Accessor returns a fresh accessor for u, or false when u is not recognized
	Accessor(u *url.URL) (Accessor, bool)
	// ConfigureTransport derives the client this source needs from the shared base.
	// The base builder is left unchanged.
	ConfigureTransport(base *transport.Builder) (*transport.Client, error)
}

// An Accessor yields pages of item locations for one resolved source.
type Accessor interface {
	// ID is the remote identifier extracted from the URL
	ID() string
	// NextPage fetches the next page. An empty page means the source is exhausted.
	NextPage(client transport.Getter) ([]string, error)
}

// VariantOf names the kind of source an accessor fetches
func VariantOf(a Accessor) string {
	if v, ok := a.(interface{ Variant() string }); ok {
		return v.Variant()
	}
	return fmt.Sprintf("%T", a)
}

// A Resolution is the result of a provider recognizing a URL
type Resolution struct {
	Provider Provider
	Accessor Accessor
	URL      *url.URL
}

// Registry holds providers in the order they are consulted
type Registry struct {
	providers []Provider
	byName    map[string]Provider
}

// NewRegistry registers each provider in order. Every registration problem is
// reported; the providers that were valid stay registered.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]Provider)}
	var result error
	for i, p := range providers {
		if err := r.Register(p); err != nil {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[provider %d]", i)))
		}
	}
	return r, result
}

// Register appends a provider. Names must be non-empty and unique.
func (r *Registry) Register(p Provider) error {
	if r.byName == nil {
		r.byName = make(map[string]Provider)
	}
	if p == nil || p.Name() == "" {
		return ErrInvalidProvider
	}
	if _, ok := r.byName[p.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name())
	}
	r.byName[p.Name()] = p
	r.providers = append(r.providers, p)
	return nil
}

// Names returns the names of registered providers in matching order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Lookup returns the named provider
func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Resolve parses rawURL and hands it to each provider in order. The first one
// that recognizes it wins.
func (r *Registry) Resolve(rawURL string) (*Resolution, error) {
	u, err := ParseSourceURL(rawURL)
	if err != nil {
		return nil, err
	}
	for _, p := range r.providers {
		if accessor, ok := p.Accessor(u); ok && accessor != nil {
			return &Resolution{Provider: p, Accessor: accessor, URL: u}, nil
		}
	}
	return nil, &errors.UnsupportedSourceError{URL: rawURL}
}

// ParseSourceURL accepts absolute http and https URLs with a host
func ParseSourceURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q is not an http(s) url", errors.ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", errors.ErrInvalidURL, rawURL)
	}
	return u, nil
}

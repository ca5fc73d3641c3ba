package media

import (
	"net/url"
	"strings"
)

const (
	dispositionMarker = "filename="
	fallbackFilename  = "download"
)

// ParseDispositionFilename returns everything after the last "filename=" in a
// Content-Disposition header. The value is not unquoted or decoded.
func ParseDispositionFilename(header string) (string, bool) {
	idx := strings.LastIndex(header, dispositionMarker)
	if idx < 0 {
		return "", false
	}
	return header[idx+len(dispositionMarker):], true
}

// NamingContext carries what a consumer needs to name a downloaded item
type NamingContext struct {
	// Location is the URL the item was fetched from
	Location string

	suggested    string
	hasSuggested bool
}

// NewNamingContext derives the naming context from the item's location and its
// Content-Disposition header, which may be empty.
func NewNamingContext(location, disposition string) NamingContext {
	suggested, ok := ParseDispositionFilename(disposition)
	return NamingContext{
		Location:     location,
		suggested:    suggested,
		hasSuggested: ok,
	}
}

// SuggestedFilename is the server supplied filename, verbatim
func (n NamingContext) SuggestedFilename() (string, bool) {
	return n.suggested, n.hasSuggested
}

// Filename prefers the suggested filename, then the last segment of the
// location path, then a fixed fallback.
func (n NamingContext) Filename() string {
	if n.hasSuggested && n.suggested != "" {
		return n.suggested
	}
	if name := lastPathSegment(n.Location); name != "" {
		return name
	}
	return fallbackFilename
}

func lastPathSegment(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return ""
	}
	name := p[strings.LastIndex(p, "/")+1:]
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(name, ".", "") == "" {
		return ""
	}
	return name
}

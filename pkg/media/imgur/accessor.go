package imgur

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"imgrab/pkg/errors"
	"imgrab/pkg/media"
	"imgrab/pkg/transport"
)

// Link queries, one per variant. Lists must be arrays: iterating an object
// would accept a wrong shape and lose the payload order.
var (
	singleLinkQuery  = mustCompile(`.link`)
	albumLinkQuery   = mustCompile(`if type == "array" then .[] | .link else error("data is not a list") end`)
	galleryLinkQuery = mustCompile(`.images | if type == "array" then .[] | .link else error("images is not a list") end`)
)

func mustCompile(src string) *gojq.Code {
	query, err := gojq.Parse(src)
	if err != nil {
		panic(fmt.Sprintf("imgur: parse %q: %v", src, err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("imgur: compile %q: %v", src, err))
	}
	return code
}

// accessor is the one-shot fetch shared by every variant: a single GET, after
// which the accessor is complete and only returns empty pages.
type accessor struct {
	id       string
	variant  string
	endpoint string
	query    *gojq.Code
	complete bool
}

// ID is the Imgur hash of the image, album or gallery post
func (a *accessor) ID() string {
	return a.id
}

// Variant names the kind of source
func (a *accessor) Variant() string {
	return a.variant
}

// NextPage fetches the item links, or returns an empty page once complete.
// A failed fetch leaves the accessor incomplete.
func (a *accessor) NextPage(client transport.Getter) ([]string, error) {
	if a.complete {
		return nil, nil
	}

	var resp Response
	if err := client.GetJSON(a.endpoint, &resp); err != nil {
		return nil, errors.WithSource(err, a.id)
	}

	links, err := extractLinks(a.query, &resp)
	if err != nil {
		return nil, errors.WithSource(err, a.id)
	}

	a.complete = true
	return links, nil
}

// extractLinks runs query over the payload and collects the links in order
func extractLinks(query *gojq.Code, resp *Response) ([]string, error) {
	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, &errors.ExtractionError{
			Kind:    errors.ExtractionMetadata,
			Message: "response has no data",
		}
	}

	if resp.Success != nil && !*resp.Success {
		msg := fmt.Sprintf("request unsuccessful (status %d)", resp.Status)
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.message() != "" {
			msg += ": " + apiErr.message()
		}
		return nil, &errors.ExtractionError{Kind: errors.ExtractionMetadata, Message: msg}
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &errors.ExtractionError{
			Kind:    errors.ExtractionMetadata,
			Message: fmt.Sprintf("decode data: %v", err),
		}
	}

	links := []string{}
	iter := query.Run(payload)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, &errors.ExtractionError{
				Kind:    errors.ExtractionImage,
				Message: err.Error(),
			}
		}
		link, ok := v.(string)
		if !ok || link == "" {
			return nil, &errors.ExtractionError{
				Kind:    errors.ExtractionImage,
				Message: fmt.Sprintf("item %d has no link", len(links)),
			}
		}
		links = append(links, link)
	}
	return links, nil
}

// SingleImageAccessor fetches one image
type SingleImageAccessor struct{ accessor }

// AlbumAccessor fetches every image of an album
type AlbumAccessor struct{ accessor }

// GalleryAccessor fetches the images of a gallery post
type GalleryAccessor struct{ accessor }

var (
	_ media.Accessor = (*SingleImageAccessor)(nil)
	_ media.Accessor = (*AlbumAccessor)(nil)
	_ media.Accessor = (*GalleryAccessor)(nil)
)

// NewSingleImageAccessor creates an accessor for image id
func NewSingleImageAccessor(baseURL, id string) *SingleImageAccessor {
	return &SingleImageAccessor{accessor{
		id:       id,
		variant:  "image",
		endpoint: GetImageURL(baseURL, id),
		query:    singleLinkQuery,
	}}
}

// NewAlbumAccessor creates an accessor for album id
func NewAlbumAccessor(baseURL, id string) *AlbumAccessor {
	return &AlbumAccessor{accessor{
		id:       id,
		variant:  "album",
		endpoint: GetAlbumImagesURL(baseURL, id),
		query:    albumLinkQuery,
	}}
}

// NewGalleryAccessor creates an accessor for gallery post id
func NewGalleryAccessor(baseURL, id string) *GalleryAccessor {
	return &GalleryAccessor{accessor{
		id:       id,
		variant:  "gallery",
		endpoint: GetGalleryAlbumURL(baseURL, id),
		query:    galleryLinkQuery,
	}}
}

package imgur

import (
	"fmt"
	"net/url"
	"strings"

	"imgrab/pkg/config"
)

const (
	// DefaultBaseURL is the root of the Imgur v3 API
	DefaultBaseURL = config.DefaultAPIBaseURL

	// ImageEndpoint is the endpoint pattern for a single image
	ImageEndpoint = "/image/%s"

	// AlbumImagesEndpoint is the endpoint pattern for the images of an album
	AlbumImagesEndpoint = "/album/%s/images"

	// GalleryAlbumEndpoint is the endpoint pattern for a gallery post
	GalleryAlbumEndpoint = "/gallery/album/%s"
)

// GetImageURL constructs the URL for fetching a single image
func GetImageURL(baseURL, id string) string {
	return endpoint(baseURL, ImageEndpoint, id)
}

// GetAlbumImagesURL constructs the URL for fetching every image of an album
func GetAlbumImagesURL(baseURL, id string) string {
	return endpoint(baseURL, AlbumImagesEndpoint, id)
}

// GetGalleryAlbumURL constructs the URL for fetching a gallery post
func GetGalleryAlbumURL(baseURL, id string) string {
	return endpoint(baseURL, GalleryAlbumEndpoint, id)
}

func endpoint(baseURL, pattern, id string) string {
	return normalizeBaseURL(baseURL) + fmt.Sprintf(pattern, url.PathEscape(id))
}

func normalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

package catalog

import (
	"net/url"
	"regexp"

	"walldl/pkg/errors"
)

var assetIDPattern = regexp.MustCompile(`/asset-blobs/(\d+?)_`)

// Link is one downloadable asset of a category
type Link struct {
	Title   string
	URI     *url.URL
	AssetID string
}

// NewLink builds a link, failing when the URI carries no asset id
func NewLink(title string, uri *url.URL) (Link, error) {
	id, err := ParseAssetID(uri)
	if err != nil {
		return Link{}, err
	}
	return Link{Title: title, URI: uri, AssetID: id}, nil
}

// ParseAssetID extracts the numeric id from an asset-blob path such as
// /asset-blobs/998877_thumb.jpg.
func ParseAssetID(uri *url.URL) (string, error) {
	if uri == nil {
		return "", errors.New(errors.ErrorTypeMissingAssetID, "no URI")
	}
	m := assetIDPattern.FindStringSubmatch(uri.Path)
	if m == nil {
		return "", errors.New(errors.ErrorTypeMissingAssetID, "no asset id in %q", uri.String())
	}
	return m[1], nil
}

// Category is a titled, non-empty group of links
type Category struct {
	Title string
	Links []Link
}

package scraper

import (
	"context"
	"net/http"
)

// CatalogClient fetches the catalog page and streams its assets
type CatalogClient interface {
	GetPage(ctx context.Context, url string) ([]byte, error)
	Stream(ctx context.Context, url string) (*http.Response, error)
}

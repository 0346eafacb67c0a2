package scraper

import (
	"walldl/pkg/fetch"
	"walldl/pkg/logger"
)

func newClient(log logger.Logger) *fetch.Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return fetch.NewClient("walldl-test", 0, log)
}

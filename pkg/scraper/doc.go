// Package scraper runs a complete catalog download.
//
// A run has two phases. The first fetches the catalog page and extracts its
// categories; any structural problem with the page ends the run before a
// single job is queued. The second walks the categories in page order,
// creates each category's directory, queues one download job per link and
// waits for the worker pool to drain.
//
// The Scraper only ever queues one job per asset id and directory, so two
// workers never write the same file. What happens after a failed download
// is decided by download.failure_policy: "abort" cancels the remaining jobs,
// "continue" lets them run and reports every failure at the end.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    return err
//	}
//	summary, err := scraper.New(cfg, logger.GetLogger()).Scrape(ctx)
package scraper

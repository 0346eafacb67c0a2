// Package catalog turns the wallpaper catalog page into categories of
// downloadable links. Extraction is strict: any deviation from the expected
// page structure is reported as a typed error rather than silently ignored.
package catalog

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"walldl/pkg/errors"
)

const (
	// LabelAttr holds the category title on each section node
	LabelAttr = "aria-label"

	// MinCategories is the fewest categories a well-formed page yields
	MinCategories = 3
)

var (
	titlePattern = regexp.MustCompile(`(?i)Get (.+?) *wallpaper`)
	wordPattern  = regexp.MustCompile(`\w`)
)

// Extractor reads categories from a parsed catalog page
type Extractor struct {
	// Selector matches the labelled category sections
	Selector string
}

// NewExtractor creates an extractor for the given section selector
func NewExtractor(selector string) *Extractor {
	return &Extractor{Selector: selector}
}

// Parse builds a document from the page body. Relative links are later
// resolved against base.
func Parse(r io.Reader, base *url.URL) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog page: %w", err)
	}
	doc.Url = base
	return doc, nil
}

// Extract returns the page's categories in document order. A later section
// with an already seen title replaces the links of the earlier one in place.
func (e *Extractor) Extract(doc *goquery.Document) ([]Category, error) {
	var (
		categories []Category
		index      = make(map[string]int)
		extractErr error
	)

	doc.Find(e.Selector).EachWithBreak(func(i int, section *goquery.Selection) bool {
		label, ok := section.Attr(LabelAttr)
		if !ok {
			extractErr = errors.New(errors.ErrorTypeMissingLabel, "section %d has no %s attribute", i, LabelAttr)
			return false
		}
		title := strings.TrimSpace(label)
		if title != "" && !IsPathSafe(title) {
			extractErr = errors.New(errors.ErrorTypeInvalidTitle, "category title %q cannot be used as a file name", title)
			return false
		}

		links, err := extractLinks(section, doc.Url)
		if err != nil {
			extractErr = fmt.Errorf("category %q: %w", title, err)
			return false
		}

		if len(links) == 0 {
			if title == "" {
				return true
			}
			extractErr = errors.New(errors.ErrorTypeEmptyCategory, "category %q has no links", title)
			return false
		}

		if pos, seen := index[title]; seen {
			categories[pos].Links = links
			return true
		}
		index[title] = len(categories)
		categories = append(categories, Category{Title: title, Links: links})
		return true
	})

	if extractErr != nil {
		return nil, extractErr
	}
	if len(categories) < MinCategories {
		return nil, errors.New(errors.ErrorTypeTooFewCategories,
			"found %d categories, expected at least %d", len(categories), MinCategories)
	}
	return categories, nil
}

func extractLinks(section *goquery.Selection, base *url.URL) ([]Link, error) {
	var (
		links []Link
		err   error
	)

	section.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		var link Link
		link, err = linkFromAnchor(a, base)
		if err != nil {
			return false
		}
		links = append(links, link)
		return true
	})

	if err != nil {
		return nil, err
	}
	return links, nil
}

func linkFromAnchor(a *goquery.Selection, base *url.URL) (Link, error) {
	href, ok := a.Attr("href")
	if !ok {
		return Link{}, errors.New(errors.ErrorTypeMissingHref, "anchor %q has no href", strings.TrimSpace(a.Text()))
	}

	uri, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Link{}, errors.Wrap(errors.ErrorTypeInvalidHref, err, "cannot parse href %q", href)
	}
	if base != nil {
		uri = base.ResolveReference(uri)
	}

	title := LinkTitle(a.Text())
	if !wordPattern.MatchString(title) {
		return Link{}, errors.New(errors.ErrorTypeInvalidTitle, "anchor text %q yields no usable title", a.Text())
	}
	if !IsPathSafe(title) {
		return Link{}, errors.New(errors.ErrorTypeInvalidTitle, "link title %q cannot be used as a file name", title)
	}

	return NewLink(title, uri)
}

// IsPathSafe reports whether title can be used as a single path element:
// no separators and not "." or "..".
func IsPathSafe(title string) bool {
	if title == "." || title == ".." {
		return false
	}
	return !strings.ContainsRune(title, '/') && !strings.ContainsRune(title, filepath.Separator)
}

// LinkTitle derives a link title from anchor text: "Get Autumn Forest
// wallpaper" becomes "Autumn Forest", anything else is used as is.
func LinkTitle(text string) string {
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

package catalog

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"walldl/pkg/errors"
)

const testSelector = "#catalog .ocpSection[aria-label]"

func section(label string, anchors ...string) string {
	return fmt.Sprintf(`<section class="ocpSection" aria-label="%s">%s</section>`, label, strings.Join(anchors, ""))
}

func anchor(text, href string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
}

func blob(id string) string {
	return fmt.Sprintf("https://cdn.example.test/asset-blobs/%s_wallpaper.jpg", id)
}

func parsePage(t *testing.T, sections ...string) *goquery.Document {
	t.Helper()
	base, _ := url.Parse("https://catalog.example.test/windows/wallpapers")
	html := `<html><body><div id="catalog">` + strings.Join(sections, "") + `</div></body></html>`
	doc, err := Parse(strings.NewReader(html), base)
	require.NoError(t, err)
	return doc
}

func threeCategories() []string {
	return []string{
		section("Autumn", anchor("Get Forest Path wallpaper", blob("1")), anchor("Get Red Leaves wallpaper", blob("2"))),
		section("Nature", anchor("Get Lake wallpaper", blob("3"))),
		section("Space", anchor("Get Nebula wallpaper", blob("4"))),
	}
}

func TestExtractCategories(t *testing.T) {
	doc := parsePage(t, threeCategories()...)

	categories, err := NewExtractor(testSelector).Extract(doc)
	require.NoError(t, err)
	require.Len(t, categories, 3)

	assert.Equal(t, "Autumn", categories[0].Title)
	assert.Equal(t, "Nature", categories[1].Title)
	assert.Equal(t, "Space", categories[2].Title)

	require.Len(t, categories[0].Links, 2)
	first := categories[0].Links[0]
	assert.Equal(t, "Forest Path", first.Title)
	assert.Equal(t, "1", first.AssetID)
	assert.Equal(t, blob("1"), first.URI.String())
}

func TestExtractSkipsUnlabelledEmptySection(t *testing.T) {
	sections := append(threeCategories(), section("   "))
	doc := parsePage(t, sections...)

	categories, err := NewExtractor(testSelector).Extract(doc)
	require.NoError(t, err)
	assert.Len(t, categories, 3)
}

func TestExtractEmptyCategory(t *testing.T) {
	sections := append(threeCategories(), section("Nature"))
	doc := parsePage(t, sections...)

	_, err := NewExtractor(testSelector).Extract(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeEmptyCategory))
}

func TestExtractThreshold(t *testing.T) {
	all := threeCategories()

	_, err := NewExtractor(testSelector).Extract(parsePage(t, all[:2]...))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeTooFewCategories))

	categories, err := NewExtractor(testSelector).Extract(parsePage(t, all...))
	require.NoError(t, err)
	assert.Len(t, categories, 3)
}

func TestExtractDuplicateTitleOverwrites(t *testing.T) {
	sections := append(threeCategories(),
		section("Autumn", anchor("Get Harvest wallpaper", blob("9"))),
	)
	doc := parsePage(t, sections...)

	categories, err := NewExtractor(testSelector).Extract(doc)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Autumn", categories[0].Title)
	require.Len(t, categories[0].Links, 1)
	assert.Equal(t, "9", categories[0].Links[0].AssetID)
}

func TestExtractThresholdCountsDistinctTitles(t *testing.T) {
	all := threeCategories()
	sections := []string{all[0], all[1], section("Autumn", anchor("Get Harvest wallpaper", blob("9")))}

	_, err := NewExtractor(testSelector).Extract(parsePage(t, sections...))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeTooFewCategories))
}

func TestExtractStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		errType errors.ErrorType
	}{
		{
			name:    "missing href",
			extra:   section("Broken", `<a>Get Lost wallpaper</a>`),
			errType: errors.ErrorTypeMissingHref,
		},
		{
			name:    "invalid title",
			extra:   section("Broken", anchor(" -- ", blob("7"))),
			errType: errors.ErrorTypeInvalidTitle,
		},
		{
			name:    "category title escapes root",
			extra:   section("../escape", anchor("Get Lost wallpaper", blob("8"))),
			errType: errors.ErrorTypeInvalidTitle,
		},
		{
			name:    "category title is dot-dot",
			extra:   section("..", anchor("Get Lost wallpaper", blob("8"))),
			errType: errors.ErrorTypeInvalidTitle,
		},
		{
			name:    "link title with separator",
			extra:   section("Music", anchor("Get AC/DC wallpaper", blob("9"))),
			errType: errors.ErrorTypeInvalidTitle,
		},
		{
			name:    "missing asset id",
			extra:   section("Broken", anchor("Get Odd wallpaper", "https://cdn.example.test/images/odd.jpg")),
			errType: errors.ErrorTypeMissingAssetID,
		},
		{
			name:    "invalid href",
			extra:   section("Broken", anchor("Get Odd wallpaper", "http://[::1")),
			errType: errors.ErrorTypeInvalidHref,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parsePage(t, append(threeCategories(), tt.extra)...)
			_, err := NewExtractor(testSelector).Extract(doc)
			require.Error(t, err)
			assert.Equal(t, tt.errType, errors.TypeOf(err))
			assert.True(t, errors.IsStructural(err))
		})
	}
}

func TestIsPathSafe(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Forest Path", true},
		{"...and beyond", true},
		{"Rock 'n' Roll", true},
		{".", false},
		{"..", false},
		{"AC/DC", false},
		{"../escape", false},
		{"/abs", false},
	}

	for _, tt := range tests {
		if got := IsPathSafe(tt.title); got != tt.want {
			t.Errorf("IsPathSafe(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestExtractMissingLabel(t *testing.T) {
	html := `<div id="catalog"><section class="ocpSection">` + anchor("Get A wallpaper", blob("1")) + `</section></div>`
	doc, err := Parse(strings.NewReader(html), nil)
	require.NoError(t, err)

	// The label check only applies when the selector admits unlabelled sections
	_, err = NewExtractor("#catalog .ocpSection").Extract(doc)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeMissingLabel, errors.TypeOf(err))
}

func TestExtractResolvesRelativeHref(t *testing.T) {
	sections := threeCategories()
	sections[1] = section("Nature", anchor("Get Lake wallpaper", "/asset-blobs/3_lake.jpg"))
	doc := parsePage(t, sections...)

	categories, err := NewExtractor(testSelector).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "https://catalog.example.test/asset-blobs/3_lake.jpg", categories[1].Links[0].URI.String())
}

func TestLinkTitle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Get Autumn Forest wallpaper", "Autumn Forest"},
		{"get autumn forest WALLPAPER", "autumn forest"},
		{"  Get   Lake    wallpapers  ", "Lake"},
		{"Random Label", "Random Label"},
		{"  Random Label  ", "Random Label"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, LinkTitle(tt.text))
		})
	}
}

func TestParseAssetID(t *testing.T) {
	u, _ := url.Parse("https://cdn.example.test/x/asset-blobs/998877_thumb.jpg")
	id, err := ParseAssetID(u)
	require.NoError(t, err)
	assert.Equal(t, "998877", id)

	u, _ = url.Parse("https://cdn.example.test/x/998877_thumb.jpg")
	_, err = ParseAssetID(u)
	assert.True(t, errors.Is(err, errors.ErrorTypeMissingAssetID))

	_, err = NewLink("Thumb", u)
	assert.Error(t, err)
}

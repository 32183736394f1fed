package streetview

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAppliesDefaults(t *testing.T) {
	builder := NewURLBuilder("test-key")

	merged := builder.Merge(Params{"location": "46.414382,10.013988"})

	assert.Equal(t, "46.414382,10.013988", merged["location"])
	assert.Equal(t, DefaultSize, merged["size"])
	assert.Equal(t, "test-key", merged["key"])
}

func TestMergeCallerValuesWin(t *testing.T) {
	builder := NewURLBuilder("builder-key")

	merged := builder.Merge(Params{
		"location": "somewhere",
		"size":     "1200x800",
		"key":      "caller-key",
	})

	assert.Equal(t, "1200x800", merged["size"])
	assert.Equal(t, "caller-key", merged["key"])
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	builder := NewURLBuilder("test-key")
	original := Params{"location": "somewhere"}

	builder.Merge(original)

	assert.Len(t, original, 1)
	assert.NotContains(t, original, "size")
	assert.NotContains(t, original, "key")
}

func TestImageURLRoundTrip(t *testing.T) {
	builder := NewURLBuilder("test-key")

	raw := builder.ImageURL(Params{
		"location": "46.414382,10.013988",
		"heading":  "151.78",
	})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, DefaultImageEndpoint+"?"))

	query := parsed.Query()
	assert.Equal(t, "46.414382,10.013988", query.Get("location"))
	assert.Equal(t, "151.78", query.Get("heading"))
	assert.Equal(t, DefaultSize, query.Get("size"))
	assert.Equal(t, "test-key", query.Get("key"))
}

func TestMetadataURLUsesMetadataEndpoint(t *testing.T) {
	builder := NewURLBuilder("test-key")

	raw := builder.MetadataURL(Params{"pano": "abc123"})

	assert.True(t, strings.HasPrefix(raw, DefaultMetadataEndpoint+"?"))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc123", parsed.Query().Get("pano"))
}

func TestBuildLinksAlignment(t *testing.T) {
	builder := NewURLBuilder("test-key")

	batch := []Params{
		{"location": "first"},
		{"pano": "second"},
		{"location": "third", "size": "100x100"},
	}

	imageLinks, metadataLinks := builder.BuildLinks(batch)

	require.Len(t, imageLinks, len(batch))
	require.Len(t, metadataLinks, len(batch))

	// Each pair must carry the same query, only the endpoint differs
	for i := range batch {
		img, err := url.Parse(imageLinks[i])
		require.NoError(t, err)
		meta, err := url.Parse(metadataLinks[i])
		require.NoError(t, err)

		assert.Equal(t, img.Query(), meta.Query(), "entry %d", i)
	}

	// Per-entry size override survives
	img, err := url.Parse(imageLinks[2])
	require.NoError(t, err)
	assert.Equal(t, "100x100", img.Query().Get("size"))
}

func TestBuildLinksEmptyBatch(t *testing.T) {
	builder := NewURLBuilder("test-key")

	imageLinks, metadataLinks := builder.BuildLinks(nil)

	assert.Empty(t, imageLinks)
	assert.Empty(t, metadataLinks)
}

func TestURLBuilderCustomEndpoints(t *testing.T) {
	builder := &URLBuilder{
		ImageEndpoint:    "http://localhost:8080/image",
		MetadataEndpoint: "http://localhost:8080/metadata",
		DefaultSize:      "320x240",
		APIKey:           "k",
	}

	imgURL := builder.ImageURL(Params{"location": "x"})
	metaURL := builder.MetadataURL(Params{"location": "x"})

	assert.True(t, strings.HasPrefix(imgURL, "http://localhost:8080/image?"))
	assert.True(t, strings.HasPrefix(metaURL, "http://localhost:8080/metadata?"))

	parsed, err := url.Parse(imgURL)
	require.NoError(t, err)
	assert.Equal(t, "320x240", parsed.Query().Get("size"))
}

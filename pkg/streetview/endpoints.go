package streetview

import (
	"net/url"
)

const (
	// DefaultImageEndpoint is the Street View Static API image endpoint
	DefaultImageEndpoint = "https://maps.googleapis.com/maps/api/streetview"

	// DefaultMetadataEndpoint is the Street View Static API metadata endpoint
	DefaultMetadataEndpoint = "https://maps.googleapis.com/maps/api/streetview/metadata"

	// DefaultSize is the image size merged into queries that do not set one.
	// 640x640 is the maximum the API serves without a premium plan.
	DefaultSize = "640x640"
)

// Params holds the URL parameters for a single Street View query
type Params map[string]string

// Clone returns a copy of the params
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// URLBuilder constructs image and metadata request URLs from query parameters
type URLBuilder struct {
	ImageEndpoint    string
	MetadataEndpoint string
	DefaultSize      string
	APIKey           string
}

// NewURLBuilder creates a builder with the default endpoints and size
func NewURLBuilder(apiKey string) *URLBuilder {
	return &URLBuilder{
		ImageEndpoint:    DefaultImageEndpoint,
		MetadataEndpoint: DefaultMetadataEndpoint,
		DefaultSize:      DefaultSize,
		APIKey:           apiKey,
	}
}

// Merge returns a copy of p with the default size and API key filled in.
// Caller-supplied values always win over defaults.
func (b *URLBuilder) Merge(p Params) Params {
	merged := p.Clone()
	if _, ok := merged["size"]; !ok && b.DefaultSize != "" {
		merged["size"] = b.DefaultSize
	}
	if _, ok := merged["key"]; !ok && b.APIKey != "" {
		merged["key"] = b.APIKey
	}
	return merged
}

// ImageURL returns the encoded image request URL for the merged params
func (b *URLBuilder) ImageURL(p Params) string {
	return encodeURL(b.ImageEndpoint, b.Merge(p))
}

// MetadataURL returns the encoded metadata request URL for the merged params
func (b *URLBuilder) MetadataURL(p Params) string {
	return encodeURL(b.MetadataEndpoint, b.Merge(p))
}

// BuildLinks builds the image and metadata URL lists for a batch of queries.
// The returned slices have the same length as the input and are index-aligned
// with it.
func (b *URLBuilder) BuildLinks(batch []Params) (imageLinks, metadataLinks []string) {
	imageLinks = make([]string, len(batch))
	metadataLinks = make([]string, len(batch))
	for i, p := range batch {
		imageLinks[i] = b.ImageURL(p)
		metadataLinks[i] = b.MetadataURL(p)
	}
	return imageLinks, metadataLinks
}

// encodeURL joins an endpoint and form-encoded query parameters
func encodeURL(endpoint string, p Params) string {
	values := url.Values{}
	for k, v := range p {
		values.Set(k, v)
	}
	return endpoint + "?" + values.Encode()
}

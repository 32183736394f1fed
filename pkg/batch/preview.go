package batch

import (
	"fmt"
	"io"
	"strings"
)

// DefaultPreviewKeys are the metadata fields shown by Preview when the
// caller does not choose their own
var DefaultPreviewKeys = []string{"date", "location", "pano_id", "status"}

// DefaultPreviewHeader is the metadata key used as the per-record header
const DefaultPreviewHeader = "pano_id"

// Preview writes a short human-readable block for up to n records: a header
// line naming the headerKey value with an underline, then one line per
// requested key present in the record. The nested location object renders
// as an indented lat/lng pair.
func (r *Results) Preview(w io.Writer, n int, keys []string, headerKey string) {
	if len(keys) == 0 {
		keys = DefaultPreviewKeys
	}
	if headerKey == "" {
		headerKey = DefaultPreviewHeader
	}

	records := r.Records()
	if n > 0 && n < len(records) {
		records = records[:n]
	}

	for i, record := range records {
		headerVal, _ := record.GetString(headerKey)
		header := fmt.Sprintf("\n[%d] %s", i, headerVal)
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("=", len(header)-1))

		for _, key := range keys {
			value, exists := record[key]
			if !exists {
				continue
			}
			if key == "location" {
				if lat, lng, ok := record.Location(); ok {
					fmt.Fprintf(w, "%s: \n  lat: %v\n  lng: %v\n", key, lat, lng)
					continue
				}
			}
			fmt.Fprintf(w, "%s: %v\n", key, value)
		}
	}
}

package batch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"gsvbatch/pkg/streetview"
)

func previewResults(records ...streetview.Record) *Results {
	outcomes := make([]streetview.Outcome, len(records))
	for i, record := range records {
		outcomes[i] = streetview.Outcome{Record: record}
	}
	return &Results{Outcomes: outcomes}
}

func TestPreviewDefaults(t *testing.T) {
	results := previewResults(streetview.Record{
		"status":  "OK",
		"pano_id": "abc123",
		"date":    "2016-05",
		"location": map[string]interface{}{
			"lat": 46.414382,
			"lng": 10.013988,
		},
		"copyright": "ignored by default keys",
	})

	var buf bytes.Buffer
	results.Preview(&buf, 0, nil, "")

	out := buf.String()
	assert.Contains(t, out, "[0] abc123")
	assert.Contains(t, out, "status: OK")
	assert.Contains(t, out, "date: 2016-05")
	assert.Contains(t, out, "lat: 46.414382")
	assert.Contains(t, out, "lng: 10.013988")
	assert.NotContains(t, out, "copyright")
}

func TestPreviewLimitsCount(t *testing.T) {
	results := previewResults(
		streetview.Record{"status": "OK", "pano_id": "first"},
		streetview.Record{"status": "OK", "pano_id": "second"},
		streetview.Record{"status": "OK", "pano_id": "third"},
	)

	var buf bytes.Buffer
	results.Preview(&buf, 2, nil, "")

	out := buf.String()
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "third")
}

func TestPreviewCustomKeysAndHeader(t *testing.T) {
	results := previewResults(streetview.Record{
		"status":    "OK",
		"pano_id":   "abc123",
		"copyright": "© Google",
	})

	var buf bytes.Buffer
	results.Preview(&buf, 0, []string{"copyright"}, "status")

	out := buf.String()
	assert.Contains(t, out, "[0] OK")
	assert.Contains(t, out, "copyright: © Google")
	assert.NotContains(t, out, "pano_id")
}

func TestPreviewSkipsAbsentKeys(t *testing.T) {
	results := previewResults(streetview.Record{"status": "ZERO_RESULTS"})

	var buf bytes.Buffer
	results.Preview(&buf, 0, nil, "")

	out := buf.String()
	assert.Contains(t, out, "status: ZERO_RESULTS")
	assert.NotContains(t, out, "date:")
	assert.NotContains(t, out, "pano_id:")
}

func TestPreviewEmptyResults(t *testing.T) {
	results := previewResults()

	var buf bytes.Buffer
	results.Preview(&buf, 5, nil, "")

	assert.Empty(t, buf.String())
}

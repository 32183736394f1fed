package streetview

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStatus(t *testing.T) {
	record := Record{"status": "OK"}

	assert.Equal(t, "OK", record.Status("status"))
	assert.True(t, record.IsOK("status", "OK"))
	assert.False(t, record.IsOK("status", "ZERO_RESULTS"))
}

func TestRecordStatusMissing(t *testing.T) {
	record := Record{}

	assert.Equal(t, "", record.Status("status"))
	assert.False(t, record.IsOK("status", "OK"))
}

func TestRecordStatusNil(t *testing.T) {
	var record Record

	assert.Equal(t, "", record.Status("status"))
	assert.False(t, record.IsOK("status", "OK"))
}

func TestRecordFileAnnotation(t *testing.T) {
	record := Record{"status": "OK"}

	assert.Equal(t, "", record.File())

	record.SetFile("gsv_0.jpg")
	assert.Equal(t, "gsv_0.jpg", record.File())
	assert.Equal(t, "gsv_0.jpg", record[FileKey])
}

func TestRecordLocation(t *testing.T) {
	// Decoded JSON yields map[string]interface{} with float64 values
	var record Record
	err := json.Unmarshal([]byte(`{
		"status": "OK",
		"location": {"lat": 46.414382, "lng": 10.013988}
	}`), &record)
	require.NoError(t, err)

	lat, lng, ok := record.Location()
	assert.True(t, ok)
	assert.InDelta(t, 46.414382, lat, 1e-9)
	assert.InDelta(t, 10.013988, lng, 1e-9)
}

func TestRecordLocationAbsent(t *testing.T) {
	record := Record{"status": "ZERO_RESULTS"}

	_, _, ok := record.Location()
	assert.False(t, ok)
}

func TestRecordLocationMalformed(t *testing.T) {
	record := Record{"location": "not an object"}

	_, _, ok := record.Location()
	assert.False(t, ok)
}

func TestOutcomeOK(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    bool
	}{
		{
			name:    "record set",
			outcome: Outcome{Record: Record{"status": "OK"}},
			want:    true,
		},
		{
			name:    "error set",
			outcome: Outcome{Err: errors.New("fetch failed")},
			want:    false,
		},
		{
			name:    "zero value",
			outcome: Outcome{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.OK())
		})
	}
}

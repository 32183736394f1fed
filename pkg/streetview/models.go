package streetview

// FileKey is the metadata key under which the downloaded file name is
// recorded after a successful image download.
const FileKey = "_file"

// Record is a metadata object returned by the Street View metadata endpoint.
// The API promises at least a status field; everything else (location,
// pano_id, date, copyright) depends on the query, so the record stays
// schemaless.
type Record map[string]interface{}

// GetString returns the value for key if it is a string
func (r Record) GetString(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Status returns the value of the given status field, or "" if absent
func (r Record) Status(field string) string {
	s, _ := r.GetString(field)
	return s
}

// IsOK reports whether the record's status field equals the OK sentinel
func (r Record) IsOK(field, ok string) bool {
	return r.Status(field) == ok
}

// SetFile records the downloaded file name on the record
func (r Record) SetFile(name string) {
	r[FileKey] = name
}

// File returns the recorded file name, or "" if the image was not downloaded
func (r Record) File() string {
	s, _ := r.GetString(FileKey)
	return s
}

// Location returns the lat/lng pair from the record's location object.
// The metadata endpoint nests it as {"location": {"lat": ..., "lng": ...}}.
func (r Record) Location() (lat, lng float64, ok bool) {
	loc, exists := r["location"]
	if !exists {
		return 0, 0, false
	}
	m, isMap := loc.(map[string]interface{})
	if !isMap {
		return 0, 0, false
	}
	latVal, latOK := m["lat"].(float64)
	lngVal, lngOK := m["lng"].(float64)
	if !latOK || !lngOK {
		return 0, 0, false
	}
	return latVal, lngVal, true
}

// Outcome is the tagged per-index result of a metadata fetch. Either Record
// is populated or Err explains why the entry failed; a failed entry keeps its
// slot so the batch stays index-aligned.
type Outcome struct {
	Record Record
	Err    error
}

// OK reports whether the fetch for this entry succeeded
func (o Outcome) OK() bool {
	return o.Err == nil && o.Record != nil
}

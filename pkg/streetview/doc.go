// Package streetview implements the Google Street View Static API surface:
// query parameter merging, image and metadata URL construction, and an HTTP
// client that fetches metadata records and image bytes with typed errors and
// optional retries.
//
// A batch of queries is an ordered slice of Params. Everything derived from
// it (links, metadata outcomes, downloaded files) stays index-aligned with
// that slice; position is the only correlation key.
package streetview

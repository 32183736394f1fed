// Package batch orchestrates a full Street View batch run: URL construction
// for every query, concurrent metadata fetching with per-index outcomes,
// conditional image downloads through the worker pool, and persistence of
// links and metadata.
package batch

package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gsvbatch/internal/downloader"
	"gsvbatch/pkg/config"
	errs "gsvbatch/pkg/errors"
	"gsvbatch/pkg/logger"
	"gsvbatch/pkg/ratelimit"
	"gsvbatch/pkg/storage"
	"gsvbatch/pkg/streetview"
)

// Results holds one batch run: the input queries, the derived URL lists and
// the per-entry metadata outcomes. All four slices are index-aligned and
// stay the same length for the life of the batch.
type Results struct {
	Params        []streetview.Params
	Links         []string
	MetadataLinks []string
	Outcomes      []streetview.Outcome

	client  MetadataClient
	cfg     *config.Config
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// MetadataClient is the API surface the batch needs from the HTTP client
type MetadataClient interface {
	FetchMetadata(url string) (streetview.Record, error)
	DownloadImage(url string) ([]byte, error)
}

// New creates a batch from the given queries. Links are derived immediately;
// metadata is fetched separately with FetchMetadata.
func New(cfg *config.Config, params []streetview.Params) *Results {
	log := logger.GetLogger()

	builder := &streetview.URLBuilder{
		ImageEndpoint:    cfg.API.ImageEndpoint,
		MetadataEndpoint: cfg.API.MetadataEndpoint,
		DefaultSize:      cfg.Query.DefaultSize,
		APIKey:           cfg.API.Key,
	}
	links, metadataLinks := builder.BuildLinks(params)

	client := streetview.NewClientWithConfig(cfg.Download.Timeout, &cfg.Retry, log)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	} else {
		limiter = ratelimit.NewTokenBucket(60, time.Minute)
	}

	return &Results{
		Params:        params,
		Links:         links,
		MetadataLinks: metadataLinks,
		Outcomes:      make([]streetview.Outcome, len(params)),
		client:        client,
		cfg:           cfg,
		limiter:       limiter,
		logger:        log,
	}
}

// FetchMetadata fetches the metadata record for every entry. Fetches run on
// a bounded number of workers; each outcome is written to its own index so
// a failed entry never shifts the alignment. Per-entry failures are recorded
// in the outcome, not returned.
func (r *Results) FetchMetadata() {
	workers := r.cfg.Download.ConcurrentDownloads
	if workers < 1 {
		workers = 1
	}

	r.logger.InfoWithFields("fetching metadata", map[string]interface{}{
		"entries": len(r.MetadataLinks),
		"workers": workers,
	})

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, url := range r.MetadataLinks {
		wg.Add(1)
		go func(index int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if !r.limiter.Allow() {
				r.limiter.Wait()
			}

			record, err := r.client.FetchMetadata(url)
			if err != nil {
				r.logger.WarnWithFields("metadata fetch failed", map[string]interface{}{
					"index": index,
					"error": err.Error(),
				})
				r.Outcomes[index] = streetview.Outcome{Err: err}
				return
			}
			r.Outcomes[index] = streetview.Outcome{Record: record}
		}(i, url)
	}

	wg.Wait()
}

// DownloadLinks downloads every entry whose metadata status equals the OK
// sentinel into dirPath, annotates each record with the written file name,
// and saves the metadata collection into the same directory. Entries with a
// failed or non-OK metadata record are skipped silently. Filesystem errors
// abort the run.
func (r *Results) DownloadLinks(dirPath string) error {
	manager, err := storage.NewManager(dirPath)
	if err != nil {
		return fmt.Errorf("failed to set up download directory: %w", err)
	}

	pool := downloader.NewWorkerPool(
		r.cfg.Download.ConcurrentDownloads,
		r.client,
		manager,
		r.limiter,
		r.logger,
	)
	pool.Start()

	// Annotate records by batch index as results come in
	var wg sync.WaitGroup
	var saveErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			if !result.Success {
				// API failures are per-entry and recoverable; anything
				// else came from the filesystem and aborts the run
				var apiErr *errs.Error
				if !errors.As(result.Error, &apiErr) && saveErr == nil {
					saveErr = result.Error
				}
				continue
			}
			r.Outcomes[result.Job.Index].Record.SetFile(result.FileName)
		}
	}()

	submitted := 0
	for i, url := range r.Links {
		outcome := r.Outcomes[i]
		if !outcome.OK() {
			continue
		}
		if !outcome.Record.IsOK(r.cfg.Query.StatusField, r.cfg.Query.StatusOK) {
			r.logger.DebugWithFields("skipping entry without image", map[string]interface{}{
				"index":  i,
				"status": outcome.Record.Status(r.cfg.Query.StatusField),
			})
			continue
		}

		// Reserve in batch order so file numbering follows entry order
		job := downloader.DownloadJob{
			Index:     i,
			URL:       url,
			FileIndex: manager.ReserveIndex(),
		}
		if err := pool.Submit(job); err != nil {
			break
		}
		submitted++
	}

	pool.Stop()
	wg.Wait()

	r.logger.InfoWithFields("download pass finished", map[string]interface{}{
		"submitted": submitted,
		"directory": dirPath,
	})

	// Save metadata with file references alongside the images
	metadataPath := filepath.Join(dirPath, r.cfg.Output.MetadataFile)
	if err := r.SaveMetadata(metadataPath, r.cfg.Output.AppendMetadata); err != nil {
		return err
	}

	return saveErr
}

// Records returns the successfully fetched metadata records in batch order
func (r *Results) Records() []streetview.Record {
	records := make([]streetview.Record, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		if outcome.OK() {
			records = append(records, outcome.Record)
		}
	}
	return records
}

// SaveLinks saves the image URL list to a text file, one link per line
func (r *Results) SaveLinks(path string) error {
	return storage.SaveLinks(path, r.Links)
}

// SaveMetadata saves the fetched metadata records to a JSON array file.
// With appendMode the new records are concatenated after the file's
// existing array.
func (r *Results) SaveMetadata(path string, appendMode bool) error {
	return storage.SaveMetadata(path, r.Records(), appendMode)
}

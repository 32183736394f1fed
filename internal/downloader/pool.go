package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"gsvbatch/pkg/logger"
	"gsvbatch/pkg/ratelimit"
)

// DownloadJob represents a single image download task. Index is the entry's
// position in the batch; FileIndex is the pre-reserved sequential file index.
type DownloadJob struct {
	Index     int
	URL       string
	FileIndex int
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	FileName string
	Success  bool
	Error    error
	Duration time.Duration
	Size     int
}

// ImageDownloader fetches image bytes from a URL
type ImageDownloader interface {
	DownloadImage(url string) ([]byte, error)
}

// ImageStorage persists image bytes under a sequential file index
type ImageStorage interface {
	SaveImage(r io.Reader, index int) (string, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      ImageDownloader
	storage     ImageStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(
	numWorkers int,
	client ImageDownloader,
	storage ImageStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2),
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool. Pending jobs are drained
// before the result queue closes.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("job submitted to queue", map[string]interface{}{
			"index":      job.Index,
			"file_index": job.FileIndex,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{
		Job:     job,
		Success: false,
	}

	wp.logger.DebugWithFields("worker processing job", map[string]interface{}{
		"worker_id":  workerID,
		"index":      job.Index,
		"file_index": job.FileIndex,
	})

	if !wp.rateLimiter.Allow() {
		wp.rateLimiter.Wait()
	}

	data, err := wp.client.DownloadImage(job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to download image", map[string]interface{}{
			"worker_id": workerID,
			"index":     job.Index,
			"error":     err.Error(),
			"duration":  result.Duration,
		})

		return result
	}

	result.Size = len(data)

	name, err := wp.storage.SaveImage(bytes.NewReader(data), job.FileIndex)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to save image", map[string]interface{}{
			"worker_id": workerID,
			"index":     job.Index,
			"error":     err.Error(),
			"size":      result.Size,
		})

		return result
	}

	result.FileName = name
	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"index":     job.Index,
		"file":      name,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

// QueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}

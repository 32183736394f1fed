package streetview

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"gsvbatch/pkg/config"
	"gsvbatch/pkg/errors"
	"gsvbatch/pkg/logger"
	"gsvbatch/pkg/retry"
)

// Client performs HTTP requests against the Street View API endpoints
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	logger      logger.Logger
	retrier     *retry.Retrier
	retryConfig *config.RetryConfig
}

// NewClient creates a new Street View API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	return NewClientWithConfig(timeout, nil, log)
}

// NewClientWithConfig creates a client with retry configuration
func NewClientWithConfig(timeout time.Duration, retryCfg *config.RetryConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = log
	if retryCfg != nil {
		retryConfig.MaxAttempts = retryCfg.MaxAttempts
		retryConfig.Backoff = &retry.ExponentialBackoff{
			BaseDelay:    retryCfg.BaseDelay,
			MaxDelay:     retryCfg.MaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		}
		if !retryCfg.Enabled {
			retryConfig.MaxAttempts = 1
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept": "application/json, image/jpeg, */*",
		},
		logger:      log,
		retrier:     retry.NewRetrier(retryConfig),
		retryConfig: retryCfg,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	return c.doRequest(req)
}

// FetchMetadata performs a GET request against a metadata URL and decodes
// the JSON response into a Record. Transport failures and malformed bodies
// come back as typed errors so the caller can record a per-entry outcome.
func (c *Client) FetchMetadata(url string) (Record, error) {
	var record Record
	op := func() error {
		rec, err := c.fetchMetadataOnce(url)
		if err != nil {
			return err
		}
		record = rec
		return nil
	}

	if err := c.retrier.Do(op); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) fetchMetadataOnce(url string) (Record, error) {
	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return record, nil
}

// DownloadImage fetches the binary image content from an image URL
func (c *Client) DownloadImage(url string) ([]byte, error) {
	var data []byte
	op := func() error {
		bytes, err := c.downloadImageOnce(url)
		if err != nil {
			return err
		}
		data = bytes
		return nil
	}

	if err := c.retrier.Do(op); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) downloadImageOnce(url string) ([]byte, error) {
	c.logger.DebugWithFields("downloading image", map[string]interface{}{
		"url": url,
	})

	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read image data", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "failed to download image: %v", err)
	}

	c.logger.DebugWithFields("successfully downloaded image", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})

	return data, nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden, http.StatusUnauthorized:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeAuth, resp.StatusCode, "API key rejected")
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeServerError, resp.StatusCode, "server error")
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return errors.New(errors.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
		}
		return nil
	}
}

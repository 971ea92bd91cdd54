package sources

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"
	userAgent       = "leadgen/1.0 (lead research pipeline)"
)

// Client is the HTTP plumbing shared by every API-backed source and enricher.
// It handles headers, gzip responses and debug logging so the per-API clients
// only describe their endpoints and payloads.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
		logger:    logger,
	}
}

// GetJSON issues a GET request and decodes the JSON response into target.
// A nil target discards the body after the status check.
func (c *Client) GetJSON(ctx context.Context, rawURL string, q url.Values, target any) error {
	data, err := c.get(ctx, rawURL, q, contentType)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(data, target)
}

// GetXML issues a GET request and decodes the XML response into target.
func (c *Client) GetXML(ctx context.Context, rawURL string, q url.Values, target any) error {
	data, err := c.get(ctx, rawURL, q, "application/xml")
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, target)
}

// PostJSON issues a POST request with a JSON body and decodes the JSON
// response into target.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	data, err := c.do(req)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(data, target)
}

func (c *Client) get(ctx context.Context, rawURL string, q url.Values, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Accept", accept)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

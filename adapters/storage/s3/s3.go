// Package s3 implements ports.ResultSink against an S3-compatible object
// store over plain HTTP PUT, for deployments where STORAGE_MODE=s3 and
// no local filesystem is writable.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"gohypo/internal/errors"
)

// Sink writes objects to <endpoint or default AWS host>/<bucket>/<prefix>/<key>.
// Authentication is expected to be handled by the deployment's network
// layer (VPC endpoint, IAM instance role proxy); this adapter issues
// unsigned PUT/GET requests, matching the minimal object-store surface
// the engine actually needs (spec §5: one read, one write per run).
type Sink struct {
	Bucket   string
	Prefix   string
	Endpoint string // base URL, e.g. "https://s3.amazonaws.com"; defaults below
	Client   *http.Client
}

// New creates a Sink for bucket/prefix using the default AWS S3 endpoint.
func New(bucket, prefix string) *Sink {
	return &Sink{
		Bucket:   bucket,
		Prefix:   prefix,
		Endpoint: "https://s3.amazonaws.com",
		Client:   http.DefaultClient,
	}
}

func (s *Sink) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s/%s", s.Endpoint, s.Bucket, s.Prefix, key)
}

func (s *Sink) put(ctx context.Context, key string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(body))
	if err != nil {
		return errors.StorageWrite("failed to build S3 PUT request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return errors.StorageWrite("S3 PUT request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.StorageWrite(fmt.Sprintf("S3 PUT returned status %d for %s", resp.StatusCode, key), nil)
	}
	return nil
}

func (s *Sink) WriteResult(ctx context.Context, date string, result []byte, siblings map[string][]byte) error {
	if err := s.put(ctx, fmt.Sprintf("integrated/%s/bias_analysis_results.json", date), result); err != nil {
		return err
	}
	for name, blob := range siblings {
		if err := s.put(ctx, fmt.Sprintf("integrated/%s/%s", date, name), blob); err != nil {
			return err
		}
	}
	return nil
}

// Get reads a stored object. cmd/server does not use it; its read path
// goes through the local filesystem sink.
func (s *Sink) Get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, errors.StorageRead("failed to build S3 GET request", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errors.StorageRead("S3 GET request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, errors.StorageRead(fmt.Sprintf("S3 GET returned status %d for %s", resp.StatusCode, key), nil)
	}
	return io.ReadAll(resp.Body)
}

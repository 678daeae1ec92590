// Package neocities is a minimal client for the remote static-file host's
// API: directory listing, batch upload and delete. It implements the remote
// publish target the pipeline and the content cache depend on.
package neocities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const maxResponseBytes = 5 * 1024 * 1024

// FileInfo is one entry of the remote directory listing.
type FileInfo struct {
	Path        string
	IsDirectory bool
	Size        int64
	SHA1Hash    string
	UpdatedAt   time.Time
}

// UploadItem pairs a local temp file with its remote destination path.
type UploadItem struct {
	LocalPath  string
	RemotePath string
}

// Client talks to the host's API with bearer-token auth.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the given API root, e.g.
// "https://neocities.org/api".
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client,
// useful for tests.
func NewClientWithHTTP(apiURL, apiKey string, httpClient *http.Client) *Client {
	c := NewClient(apiURL, apiKey)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type listResponse struct {
	Result string `json:"result"`
	Files  []struct {
		Path        string `json:"path"`
		IsDirectory bool   `json:"is_directory"`
		Size        int64  `json:"size"`
		UpdatedAt   string `json:"updated_at"`
		SHA1Hash    string `json:"sha1_hash"`
	} `json:"files"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

type apiResponse struct {
	Result    string `json:"result"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// List fetches the full remote file listing.
func (c *Client) List(ctx context.Context) ([]FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/list", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal listing: %w", err)
	}
	if parsed.Result != "success" {
		return nil, fmt.Errorf("list files: %s: %s", parsed.ErrorType, parsed.Message)
	}

	files := make([]FileInfo, 0, len(parsed.Files))
	for _, f := range parsed.Files {
		files = append(files, FileInfo{
			Path:        f.Path,
			IsDirectory: f.IsDirectory,
			Size:        f.Size,
			SHA1Hash:    f.SHA1Hash,
			UpdatedAt:   parseListingTime(f.UpdatedAt),
		})
	}
	return files, nil
}

// Upload sends one batch of files. Batch size limits are the caller's
// responsibility; any failure fails the whole batch.
func (c *Client) Upload(ctx context.Context, batch []UploadItem) error {
	if len(batch) == 0 {
		return nil
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, item := range batch {
		part, err := writer.CreateFormFile(item.RemotePath, item.RemotePath)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", item.RemotePath, err)
		}
		f, err := os.Open(item.LocalPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", item.LocalPath, err)
		}
		_, err = io.Copy(part, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", item.LocalPath, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/upload", &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("upload %d files: %w", len(batch), err)
	}
	return checkAPIResult(body)
}

// Delete removes the given remote paths.
func (c *Client) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	form := url.Values{}
	for _, p := range paths {
		form.Add("filenames[]", p)
	}
	payload := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/delete", strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)

	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete %d files: %w", len(paths), err)
	}
	return checkAPIResult(body)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func checkAPIResult(body []byte) error {
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Result != "success" {
		return fmt.Errorf("%s: %s", parsed.ErrorType, parsed.Message)
	}
	return nil
}

// parseListingTime handles the host's RFC1123-style timestamps. Unparsable
// values yield the zero time, which the pipeline treats as "long ago".
func parseListingTime(raw string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

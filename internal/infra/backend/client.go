// Package backend is the HTTP client for the issue spotter service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

// API endpoints
const (
	EndpointAnalyzeText   = "/api/issue-spotter/text"
	EndpointAnalyzeUpload = "/api/issue-spotter/upload"
	EndpointFollowup      = "/api/followup"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 90 * time.Second

	maxErrorBody = 64 << 10
)

// Client talks to the issue spotter backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// AnalyzeText submits pasted text.
func (c *Client) AnalyzeText(ctx context.Context, req analysis.TextRequest) (analysis.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("encode analysis request: %w", err)
	}
	var result analysis.Result
	err = c.do(ctx, EndpointAnalyzeText, "application/json", bytes.NewReader(body), &result)
	return result, err
}

// AnalyzeUpload submits a document as multipart form data.
func (c *Client) AnalyzeUpload(ctx context.Context, req analysis.UploadRequest) (analysis.Result, error) {
	if req.Body == nil {
		return analysis.Result{}, errors.New("upload body is required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"instructions", req.Instructions},
		{"return_json", strconv.FormatBool(req.ReturnJSON)},
	}
	if req.Style != "" {
		fields = append(fields, [2]string{"style", req.Style})
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return analysis.Result{}, fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}

	name := req.File.Name
	if name == "" {
		name = "document"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	contentType := req.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, req.Body); err != nil {
		return analysis.Result{}, fmt.Errorf("read upload: %w", err)
	}
	if err := form.Close(); err != nil {
		return analysis.Result{}, fmt.Errorf("close form: %w", err)
	}

	var result analysis.Result
	err = c.do(ctx, EndpointAnalyzeUpload, form.FormDataContentType(), &buf, &result)
	return result, err
}

// Followup asks a follow-up question. History is always sent as an array.
func (c *Client) Followup(ctx context.Context, req analysis.FollowupRequest) (analysis.FollowupResponse, error) {
	if req.History == nil {
		req.History = []analysis.HistoryEntry{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return analysis.FollowupResponse{}, fmt.Errorf("encode follow-up request: %w", err)
	}
	var resp analysis.FollowupResponse
	err = c.do(ctx, EndpointFollowup, "application/json", bytes.NewReader(body), &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", analysis.ErrTransport, ctxErr)
		}
		return fmt.Errorf("%w: %w", analysis.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", analysis.ErrTransport, err)
	}
	return nil
}

// decodeError turns a non-2xx response into a BackendError. A body that is
// not JSON, or has no string detail, leaves Detail empty.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	be := &analysis.BackendError{StatusCode: resp.StatusCode, Status: resp.Status}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			be.Detail = strings.TrimSpace(detail)
		}
	}
	return be
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lingosub/internal/services"
)

const defaultClientTimeout = 15 * time.Second

// ErrDaemonUnavailable reports that nothing answered at the API address.
var ErrDaemonUnavailable = errors.New("daemon not reachable")

// Client calls the daemon HTTP API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient builds a client for bind, which is either host:port or a URL.
func NewClient(bind string, opts ...ClientOption) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	c := &Client{
		base: base,
		http: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the daemon address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Error is a non-2xx API response. It unwraps to the services marker that
// matches the status code so callers can use errors.Is.
type Error struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusConflict:
		return services.ErrConcurrency
	case http.StatusBadRequest:
		return services.ErrAsset
	default:
		return nil
	}
}

// Status fetches daemon status. withChecks also runs the preflight checks.
func (c *Client) Status(ctx context.Context, withChecks bool) (DaemonStatus, error) {
	values := url.Values{}
	if withChecks {
		values.Set("checks", "1")
	}
	var out DaemonStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/status", values, &out)
	return out, err
}

// Languages fetches the configured languages.
func (c *Client) Languages(ctx context.Context) (LanguagesResponse, error) {
	var out LanguagesResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/languages", nil, &out)
	return out, err
}

// Projects lists projects.
func (c *Client) Projects(ctx context.Context) ([]ProjectSummary, error) {
	var out ProjectListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// Project fetches one project.
func (c *Client) Project(ctx context.Context, id string) (ProjectDetail, error) {
	var out ProjectDetail
	err := c.doJSON(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, &out)
	return out, err
}

// DeleteProject removes a project that has no active run.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

// StartRun enqueues a pipeline run and returns without waiting for it.
func (c *Client) StartRun(ctx context.Context, id string) (RunItem, error) {
	var out RunResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(id)+"/runs", nil, &out); err != nil {
		return RunItem{}, err
	}
	return out.Item, nil
}

// Runs lists queue items, optionally for one project or statuses.
func (c *Client) Runs(ctx context.Context, projectID string, statuses ...string) ([]RunItem, error) {
	values := url.Values{}
	if projectID = strings.TrimSpace(projectID); projectID != "" {
		values.Set("project", projectID)
	}
	for _, status := range statuses {
		if status = strings.TrimSpace(status); status != "" {
			values.Add("status", status)
		}
	}
	var out RunListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/runs", values, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ClearRuns removes completed and failed queue items.
func (c *Client) ClearRuns(ctx context.Context) (int64, error) {
	var out ClearRunsResponse
	if err := c.doJSON(ctx, http.MethodDelete, "/api/runs", nil, &out); err != nil {
		return 0, err
	}
	return out.Removed, nil
}

// DownloadSubtitle copies the subtitle file of lang into w.
func (c *Client) DownloadSubtitle(ctx context.Context, id, lang string, w io.Writer) (int64, error) {
	return c.download(ctx, "/api/projects/"+url.PathEscape(id)+"/subtitles/"+url.PathEscape(lang), w)
}

// DownloadArchive copies the subtitle archive into w.
func (c *Client) DownloadArchive(ctx context.Context, id string, w io.Writer) (int64, error) {
	return c.download(ctx, "/api/projects/"+url.PathEscape(id)+"/archive", w)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", path, err)
	}
	return n, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, out any) error {
	endpoint := path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	resp, err := c.do(ctx, method, endpoint, out)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// do performs the request and converts non-2xx responses into *Error. The
// caller closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, endpoint string, out any) (*http.Response, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	if out != nil {
		req.Header.Set("Accept", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w at %s: %v", ErrDaemonUnavailable, c.base.Host, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &Error{StatusCode: resp.StatusCode}
		var payload ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Kind = payload.Kind
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}
	return resp, nil
}

package remote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// Client fetches tasks from the remote API. Query applies a server-side
// filter already rendered in the remote dialect; FetchAll retrieves the
// unfiltered collection for client-side evaluation.
//
// Implementations must return REMOTE_ERROR for every failure mode and
// must never report a failed call as an empty result set.
type Client interface {
	Query(ctx context.Context, remoteFilter string) ([]task.Task, error)
	FetchAll(ctx context.Context) ([]task.Task, error)
}

// HTTPClient talks to a Vikunja-compatible task API over HTTP with bearer
// token auth. The token is held in memory only and is never written into
// error messages or logs.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient builds an HTTPClient. timeout bounds each individual API
// call including body read.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Query fetches all tasks matching remoteFilter, following pagination
// until the API reports no further pages.
func (c *HTTPClient) Query(ctx context.Context, remoteFilter string) ([]task.Task, error) {
	return c.fetch(ctx, remoteFilter)
}

// FetchAll fetches the complete task collection.
func (c *HTTPClient) FetchAll(ctx context.Context) ([]task.Task, error) {
	return c.fetch(ctx, "")
}

func (c *HTTPClient) fetch(ctx context.Context, remoteFilter string) ([]task.Task, error) {
	var all []task.Task
	page := 1
	for {
		tasks, totalPages, err := c.fetchPage(ctx, remoteFilter, page)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
		if page >= totalPages || len(tasks) == 0 {
			return all, nil
		}
		page++
	}
}

func (c *HTTPClient) fetchPage(ctx context.Context, remoteFilter string, page int) ([]task.Task, int, error) {
	q := url.Values{}
	if remoteFilter != "" {
		q.Set("filter", remoteFilter)
	}
	q.Set("page", strconv.Itoa(page))

	endpoint := c.baseURL + "/api/v1/tasks/all?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, classifyTransportErr(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Do not echo the response body; some deployments reflect the
		// Authorization header in auth error payloads.
		return nil, 0, errors.NewRemote(errors.RemoteKindAuth,
			fmt.Sprintf("remote API rejected credentials (status %d)", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, 0, errors.NewRemote(errors.RemoteKindTransport,
			fmt.Sprintf("remote API returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, classifyTransportErr(err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, 0, errors.NewRemote(errors.RemoteKindTransport,
			"remote API returned a malformed task payload")
	}

	totalPages := 1
	if v := resp.Header.Get("x-pagination-total-pages"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			totalPages = n
		}
	}
	return tasks, totalPages, nil
}

// classifyTransportErr maps a transport-level failure onto a REMOTE_ERROR
// kind. url.Error strings may embed the request URL but never the token,
// which travels in a header.
func classifyTransportErr(err error) *errors.MCPError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewRemote(errors.RemoteKindTimeout, "remote API call timed out")
	}
	var uerr *url.Error
	if stderrors.As(err, &uerr) && uerr.Timeout() {
		return errors.NewRemote(errors.RemoteKindTimeout, "remote API call timed out")
	}
	return errors.NewRemote(errors.RemoteKindTransport,
		fmt.Sprintf("remote API unreachable: %v", err))
}

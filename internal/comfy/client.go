// Package comfy talks to a ComfyUI server: it submits job graphs and polls
// their execution history until a terminal status is reached.
package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	v1 "github.com/boat2moon/infinitetalk-comfyui-workflow/internal/contracts/comfy/v1"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

// maxErrorBody caps how much of a rejection body is kept on the error.
const maxErrorBody = 4 << 10

type Client interface {
	// Submit enqueues graph and returns the server-assigned prompt id.
	Submit(ctx context.Context, graph workflow.Graph) (string, error)
	// History returns the execution record for id, or nil if the server
	// does not know it yet.
	History(ctx context.Context, id string) (*v1.HistoryEntry, error)
}

type HTTPClient struct {
	baseURL  string
	clientID string
	client   *http.Client
}

// NewHTTPClient creates a client for the server at baseURL. timeout bounds
// each request, not the wait for a job.
func NewHTTPClient(baseURL, clientID string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:  baseURL,
		clientID: clientID,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) Submit(ctx context.Context, graph workflow.Graph) (string, error) {
	const op = "comfy.submit"

	body, err := json.Marshal(v1.PromptRequest{Prompt: graph, ClientID: c.clientID})
	if err != nil {
		return "", errors.Wrap(err, op, "encode prompt")
	}

	res, err := c.do(ctx, http.MethodPost, "/prompt", body)
	if err != nil {
		return "", wrapTransport(ctx, err, op)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUnavailable, op, "read response")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return "", errors.Newf(errors.CodeUpstreamRejected, "server rejected prompt: http %d", res.StatusCode).
			WithField("status", res.StatusCode).
			WithField("body", string(data))
	}

	var pr v1.PromptResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return "", errors.WrapWithCode(err, errors.CodeMalformedResponse, op, "decode prompt response")
	}
	if pr.PromptID == "" {
		return "", errors.New(errors.CodeMalformedResponse, "prompt response has no prompt_id").
			WithField("body", string(data))
	}
	return pr.PromptID, nil
}

func (c *HTTPClient) History(ctx context.Context, id string) (*v1.HistoryEntry, error) {
	const op = "comfy.history"

	res, err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, wrapTransport(ctx, err, op)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Newf(errors.CodeUnavailable, "history http %d", res.StatusCode).
			WithField("status", res.StatusCode)
	}

	var h v1.History
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeMalformedResponse, op, "decode history")
	}
	entry, ok := h[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Ping checks that the server answers its stats endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodGet, "/system_stats", nil)
	if err != nil {
		return wrapTransport(ctx, err, "comfy.ping")
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.Newf(errors.CodeUnavailable, "system_stats http %d", res.StatusCode)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.client.Do(req)
}

// wrapTransport reports cancellation as-is and anything else as the server
// being unreachable.
func wrapTransport(ctx context.Context, err error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errors.WrapWithCode(err, errors.CodeUnavailable, op, "server unreachable")
}

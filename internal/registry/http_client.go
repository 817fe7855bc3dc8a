package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

const (
	// DefaultHTTPTimeout is the default timeout for a single registry request.
	DefaultHTTPTimeout = 30 * time.Second

	// maxErrorBodyBytes caps how much of an error response is read.
	maxErrorBodyBytes = 64 << 10
)

// errorBody is the error payload returned by the registry.
type errorBody struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Fault      string `json:"$fault"`
}

type listWorkflowsResponse struct {
	Workflows []Workflow `json:"workflows"`
}

type registerWorkflowRequest struct {
	Name string `json:"name"`
}

type registerVersionRequest struct {
	Definition string `json:"definition"`
}

type setTagRequest struct {
	VersionID string `json:"versionId"`
}

// HTTPClient talks to the workflow registry over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithBaseHTTPClient sets the HTTP client the bearer transport wraps.
func WithBaseHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		h.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTPClient) {
		h.userAgent = ua
	}
}

// NewHTTPClient creates a registry client for baseURL that authenticates with
// credential as a bearer token.
func NewHTTPClient(ctx context.Context, baseURL, credential string, opts ...HTTPOption) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid registry base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("registry base URL %q must use http or https", baseURL)
	}
	if credential == "" {
		return nil, errors.New("registry credential is required")
	}

	h := &HTTPClient{
		baseURL:    strings.TrimSuffix(parsed.String(), "/"),
		httpClient: &http.Client{},
		timeout:    DefaultHTTPTimeout,
		userAgent:  "workflow-deployer",
	}
	for _, opt := range opts {
		opt(h)
	}

	// oauth2.NewClient picks the base client up from the context.
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"})
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, h.httpClient), tokenSource)
	authed.Timeout = h.timeout
	h.httpClient = authed

	return h, nil
}

// ListWorkflows implements Client.
func (h *HTTPClient) ListWorkflows(ctx context.Context, orgID string) ([]Workflow, error) {
	var out listWorkflowsResponse
	if err := h.do(ctx, "ListWorkflows", http.MethodGet, h.workflowsPath(orgID), nil, &out); err != nil {
		return nil, err
	}
	return out.Workflows, nil
}

// RegisterWorkflow implements Client.
func (h *HTTPClient) RegisterWorkflow(ctx context.Context, orgID, name string) (Workflow, error) {
	var out Workflow
	err := h.do(ctx, "RegisterWorkflow", http.MethodPost, h.workflowsPath(orgID), registerWorkflowRequest{Name: name}, &out)
	return out, err
}

// RegisterWorkflowVersion implements Client.
func (h *HTTPClient) RegisterWorkflowVersion(ctx context.Context, orgID, workflowID, definition string) (WorkflowVersion, error) {
	var out WorkflowVersion
	p := h.workflowPath(orgID, workflowID) + "/versions"
	err := h.do(ctx, "RegisterWorkflowVersion", http.MethodPost, p, registerVersionRequest{Definition: definition}, &out)
	if err == nil && out.WorkflowID == "" {
		out.WorkflowID = workflowID
	}
	return out, err
}

// GetLiveVersion implements Client.
func (h *HTTPClient) GetLiveVersion(ctx context.Context, orgID, workflowID string) (*WorkflowVersion, error) {
	var out WorkflowVersion
	if err := h.do(ctx, "GetLiveVersion", http.MethodGet, h.livePath(orgID, workflowID), nil, &out); err != nil {
		return nil, err
	}
	if out.WorkflowID == "" {
		out.WorkflowID = workflowID
	}
	return &out, nil
}

// SetLiveTag implements Client.
func (h *HTTPClient) SetLiveTag(ctx context.Context, orgID, workflowID, versionID string) error {
	return h.do(ctx, "SetLiveTag", http.MethodPut, h.livePath(orgID, workflowID), setTagRequest{VersionID: versionID}, nil)
}

func (h *HTTPClient) workflowsPath(orgID string) string {
	return "/organizations/" + url.PathEscape(orgID) + "/workflows"
}

func (h *HTTPClient) workflowPath(orgID, workflowID string) string {
	return h.workflowsPath(orgID) + "/" + url.PathEscape(workflowID)
}

func (h *HTTPClient) livePath(orgID, workflowID string) string {
	return h.workflowPath(orgID, workflowID) + "/tags/" + url.PathEscape(LiveTag)
}

// do performs one request and decodes the response into out. Every failure is
// returned as an *Error.
func (h *HTTPClient) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	defer logging.Timed("Registry", operation)()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindClient, Operation: operation, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindClient, Operation: operation, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return NewTransportError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(operation, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Kind:       KindClient,
			Operation:  operation,
			Message:    "failed to decode response",
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	return nil
}

func decodeError(operation string, resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var payload errorBody
	message := strings.TrimSpace(string(raw))
	if len(raw) > 0 && json.Unmarshal(raw, &payload) == nil {
		message = payload.Message
		if message == "" && payload.Kind != "" {
			message = payload.Kind
		}
	}

	logging.Debug("Registry", "%s returned status %d: %s", operation, resp.StatusCode, message)
	return NewStatusError(operation, resp.StatusCode, payload.StatusCode, payload.Fault, message)
}

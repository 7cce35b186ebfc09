package ica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// APIError is returned for any non-2xx response from the ICA REST API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("ica: %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("ica: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, body)
}

// Unauthorized reports whether the API rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Client calls the project data endpoints of the ICA REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client rooted at baseURL (for example
// https://ica.illumina.com/ica/rest). httpClient is expected to attach
// credentials itself.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// NewBearerClient returns a Client that authenticates every request with
// token. base supplies the transport and timeout; nil means the default.
func NewBearerClient(ctx context.Context, baseURL, token string, base *http.Client) *Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	hc := oauth2.NewClient(ctx, ts)
	if base != nil {
		hc.Timeout = base.Timeout
	}
	return NewClient(baseURL, hc)
}

func projectDataPath(projectID string) string {
	return "/api/projects/" + url.PathEscape(projectID) + "/data"
}

func dataActionPath(projectID, dataID, action string) string {
	return projectDataPath(projectID) + "/" + url.PathEscape(dataID) + ":" + action
}

// ListProjectData returns one page of data objects in projectID.
func (c *Client) ListProjectData(ctx context.Context, projectID string, params ListParams) (*ProjectDataPage, error) {
	var page ProjectDataPage
	if err := c.do(ctx, http.MethodGet, projectDataPath(projectID), params.values(), nil, &page); err != nil {
		return nil, err
	}
	page.PageOffset = params.PageOffset
	page.PageSize = params.PageSize
	return &page, nil
}

// CreateData registers a new, empty data object in projectID.
func (c *Client) CreateData(ctx context.Context, projectID string, body CreateData) (*ProjectData, error) {
	var created ProjectData
	if err := c.do(ctx, http.MethodPost, projectDataPath(projectID), nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateUploadURL issues a signed URL that accepts the content of dataID.
func (c *Client) CreateUploadURL(ctx context.Context, projectID, dataID string) (*SignedURL, error) {
	var signed SignedURL
	if err := c.do(ctx, http.MethodPost, dataActionPath(projectID, dataID, "createUploadUrl"), nil, nil, &signed); err != nil {
		return nil, err
	}
	return &signed, nil
}

// CreateDownloadURL issues a signed URL serving the content of dataID.
func (c *Client) CreateDownloadURL(ctx context.Context, projectID, dataID string) (*SignedURL, error) {
	var signed SignedURL
	if err := c.do(ctx, http.MethodPost, dataActionPath(projectID, dataID, "createDownloadUrl"), nil, nil, &signed); err != nil {
		return nil, err
	}
	return &signed, nil
}

// DeleteData removes dataID from projectID.
func (c *Client) DeleteData(ctx context.Context, projectID, dataID string) error {
	return c.do(ctx, http.MethodPost, dataActionPath(projectID, dataID, "delete"), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", MediaType)
	if in != nil {
		req.Header.Set("Content-Type", MediaType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(msg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StatusError reports a token request the Auth Service refused.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error authenticating to %s: response %d", e.URL, e.StatusCode)
}

// Service exchanges user credentials for an ICA bearer token.
type Service struct {
	baseURL    string
	httpClient *http.Client
}

// NewService returns a Service for the ICA instance at icaURL, the same base
// the REST API hangs off (for example https://ica.illumina.com/ica).
func NewService(icaURL string, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{
		baseURL:    strings.TrimSuffix(icaURL, "/"),
		httpClient: httpClient,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token requests a bearer token for creds within tenant. Anything but a 200
// response is a *StatusError.
func (s *Service) Token(ctx context.Context, tenant string, creds Credentials) (string, error) {
	endpoint := s.baseURL + "/rest/api/tokens?" + url.Values{"tenant": {tenant}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: s.baseURL, StatusCode: resp.StatusCode}
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("token response from %s carried no token", s.baseURL)
	}
	return body.Token, nil
}

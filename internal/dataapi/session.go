// Package dataapi is a session over one ICA project. It authenticates on
// first use and then lists, uploads, downloads, deletes and finds data.
package dataapi

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sequencebio/icadata/internal/auth"
	"github.com/sequencebio/icadata/internal/cache"
	"github.com/sequencebio/icadata/internal/config"
	"github.com/sequencebio/icadata/internal/ica"
	"github.com/sequencebio/icadata/internal/storage"
)

// ProjectDataService is the subset of the ICA REST API a Session drives.
type ProjectDataService interface {
	ListProjectData(ctx context.Context, projectID string, params ica.ListParams) (*ica.ProjectDataPage, error)
	CreateData(ctx context.Context, projectID string, body ica.CreateData) (*ica.ProjectData, error)
	CreateUploadURL(ctx context.Context, projectID, dataID string) (*ica.SignedURL, error)
	CreateDownloadURL(ctx context.Context, projectID, dataID string) (*ica.SignedURL, error)
	DeleteData(ctx context.Context, projectID, dataID string) error
}

// TokenIssuer exchanges credentials for a bearer token.
type TokenIssuer interface {
	Token(ctx context.Context, tenant string, creds auth.Credentials) (string, error)
}

// ClientFactory builds an authenticated ProjectDataService from a token.
type ClientFactory func(ctx context.Context, token string) ProjectDataService

type Options struct {
	ProjectID string
	Tenant    string
	// ICAURL identifies the ICA instance in the token cache.
	ICAURL string
	// DownloadDir is the default download root. Defaults to /tmp.
	DownloadDir string

	Prompter  auth.Prompter
	Tokens    TokenIssuer
	NewClient ClientFactory
	Storage   storage.ObjectStorage
	// Cache is optional; nil disables token caching.
	Cache  cache.TokenCache
	Logger zerolog.Logger
}

type authState int

const (
	stateUnauthenticated authState = iota
	stateAuthenticating
	stateAuthenticated
	stateFailed
)

func (s authState) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateAuthenticating:
		return "authenticating"
	case stateAuthenticated:
		return "authenticated"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Session is safe for concurrent use. Concurrent first calls share a single
// token exchange.
type Session struct {
	projectID   string
	tenant      string
	icaURL      string
	downloadDir string

	prompter  auth.Prompter
	tokens    TokenIssuer
	newClient ClientFactory
	storage   storage.ObjectStorage
	cache     cache.TokenCache
	log       zerolog.Logger

	flight singleflight.Group

	mu        sync.Mutex
	state     authState
	client    ProjectDataService
	fromCache bool
}

func New(opts Options) (*Session, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("project id is required (set ICA_PROJECT or pass --project)")
	}
	if opts.Prompter == nil || opts.Tokens == nil || opts.NewClient == nil || opts.Storage == nil {
		return nil, errors.New("prompter, token issuer, client factory and storage are required")
	}

	s := &Session{
		projectID:   opts.ProjectID,
		tenant:      opts.Tenant,
		icaURL:      opts.ICAURL,
		downloadDir: opts.DownloadDir,
		prompter:    opts.Prompter,
		tokens:      opts.Tokens,
		newClient:   opts.NewClient,
		storage:     opts.Storage,
		cache:       opts.Cache,
		log:         opts.Logger.With().Str("project", opts.ProjectID).Logger(),
	}
	if s.tenant == "" {
		s.tenant = config.DefaultTenant
	}
	if s.downloadDir == "" {
		s.downloadDir = "/tmp"
	}
	if s.cache == nil {
		s.cache = cache.NewNoopTokenCache()
	}
	return s, nil
}

func (s *Session) ProjectID() string { return s.projectID }

func (s *Session) Tenant() string { return s.tenant }

// Authenticated reports whether the session holds a client.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateAuthenticated
}

// authenticate returns the session client, exchanging credentials for a
// token the first time. A failed exchange stores nothing, so the next call
// starts over. Cancelling ctx abandons the wait, not the shared exchange.
func (s *Session) authenticate(ctx context.Context) (ProjectDataService, error) {
	s.mu.Lock()
	if s.state == stateAuthenticated {
		client := s.client
		s.mu.Unlock()
		return client, nil
	}
	s.state = stateAuthenticating
	s.mu.Unlock()

	// The exchange outlives any single caller: a caller that gives up
	// returns its own context error and leaves the others waiting.
	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("authenticate", func() (interface{}, error) {
		return s.exchange(shared)
	})
	select {
	case <-ctx.Done():
		return nil, AuthenticationError.Wrap(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(ProjectDataService), nil
	}
}

func (s *Session) exchange(ctx context.Context) (ProjectDataService, error) {
	s.mu.Lock()
	if s.state == stateAuthenticated {
		client := s.client
		s.mu.Unlock()
		return client, nil
	}
	s.mu.Unlock()

	key := cache.TokenKey(s.icaURL, s.tenant)
	token, ok, err := s.cache.GetToken(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("token cache lookup failed")
	}
	if ok {
		s.log.Debug().Msg("using cached token")
		return s.store(ctx, token, true), nil
	}

	creds, err := s.prompter.Credentials(ctx)
	if err != nil {
		s.fail()
		return nil, AuthenticationError.Wrap(err)
	}

	token, err = s.tokens.Token(ctx, s.tenant, creds)
	if err != nil {
		s.fail()
		s.log.Error().Err(err).Str("tenant", s.tenant).Msg("authentication failed")
		return nil, AuthenticationError.Wrap(err)
	}

	if err := s.cache.SetToken(ctx, key, token); err != nil {
		s.log.Warn().Err(err).Msg("token cache store failed")
	}

	client := s.store(ctx, token, false)
	s.log.Info().Str("tenant", s.tenant).Msg("authentication successful")
	return client, nil
}

func (s *Session) store(ctx context.Context, token string, fromCache bool) ProjectDataService {
	client := s.newClient(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	s.fromCache = fromCache
	s.state = stateAuthenticated
	return client
}

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.state = stateFailed
}

// observe drops the session client when the API rejects its token, so the
// next operation authenticates again. A rejected cached token is evicted.
func (s *Session) observe(ctx context.Context, err error) {
	var apiErr *ica.APIError
	if !errors.As(err, &apiErr) || !apiErr.Unauthorized() {
		return
	}

	s.mu.Lock()
	fromCache := s.fromCache
	s.client = nil
	s.fromCache = false
	s.state = stateUnauthenticated
	s.mu.Unlock()

	s.log.Warn().Msg("token rejected, session will re-authenticate")
	if fromCache {
		if err := s.cache.DeleteToken(ctx, cache.TokenKey(s.icaURL, s.tenant)); err != nil {
			s.log.Warn().Err(err).Msg("token cache eviction failed")
		}
	}
}

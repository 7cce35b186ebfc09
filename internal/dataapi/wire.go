package dataapi

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sequencebio/icadata/internal/auth"
	"github.com/sequencebio/icadata/internal/cache"
	"github.com/sequencebio/icadata/internal/config"
	"github.com/sequencebio/icadata/internal/httplog"
	"github.com/sequencebio/icadata/internal/ica"
	"github.com/sequencebio/icadata/internal/storage"
)

// NewFromConfig wires a Session against the live ICA endpoints described
// by cfg. progressOut receives transfer progress bars when cfg.App.Progress
// is set.
func NewFromConfig(cfg *config.Config, prompter auth.Prompter, tokens cache.TokenCache, progressOut io.Writer, logger zerolog.Logger) (*Session, error) {
	httpClient := &http.Client{
		Timeout:   cfg.ICA.Timeout,
		Transport: httplog.NewTransport(nil, logger),
	}

	storageCfg := storage.SignedURLConfig{HTTPClient: httpClient}
	if cfg.App.Progress {
		storageCfg.ProgressOut = progressOut
	}

	restURL := cfg.ICA.URL + "/rest"
	return New(Options{
		ProjectID:   cfg.ICA.Project,
		Tenant:      cfg.ICA.Tenant,
		ICAURL:      cfg.ICA.URL,
		DownloadDir: cfg.App.DownloadDir,
		Prompter:    prompter,
		Tokens:      auth.NewService(cfg.ICA.URL, httpClient),
		NewClient: func(ctx context.Context, token string) ProjectDataService {
			return ica.NewBearerClient(ctx, restURL, token, httpClient)
		},
		Storage: storage.NewSignedURLClient(storageCfg),
		Cache:   tokens,
		Logger:  logger,
	})
}

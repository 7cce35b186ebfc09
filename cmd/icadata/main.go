package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sequencebio/icadata/internal/auth"
	"github.com/sequencebio/icadata/internal/cache"
	"github.com/sequencebio/icadata/internal/config"
	"github.com/sequencebio/icadata/internal/dataapi"
	"github.com/sequencebio/icadata/pkg/logger"
)

// app holds what the Before hook builds for the commands.
type app struct {
	cfg     *config.Config
	tokens  cache.TokenCache
	session *dataapi.Session
}

func main() {
	a := &app{}
	if err := a.cli().Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:  "icadata",
		Usage: "List, upload, download, find and delete data in an ICA project",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project",
				Usage:   "ICA project id",
				EnvVars: []string{"ICA_PROJECT"},
			},
			&cli.StringFlag{
				Name:    "tenant",
				Usage:   "ICA tenant used to authenticate",
				EnvVars: []string{"ICA_TENANT"},
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "ICA base url, for example https://ica.illumina.com/ica",
				EnvVars: []string{"ICA_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "progress",
				Usage:   "Show a progress bar for uploads and downloads",
				EnvVars: []string{"ICA_PROGRESS"},
			},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every data object in the project",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page-size", Value: dataapi.DefaultPageSize, Usage: "Objects per request"},
					&cli.IntFlag{Name: "page-offset", Value: 0, Usage: "Offset of the first page"},
					&cli.StringFlag{Name: "sort", Value: dataapi.DefaultSort, Usage: "Sort expression"},
					&cli.BoolFlag{Name: "json", Usage: "Print one JSON object per line"},
				},
				Before: a.connect,
				Action: a.list,
			},
			{
				Name:      "upload",
				Usage:     "Upload a local file",
				ArgsUsage: "<file> [destination]",
				Before:    a.connect,
				Action:    a.upload,
			},
			{
				Name:      "download",
				Usage:     "Download a file by its project path",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Local directory to download into",
						EnvVars: []string{"ICA_DOWNLOAD_DIR"},
					},
				},
				Before: a.connect,
				Action: a.download,
			},
			{
				Name:      "delete",
				Usage:     "Delete a file by id or by project path",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Data id; takes precedence over the path"},
				},
				Before: a.connect,
				Action: a.delete,
			},
			{
				Name:      "find",
				Usage:     "Print the data id of a file by its project path",
				ArgsUsage: "<path>",
				Before:    a.connect,
				Action:    a.find,
			},
			{
				Name:   "logout",
				Usage:  "Forget cached tokens",
				Action: a.logout,
			},
		},
	}
}

// setup loads configuration, applies global flags over it and opens the
// token cache.
func (a *app) setup(c *cli.Context) error {
	cfg := config.Load()
	if c.IsSet("project") {
		cfg.ICA.Project = c.String("project")
	}
	if c.IsSet("tenant") {
		cfg.ICA.Tenant = c.String("tenant")
	}
	if c.IsSet("url") {
		cfg.ICA.URL = c.String("url")
	}
	if c.IsSet("log-level") {
		cfg.App.LogLevel = c.String("log-level")
	}
	if c.IsSet("progress") {
		cfg.App.Progress = c.Bool("progress")
	}
	logger.SetLevel(cfg.App.LogLevel)

	tokens, err := cache.NewTokenCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("token cache unavailable, continuing without it")
		tokens = cache.NewNoopTokenCache()
	}

	a.cfg = cfg
	a.tokens = tokens
	return nil
}

func (a *app) teardown(c *cli.Context) error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

// connect builds the session for data commands.
func (a *app) connect(c *cli.Context) error {
	prompter := auth.NewTerminalPrompter(a.cfg.ICA.Username, a.cfg.ICA.Password)
	session, err := dataapi.NewFromConfig(a.cfg, prompter, a.tokens, os.Stderr, logger.Component("dataapi"))
	if err != nil {
		return err
	}
	a.session = session
	return nil
}

func requireArgs(c *cli.Context, min, max int) error {
	n := c.NArg()
	if n < min || n > max {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

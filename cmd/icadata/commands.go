package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/sequencebio/icadata/internal/dataapi"
	"github.com/sequencebio/icadata/internal/ica"
	"github.com/sequencebio/icadata/pkg/logger"
)

func (a *app) list(c *cli.Context) error {
	out := newPagePrinter(c.App.Writer, c.Bool("json"))
	err := a.session.List(c.Context, dataapi.ListOptions{
		PageSize:   c.Int("page-size"),
		PageOffset: c.Int("page-offset"),
		Sort:       c.String("sort"),
	}, func(page *ica.ProjectDataPage) error {
		return out.Print(page)
	})
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func (a *app) upload(c *cli.Context) error {
	if err := requireArgs(c, 1, 2); err != nil {
		return err
	}
	created, err := a.session.Upload(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, created.Data.ID)
	return err
}

func (a *app) download(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}
	local, err := a.session.Download(c.Context, c.Args().First(), c.String("dir"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, local)
	return err
}

func (a *app) delete(c *cli.Context) error {
	if err := requireArgs(c, 0, 1); err != nil {
		return err
	}
	return a.session.Delete(c.Context, c.String("id"), c.Args().First())
}

func (a *app) find(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}
	id, err := a.session.Find(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, id)
	return err
}

func (a *app) logout(c *cli.Context) error {
	n, err := a.tokens.InvalidateAll(c.Context)
	if err != nil {
		return err
	}
	logger.Log.Info().Int("tokens", n).Msg("cached tokens removed")
	return nil
}

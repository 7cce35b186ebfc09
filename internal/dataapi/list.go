package dataapi

import (
	"context"

	"github.com/sequencebio/icadata/internal/ica"
)

const (
	DefaultPageSize = 50
	DefaultSort     = "path"
)

type ListOptions struct {
	PageSize   int
	PageOffset int
	Sort       string
}

// PageFunc receives each non-empty page of a listing in order.
type PageFunc func(page *ica.ProjectDataPage) error

// List walks the project data from opts.PageOffset, one page at a time,
// until the API returns an empty page. Pages handed to emit before a
// failure stay emitted.
func (s *Session) List(ctx context.Context, opts ListOptions, emit PageFunc) error {
	client, err := s.authenticate(ctx)
	if err != nil {
		return err
	}

	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageOffset < 0 {
		opts.PageOffset = 0
	}
	if opts.Sort == "" {
		opts.Sort = DefaultSort
	}

	offset := opts.PageOffset
	for {
		page, err := client.ListProjectData(ctx, s.projectID, ica.ListParams{
			PageSize:   opts.PageSize,
			PageOffset: offset,
			Sort:       opts.Sort,
		})
		if err != nil {
			s.observe(ctx, err)
			s.log.Error().Err(err).Int("offset", offset).Msg("listing project data failed")
			return ListError.Wrap(err)
		}
		if len(page.Items) == 0 {
			return nil
		}

		if err := emit(page); err != nil {
			return ListError.Wrap(err)
		}
		offset += opts.PageSize
	}
}

// ListAll collects every data object of the listing into one slice.
func (s *Session) ListAll(ctx context.Context, opts ListOptions) ([]ica.ProjectData, error) {
	var items []ica.ProjectData
	err := s.List(ctx, opts, func(page *ica.ProjectDataPage) error {
		items = append(items, page.Items...)
		return nil
	})
	return items, err
}

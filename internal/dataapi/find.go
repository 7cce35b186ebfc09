package dataapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/sequencebio/icadata/internal/ica"
)

// Find returns the id of the FILE whose folder and name exactly match
// filePath. When several match, the first returned by the API wins.
func (s *Session) Find(ctx context.Context, filePath string) (string, error) {
	client, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}
	return s.find(ctx, client, filePath)
}

func (s *Session) find(ctx context.Context, client ProjectDataService, filePath string) (string, error) {
	dir, name := splitDataPath(filePath)

	page, err := client.ListProjectData(ctx, s.projectID, ica.ListParams{
		FilePath:          []string{dir},
		Filename:          []string{name},
		FilenameMatchMode: ica.MatchExact,
		Type:              ica.DataTypeFile,
	})
	if err != nil {
		s.observe(ctx, err)
		s.log.Error().Err(err).Str("path", filePath).Msg("finding file failed")
		return "", FindError.Wrap(err)
	}
	if len(page.Items) == 0 {
		s.log.Error().Str("path", filePath).Msg("file not found")
		return "", FindError.Wrap(fmt.Errorf("%w: %s", ErrNotFound, filePath))
	}
	if len(page.Items) > 1 {
		s.log.Warn().Str("path", filePath).Int("matches", len(page.Items)).Msg("several files match, using the first")
	}

	id := page.Items[0].Data.ID
	s.log.Info().Str("path", filePath).Str("file_id", id).Msg("file found")
	return id, nil
}

// splitDataPath splits p at its last slash the way a POSIX dirname/basename
// pair does: "b.txt" has an empty folder and "/b.txt" has the root folder.
func splitDataPath(p string) (dir, name string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	head := p[:i+1]
	if trimmed := strings.TrimRight(head, "/"); trimmed != "" {
		head = trimmed
	}
	return head, p[i+1:]
}

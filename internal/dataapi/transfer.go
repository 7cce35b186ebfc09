package dataapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sequencebio/icadata/internal/ica"
)

// Upload registers a FILE named uploadPath (or filePath when uploadPath is
// empty) and streams the local file's bytes to it. A destination that
// already exists is not detected; ICA gets a second object.
func (s *Session) Upload(ctx context.Context, filePath, uploadPath string) (*ica.ProjectData, error) {
	client, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	dest := uploadPath
	if dest == "" {
		dest = filePath
	}

	f, err := os.Open(filePath)
	if err != nil {
		s.log.Error().Err(err).Str("file", filePath).Msg("opening upload source failed")
		return nil, UploadError.Wrap(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, UploadError.Wrap(err)
	}
	if info.IsDir() {
		return nil, UploadError.New("%s is a directory", filePath)
	}

	created, err := client.CreateData(ctx, s.projectID, ica.CreateData{
		Name:     dest,
		DataType: ica.DataTypeFile,
	})
	if err != nil {
		s.observe(ctx, err)
		s.log.Error().Err(err).Str("dest", dest).Msg("creating the data object failed")
		return nil, CreateError.Wrap(err)
	}
	id := created.Data.ID

	signed, err := client.CreateUploadURL(ctx, s.projectID, id)
	if err != nil {
		s.observe(ctx, err)
		s.log.Error().Err(err).Str("file_id", id).Msg("requesting upload url failed")
		return nil, UploadError.Wrap(err)
	}

	if err := s.storage.PutObject(ctx, signed.URL, f, info.Size()); err != nil {
		s.log.Error().Err(err).Str("file_id", id).Msg("uploading file failed")
		return nil, UploadError.Wrap(err)
	}

	s.log.Info().Str("file", filePath).Str("dest", dest).Str("file_id", id).
		Int64("bytes", info.Size()).Msg("file uploaded")
	return created, nil
}

// Download resolves filePath, fetches its content and writes it below
// downloadPath, or below the session download directory when downloadPath
// is empty. It returns the local path written.
func (s *Session) Download(ctx context.Context, filePath, downloadPath string) (string, error) {
	client, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}

	id, err := s.find(ctx, client, filePath)
	if err != nil {
		return "", DownloadError.Wrap(err)
	}

	signed, err := client.CreateDownloadURL(ctx, s.projectID, id)
	if err != nil {
		s.observe(ctx, err)
		s.log.Error().Err(err).Str("file_id", id).Msg("requesting download url failed")
		return "", DownloadError.Wrap(err)
	}

	dest := s.LocalPath(filePath, downloadPath)
	if err := s.writeObject(ctx, signed.URL, dest); err != nil {
		s.log.Error().Err(err).Str("file_id", id).Msg("downloading file failed")
		return "", DownloadError.Wrap(err)
	}

	s.log.Info().Str("file", filePath).Str("dest", dest).Msg("file downloaded")
	return dest, nil
}

// LocalPath is where Download writes filePath.
func (s *Session) LocalPath(filePath, downloadPath string) string {
	root := downloadPath
	if root == "" {
		root = s.downloadDir
	}
	return filepath.Join(root, filepath.FromSlash(filePath))
}

func (s *Session) writeObject(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", dest, err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed creating %s: %w", dest, err)
	}

	if _, err := s.storage.GetObject(ctx, url, out); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed writing %s: %w", dest, err)
	}
	return nil
}

// Delete removes a data object by id, or by path when fileID is empty.
func (s *Session) Delete(ctx context.Context, fileID, filePath string) error {
	client, err := s.authenticate(ctx)
	if err != nil {
		return err
	}

	id := fileID
	if id == "" {
		if filePath == "" {
			return DeleteError.New("a file id or file path is required")
		}
		id, err = s.find(ctx, client, filePath)
		if err != nil {
			return DeleteError.Wrap(err)
		}
	}

	if err := client.DeleteData(ctx, s.projectID, id); err != nil {
		s.observe(ctx, err)
		s.log.Error().Err(err).Str("file_id", id).Msg("deleting file failed")
		return DeleteError.Wrap(err)
	}

	s.log.Info().Str("file_id", id).Msg("file deleted")
	return nil
}

package dataapi

import (
	"errors"

	"github.com/zeebo/errs"
)

// Error classes for each operation. Each wraps the underlying cause, so
// errors.As still reaches *ica.APIError, *auth.StatusError and friends.
var (
	AuthenticationError = errs.Class("authentication")
	ListError           = errs.Class("list")
	CreateError         = errs.Class("create")
	UploadError         = errs.Class("upload")
	DownloadError       = errs.Class("download")
	DeleteError         = errs.Class("delete")
	FindError           = errs.Class("find")
)

// ErrNotFound is returned (wrapped in FindError) when no FILE matches a path.
var ErrNotFound = errors.New("data object not found")

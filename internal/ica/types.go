package ica

import (
	"net/url"
	"strconv"
)

// MediaType is the versioned content type the ICA REST API negotiates on.
const MediaType = "application/vnd.illumina.v3+json"

type DataType string

const (
	DataTypeFile   DataType = "FILE"
	DataTypeFolder DataType = "FOLDER"
)

type MatchMode string

const MatchExact MatchMode = "EXACT"

// DataDetails is the metadata ICA keeps for a data object.
type DataDetails struct {
	Name            string   `json:"name"`
	Path            string   `json:"path"`
	DataType        DataType `json:"dataType"`
	FileSizeInBytes int64    `json:"fileSizeInBytes,omitempty"`
	Status          string   `json:"status,omitempty"`
	TimeCreated     string   `json:"timeCreated,omitempty"`
	TimeModified    string   `json:"timeModified,omitempty"`
	OwningProjectID string   `json:"owningProjectId,omitempty"`
}

type Data struct {
	ID      string      `json:"id"`
	URN     string      `json:"urn,omitempty"`
	Details DataDetails `json:"details"`
}

// ProjectData is a data object as seen from one project.
type ProjectData struct {
	Data      Data   `json:"data"`
	ProjectID string `json:"projectId,omitempty"`
}

// ProjectDataPage is one page of a project data listing. PageOffset and
// PageSize echo the request that produced it.
type ProjectDataPage struct {
	Items          []ProjectData `json:"items"`
	ItemCount      int           `json:"itemCount"`
	TotalItemCount int           `json:"totalItemCount,omitempty"`

	PageOffset int `json:"-"`
	PageSize   int `json:"-"`
}

// CreateData is the request body for registering a new data object.
type CreateData struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
}

// SignedURL is a short-lived pre-authorized object storage URL.
type SignedURL struct {
	URL string `json:"url"`
}

// ListParams selects and paginates a project data listing. Zero values are
// left off the query.
type ListParams struct {
	PageSize   int
	PageOffset int
	Sort       string

	FilePath          []string
	Filename          []string
	FilenameMatchMode MatchMode
	Type              DataType
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
		q.Set("pageOffset", strconv.Itoa(p.PageOffset))
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	for _, fp := range p.FilePath {
		q.Add("filePath", fp)
	}
	for _, name := range p.Filename {
		q.Add("filename", name)
	}
	if p.FilenameMatchMode != "" {
		q.Set("filenameMatchMode", string(p.FilenameMatchMode))
	}
	if p.Type != "" {
		q.Set("type", string(p.Type))
	}
	return q
}

package domain

import (
	"errors"
	"strings"
	"time"
)

// Resource categories used by the download view filter.
const (
	CategoryTool  = "tool"
	CategoryFile  = "file"
	CategoryOther = "other"
)

var ErrResourceNotFound = errors.New("resource not found")
var ErrMissingName = errors.New("resource name is required")
var ErrMissingSource = errors.New("a link or an uploaded file is required")
var ErrMissingResourceID = errors.New("resource id is required")
var ErrNotDownloadable = errors.New("resource has no downloadable source")

// Resource is the core record users discover and obtain. Its source is
// exactly one of an external link or a stored blob; creation and edit logic
// clear the link whenever a blob reference is set.
type Resource struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link,omitempty"`
	Category    string    `json:"category,omitempty"`
	StoragePath string    `json:"storage_path,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasBlob reports whether the resource is backed by a stored blob.
func (r *Resource) HasBlob() bool {
	return strings.TrimSpace(r.StoragePath) != ""
}

// HasLink reports whether the resource is backed by an external link.
func (r *Resource) HasLink() bool {
	return strings.TrimSpace(r.Link) != ""
}

// Downloadable reports whether the resource can be obtained at all.
// Listings drop resources with neither source.
func (r *Resource) Downloadable() bool {
	return r.HasBlob() || r.HasLink()
}

// CategoryOrDefault returns the normalized category tag, falling back to
// "other" when the field is absent or blank.
func (r *Resource) CategoryOrDefault() string {
	cat := strings.ToLower(strings.TrimSpace(r.Category))
	if cat == "" {
		return CategoryOther
	}
	return cat
}

package ports

import (
	"context"
	"io"

	"github.com/quanlytn/resource-portal/internal/core/domain"
)

// Sort orders accepted by the admin list.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

// FileUpload is an incoming binary attachment for a create or edit.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// CreateResourceInput carries an admin submission. Exactly one of Link or
// File must be usable; when File is set the stored record carries the blob
// reference and an empty link.
type CreateResourceInput struct {
	Name        string
	Link        string
	Description string
	Category    string
	File        *FileUpload
}

// UpdateResourceInput mirrors CreateResourceInput for edits. A new File
// replaces the previous source; the old blob is deleted best-effort after
// the record update succeeds.
type UpdateResourceInput struct {
	Name        string
	Link        string
	Description string
	Category    string
	File        *FileUpload
}

// AdminListInput carries the admin view's query parameters.
type AdminListInput struct {
	Search string
	Sort   string // newest (default), oldest, name
}

// AdminListResult is the admin view: the filtered, sorted list plus the
// stats bar counters.
type AdminListResult struct {
	Items      []domain.Resource
	Total      int
	AddedToday int
}

// DownloadListInput carries the download view's query parameters. Category
// is one of tool/file/other; anything else disables the filter.
type DownloadListInput struct {
	Search   string
	Category string
}

// Download result kinds.
const (
	DownloadKindFile = "file"
	DownloadKindLink = "link"
)

// DownloadResult is either a streamed blob (Kind "file", Body owned by the
// caller) or an outbound link (Kind "link").
type DownloadResult struct {
	Kind        string
	Link        string
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// ResourceService defines the portal's resource use-cases. Every operation
// runs with the caller's session so backend rules see the caller's identity.
type ResourceService interface {
	ListAdmin(ctx context.Context, sess *domain.Session, input AdminListInput) (*AdminListResult, error)
	ListDownloads(ctx context.Context, sess *domain.Session, input DownloadListInput) ([]domain.Resource, error)
	Create(ctx context.Context, sess *domain.Session, input CreateResourceInput) (*domain.Resource, error)
	Update(ctx context.Context, sess *domain.Session, id string, input UpdateResourceInput) (*domain.Resource, error)
	Delete(ctx context.Context, sess *domain.Session, id string) error
	Download(ctx context.Context, sess *domain.Session, id string) (*DownloadResult, error)
}

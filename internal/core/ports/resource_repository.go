package ports

import (
	"context"
	"io"

	"github.com/quanlytn/resource-portal/internal/core/domain"
)

// ResourcePatch carries a partial update. Nil fields are left untouched by
// the backend (merge-patch semantics); the adapter always stamps updatedAt.
type ResourcePatch struct {
	Name        *string
	Link        *string
	Description *string
	Category    *string
	StoragePath *string
	FileName    *string
	FileSize    *int64
}

// ResourceRepository is the injected client interface over the hosted
// document store's resources collection. Every call attaches the caller's
// identity token when one is provided; calls proceed unauthenticated
// otherwise and rely on the backend rules to reject.
type ResourceRepository interface {
	// List returns the backend-ordered resources, dropping entries that
	// have no name or no usable source. A missing collection is an empty
	// list, not an error.
	List(ctx context.Context, authToken string) ([]domain.Resource, error)
	Get(ctx context.Context, authToken, id string) (*domain.Resource, error)
	// Create persists a new record; the backend assigns the id. CreatedAt
	// is stamped when the draft carries none.
	Create(ctx context.Context, authToken string, draft *domain.Resource) (*domain.Resource, error)
	Update(ctx context.Context, authToken, id string, patch ResourcePatch) error
	Delete(ctx context.Context, authToken, id string) error
}

// RoleRepository reads the per-user role mapping. The empty string means no
// role is assigned; an error means the mapping could not be read at all.
type RoleRepository interface {
	GetUserRole(ctx context.Context, authToken, uid string) (string, error)
}

// ProfileRepository merge-patches the caller's own profile record.
type ProfileRepository interface {
	Upsert(ctx context.Context, authToken string, profile *domain.Profile) error
}

// BlobStore abstracts the hosted object store. Object paths follow the
// resources/{timestamp}_{sanitized-filename} convention.
type BlobStore interface {
	Upload(ctx context.Context, authToken, objectPath, contentType string, r io.Reader) error
	// Fetch returns the object body and its content type. The caller owns
	// the returned body and must close it.
	Fetch(ctx context.Context, authToken, objectPath string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, authToken, objectPath string) error
}

// BlobCleaner accepts fire-and-forget blob deletions. A failed or dropped
// cleanup leaves an orphaned blob; it never surfaces to the caller.
type BlobCleaner interface {
	Enqueue(objectPath, authToken string)
}

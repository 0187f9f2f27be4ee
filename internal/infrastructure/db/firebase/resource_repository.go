package firebase

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

const collectionResources = "resources"

// ISO-8601 with milliseconds, the format the collection has always stored.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// ResourceRepository maps the resources collection onto domain.Resource.
type ResourceRepository struct {
	client *Client
}

func NewResourceRepository(client *Client) *ResourceRepository {
	return &ResourceRepository{client: client}
}

// resourceRecord is the stored shape. All fields are stringly typed except
// the byte size; unknown fields are ignored on read and never written back.
type resourceRecord struct {
	Name        string `json:"name"`
	Link        string `json:"link,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	StoragePath string `json:"storagePath,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func (r resourceRecord) toDomain(id string) domain.Resource {
	return domain.Resource{
		ID:          id,
		Name:        r.Name,
		Link:        r.Link,
		Description: r.Description,
		Category:    r.Category,
		StoragePath: r.StoragePath,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// List returns the collection in backend order. The store keys records by
// insertion-ordered push ids, so sorting the object keys restores the order
// the backend assigned. Records with no name or no usable source are
// dropped.
func (r *ResourceRepository) List(ctx context.Context, authToken string) ([]domain.Resource, error) {
	var raw map[string]resourceRecord
	if err := r.client.do(ctx, http.MethodGet, collectionResources, authToken, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []domain.Resource{}, nil
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Resource, 0, len(raw))
	for _, id := range ids {
		res := raw[id].toDomain(id)
		if strings.TrimSpace(res.Name) == "" || !res.Downloadable() {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *ResourceRepository) Get(ctx context.Context, authToken, id string) (*domain.Resource, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrMissingResourceID
	}

	var raw *resourceRecord
	if err := r.client.do(ctx, http.MethodGet, collectionResources+"/"+id, authToken, nil, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.ErrResourceNotFound
	}
	res := raw.toDomain(id)
	return &res, nil
}

// Create POSTs a new record; the backend answers with the assigned key as
// {"name": "<id>"}.
func (r *ResourceRepository) Create(ctx context.Context, authToken string, draft *domain.Resource) (*domain.Resource, error) {
	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := resourceRecord{
		Name:        strings.TrimSpace(draft.Name),
		Link:        strings.TrimSpace(draft.Link),
		Description: strings.TrimSpace(draft.Description),
		Category:    draft.Category,
		StoragePath: draft.StoragePath,
		FileName:    draft.FileName,
		FileSize:    draft.FileSize,
		CreatedAt:   formatTime(createdAt),
		UpdatedAt:   formatTime(createdAt),
	}

	var assigned struct {
		Name string `json:"name"`
	}
	if err := r.client.do(ctx, http.MethodPost, collectionResources, authToken, record, &assigned); err != nil {
		return nil, err
	}

	stored := record.toDomain(assigned.Name)
	return &stored, nil
}

// Update PATCHes only the fields the patch names; the backend leaves the
// rest untouched. updatedAt is always stamped.
func (r *ResourceRepository) Update(ctx context.Context, authToken, id string, patch ports.ResourcePatch) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingResourceID
	}

	payload := map[string]any{
		"updatedAt": formatTime(time.Now()),
	}
	if patch.Name != nil {
		payload["name"] = *patch.Name
	}
	if patch.Link != nil {
		payload["link"] = *patch.Link
	}
	if patch.Description != nil {
		payload["description"] = *patch.Description
	}
	if patch.Category != nil {
		payload["category"] = *patch.Category
	}
	if patch.StoragePath != nil {
		payload["storagePath"] = *patch.StoragePath
	}
	if patch.FileName != nil {
		payload["fileName"] = *patch.FileName
	}
	if patch.FileSize != nil {
		payload["fileSize"] = *patch.FileSize
	}

	return r.client.do(ctx, http.MethodPatch, collectionResources+"/"+id, authToken, payload, nil)
}

func (r *ResourceRepository) Delete(ctx context.Context, authToken, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingResourceID
	}
	return r.client.do(ctx, http.MethodDelete, collectionResources+"/"+id, authToken, nil, nil)
}

package handler

import (
	"time"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

// --- Request types ---

// resourceRequest is the JSON body for link-backed creates and edits.
// File-backed submissions arrive as multipart forms with the same field
// names plus a "file" part.
type resourceRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=200"`
	Link        string `json:"link" form:"link" validate:"omitempty,url"`
	Description string `json:"description" form:"description" validate:"max=2000"`
	Category    string `json:"category" form:"category" validate:"omitempty,oneof=tool file other"`
}

// --- Response types ---

type resourceResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Link         string `json:"link,omitempty"`
	Category     string `json:"category"`
	FileName     string `json:"file_name,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	Downloadable bool   `json:"downloadable"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type adminResourceResponse struct {
	resourceResponse
	StoragePath string `json:"storage_path,omitempty"`
}

type adminListResponse struct {
	Items      []adminResourceResponse `json:"items"`
	Total      int                     `json:"total"`
	AddedToday int                     `json:"added_today"`
}

type downloadListResponse struct {
	Items []resourceResponse `json:"items"`
}

// --- Mapping ---

func toResourceResponse(r domain.Resource) resourceResponse {
	return resourceResponse{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Link:         r.Link,
		Category:     r.CategoryOrDefault(),
		FileName:     r.FileName,
		FileSize:     r.FileSize,
		Downloadable: r.Downloadable(),
		CreatedAt:    formatTimestamp(r.CreatedAt),
		UpdatedAt:    formatTimestamp(r.UpdatedAt),
	}
}

func toAdminResourceResponse(r domain.Resource) adminResourceResponse {
	return adminResourceResponse{
		resourceResponse: toResourceResponse(r),
		StoragePath:      r.StoragePath,
	}
}

func toAdminListResponse(result *ports.AdminListResult) adminListResponse {
	items := make([]adminResourceResponse, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, toAdminResourceResponse(r))
	}
	return adminListResponse{
		Items:      items,
		Total:      result.Total,
		AddedToday: result.AddedToday,
	}
}

func toDownloadListResponse(resources []domain.Resource) downloadListResponse {
	items := make([]resourceResponse, 0, len(resources))
	for _, r := range resources {
		items = append(items, toResourceResponse(r))
	}
	return downloadListResponse{Items: items}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

type resourceService struct {
	repo    ports.ResourceRepository
	blobs   ports.BlobStore
	cleaner ports.BlobCleaner
	log     zerolog.Logger
}

// NewResourceService returns a ResourceService backed by the document store
// and blob store adapters. cleaner receives best-effort blob deletions.
func NewResourceService(repo ports.ResourceRepository, blobs ports.BlobStore, cleaner ports.BlobCleaner, log zerolog.Logger) ports.ResourceService {
	return &resourceService{repo: repo, blobs: blobs, cleaner: cleaner, log: log}
}

func (s *resourceService) ListAdmin(ctx context.Context, sess *domain.Session, input ports.AdminListInput) (*ports.AdminListResult, error) {
	all, err := s.repo.List(ctx, authToken(sess))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list resources")
		return nil, err
	}

	items := searchResources(all, input.Search, true)
	items = sortResources(items, input.Sort)

	return &ports.AdminListResult{
		Items:      items,
		Total:      len(all),
		AddedToday: addedToday(all, time.Now()),
	}, nil
}

func (s *resourceService) ListDownloads(ctx context.Context, sess *domain.Session, input ports.DownloadListInput) ([]domain.Resource, error) {
	all, err := s.repo.List(ctx, authToken(sess))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list resources")
		return nil, err
	}

	items := filterByCategory(all, input.Category)
	items = searchResources(items, input.Search, false)
	return items, nil
}

func (s *resourceService) Create(ctx context.Context, sess *domain.Session, input ports.CreateResourceInput) (*domain.Resource, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrMissingName
	}
	link := strings.TrimSpace(input.Link)
	if link == "" && input.File == nil {
		return nil, domain.ErrMissingSource
	}

	draft := &domain.Resource{
		Name:        name,
		Link:        link,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		CreatedAt:   time.Now().UTC(),
	}

	if input.File != nil {
		objectPath := blobObjectPath(input.File.Name, time.Now())
		if err := s.blobs.Upload(ctx, authToken(sess), objectPath, input.File.ContentType, input.File.Body); err != nil {
			s.log.Error().Err(err).Str("object", objectPath).Msg("blob upload failed")
			return nil, err
		}
		// A stored blob replaces the link outright.
		draft.Link = ""
		draft.StoragePath = objectPath
		draft.FileName = input.File.Name
		draft.FileSize = input.File.Size
	}

	created, err := s.repo.Create(ctx, authToken(sess), draft)
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("failed to create resource")
		return nil, err
	}

	s.log.Info().Str("id", created.ID).Str("name", created.Name).Bool("blob", created.HasBlob()).Msg("resource created")
	return created, nil
}

func (s *resourceService) Update(ctx context.Context, sess *domain.Session, id string, input ports.UpdateResourceInput) (*domain.Resource, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrMissingResourceID
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrMissingName
	}

	existing, err := s.repo.Get(ctx, authToken(sess), id)
	if err != nil {
		return nil, err
	}

	link := strings.TrimSpace(input.Link)
	if link == "" && input.File == nil && !existing.HasBlob() {
		return nil, domain.ErrMissingSource
	}

	description := strings.TrimSpace(input.Description)
	category := strings.ToLower(strings.TrimSpace(input.Category))
	patch := ports.ResourcePatch{
		Name:        &name,
		Link:        &link,
		Description: &description,
		Category:    &category,
	}

	var newPath string
	if input.File != nil {
		newPath = blobObjectPath(input.File.Name, time.Now())
		if err := s.blobs.Upload(ctx, authToken(sess), newPath, input.File.ContentType, input.File.Body); err != nil {
			s.log.Error().Err(err).Str("object", newPath).Msg("blob upload failed")
			return nil, err
		}
		empty := ""
		patch.Link = &empty
		patch.StoragePath = &newPath
		patch.FileName = &input.File.Name
		patch.FileSize = &input.File.Size
	} else if link != "" && existing.HasBlob() {
		// Swapping a blob-backed resource back to a plain link.
		empty := ""
		zero := int64(0)
		patch.StoragePath = &empty
		patch.FileName = &empty
		patch.FileSize = &zero
	}

	if err := s.repo.Update(ctx, authToken(sess), id, patch); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to update resource")
		return nil, err
	}

	// The old blob is removed only after the record update succeeded, and
	// only best-effort: a failed delete orphans the blob, never the edit.
	if existing.HasBlob() && (input.File != nil || link != "") && existing.StoragePath != newPath {
		s.cleaner.Enqueue(existing.StoragePath, authToken(sess))
	}

	updated, err := s.repo.Get(ctx, authToken(sess), id)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("id", id).Msg("resource updated")
	return updated, nil
}

func (s *resourceService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingResourceID
	}

	existing, err := s.repo.Get(ctx, authToken(sess), id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, authToken(sess), id); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to delete resource")
		return err
	}

	if existing.HasBlob() {
		s.cleaner.Enqueue(existing.StoragePath, authToken(sess))
	}

	s.log.Info().Str("id", id).Msg("resource deleted")
	return nil
}

func (s *resourceService) Download(ctx context.Context, sess *domain.Session, id string) (*ports.DownloadResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrMissingResourceID
	}

	res, err := s.repo.Get(ctx, authToken(sess), id)
	if err != nil {
		return nil, err
	}

	switch {
	case res.HasBlob():
		body, contentType, err := s.blobs.Fetch(ctx, authToken(sess), res.StoragePath)
		if err != nil {
			s.log.Error().Err(err).Str("object", res.StoragePath).Msg("blob fetch failed")
			return nil, err
		}
		fileName := strings.TrimSpace(res.FileName)
		if fileName == "" {
			fileName = res.Name
		}
		return &ports.DownloadResult{
			Kind:        ports.DownloadKindFile,
			FileName:    fileName,
			ContentType: contentType,
			Size:        res.FileSize,
			Body:        body,
		}, nil
	case res.HasLink():
		return &ports.DownloadResult{Kind: ports.DownloadKindLink, Link: res.Link}, nil
	default:
		return nil, domain.ErrNotDownloadable
	}
}

func authToken(sess *domain.Session) string {
	if sess == nil {
		return ""
	}
	return sess.IDToken
}

// searchResources keeps resources whose name or description contains term,
// case-insensitive. The admin view additionally matches the link.
func searchResources(items []domain.Resource, term string, includeLink bool) []domain.Resource {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}

	matched := make([]domain.Resource, 0, len(items))
	for _, r := range items {
		if strings.Contains(strings.ToLower(r.Name), term) ||
			strings.Contains(strings.ToLower(r.Description), term) ||
			(includeLink && strings.Contains(strings.ToLower(r.Link), term)) {
			matched = append(matched, r)
		}
	}
	return matched
}

// sortResources returns a sorted copy: newest/oldest by createdAt, or
// locale-aware alphabetical by name. Unknown orders fall back to newest.
func sortResources(items []domain.Resource, order string) []domain.Resource {
	sorted := make([]domain.Resource, len(items))
	copy(sorted, items)

	switch order {
	case ports.SortOldest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		})
	case ports.SortName:
		c := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(sorted, func(i, j int) bool {
			return c.CompareString(sorted[i].Name, sorted[j].Name) < 0
		})
	default: // newest
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	}
	return sorted
}

// filterByCategory keeps resources in the wanted category. Resources without
// a category count as "other". An unknown or empty filter keeps everything.
func filterByCategory(items []domain.Resource, category string) []domain.Resource {
	wanted := strings.ToLower(strings.TrimSpace(category))
	if wanted != domain.CategoryTool && wanted != domain.CategoryFile && wanted != domain.CategoryOther {
		return items
	}

	matched := make([]domain.Resource, 0, len(items))
	for _, r := range items {
		if r.CategoryOrDefault() == wanted {
			matched = append(matched, r)
		}
	}
	return matched
}

func addedToday(items []domain.Resource, now time.Time) int {
	y, m, d := now.UTC().Date()
	count := 0
	for _, r := range items {
		ry, rm, rd := r.CreatedAt.UTC().Date()
		if ry == y && rm == m && rd == d {
			count++
		}
	}
	return count
}

// sanitizeFileName strips every character outside [A-Za-z0-9._-] and trims
// leading/trailing underscores, matching the blob path convention.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '_' || c == '-':
			b.WriteRune(c)
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

func blobObjectPath(fileName string, now time.Time) string {
	return fmt.Sprintf("resources/%d_%s", now.UnixMilli(), sanitizeFileName(fileName))
}

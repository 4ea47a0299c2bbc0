package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/danek0100/External-Observer/internal/cache"
	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/ownership"
	"github.com/danek0100/External-Observer/internal/repository"
)

// DocumentService defines versioned, owner-scoped operations over documents.
type DocumentService interface {
	// Create stores a new document at version 1.
	Create(ctx context.Context, owner string, in model.DocumentInput) (*model.Document, error)
	// Update replaces every caller-controlled field and bumps the version by one.
	Update(ctx context.Context, owner string, id uuid.UUID, in model.DocumentInput) (*model.Document, error)
	// Delete removes the document; absent documents are not an error.
	Delete(ctx context.Context, owner string, id uuid.UUID) error
	Get(ctx context.Context, owner string, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, owner string) ([]model.Document, error)
	// FindByTags matches any tag, or every tag when matchAll is set.
	FindByTags(ctx context.Context, owner string, tags []string, matchAll bool) ([]model.Document, error)
	// FindByKeyword matches content by case-insensitive substring.
	FindByKeyword(ctx context.Context, owner, keyword string) ([]model.Document, error)
	// Search matches any tag OR the keyword.
	Search(ctx context.Context, owner string, tags []string, keyword string) ([]model.Document, error)
	// History returns the current version followed by archived ones, newest first.
	History(ctx context.Context, owner string, id uuid.UUID) ([]model.DocumentRevision, error)
	// Backlinks returns the owner's documents linking to id.
	Backlinks(ctx context.Context, owner string, id uuid.UUID) ([]model.Document, error)
}

type DocumentServiceImpl struct {
	repo   repository.DocumentRepository
	policy ownership.Policy
	cache  cache.DocumentCache
	log    *zap.Logger
	now    func() time.Time
}

// NewDocumentService constructs DocumentService. A nil cache disables caching.
func NewDocumentService(repo repository.DocumentRepository, policy ownership.Policy, c cache.DocumentCache, log *zap.Logger) *DocumentServiceImpl {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentServiceImpl{repo: repo, policy: policy, cache: c, log: log, now: time.Now}
}

func (s *DocumentServiceImpl) clock() time.Time { return s.now().UTC() }

func validateDocument(in *model.DocumentInput) error {
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", errs.ErrValidation)
	}
	if in.Version < 0 {
		return fmt.Errorf("%w: negative version", errs.ErrValidation)
	}
	in.Tags = normalizeTags(in.Tags)
	if in.Links == nil {
		in.Links = []string{}
	}
	if in.Metadata == nil {
		in.Metadata = map[string]any{}
	}
	return nil
}

// normalizeTags trims tags and drops empty and repeated ones, keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || !seen.Add(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Create assigns id, owner, version 1 and created == updated == now.
func (s *DocumentServiceImpl) Create(ctx context.Context, owner string, in model.DocumentInput) (*model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	if err := validateDocument(&in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.clock()
	d := &model.Document{ID: id, Owner: owner, Version: 1, Created: now, Updated: now}
	in.Apply(d)
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.remember(ctx, d)
	return d, nil
}

// Update authorizes and mutates under the repository's row lock, so the
// version check and the increment see the same stored state.
func (s *DocumentServiceImpl) Update(ctx context.Context, owner string, id uuid.UUID, in model.DocumentInput) (*model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	if err := validateDocument(&in); err != nil {
		return nil, err
	}
	now := s.clock()
	d, err := s.repo.Update(ctx, id, func(cur model.Document) (model.Document, error) {
		if err := s.policy.Authorize(owner, cur.Owner); err != nil {
			return cur, err
		}
		if in.Version != 0 && in.Version != cur.Version {
			return cur, fmt.Errorf("%w: have %d, stored %d", errs.ErrVersionConflict, in.Version, cur.Version)
		}
		next := cur
		in.Apply(&next)
		next.Version = cur.Version + 1
		if now.Before(cur.Updated) {
			now = cur.Updated
		}
		next.Updated = now
		return next, nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, s.policy.Missing()
		}
		return nil, err
	}
	// write-through; the cache keeps whichever version is newest
	s.remember(ctx, d)
	return d, nil
}

// Delete is a no-op for absent documents and, unless the policy forbids, for foreign ones.
func (s *DocumentServiceImpl) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	if owner == "" {
		return errs.ErrUnauthorized
	}
	d, err := s.repo.Get(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		// the store may have lost it behind the cache's back
		s.forget(ctx, id)
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(owner, d.Owner); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id, owner); err != nil {
		return err
	}
	s.forget(ctx, id)
	return nil
}

func (s *DocumentServiceImpl) Get(ctx context.Context, owner string, id uuid.UUID) (*model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	d, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn("document cache read failed", zap.String("id", id.String()), zap.Error(err))
		d = nil
	}
	if d == nil {
		d, err = s.repo.Get(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			return nil, s.policy.Missing()
		}
		if err != nil {
			return nil, err
		}
		s.remember(ctx, d)
	}
	if err := s.policy.Authorize(owner, d.Owner); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DocumentServiceImpl) List(ctx context.Context, owner string) ([]model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	return s.repo.ListByOwner(ctx, owner)
}

// FindByTags returns nothing for an empty tag list.
func (s *DocumentServiceImpl) FindByTags(ctx context.Context, owner string, tags []string, matchAll bool) ([]model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	tags = normalizeTags(tags)
	if len(tags) == 0 {
		return []model.Document{}, nil
	}
	return s.repo.FindByTags(ctx, owner, tags, matchAll)
}

func (s *DocumentServiceImpl) FindByKeyword(ctx context.Context, owner, keyword string) ([]model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	return s.repo.FindByContent(ctx, owner, keyword)
}

// Search with tags matches tags OR keyword; without tags it is a keyword search.
// A blank keyword with tags matches the tags only, with neither it lists everything.
func (s *DocumentServiceImpl) Search(ctx context.Context, owner string, tags []string, keyword string) ([]model.Document, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	tags = normalizeTags(tags)
	blank := strings.TrimSpace(keyword) == ""
	switch {
	case len(tags) == 0 && blank:
		return s.repo.ListByOwner(ctx, owner)
	case len(tags) == 0:
		return s.repo.FindByContent(ctx, owner, keyword)
	case blank:
		return s.repo.FindByTags(ctx, owner, tags, false)
	default:
		return s.repo.FindByTagsOrContent(ctx, owner, tags, keyword)
	}
}

func (s *DocumentServiceImpl) History(ctx context.Context, owner string, id uuid.UUID) ([]model.DocumentRevision, error) {
	cur, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	revs, err := s.repo.Revisions(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]model.DocumentRevision, 0, len(revs)+1)
	out = append(out, model.DocumentRevision{Document: *cur})
	for _, r := range revs {
		if r.Version < cur.Version {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *DocumentServiceImpl) Backlinks(ctx context.Context, owner string, id uuid.UUID) ([]model.Document, error) {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	return s.repo.FindBacklinks(ctx, owner, id.String())
}

func (s *DocumentServiceImpl) remember(ctx context.Context, d *model.Document) {
	if err := s.cache.Set(ctx, d); err != nil {
		s.log.Warn("document cache write failed", zap.String("id", d.ID.String()), zap.Error(err))
	}
}

func (s *DocumentServiceImpl) forget(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("document cache invalidate failed", zap.String("id", id.String()), zap.Error(err))
	}
}

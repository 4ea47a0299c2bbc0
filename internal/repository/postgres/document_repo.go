package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

const docColumns = `id, owner, title, type, path, content, tags, links, metadata, status, version, created_at, updated_at`

// DocumentRepo implements DocumentRepository using PostgreSQL.
type DocumentRepo struct{ db *DB }

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// NewDocumentRepo constructs a document repository.
func NewDocumentRepo(db *DB) *DocumentRepo { return &DocumentRepo{db: db} }

// Create inserts a new document row.
func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	meta, err := encodeMetadata(d.Metadata)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO documents (` + docColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = r.db.Pool.Exec(ctx, q,
		d.ID, d.Owner, d.Title, d.Type, d.Path, d.Content,
		nonNil(d.Tags), nonNil(d.Links), meta, d.Status,
		d.Version, d.Created, d.Updated)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects a document by id.
func (r *DocumentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE id=$1`
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// Update locks the row, archives the current state and stores fn's result.
func (r *DocumentRepo) Update(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (*model.Document, error) {
	var out *model.Document
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		const sel = `SELECT ` + docColumns + ` FROM documents WHERE id=$1 FOR UPDATE`
		cur, err := scanDocument(tx.QueryRow(ctx, sel, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		next, err := fn(*cur)
		if err != nil {
			return err
		}

		curMeta, err := encodeMetadata(cur.Metadata)
		if err != nil {
			return err
		}
		const archive = `
INSERT INTO document_revisions (document_id, owner, title, type, path, content, tags, links, metadata, status, version, created_at, updated_at, archived_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
		if _, err = tx.Exec(ctx, archive,
			cur.ID, cur.Owner, cur.Title, cur.Type, cur.Path, cur.Content,
			nonNil(cur.Tags), nonNil(cur.Links), curMeta, cur.Status,
			cur.Version, cur.Created, cur.Updated, next.Updated); err != nil {
			return err
		}

		nextMeta, err := encodeMetadata(next.Metadata)
		if err != nil {
			return err
		}
		const upd = `
UPDATE documents
SET title=$2, type=$3, path=$4, content=$5, tags=$6, links=$7, metadata=$8, status=$9, version=$10, updated_at=$11
WHERE id=$1`
		if _, err = tx.Exec(ctx, upd,
			cur.ID, next.Title, next.Type, next.Path, next.Content,
			nonNil(next.Tags), nonNil(next.Links), nextMeta, next.Status,
			next.Version, next.Updated); err != nil {
			return err
		}

		// identity fields are owned by the store, not by fn
		next.ID, next.Owner, next.Created = cur.ID, cur.Owner, cur.Created
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes revisions first, then the document, both scoped to owner.
func (r *DocumentRepo) Delete(ctx context.Context, id uuid.UUID, owner string) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM document_revisions WHERE document_id=$1 AND owner=$2`, id, owner); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM documents WHERE id=$1 AND owner=$2`, id, owner)
		return err
	})
}

// ListByOwner returns every document of owner.
func (r *DocumentRepo) ListByOwner(ctx context.Context, owner string) ([]model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE owner=$1 ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, q, owner)
}

// FindByTags uses array overlap for any-match and containment for all-match.
func (r *DocumentRepo) FindByTags(ctx context.Context, owner string, tags []string, matchAll bool) ([]model.Document, error) {
	const anyQ = `SELECT ` + docColumns + ` FROM documents WHERE owner=$1 AND tags && $2::text[] ORDER BY updated_at DESC`
	const allQ = `SELECT ` + docColumns + ` FROM documents WHERE owner=$1 AND tags @> $2::text[] ORDER BY updated_at DESC`
	if matchAll {
		return r.queryDocuments(ctx, allQ, owner, nonNil(tags))
	}
	return r.queryDocuments(ctx, anyQ, owner, nonNil(tags))
}

// FindByContent matches keyword as a case-insensitive substring of content.
func (r *DocumentRepo) FindByContent(ctx context.Context, owner, keyword string) ([]model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE owner=$1 AND strpos(lower(content), lower($2)) > 0 ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, q, owner, keyword)
}

// FindByTagsOrContent returns documents matching any tag or containing keyword.
func (r *DocumentRepo) FindByTagsOrContent(ctx context.Context, owner string, tags []string, keyword string) ([]model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE owner=$1 AND (tags && $2::text[] OR strpos(lower(content), lower($3)) > 0) ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, q, owner, nonNil(tags), keyword)
}

// FindBacklinks returns documents whose links contain target.
func (r *DocumentRepo) FindBacklinks(ctx context.Context, owner, target string) ([]model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE owner=$1 AND $2 = ANY(links) ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, q, owner, target)
}

// Revisions returns archived snapshots, newest first.
func (r *DocumentRepo) Revisions(ctx context.Context, id uuid.UUID) ([]model.DocumentRevision, error) {
	const q = `
SELECT document_id, owner, title, type, path, content, tags, links, metadata, status, version, created_at, updated_at, archived_at
FROM document_revisions WHERE document_id=$1 ORDER BY version DESC`
	rows, err := r.db.Pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DocumentRevision{}
	for rows.Next() {
		var (
			rev  model.DocumentRevision
			meta []byte
		)
		d := &rev.Document
		if err = rows.Scan(&d.ID, &d.Owner, &d.Title, &d.Type, &d.Path, &d.Content,
			&d.Tags, &d.Links, &meta, &d.Status, &d.Version, &d.Created, &d.Updated, &rev.ArchivedAt); err != nil {
			return nil, err
		}
		if d.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// PruneRevisions drops all but the newest keep revisions of every document.
func (r *DocumentRepo) PruneRevisions(ctx context.Context, keep int) (int64, error) {
	const q = `
DELETE FROM document_revisions r
USING (
  SELECT document_id, version,
         row_number() OVER (PARTITION BY document_id ORDER BY version DESC) AS rn
  FROM document_revisions
) ranked
WHERE r.document_id = ranked.document_id AND r.version = ranked.version AND ranked.rn > $1`
	tag, err := r.db.Pool.Exec(ctx, q, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *DocumentRepo) queryDocuments(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDocument(row scanner) (*model.Document, error) {
	var (
		d       model.Document
		meta    []byte
		created time.Time
		updated time.Time
	)
	if err := row.Scan(&d.ID, &d.Owner, &d.Title, &d.Type, &d.Path, &d.Content,
		&d.Tags, &d.Links, &meta, &d.Status, &d.Version, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if d.Metadata, err = decodeMetadata(meta); err != nil {
		return nil, err
	}
	d.Created, d.Updated = created, updated
	return &d, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

func decodeMetadata(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

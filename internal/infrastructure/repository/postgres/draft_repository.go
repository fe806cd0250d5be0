package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blurexe/draftcore/internal/domain/draft"
)

type DraftRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db, now: time.Now}
}

const selectDraftQuery = `SELECT id, phase, doc, created_at, updated_at FROM drafts WHERE id = $1`

const listDraftsQuery = `SELECT id, phase, doc, created_at, updated_at FROM drafts ORDER BY created_at`

const upsertDraftQuery = `
INSERT INTO drafts (id, phase, doc, created_at, updated_at)
VALUES (:id, :phase, :doc, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET phase = EXCLUDED.phase, doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`

const deleteDraftQuery = `DELETE FROM drafts WHERE id = $1`

func (r *DraftRepository) GetByID(ctx context.Context, draftID string) (draft.Draft, bool, error) {
	var row draftTableModel
	if err := r.db.GetContext(ctx, &row, selectDraftQuery, draftID); err != nil {
		if isNotFound(err) {
			return draft.Draft{}, false, nil
		}
		return draft.Draft{}, false, fmt.Errorf("get draft by id: %w", err)
	}

	d, err := row.toDomain()
	if err != nil {
		return draft.Draft{}, false, err
	}

	return d, true, nil
}

func (r *DraftRepository) List(ctx context.Context) ([]draft.Draft, error) {
	var rows []draftTableModel
	if err := r.db.SelectContext(ctx, &rows, listDraftsQuery); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	out := make([]draft.Draft, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, nil
}

func (r *DraftRepository) Save(ctx context.Context, d draft.Draft) error {
	row, err := newDraftTableModel(d, r.now().UTC())
	if err != nil {
		return err
	}

	if _, err := r.db.NamedExecContext(ctx, upsertDraftQuery, row); err != nil {
		return fmt.Errorf("upsert draft id=%s: %w", d.ID, err)
	}

	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, draftID string) error {
	if _, err := r.db.ExecContext(ctx, deleteDraftQuery, draftID); err != nil {
		return fmt.Errorf("delete draft id=%s: %w", draftID, err)
	}

	return nil
}

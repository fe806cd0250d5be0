package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/blurexe/draftcore/internal/domain/draft"
)

// draftTableModel stores the whole aggregate as one JSON document. The
// phase column is duplicated out of the document for operational queries.
type draftTableModel struct {
	ID        string    `db:"id"`
	Phase     string    `db:"phase"`
	Doc       []byte    `db:"doc"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newDraftTableModel(d draft.Draft, now time.Time) (draftTableModel, error) {
	doc, err := sonic.Marshal(d)
	if err != nil {
		return draftTableModel{}, fmt.Errorf("marshal draft document: %w", err)
	}

	return draftTableModel{
		ID:        d.ID,
		Phase:     string(d.Phase),
		Doc:       doc,
		CreatedAt: d.CreatedAt,
		UpdatedAt: now,
	}, nil
}

func (m draftTableModel) toDomain() (draft.Draft, error) {
	var d draft.Draft
	if err := sonic.Unmarshal(m.Doc, &d); err != nil {
		return draft.Draft{}, fmt.Errorf("unmarshal draft document id=%s: %w", m.ID, err)
	}

	return d, nil
}

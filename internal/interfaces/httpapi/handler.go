package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/blurexe/draftcore/internal/domain/draft"
	"github.com/blurexe/draftcore/internal/platform/logging"
	"github.com/blurexe/draftcore/internal/usecase"
)

type Handler struct {
	drafts    *usecase.DraftService
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(drafts *usecase.DraftService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		drafts:    drafts,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	d, err := h.drafts.GetDraft(ctx, draftID)
	if err != nil {
		h.logger.WarnContext(ctx, "get draft failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftToDTO(ctx, d))
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, target)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type draftDTO struct {
	ID           string     `json:"id"`
	Phase        string     `json:"phase"`
	TeamSize     int        `json:"team_size"`
	Snake        bool       `json:"snake"`
	Money        bool       `json:"money"`
	EntryCents   int64      `json:"entry_cents"`
	CreatedAt    time.Time  `json:"created_at"`
	Players      []string   `json:"players"`
	Team1Captain string     `json:"team1_captain,omitempty"`
	Team2Captain string     `json:"team2_captain,omitempty"`
	Team1        []string   `json:"team1,omitempty"`
	Team2        []string   `json:"team2,omitempty"`
	Available    []string   `json:"available,omitempty"`
	PickTurn     string     `json:"pick_turn,omitempty"`
	Middleman    string     `json:"middleman,omitempty"`
	Ledger       *ledgerDTO `json:"ledger,omitempty"`
	Double       *doubleDTO `json:"double,omitempty"`
}

type ledgerDTO struct {
	NoteCode      string           `json:"note_code"`
	RequiredCents int64            `json:"required_cents"`
	Paid          map[string]int64 `json:"paid"`
	Complete      bool             `json:"complete"`
}

type doubleDTO struct {
	State     string     `json:"state"`
	Votes     int        `json:"votes"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	LoserTeam string     `json:"loser_team,omitempty"`
}

func draftToDTO(ctx context.Context, d draft.Draft) draftDTO {
	_, span := startSpan(ctx, "httpapi.draftToDTO")
	defer span.End()

	dto := draftDTO{
		ID:           d.ID,
		Phase:        string(d.Phase),
		TeamSize:     d.TeamSize,
		Snake:        d.Snake,
		Money:        d.Money,
		EntryCents:   d.EntryCents,
		CreatedAt:    d.CreatedAt,
		Players:      d.Players,
		Team1Captain: d.Captains.Team1,
		Team2Captain: d.Captains.Team2,
		Team1:        d.Team1,
		Team2:        d.Team2,
		Available:    d.Available,
		PickTurn:     string(d.PickTurn),
		Middleman:    d.MiddlemanID,
	}

	if d.Ledger != nil {
		dto.Ledger = &ledgerDTO{
			NoteCode:      d.Ledger.NoteCode,
			RequiredCents: d.Ledger.RequiredCents,
			Paid:          d.Ledger.Paid,
			Complete:      d.Ledger.Complete,
		}
	}
	if d.Double != nil {
		dto.Double = &doubleDTO{
			State:     string(d.Double.State),
			Votes:     len(d.Double.Votes),
			Deadline:  d.Double.Deadline,
			LoserTeam: string(d.Double.LoserTeam),
		}
	}

	return dto
}

package httpapi

import (
	"context"
	"net/http"

	"github.com/blurexe/draftcore/internal/domain/draft"
	"github.com/blurexe/draftcore/internal/usecase"
)

type createDraftRequest struct {
	TeamSize   int   `json:"team_size" validate:"required,min=2,max=10"`
	Money      bool  `json:"money"`
	EntryCents int64 `json:"entry_cents" validate:"omitempty,min=1"`
	Snake      bool  `json:"snake"`
}

type playerActionRequest struct {
	PlayerID string `json:"player_id" validate:"required,max=64"`
}

type pickRequest struct {
	CaptainID string `json:"captain_id" validate:"required,max=64"`
	PlayerID  string `json:"player_id" validate:"required,max=64"`
}

type payerTagRequest struct {
	PlayerID string `json:"player_id" validate:"required,max=64"`
	Tag      string `json:"tag" validate:"required,max=100"`
}

type middlemanRequest struct {
	UserID    string `json:"user_id" validate:"required,max=64"`
	PayoutTag string `json:"payout_tag" validate:"required,max=100"`
}

type loserVoteRequest struct {
	CaptainID string `json:"captain_id" validate:"required,max=64"`
	LoserTeam string `json:"loser_team" validate:"required,oneof=team1 team2"`
}

type endDraftRequest struct {
	Winner string `json:"winner" validate:"omitempty,oneof=team1 team2 none"`
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateDraft")
	defer span.End()

	var req createDraftRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.drafts.CreateDraft(ctx, usecase.CreateDraftInput{
		TeamSize:   req.TeamSize,
		Money:      req.Money,
		EntryCents: req.EntryCents,
		Snake:      req.Snake,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create draft failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, draftToDTO(ctx, created))
}

func (h *Handler) JoinDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req playerActionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.Join(ctx, draftID, req.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "join draft failed", "draft_id", draftID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) LeaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req playerActionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.Leave(ctx, draftID, req.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "leave draft failed", "draft_id", draftID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) ForceStartDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceStartDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	if err := h.drafts.ForceStart(ctx, draftID); err != nil {
		h.logger.WarnContext(ctx, "force start failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) PickPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PickPlayer")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req pickRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.Pick(ctx, draftID, req.CaptainID, req.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "pick failed", "draft_id", draftID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) SubmitPayerTag(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPayerTag")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req payerTagRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.SubmitPayerTag(ctx, draftID, req.PlayerID, req.Tag); err != nil {
		h.logger.WarnContext(ctx, "submit payer tag failed", "draft_id", draftID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) SubmitMiddlemanTag(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMiddlemanTag")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req middlemanRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.SubmitMiddlemanTag(ctx, draftID, req.UserID, req.PayoutTag); err != nil {
		h.logger.WarnContext(ctx, "submit middleman tag failed", "draft_id", draftID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) ManualStartDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ManualStartDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req playerActionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.ManualStart(ctx, draftID, req.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "manual start failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) CastDoubleVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CastDoubleVote")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req playerActionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.CastDoubleVote(ctx, draftID, req.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "double vote failed", "draft_id", draftID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) CastLoserVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CastLoserVote")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req loserVoteRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.drafts.CastLoserVote(ctx, draftID, req.CaptainID, draft.Team(req.LoserTeam)); err != nil {
		h.logger.WarnContext(ctx, "loser vote failed", "draft_id", draftID, "captain_id", req.CaptainID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeDraftSnapshot(ctx, w, draftID)
}

func (h *Handler) CloseDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	if err := h.drafts.CloseDraft(ctx, draftID); err != nil {
		h.logger.WarnContext(ctx, "close draft failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) EndDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndDraft")
	defer span.End()

	draftID := r.PathValue("draftID")
	var req endDraftRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	winner := draft.TeamNone
	if req.Winner != "" && req.Winner != "none" {
		winner = draft.Team(req.Winner)
	}

	if err := h.drafts.EndDraft(ctx, draftID, winner); err != nil {
		h.logger.WarnContext(ctx, "end draft failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"status": "ended",
		"winner": req.Winner,
	})
}

func (h *Handler) writeDraftSnapshot(ctx context.Context, w http.ResponseWriter, draftID string) {
	d, err := h.drafts.GetDraft(ctx, draftID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, draftToDTO(ctx, d))
}

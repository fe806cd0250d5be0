package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/blurexe/draftcore/internal/domain/draft"
	"github.com/blurexe/draftcore/internal/usecase"
)

func TestMapError_Taxonomy(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"invalid input", usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput"},
		{"short tag", draft.ErrTagTooShort, http.StatusBadRequest, "invalidInput"},
		{"not found", fmt.Errorf("load: %w", usecase.ErrNotFound), http.StatusNotFound, "notFound"},
		{"unauthorized", usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"not captain", draft.ErrNotCaptain, http.StatusForbidden, "forbiddenRole"},
		{"not middleman", draft.ErrNotMiddleman, http.StatusForbidden, "forbiddenRole"},
		{"wrong phase", fmt.Errorf("join: %w", draft.ErrWrongPhase), http.StatusConflict, "conflictingState"},
		{"wrong turn", draft.ErrWrongTurn, http.StatusConflict, "conflictingState"},
		{"queue full", draft.ErrQueueFull, http.StatusConflict, "conflictingState"},
		{"tag taken", draft.ErrTagTaken, http.StatusConflict, "conflictingState"},
		{"double closed", draft.ErrDoubleClosed, http.StatusConflict, "conflictingState"},
		{"dependency down", usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internalError"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapError(t.Context(), tc.err)
			if mapped.HTTPStatus != tc.wantStatus {
				t.Fatalf("status: got %d want %d", mapped.HTTPStatus, tc.wantStatus)
			}
			if mapped.Reason != tc.wantReason {
				t.Fatalf("reason: got %s want %s", mapped.Reason, tc.wantReason)
			}
		})
	}
}

package httpapi

import (
	"net/http"

	"github.com/blurexe/draftcore/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger, corsAllowedOrigins []string) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerDraftRoutes(mux, handler)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDraftRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/drafts", handler.CreateDraft)
	mux.HandleFunc("GET /v1/drafts/{draftID}", handler.GetDraft)
	mux.HandleFunc("POST /v1/drafts/{draftID}/join", handler.JoinDraft)
	mux.HandleFunc("POST /v1/drafts/{draftID}/leave", handler.LeaveDraft)
	mux.HandleFunc("POST /v1/drafts/{draftID}/force-start", handler.ForceStartDraft)
	mux.HandleFunc("POST /v1/drafts/{draftID}/pick", handler.PickPlayer)
	mux.HandleFunc("POST /v1/drafts/{draftID}/payer-tag", handler.SubmitPayerTag)
	mux.HandleFunc("POST /v1/drafts/{draftID}/middleman", handler.SubmitMiddlemanTag)
	mux.HandleFunc("POST /v1/drafts/{draftID}/manual-start", handler.ManualStartDraft)
	mux.HandleFunc("POST /v1/drafts/{draftID}/double-vote", handler.CastDoubleVote)
	mux.HandleFunc("POST /v1/drafts/{draftID}/loser-vote", handler.CastLoserVote)
	mux.HandleFunc("POST /v1/drafts/{draftID}/close", handler.CloseDraft)
	mux.HandleFunc("POST /v1/drafts/{draftID}/end", handler.EndDraft)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/blurexe/draftcore/external/payfeed"
	"github.com/blurexe/draftcore/internal/config"
	"github.com/blurexe/draftcore/internal/domain/draft"
	"github.com/blurexe/draftcore/internal/infrastructure/repository/memory"
	"github.com/blurexe/draftcore/internal/infrastructure/repository/postgres"
	"github.com/blurexe/draftcore/internal/interfaces/httpapi"
	idgen "github.com/blurexe/draftcore/internal/platform/id"
	"github.com/blurexe/draftcore/internal/platform/logging"
	"github.com/blurexe/draftcore/internal/platform/resilience"
	"github.com/blurexe/draftcore/internal/usecase"
)

// App bundles the wired service with the handles main needs to run and
// shut it down.
type App struct {
	Server   *http.Server
	Drafts   *usecase.DraftService
	Notifier *usecase.AsyncNotifier
	DB       *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var repo draft.Repository
	var db *sqlx.DB
	if cfg.DBURL != "" {
		var err error
		db, err = otelsqlx.Connect("postgres",
			normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		repo = postgres.NewDraftRepository(db)
		logger.Info("using postgres draft repository", "db_name", dbNameFromURL(cfg.DBURL))
	} else {
		repo = memory.NewDraftRepository()
		logger.Info("using in-memory draft repository", "reason", "DB_URL empty")
	}

	notifier, err := usecase.NewAsyncNotifier(usecase.NewLogNotifier(logger), cfg.NotifyWorkers, logger)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("build notifier: %w", err)
	}

	var feed usecase.PaymentFeed
	if cfg.PayFeedEnabled {
		feed = payfeed.NewClient(payfeed.ClientConfig{
			BaseURL:    cfg.PayFeedBaseURL,
			Token:      cfg.PayFeedToken,
			Timeout:    cfg.PayFeedTimeout,
			MaxRetries: cfg.PayFeedMaxRetries,
			PageLimit:  cfg.PayFeedPageLimit,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.PayFeedCircuitEnabled,
				FailureThreshold: cfg.PayFeedCircuitFailureCount,
				OpenTimeout:      cfg.PayFeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.PayFeedCircuitHalfOpenReq,
			},
		})
	}

	generator := idgen.NewRandomGenerator()
	drafts := usecase.NewDraftService(
		repo,
		generator,
		generator,
		notifier,
		usecase.NewAllowAllGatekeeper(),
		feed,
		usecase.DraftServiceConfig{
			QueueReapAfter:         cfg.QueueReapAfter,
			QueueReapInterval:      cfg.QueueReapInterval,
			DoubleVoteWindow:       cfg.DoubleVoteWindow,
			DoubleVoteTick:         cfg.DoubleVoteTick,
			DoubleStakesMultiplier: int64(cfg.DoubleStakesMultiplier),
			FeedPollInterval:       cfg.PayFeedPollInterval,
		},
		logger,
	)

	handler := httpapi.NewHandler(drafts, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		notifier.Close()
		closeDB(db)
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:   server,
		Drafts:   drafts,
		Notifier: notifier,
		DB:       db,
	}, nil
}

// Close releases resources that outlive the HTTP server. The server
// itself is shut down by the caller.
func (a *App) Close() {
	if a.Notifier != nil {
		a.Notifier.Close()
	}
	closeDB(a.DB)
}

func closeDB(db *sqlx.DB) {
	if db != nil {
		_ = db.Close()
	}
}

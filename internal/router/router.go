package router

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	_ "prescription-ledger/docs"
	mem "prescription-ledger/internal/adapters/storage/memory"
	pg "prescription-ledger/internal/adapters/storage/postgres"
	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/domain/prescriptions"
	"prescription-ledger/internal/middleware"
	"prescription-ledger/internal/platform/config"
	"prescription-ledger/internal/platform/logger"
	"prescription-ledger/internal/platform/metrics"
	"prescription-ledger/internal/ports/auth"
	"prescription-ledger/internal/ports/credentials"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Sessions auth.SessionManager
	Hasher   credentials.Hasher

	// Opcional: si viene, usa Postgres (ya migrado). Si no, in-memory.
	DB *sql.DB

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Policy  config.Policy

	// Actores a provisionar antes de servir (SEED_FILE).
	Seed []actors.SeedActor
}

func NewRouter(opts Options) (http.Handler, error) {
	if opts.Sessions == nil {
		return nil, errors.New("router: session manager is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("router: hasher is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	var (
		actorRepo actors.Repository
		rxRepo    prescriptions.Repository
	)
	if opts.DB != nil {
		actorRepo = pg.NewActorsRepo(opts.DB)
		rxRepo = pg.NewPrescriptionsRepo(opts.DB)
	} else {
		store := mem.NewStore()
		actorRepo = store.Actors()
		rxRepo = store.Prescriptions()
	}

	// Services por módulo. actors y prescriptions se referencian vía interfaces.
	actorsSvc := actors.NewService(actorRepo, opts.Hasher)
	rxSvc := prescriptions.NewService(rxRepo, actorsSvc)
	actorsSvc.UseReferenceLookup(rxSvc)

	if len(opts.Seed) > 0 {
		n, err := actorsSvc.Seed(context.Background(), opts.Seed)
		if err != nil {
			return nil, fmt.Errorf("seed actors: %w", err)
		}
		log.Info("actors seeded", map[string]any{"created": n, "entries": len(opts.Seed)})
	}

	gate := middleware.NewGate(log, m)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(m.Instrument)

	r.Use(middleware.AuthContext(opts.Sessions))
	r.Use(middleware.RequestLog(log))

	// Públicas
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	actors.RegisterLoginRoutes(r, actorsSvc, opts.Sessions, log, m)

	// Todo lo demás pasa por el gate
	r.Group(func(pr chi.Router) {
		pr.Use(gate.RequireSession)

		actors.RegisterRoutes(pr, actorsSvc, rxSvc, gate, opts.Policy.ActorAdminRole, log)
		prescriptions.RegisterRoutes(pr, rxSvc, gate, opts.Policy.PrescriptionDeleteRole, log, m)
	})

	return r, nil
}

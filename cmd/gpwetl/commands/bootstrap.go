package commands

import (
	"fmt"

	"github.com/adamwal/gpwetl/internal/calendar"
	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/internal/etl"
	"github.com/adamwal/gpwetl/internal/external/stooq"
	"github.com/adamwal/gpwetl/internal/quality"
	"github.com/adamwal/gpwetl/internal/store"
	"github.com/adamwal/gpwetl/pkg/config"
	"github.com/adamwal/gpwetl/pkg/database"
	"github.com/adamwal/gpwetl/pkg/httputil"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// app bundles the wired components shared by the commands.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	cal    *calendar.Calendar
	stooq  *stooq.Client
	stores map[string]*store.Store
}

// bootstrap loads configuration and wires the shared components. The
// caller owns the database handle and must Close it.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	cal := calendar.New(cfg.ETL.CalendarFromYear, cfg.ETL.CalendarToYear)

	httpClient := httputil.NewWithTimeout(log, cfg.Stooq.Timeout).
		WithRateLimit(cfg.Stooq.RequestDelay)
	stooqClient := stooq.NewClient(httpClient, cfg.Stooq, log)

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		cal:    cal,
		stooq:  stooqClient,
		stores: make(map[string]*store.Store),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

// storeFor returns the repository set bound to a schema, building it once.
func (a *app) storeFor(schema string) *store.Store {
	if schema == "" {
		schema = a.cfg.ETL.DefaultSchema
	}
	if s, ok := a.stores[schema]; ok {
		return s
	}
	s := store.New(a.db.Pool, schema)
	a.stores[schema] = s
	return s
}

// runner wires a pipeline against the schema's repositories.
func (a *app) runner(schema string) *etl.Runner {
	st := a.storeFor(schema)

	resolver := etl.NewResolver(a.cal, a.cfg.ETL.BackfillAfterDays, a.cfg.ETL.DefaultSchema, a.log)
	selector := etl.NewSelector(st.Instruments, a.cfg.ETL.StaleAfterDays, a.log)
	validator := quality.NewValidator(a.log)

	return etl.NewRunner(
		resolver, selector, a.stooq,
		st.Instruments, st.Prices,
		validator, st.Quality,
		st.Jobs, a.log,
	)
}

// defaultUniverse converts the built-in symbol set to pipeline entries.
func defaultUniverse() []contracts.Instrument {
	syms := stooq.DefaultSymbols()
	out := make([]contracts.Instrument, len(syms))
	for i, s := range syms {
		out[i] = contracts.Instrument{Symbol: s.Symbol, Name: s.Name, Kind: s.Kind}
	}
	return out
}

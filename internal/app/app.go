// Package app wires the engine together: database, repositories,
// models and services.
package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/WarenOdhiambo1/oddsengine/internal/config"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/dixoncoles"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/ensemble"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
	"github.com/WarenOdhiambo1/oddsengine/internal/infrastructure/artifact"
	"github.com/WarenOdhiambo1/oddsengine/internal/infrastructure/repository/postgres"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/id"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
	"github.com/WarenOdhiambo1/oddsengine/internal/usecase"
)

// Engine bundles the ready-to-use services.
type Engine struct {
	Predictions *usecase.PredictionService
	Training    *usecase.TrainingService
	Value       *usecase.ValueBetService

	BatchWorkers     int
	BatchTaskTimeout time.Duration
}

// NewEngine builds the full dependency graph against Postgres. The
// returned closer releases the database pool.
func NewEngine(cfg config.Config, logger *logging.Logger) (*Engine, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DBURL == "" {
		return nil, nil, fmt.Errorf("DB_URL is required")
	}

	db, err := otelsqlx.Connect("postgres", cfg.DBURL,
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithDBSystem("postgresql"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	engine, err := buildEngine(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return engine, db.Close, nil
}

func buildEngine(cfg config.Config, db *sqlx.DB, logger *logging.Logger) (*Engine, error) {
	params := cfg.EngineParams()
	model, err := dixoncoles.New(params)
	if err != nil {
		return nil, fmt.Errorf("build outcome model: %w", err)
	}

	teamRepo := postgres.NewTeamRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	standingRepo := postgres.NewStandingRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	oddsRepo := postgres.NewMarketOddsRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	opportunityRepo := postgres.NewOpportunityRepository(db)

	extractor := feature.NewExtractor(teamRepo, matchRepo, standingRepo, playerRepo, params)
	artifactStore := artifact.NewStore(cfg.ArtifactDir)

	return &Engine{
		Predictions: usecase.NewPredictionService(
			teamRepo, matchRepo, playerRepo, predictionRepo,
			extractor, model, artifactStore, logger.Named("predictions"),
		),
		Training: usecase.NewTrainingService(
			matchRepo, extractor, artifactStore, ensemble.DefaultMembers(), logger.Named("training"),
		),
		Value: usecase.NewValueBetService(
			matchRepo, teamRepo, predictionRepo, oddsRepo, opportunityRepo,
			id.NewRandomGenerator(), cfg.ValueThreshold, logger.Named("value"),
		),
		BatchWorkers:     cfg.BatchWorkers,
		BatchTaskTimeout: cfg.BatchTaskTimeout,
	}, nil
}

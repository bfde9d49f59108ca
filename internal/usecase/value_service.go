package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/marketodds"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/opportunity"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/prediction"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/id"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
)

// DefaultValueThreshold is the minimum expected value an edge must
// strictly exceed before it is recorded.
const DefaultValueThreshold = 0.05

// ErrNoPrediction means no model has scored the match yet, so there is
// no probability to price against.
var ErrNoPrediction = errors.New("no prediction available for match")

type ValueBetService struct {
	matches       match.Repository
	teams         team.Repository
	predictions   prediction.Repository
	odds          marketodds.Repository
	opportunities opportunity.Repository
	ids           id.Generator
	threshold     float64
	// versionOrder is the model preference when several predictions
	// exist for one match.
	versionOrder []string
	logger       *logging.Logger
	now          func() time.Time
}

func NewValueBetService(
	matches match.Repository,
	teams team.Repository,
	predictions prediction.Repository,
	odds marketodds.Repository,
	opportunities opportunity.Repository,
	ids id.Generator,
	threshold float64,
	logger *logging.Logger,
) *ValueBetService {
	if logger == nil {
		logger = logging.Default()
	}
	if threshold <= 0 {
		threshold = DefaultValueThreshold
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &ValueBetService{
		matches:       matches,
		teams:         teams,
		predictions:   predictions,
		odds:          odds,
		opportunities: opportunities,
		ids:           ids,
		threshold:     threshold,
		versionOrder:  []string{prediction.VersionEnsemble, prediction.VersionDixonColes},
		logger:        logger,
		now:           time.Now,
	}
}

// DetectOpportunities compares the stored model probabilities against
// the best available h2h price per selection and records every edge
// strictly above the threshold. Recording is idempotent per match and
// selection.
func (s *ValueBetService) DetectOpportunities(ctx context.Context, matchID string) ([]opportunity.Opportunity, error) {
	ctx, span := startUsecaseSpan(ctx, "ValueBetService.DetectOpportunities")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: get match: %v", ErrUpstreamData, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	pred, err := s.latestPrediction(ctx, matchID)
	if err != nil {
		return nil, err
	}

	home, exists, err := s.teams.GetByID(ctx, m.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("%w: get home team: %v", ErrUpstreamData, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: home team %s", ErrNotFound, m.HomeTeamID)
	}
	away, exists, err := s.teams.GetByID(ctx, m.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("%w: get away team: %v", ErrUpstreamData, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: away team %s", ErrNotFound, m.AwayTeamID)
	}

	rows, err := s.odds.ListByMatchAndMarket(ctx, matchID, marketodds.MarketH2H)
	if err != nil {
		return nil, fmt.Errorf("%w: list odds: %v", ErrUpstreamData, err)
	}

	var found []opportunity.Opportunity
	for _, best := range marketodds.ReduceBest(rows) {
		prob, ok := probForSelection(best.Selection, home.Name, away.Name, pred)
		if !ok {
			s.logger.WarnContext(ctx, "selection does not map to an outcome",
				"match_id", matchID, "selection", best.Selection)
			continue
		}
		ev := opportunity.ExpectedValueOf(best.Price, prob)
		if ev <= s.threshold {
			continue
		}

		oppID, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate opportunity id: %w", err)
		}
		opp := opportunity.Opportunity{
			ID:             oppID,
			MatchID:        matchID,
			Selection:      best.Selection,
			ModelProb:      prob,
			BestOdds:       best.Price,
			ExpectedValue:  ev,
			BookmakerCount: best.BookmakerCount,
			Status:         opportunity.StatusOpen,
			DetectedAt:     s.now().UTC(),
		}
		inserted, err := s.opportunities.InsertIfAbsent(ctx, opp)
		if err != nil {
			return nil, fmt.Errorf("%w: store opportunity: %v", ErrUpstreamData, err)
		}
		if inserted {
			found = append(found, opp)
			s.logger.InfoContext(ctx, "value opportunity recorded",
				"match_id", matchID,
				"selection", best.Selection,
				"model_prob", prob,
				"best_odds", best.Price,
				"expected_value", ev,
				"bookmakers", best.BookmakerCount,
			)
		}
	}
	return found, nil
}

func (s *ValueBetService) latestPrediction(ctx context.Context, matchID string) (prediction.Prediction, error) {
	for _, version := range s.versionOrder {
		p, exists, err := s.predictions.GetByMatchAndVersion(ctx, matchID, version)
		if err != nil {
			return prediction.Prediction{}, fmt.Errorf("%w: get prediction: %v", ErrUpstreamData, err)
		}
		if exists {
			return p, nil
		}
	}
	return prediction.Prediction{}, fmt.Errorf("%w: match=%s", ErrNoPrediction, matchID)
}

// probForSelection resolves a bookmaker selection label to a model
// probability. Team selections must match a team name exactly apart
// from case; anything unresolvable is reported unmapped.
func probForSelection(selection, homeName, awayName string, p prediction.Prediction) (float64, bool) {
	s := strings.TrimSpace(selection)
	switch {
	case strings.EqualFold(s, homeName):
		return p.ProbHome, true
	case strings.EqualFold(s, awayName):
		return p.ProbAway, true
	case strings.EqualFold(s, "draw"):
		return p.ProbDraw, true
	default:
		return 0, false
	}
}

type DetectBatchInput struct {
	MaxWorkers  int
	TaskTimeout time.Duration
}

// DetectBatch runs detection over every match that has h2h odds.
// Matches without a stored prediction are skipped, not failed.
func (s *ValueBetService) DetectBatch(ctx context.Context, input DetectBatchInput) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ValueBetService.DetectBatch")
	defer span.End()

	ids, err := s.odds.ListMatchIDsWithMarket(ctx, marketodds.MarketH2H)
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: list matches with odds: %v", ErrUpstreamData, err)
	}

	result, err := runBatch(ctx, ids, input.MaxWorkers, input.TaskTimeout,
		func(taskCtx context.Context, matchID string) (bool, string, error) {
			found, err := s.DetectOpportunities(taskCtx, matchID)
			if errors.Is(err, ErrNoPrediction) {
				return true, err.Error(), nil
			}
			if err != nil {
				return false, "", err
			}
			return false, fmt.Sprintf("%d opportunities", len(found)), nil
		})
	if err != nil {
		return BatchResult{}, err
	}

	s.logger.InfoContext(ctx, "value detection batch finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
		"elapsed_ms", result.ElapsedMs,
	)
	return result, nil
}

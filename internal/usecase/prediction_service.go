package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/player"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/prediction"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/dixoncoles"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/ensemble"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
)

// Method selects the model family used for a prediction.
type Method string

const (
	MethodDixonColes Method = "dixon_coles"
	MethodEnsemble   Method = "ensemble"
)

func ParseMethod(value string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(value))) {
	case MethodDixonColes:
		return MethodDixonColes, nil
	case MethodEnsemble, "":
		return MethodEnsemble, nil
	default:
		return "", fmt.Errorf("%w: unknown prediction method %q", ErrInvalidInput, value)
	}
}

// ArtifactSource loads the currently published ensemble artifact.
type ArtifactSource interface {
	LoadCurrent(ctx context.Context) (*ensemble.Artifact, error)
}

const formWindow = 5

type PredictionService struct {
	teams       team.Repository
	matches     match.Repository
	players     player.Repository
	predictions prediction.Repository
	extractor   *feature.Extractor
	model       *dixoncoles.Model
	artifacts   ArtifactSource
	logger      *logging.Logger
	now         func() time.Time
}

func NewPredictionService(
	teams team.Repository,
	matches match.Repository,
	players player.Repository,
	predictions prediction.Repository,
	extractor *feature.Extractor,
	model *dixoncoles.Model,
	artifacts ArtifactSource,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		teams:       teams,
		matches:     matches,
		players:     players,
		predictions: predictions,
		extractor:   extractor,
		model:       model,
		artifacts:   artifacts,
		logger:      logger,
		now:         time.Now,
	}
}

type PredictInput struct {
	MatchID string
	Method  Method
	// FallbackDixonColes retries with the analytic model when no
	// ensemble artifact is published yet.
	FallbackDixonColes bool
}

// Predict computes and persists the outcome probabilities for one
// match. The persisted row is keyed by match and model version, so
// re-predicting overwrites rather than duplicates.
func (s *PredictionService) Predict(ctx context.Context, input PredictInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.Predict")
	defer span.End()

	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: get match: %v", ErrUpstreamData, err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	p, err := s.predict(ctx, m, input.Method)
	if input.Method == MethodEnsemble && input.FallbackDixonColes && errors.Is(err, ensemble.ErrModelUnavailable) {
		s.logger.WarnContext(ctx, "no ensemble artifact published, falling back", "match_id", matchID)
		p, err = s.predict(ctx, m, MethodDixonColes)
	}
	if err != nil {
		return prediction.Prediction{}, err
	}

	if err := s.predictions.Upsert(ctx, p); err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: store prediction: %v", ErrUpstreamData, err)
	}
	s.logger.InfoContext(ctx, "prediction stored",
		"match_id", matchID,
		"model_version", p.ModelVersion,
		"prob_home", p.ProbHome,
		"prob_draw", p.ProbDraw,
		"prob_away", p.ProbAway,
	)
	return p, nil
}

func (s *PredictionService) predict(ctx context.Context, m match.Match, method Method) (prediction.Prediction, error) {
	switch method {
	case MethodDixonColes:
		return s.predictDixonColes(ctx, m)
	case MethodEnsemble:
		return s.predictEnsemble(ctx, m)
	default:
		return prediction.Prediction{}, fmt.Errorf("%w: unknown prediction method %q", ErrInvalidInput, method)
	}
}

func (s *PredictionService) predictDixonColes(ctx context.Context, m match.Match) (prediction.Prediction, error) {
	home, exists, err := s.teams.GetByID(ctx, m.HomeTeamID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: get home team: %v", ErrUpstreamData, err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: home team %s", feature.ErrDataIncomplete, m.HomeTeamID)
	}
	away, exists, err := s.teams.GetByID(ctx, m.AwayTeamID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: get away team: %v", ErrUpstreamData, err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: away team %s", feature.ErrDataIncomplete, m.AwayTeamID)
	}

	factors, err := s.contextualFactors(ctx, m)
	if err != nil {
		return prediction.Prediction{}, err
	}

	res, err := s.model.Predict(home.Attack(), home.Defense(), away.Attack(), away.Defense(), factors)
	if err != nil {
		return prediction.Prediction{}, err
	}

	return prediction.Prediction{
		MatchID:      m.ID,
		ProbHome:     res.ProbHome,
		ProbDraw:     res.ProbDraw,
		ProbAway:     res.ProbAway,
		XGHome:       res.LambdaHome,
		XGAway:       res.LambdaAway,
		ModelVersion: prediction.VersionDixonColes,
		CreatedAt:    s.now().UTC(),
	}, nil
}

func (s *PredictionService) predictEnsemble(ctx context.Context, m match.Match) (prediction.Prediction, error) {
	art, err := s.artifacts.LoadCurrent(ctx)
	if err != nil {
		return prediction.Prediction{}, err
	}

	vec, err := s.extractor.Extract(ctx, feature.InputFromMatch(m))
	if err != nil {
		return prediction.Prediction{}, err
	}
	probs, err := art.Predict(vec)
	if err != nil {
		return prediction.Prediction{}, err
	}

	return prediction.Prediction{
		MatchID:      m.ID,
		ProbHome:     probs.Home,
		ProbDraw:     probs.Draw,
		ProbAway:     probs.Away,
		XGHome:       vec["xg_home"],
		XGAway:       vec["xg_away"],
		ModelVersion: prediction.VersionEnsemble,
		CreatedAt:    s.now().UTC(),
	}, nil
}

// contextualFactors assembles the adjustment multipliers from history
// strictly before kickoff.
func (s *PredictionService) contextualFactors(ctx context.Context, m match.Match) (dixoncoles.Factors, error) {
	factors := dixoncoles.NeutralFactors()

	homeRecent, err := s.matches.ListFinishedByTeam(ctx, m.HomeTeamID, m.KickoffAt, formWindow)
	if err != nil {
		return factors, fmt.Errorf("%w: home form history: %v", ErrUpstreamData, err)
	}
	awayRecent, err := s.matches.ListFinishedByTeam(ctx, m.AwayTeamID, m.KickoffAt, formWindow)
	if err != nil {
		return factors, fmt.Errorf("%w: away form history: %v", ErrUpstreamData, err)
	}
	factors.HomeForm = dixoncoles.FormFactor(pointsTotal(homeRecent, m.HomeTeamID), len(homeRecent))
	factors.AwayForm = dixoncoles.FormFactor(pointsTotal(awayRecent, m.AwayTeamID), len(awayRecent))

	// A fixture without a venue on record gets no venue signal at all,
	// not the small-sample home boost.
	if m.VenueID != "" {
		venueHist, err := s.matches.ListFinishedByVenue(ctx, m.VenueID, m.KickoffAt)
		if err != nil {
			return factors, fmt.Errorf("%w: venue history: %v", ErrUpstreamData, err)
		}
		var homeWins int
		for _, vm := range venueHist {
			if vm.Points(vm.HomeTeamID) == 3 {
				homeWins++
			}
		}
		factors.Venue = dixoncoles.VenueFactor(len(venueHist), homeWins)
	}

	if m.RefereeID != "" {
		refHist, err := s.matches.ListFinishedByReferee(ctx, m.RefereeID, m.KickoffAt)
		if err != nil {
			return factors, fmt.Errorf("%w: referee history: %v", ErrUpstreamData, err)
		}
		factors.Referee = dixoncoles.RefereeFactor(len(refHist))
	}

	meetings, err := s.matches.ListFinishedBetween(ctx, m.HomeTeamID, m.AwayTeamID, m.KickoffAt)
	if err != nil {
		return factors, fmt.Errorf("%w: head to head history: %v", ErrUpstreamData, err)
	}
	var homeWins int
	for _, hm := range meetings {
		if hm.Points(m.HomeTeamID) == 3 {
			homeWins++
		}
	}
	factors.H2HHome, factors.H2HAway = dixoncoles.H2HFactors(len(meetings), homeWins)

	homeInjured, err := s.players.CountInjuredByTeam(ctx, m.HomeTeamID)
	if err != nil {
		return factors, fmt.Errorf("%w: home injuries: %v", ErrUpstreamData, err)
	}
	awayInjured, err := s.players.CountInjuredByTeam(ctx, m.AwayTeamID)
	if err != nil {
		return factors, fmt.Errorf("%w: away injuries: %v", ErrUpstreamData, err)
	}
	factors.HomeInjury = dixoncoles.InjuryFactor(homeInjured)
	factors.AwayInjury = dixoncoles.InjuryFactor(awayInjured)

	return factors, nil
}

func pointsTotal(matches []match.Match, teamID string) int {
	var pts int
	for _, m := range matches {
		pts += m.Points(teamID)
	}
	return pts
}

type PredictBatchInput struct {
	Method             Method
	FallbackDixonColes bool
	MaxWorkers         int
	TaskTimeout        time.Duration
}

// PredictBatch predicts every scheduled fixture. Incomplete data skips
// the row; anything else marks it failed. The run itself only errors
// when no model is usable at all.
func (s *PredictionService) PredictBatch(ctx context.Context, input PredictBatchInput) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.PredictBatch")
	defer span.End()

	if input.Method == MethodEnsemble && !input.FallbackDixonColes {
		// Fail the whole run up front rather than one row at a time.
		if _, err := s.artifacts.LoadCurrent(ctx); err != nil {
			return BatchResult{}, err
		}
	}

	upcoming, err := s.matches.ListScheduledAfter(ctx, s.now())
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: list scheduled matches: %v", ErrUpstreamData, err)
	}
	ids := make([]string, len(upcoming))
	for i, m := range upcoming {
		ids[i] = m.ID
	}

	result, err := runBatch(ctx, ids, input.MaxWorkers, input.TaskTimeout,
		func(taskCtx context.Context, matchID string) (bool, string, error) {
			_, err := s.Predict(taskCtx, PredictInput{
				MatchID:            matchID,
				Method:             input.Method,
				FallbackDixonColes: input.FallbackDixonColes,
			})
			if errors.Is(err, feature.ErrDataIncomplete) {
				return true, err.Error(), nil
			}
			return false, "", err
		})
	if err != nil {
		return BatchResult{}, err
	}

	s.logger.InfoContext(ctx, "prediction batch finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
		"elapsed_ms", result.ElapsedMs,
	)
	return result, nil
}

type BacktestInput struct {
	Method Method
	Before time.Time
	// Limit keeps only the most recent N finished matches. 0 means all.
	Limit int
}

// BacktestReport scores historical predictions against known results.
type BacktestReport struct {
	Method   Method  `json:"method"`
	Samples  int     `json:"samples"`
	Skipped  int     `json:"skipped"`
	Accuracy float64 `json:"accuracy"`
	LogLoss  float64 `json:"log_loss"`
}

// Backtest replays finished matches with history truncated at each
// kickoff. Nothing is persisted.
func (s *PredictionService) Backtest(ctx context.Context, input BacktestInput) (BacktestReport, error) {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.Backtest")
	defer span.End()

	before := input.Before
	if before.IsZero() {
		before = s.now()
	}
	finished, err := s.matches.ListFinishedBefore(ctx, before)
	if err != nil {
		return BacktestReport{}, fmt.Errorf("%w: list finished matches: %v", ErrUpstreamData, err)
	}
	if input.Limit > 0 && len(finished) > input.Limit {
		finished = finished[len(finished)-input.Limit:]
	}

	report := BacktestReport{Method: input.Method}
	var probs [][]float64
	var labels []int
	for _, m := range finished {
		result, ok := m.Result()
		if !ok {
			report.Skipped++
			continue
		}
		label, ok := ensemble.LabelFor(result)
		if !ok {
			report.Skipped++
			continue
		}
		p, err := s.predict(ctx, m, input.Method)
		if err != nil {
			if errors.Is(err, ensemble.ErrModelUnavailable) {
				return BacktestReport{}, err
			}
			report.Skipped++
			continue
		}
		probs = append(probs, []float64{p.ProbHome, p.ProbDraw, p.ProbAway})
		labels = append(labels, label)
	}

	report.Samples = len(probs)
	if report.Samples == 0 {
		return report, nil
	}
	report.LogLoss = ensemble.LogLoss(probs, labels)
	var hits int
	for i, p := range probs {
		best := 0
		for k := 1; k < len(p); k++ {
			if p[k] > p[best] {
				best = k
			}
		}
		if best == labels[i] {
			hits++
		}
	}
	report.Accuracy = float64(hits) / float64(report.Samples)

	s.logger.InfoContext(ctx, "backtest finished",
		"method", string(input.Method),
		"samples", report.Samples,
		"skipped", report.Skipped,
		"accuracy", report.Accuracy,
		"log_loss", report.LogLoss,
	)
	return report, nil
}

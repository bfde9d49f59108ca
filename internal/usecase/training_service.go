package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/ensemble"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
	"github.com/WarenOdhiambo1/oddsengine/internal/infrastructure/artifact"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
)

// ArtifactSink publishes a freshly trained artifact.
type ArtifactSink interface {
	Save(ctx context.Context, a *ensemble.Artifact) (string, error)
}

type TrainingService struct {
	matches   match.Repository
	extractor *feature.Extractor
	sink      ArtifactSink
	members   []ensemble.MemberSpec
	logger    *logging.Logger
	now       func() time.Time
}

func NewTrainingService(
	matches match.Repository,
	extractor *feature.Extractor,
	sink ArtifactSink,
	members []ensemble.MemberSpec,
	logger *logging.Logger,
) *TrainingService {
	if logger == nil {
		logger = logging.Default()
	}
	if len(members) == 0 {
		members = ensemble.DefaultMembers()
	}
	return &TrainingService{
		matches:   matches,
		extractor: extractor,
		sink:      sink,
		members:   members,
		logger:    logger,
		now:       time.Now,
	}
}

type TrainInput struct {
	// Before bounds the training window. Zero means now.
	Before time.Time
}

type TrainResult struct {
	Version         string             `json:"version"`
	ArtifactPath    string             `json:"artifact_path"`
	Samples         int                `json:"samples"`
	Skipped         int                `json:"skipped"`
	TrainingSamples int                `json:"training_samples"`
	HoldoutSamples  int                `json:"holdout_samples"`
	Weights         []float64          `json:"weights"`
	Members         []TrainMemberStats `json:"members"`
	Ensemble        ensemble.Metrics   `json:"ensemble"`
}

type TrainMemberStats struct {
	Name    string           `json:"name"`
	Metrics ensemble.Metrics `json:"metrics"`
}

// TrainEnsemble featurizes the finished-match history, each row seeing
// only matches before its own kickoff, trains every member and
// publishes the blended artifact atomically.
func (s *TrainingService) TrainEnsemble(ctx context.Context, input TrainInput) (TrainResult, error) {
	ctx, span := startUsecaseSpan(ctx, "TrainingService.TrainEnsemble")
	defer span.End()

	before := input.Before
	if before.IsZero() {
		before = s.now()
	}

	finished, err := s.matches.ListFinishedBefore(ctx, before)
	if err != nil {
		return TrainResult{}, fmt.Errorf("%w: list finished matches: %v", ErrUpstreamData, err)
	}

	schema := feature.Schema()
	samples := make([]ensemble.Sample, 0, len(finished))
	var skipped int
	for _, m := range finished {
		result, ok := m.Result()
		if !ok {
			skipped++
			continue
		}
		label, ok := ensemble.LabelFor(result)
		if !ok {
			skipped++
			continue
		}
		vec, err := s.extractor.Extract(ctx, feature.InputFromMatch(m))
		if err != nil {
			if errors.Is(err, feature.ErrDataIncomplete) {
				skipped++
				s.logger.DebugContext(ctx, "training row skipped", "match_id", m.ID, "reason", err.Error())
				continue
			}
			return TrainResult{}, fmt.Errorf("featurize match %s: %w", m.ID, err)
		}
		row, err := vec.Project(schema)
		if err != nil {
			return TrainResult{}, fmt.Errorf("project match %s: %w", m.ID, err)
		}
		samples = append(samples, ensemble.Sample{
			MatchID:  m.ID,
			Kickoff:  m.KickoffAt,
			Features: row,
			Label:    label,
		})
	}

	trainedAt := s.now().UTC()
	art, err := ensemble.Train(samples, schema, s.members, artifact.VersionName(trainedAt), trainedAt)
	if err != nil {
		return TrainResult{}, err
	}

	path, err := s.sink.Save(ctx, art)
	if err != nil {
		return TrainResult{}, fmt.Errorf("publish artifact: %w", err)
	}

	result := TrainResult{
		Version:         art.Version,
		ArtifactPath:    path,
		Samples:         len(samples),
		Skipped:         skipped,
		TrainingSamples: art.TrainingSamples,
		HoldoutSamples:  art.HoldoutSamples,
		Weights:         art.Weights,
		Ensemble:        art.Ensemble,
	}
	for _, m := range art.Members {
		result.Members = append(result.Members, TrainMemberStats{Name: m.Name, Metrics: m.Metrics})
	}

	s.logger.InfoContext(ctx, "ensemble trained",
		"version", art.Version,
		"samples", result.Samples,
		"skipped", result.Skipped,
		"holdout_log_loss", art.Ensemble.LogLoss,
		"holdout_accuracy", art.Ensemble.Accuracy,
	)
	return result, nil
}

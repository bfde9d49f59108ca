package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/dixoncoles"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/ensemble"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
	"github.com/WarenOdhiambo1/oddsengine/internal/infrastructure/artifact"
	"github.com/WarenOdhiambo1/oddsengine/internal/infrastructure/repository/memory"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
)

func seededHistory(n int) *memory.MatchRepository {
	repo := memory.NewMatchRepository()
	base := time.Date(2024, 8, 1, 15, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		// Cycle through home win, draw, away win so every class is
		// represented in any split.
		var hs, as int
		switch i % 3 {
		case 0:
			hs, as = 2, 0
		case 1:
			hs, as = 1, 1
		case 2:
			hs, as = 0, 1
		}
		repo.Put(match.Match{
			ID:         "m-" + string(rune('a'+i/26)) + string(rune('a'+i%26)),
			HomeTeamID: "home-1",
			AwayTeamID: "away-1",
			KickoffAt:  base.Add(time.Duration(i) * 72 * time.Hour),
			Status:     match.StatusFinished,
			HomeScore:  &hs,
			AwayScore:  &as,
		})
	}
	return repo
}

func tinyMembers() []ensemble.MemberSpec {
	return []ensemble.MemberSpec{
		{Name: "a", Config: ensemble.Config{
			Rounds: 8, MaxDepth: 2, LearningRate: 0.3,
			MinLeaf: 2, SubsampleRows: 1, SubsampleCols: 0.5, Seed: 3,
		}},
		{Name: "b", Config: ensemble.Config{
			Rounds: 8, MaxDepth: 3, LearningRate: 0.2,
			MinLeaf: 2, SubsampleRows: 0.9, SubsampleCols: 0.5, Seed: 9,
		}},
	}
}

func TestTrainEnsemble_PublishesLoadableArtifact(t *testing.T) {
	matches := seededHistory(45)
	teams := memory.NewTeamRepository(
		team.Team{ID: "home-1", Name: "Arsenal", AttackStrength: 1.1, DefenseStrength: 0.9, EloRating: 1580},
		team.Team{ID: "away-1", Name: "Fulham", AttackStrength: 0.9, DefenseStrength: 1.1, EloRating: 1450},
	)
	extractor := feature.NewExtractor(
		teams, matches, memory.NewStandingRepository(), memory.NewPlayerRepository(),
		dixoncoles.DefaultParams(),
	)
	store := artifact.NewStore(t.TempDir())
	svc := NewTrainingService(matches, extractor, store, tinyMembers(), logging.NewNop())
	ctx := context.Background()

	result, err := svc.TrainEnsemble(ctx, TrainInput{Before: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	if result.Samples != 45 || result.Skipped != 0 {
		t.Fatalf("unexpected sample counts: %+v", result)
	}
	if result.TrainingSamples+result.HoldoutSamples != 45 {
		t.Fatalf("split does not cover all samples: %+v", result)
	}
	var sum float64
	for _, w := range result.Weights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("blend weights sum to %v", sum)
	}
	if len(result.Members) != 2 {
		t.Fatalf("expected 2 member reports, got %d", len(result.Members))
	}

	loaded, err := store.LoadCurrent(ctx)
	if err != nil {
		t.Fatalf("load published artifact: %v", err)
	}
	if loaded.Version != result.Version {
		t.Fatalf("published version mismatch: %s vs %s", loaded.Version, result.Version)
	}
	if len(loaded.Schema) != len(feature.Schema()) {
		t.Fatalf("artifact schema does not match the extractor schema")
	}
}

func TestTrainEnsemble_TooLittleHistory(t *testing.T) {
	matches := seededHistory(10)
	teams := memory.NewTeamRepository(
		team.Team{ID: "home-1", Name: "Arsenal"},
		team.Team{ID: "away-1", Name: "Fulham"},
	)
	extractor := feature.NewExtractor(
		teams, matches, memory.NewStandingRepository(), memory.NewPlayerRepository(),
		dixoncoles.DefaultParams(),
	)
	svc := NewTrainingService(matches, extractor, artifact.NewStore(t.TempDir()), tinyMembers(), logging.NewNop())

	_, err := svc.TrainEnsemble(context.Background(), TrainInput{Before: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err == nil {
		t.Fatalf("expected an error for an undersized training window")
	}
	if errors.Is(err, ErrUpstreamData) {
		t.Fatalf("undersized window is a training error, not an upstream one: %v", err)
	}
}

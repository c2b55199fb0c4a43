package workout

import (
	"context"

	"github.com/fitmotion/fitmotion/internal/pose"
	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
)

// ExerciseStats aggregates the finished sessions of one exercise type.
type ExerciseStats struct {
	Sessions             int     `json:"sessions"`
	Reps                 int     `json:"reps"`
	BestReps             int     `json:"bestReps"`
	TotalDurationSeconds float64 `json:"totalDurationSeconds,omitempty"`
	BestDurationSeconds  float64 `json:"bestDurationSeconds,omitempty"`
	AvgScore             float64 `json:"avgScore"`
}

type UserStats struct {
	TotalSessions   int                         `json:"totalSessions"`
	TotalReps       int                         `json:"totalReps"`
	TotalFrames     int                         `json:"totalFrames"`
	AccuracyPercent float64                     `json:"accuracyPercent"`
	AvgScore        float64                     `json:"avgScore"`
	PerExercise     map[pose.Type]ExerciseStats `json:"perExercise"`
	Achievements    []string                    `json:"achievements"`
}

type statsSessionsRepo interface {
	ListForUser(ctx context.Context, userID int) ([]Session, error)
}

// Analyzer computes aggregate workout stats from stored sessions.
type Analyzer struct {
	repo statsSessionsRepo
}

func NewAnalyzer(repo statsSessionsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

func (a *Analyzer) UserStats(ctx context.Context, userID int) (_ *UserStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.workout.userStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessions, err := a.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		PerExercise: make(map[pose.Type]ExerciseStats),
	}

	var correctFrames int
	var scoreSum float64
	var scoredSessions int
	for _, session := range sessions {
		if session.Status != StatusFinished {
			continue
		}

		stats.TotalSessions++
		stats.TotalReps += session.Reps
		stats.TotalFrames += session.TotalFrames
		correctFrames += session.CorrectFrames
		if session.AvgScore > 0 {
			scoreSum += session.AvgScore
			scoredSessions++
		}

		exStats := stats.PerExercise[session.ExerciseType]
		exStats.Sessions++
		exStats.Reps += session.Reps
		if session.Reps > exStats.BestReps {
			exStats.BestReps = session.Reps
		}
		exStats.TotalDurationSeconds += session.DurationSeconds
		if session.DurationSeconds > exStats.BestDurationSeconds {
			exStats.BestDurationSeconds = session.DurationSeconds
		}
		// running average over the sessions seen so far
		exStats.AvgScore += (session.AvgScore - exStats.AvgScore) / float64(exStats.Sessions)
		stats.PerExercise[session.ExerciseType] = exStats
	}

	if stats.TotalFrames > 0 {
		stats.AccuracyPercent = float64(correctFrames) / float64(stats.TotalFrames) * 100
	}
	if scoredSessions > 0 {
		stats.AvgScore = scoreSum / float64(scoredSessions)
	}
	stats.Achievements = achievements(stats)

	return stats, nil
}

func achievements(stats *UserStats) []string {
	var earned []string
	if stats.TotalSessions >= 1 {
		earned = append(earned, "first workout")
	}
	if stats.TotalSessions >= 10 {
		earned = append(earned, "ten workouts")
	}
	if stats.TotalReps >= 100 {
		earned = append(earned, "century club")
	}
	if plank, ok := stats.PerExercise[pose.TypePlank]; ok && plank.TotalDurationSeconds >= 300 {
		earned = append(earned, "iron core")
	}
	if stats.AccuracyPercent >= 90 && stats.TotalFrames >= 1000 {
		earned = append(earned, "form master")
	}
	return earned
}

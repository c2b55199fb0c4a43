package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrPlanNotFound = errors.New("plan not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	var plan Plan
	var dailyBytes, weeklyBytes []byte
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, daily_goals, weekly_goals, generated_by, updated_at
			FROM fitness_plan WHERE user_id = $1;`,
		userID,
	).Scan(&plan.ID, &plan.UserID, &dailyBytes, &weeklyBytes, &plan.GeneratedBy, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dailyBytes, &plan.DailyGoals); err != nil {
		return nil, fmt.Errorf("unmarshal daily goals for user %d: %w", userID, err)
	}
	if err := json.Unmarshal(weeklyBytes, &plan.WeeklyGoals); err != nil {
		return nil, fmt.Errorf("unmarshal weekly goals for user %d: %w", userID, err)
	}

	return &plan, nil
}

// Upsert stores the plan of a user, replacing the previous one if present.
// A user has at most one plan.
func (r *Repo) Upsert(ctx context.Context, plan Plan) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", plan.UserID))

	dailyJson, err := json.Marshal(plan.DailyGoals)
	if err != nil {
		return nil, fmt.Errorf("marshal daily goals: %w", err)
	}
	weeklyJson, err := json.Marshal(plan.WeeklyGoals)
	if err != nil {
		return nil, fmt.Errorf("marshal weekly goals: %w", err)
	}

	plan.UpdatedAt = time.Now()
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO fitness_plan (user_id, daily_goals, weekly_goals, generated_by, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			daily_goals = EXCLUDED.daily_goals,
			weekly_goals = EXCLUDED.weekly_goals,
			generated_by = EXCLUDED.generated_by,
			updated_at = EXCLUDED.updated_at
		RETURNING id;`,
		plan.UserID, dailyJson, weeklyJson, plan.GeneratedBy, plan.UpdatedAt,
	).Scan(&plan.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("plan.id", plan.ID))

	return &plan, nil
}

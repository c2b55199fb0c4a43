package workout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
	"github.com/fitmotion/fitmotion/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores a freshly started session. Counters are zero at this point
// and get their final values in Finish.
func (r *Repo) Add(ctx context.Context, session Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.Int("user.id", session.UserID),
	)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_session
			(id, user_id, exercise_type, started_at, status)
			VALUES ($1, $2, $3, $4, $5);`,
		session.ID, session.UserID, session.ExerciseType, session.StartedAt, session.Status,
	)
	if pkg.IsForeignKeyViolationError(err) {
		return fmt.Errorf("add session for unknown user %d: %w", session.UserID, err)
	}
	return err
}

// Finish writes the final counters of an ended session.
func (r *Repo) Finish(ctx context.Context, session Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.finish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.Int("session.reps", session.Reps),
	)

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_session SET
			ended_at = $1,
			total_frames = $2,
			correct_frames = $3,
			reps = $4,
			duration_seconds = $5,
			avg_score = $6,
			status = $7
		WHERE id = $8;`,
		session.EndedAt, session.TotalFrames, session.CorrectFrames,
		session.Reps, session.DurationSeconds, session.AvgScore,
		session.Status, session.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", id))

	row := r.db.QueryRow(
		ctx,
		`SELECT
			id, user_id, exercise_type, started_at, ended_at,
			total_frames, correct_frames, reps, duration_seconds, avg_score, status
		FROM workout_session WHERE id = $1;`,
		id,
	)
	return scanSession(row)
}

// ListForUser returns all sessions of a user, newest first.
func (r *Repo) ListForUser(ctx context.Context, userID int) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT
			id, user_id, exercise_type, started_at, ended_at,
			total_frames, correct_frames, reps, duration_seconds, avg_score, status
		FROM workout_session
		WHERE user_id = $1
		ORDER BY started_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("sessions.count", len(sessions)))

	return sessions, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var session Session
	err := row.Scan(
		&session.ID, &session.UserID, &session.ExerciseType,
		&session.StartedAt, &session.EndedAt,
		&session.TotalFrames, &session.CorrectFrames, &session.Reps,
		&session.DurationSeconds, &session.AvgScore, &session.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
	"github.com/fitmotion/fitmotion/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profileJson, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO users (username, password_hash, profile, created_at)
			VALUES ($1, $2, $3, $4)
		RETURNING id;`,
		user.Username, user.PasswordHash, profileJson, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.scanUser(r.db.QueryRow(
		ctx,
		`SELECT id, username, password_hash, profile, created_at FROM users WHERE id = $1;`,
		id,
	))
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("username", username))

	return r.scanUser(r.db.QueryRow(
		ctx,
		`SELECT id, username, password_hash, profile, created_at FROM users WHERE username = $1;`,
		username,
	))
}

func (r *Repo) UpdateProfile(ctx context.Context, id int, profile Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	profileJson, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users SET profile = $1 WHERE id = $2;`,
		profileJson, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *Repo) scanUser(row pgx.Row) (*User, error) {
	var user User
	var profileBytes []byte
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &profileBytes, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(profileBytes) > 0 {
		if err := json.Unmarshal(profileBytes, &user.Profile); err != nil {
			return nil, fmt.Errorf("unmarshal profile for user %d: %w", user.ID, err)
		}
	}

	return &user, nil
}

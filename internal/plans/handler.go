package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fitmotion/fitmotion/internal/auth"
	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
	"github.com/fitmotion/fitmotion/internal/users"
	"github.com/fitmotion/fitmotion/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=plans_test

type plansRepo interface {
	Get(ctx context.Context, userID int) (*Plan, error)
	Upsert(ctx context.Context, plan Plan) (*Plan, error)
}

type usersRepo interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

type planGenerator interface {
	Generate(ctx context.Context, profile users.Profile) (*Plan, error)
}

type Handler struct {
	repo      plansRepo
	usersRepo usersRepo
	generator planGenerator
}

func NewHandler(repo plansRepo, usersRepo usersRepo, generator planGenerator) *Handler {
	return &Handler{
		repo:      repo,
		usersRepo: usersRepo,
		generator: generator,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	plan, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get plan for user %d: %s", userID, err)
		http.Error(w, "failed to get plan", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("failed to marshal plan: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("update plan, unmarshal json params: %s", err)
		http.Error(w, "update plan failed", http.StatusBadRequest)
		return
	}

	if len(plan.DailyGoals) == 0 && len(plan.WeeklyGoals) == 0 {
		http.Error(w, "error, plan without any goals", http.StatusBadRequest)
		return
	}

	// a user can only ever touch their own plan
	plan.UserID = userID

	updated, err := handler.repo.Upsert(ctx, plan)
	if err != nil {
		log.Errorf("failed to update plan for user %d: %s", userID, err)
		http.Error(w, "update plan failed", http.StatusInternalServerError)
		return
	}

	updatedJson, err := json.Marshal(updated)
	if err != nil {
		log.Errorf("failed to marshal plan: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("plan updated for user %d", userID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, updatedJson, http.StatusOK)
}

func (handler *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.generate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := handler.usersRepo.Get(ctx, userID)
	if err != nil {
		log.Errorf("generate plan, failed to get user %d: %s", userID, err)
		http.Error(w, "generate plan failed", http.StatusInternalServerError)
		return
	}

	plan, err := handler.generator.Generate(ctx, user.Profile)
	if err != nil {
		log.Errorf("failed to generate plan for user %d: %s", userID, err)
		http.Error(w, "generate plan failed", http.StatusInternalServerError)
		return
	}

	plan.UserID = userID
	stored, err := handler.repo.Upsert(ctx, *plan)
	if err != nil {
		log.Errorf("failed to store generated plan for user %d: %s", userID, err)
		http.Error(w, "generate plan failed", http.StatusInternalServerError)
		return
	}

	storedJson, err := json.Marshal(stored)
	if err != nil {
		log.Errorf("failed to marshal plan: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("plan generated for user %d by %s", userID, stored.GeneratedBy)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, storedJson, http.StatusOK)
}

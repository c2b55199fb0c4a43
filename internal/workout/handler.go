package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fitmotion/fitmotion/internal/auth"
	"github.com/fitmotion/fitmotion/internal/pose"
	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
	"github.com/fitmotion/fitmotion/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workout_test

type sessionManager interface {
	Start(userID int, exerciseType pose.Type) (*Session, error)
	ProcessFrame(sessionID string, userID int, frame *pose.Frame) (*pose.Result, error)
	Reset(sessionID string, userID int) error
	End(sessionID string, userID int) (*Session, error)
	Get(sessionID string, userID int) (*Session, error)
}

type sessionsRepo interface {
	Add(ctx context.Context, session Session) error
	Finish(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (*Session, error)
	ListForUser(ctx context.Context, userID int) ([]Session, error)
}

type statsAnalyzer interface {
	UserStats(ctx context.Context, userID int) (*UserStats, error)
}

type Handler struct {
	manager  sessionManager
	repo     sessionsRepo
	analyzer statsAnalyzer
}

func NewHandler(manager sessionManager, repo sessionsRepo, analyzer statsAnalyzer) *Handler {
	return &Handler{
		manager:  manager,
		repo:     repo,
		analyzer: analyzer,
	}
}

type startSessionRequest struct {
	ExerciseType string `json:"exerciseType"`
}

type frameRequest struct {
	Landmarks []pose.Point `json:"landmarks"`
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.start")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var startReq startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
		log.Tracef("start session, unmarshal json params: %s", err)
		http.Error(w, "start session failed", http.StatusBadRequest)
		return
	}

	exerciseType, err := pose.ParseType(startReq.ExerciseType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := handler.manager.Start(userID, exerciseType)
	if err != nil {
		log.Errorf("failed to start workout session for user %d: %s", userID, err)
		http.Error(w, "start session failed", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.Add(ctx, *session); err != nil {
		// roll back the in-memory session, the client will retry
		if _, endErr := handler.manager.End(session.ID, userID); endErr != nil {
			log.Errorf("failed to discard session %s: %s", session.ID, endErr)
		}
		log.Errorf("failed to store workout session for user %d: %s", userID, err)
		http.Error(w, "start session failed", http.StatusInternalServerError)
		return
	}

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("failed to marshal session: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, http.StatusCreated)
}

func (handler *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.frame")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]

	var frameReq frameRequest
	if err := json.NewDecoder(r.Body).Decode(&frameReq); err != nil {
		log.Tracef("analyze frame, unmarshal json params: %s", err)
		http.Error(w, "analyze frame failed", http.StatusBadRequest)
		return
	}
	if len(frameReq.Landmarks) != pose.NumLandmarks {
		http.Error(
			w,
			fmt.Sprintf("error, expected %d landmarks, got %d", pose.NumLandmarks, len(frameReq.Landmarks)),
			http.StatusBadRequest,
		)
		return
	}

	var frame pose.Frame
	copy(frame[:], frameReq.Landmarks)

	res, err := handler.manager.ProcessFrame(sessionID, userID, &frame)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to analyze frame for session %s: %s", sessionID, err)
		http.Error(w, "analyze frame failed", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(res)
	if err != nil {
		log.Errorf("failed to marshal analysis result: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusOK)
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.reset")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]
	if err := handler.manager.Reset(sessionID, userID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to reset session %s: %s", sessionID, err)
		http.Error(w, "reset session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"reset":true}`)
}

func (handler *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.end")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]
	session, err := handler.manager.End(sessionID, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to end session %s: %s", sessionID, err)
		http.Error(w, "end session failed", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.Finish(ctx, *session); err != nil {
		log.Errorf("failed to store ended session %s: %s", sessionID, err)
		http.Error(w, "end session failed", http.StatusInternalServerError)
		return
	}

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("failed to marshal session: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, http.StatusOK)
}

// HandleGet serves both active and finished sessions: the in-memory
// manager is checked first, the database second.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]
	session, err := handler.manager.Get(sessionID, userID)
	if errors.Is(err, ErrSessionNotFound) {
		session, err = handler.repo.Get(ctx, sessionID)
		if err == nil && session.UserID != userID {
			err = ErrSessionNotFound
		}
	}
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get session %s: %s", sessionID, err)
		http.Error(w, "get session failed", http.StatusInternalServerError)
		return
	}

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("failed to marshal session: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessions, err := handler.repo.ListForUser(ctx, userID)
	if err != nil {
		log.Errorf("failed to list sessions for user %d: %s", userID, err)
		http.Error(w, "list sessions failed", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []Session{}
	}

	sessionsJson, err := json.Marshal(sessions)
	if err != nil {
		log.Errorf("failed to marshal sessions: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionsJson, http.StatusOK)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	stats, err := handler.analyzer.UserStats(ctx, userID)
	if err != nil {
		log.Errorf("failed to get stats for user %d: %s", userID, err)
		http.Error(w, "get stats failed", http.StatusInternalServerError)
		return
	}

	statsJson, err := json.Marshal(stats)
	if err != nil {
		log.Errorf("failed to marshal stats: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, statsJson, http.StatusOK)
}

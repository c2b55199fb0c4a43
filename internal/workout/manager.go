package workout

import (
	"errors"
	"sync"
	"time"

	"github.com/fitmotion/fitmotion/internal/pose"
	"github.com/fitmotion/fitmotion/internal/telemetry/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("workout session not found")

// activeSession pairs a session with its analyzer. The analyzer is
// stateful and must see frames one at a time, hence the per-session lock.
type activeSession struct {
	mu       sync.Mutex
	session  Session
	analyzer pose.Analyzer
	scoreSum float64
	scored   int
}

// Manager owns all currently active workout sessions. Frame analysis
// happens in memory only; the repo gets involved when a session starts
// and ends.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*activeSession
	metrics  *metrics.Manager
}

func NewManager(metricsManager *metrics.Manager) *Manager {
	return &Manager{
		sessions: make(map[string]*activeSession),
		metrics:  metricsManager,
	}
}

func (m *Manager) Start(userID int, exerciseType pose.Type) (*Session, error) {
	analyzer, err := pose.New(exerciseType)
	if err != nil {
		return nil, err
	}

	session := Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExerciseType: exerciseType,
		StartedAt:    time.Now(),
		Status:       StatusActive,
	}

	m.mu.Lock()
	m.sessions[session.ID] = &activeSession{
		session:  session,
		analyzer: analyzer,
	}
	m.mu.Unlock()

	m.metrics.GaugeActiveSessions.Inc()
	log.Debugf("workout session %s [%s] started for user %d", session.ID, exerciseType, userID)

	return &session, nil
}

// ProcessFrame runs one landmark frame through the session analyzer and
// folds the result into the session counters.
func (m *Manager) ProcessFrame(sessionID string, userID int, frame *pose.Frame) (*pose.Result, error) {
	active, err := m.active(sessionID, userID)
	if err != nil {
		return nil, err
	}

	active.mu.Lock()
	defer active.mu.Unlock()

	analysisStart := time.Now()
	res := active.analyzer.Analyze(frame)
	m.metrics.HistFrameAnalysisSpeed.Observe(time.Since(analysisStart).Seconds())
	m.metrics.CounterFramesAnalyzed.Inc()

	session := &active.session
	if repsDelta := res.Count - session.Reps; repsDelta > 0 {
		m.metrics.CounterRepsCounted.
			With(prometheus.Labels{"exercise": string(session.ExerciseType)}).
			Add(float64(repsDelta))
	}

	session.TotalFrames++
	if res.IsCorrect {
		session.CorrectFrames++
	}
	if res.Score > 0 {
		active.scoreSum += float64(res.Score)
		active.scored++
	}
	session.Reps = res.Count
	session.DurationSeconds = res.DurationSeconds
	session.AvgScore = active.avgScore()

	res.Accuracy = session.Accuracy()

	return &res, nil
}

// Reset puts the session analyzer and counters back to their initial
// state without ending the session.
func (m *Manager) Reset(sessionID string, userID int) error {
	active, err := m.active(sessionID, userID)
	if err != nil {
		return err
	}

	active.mu.Lock()
	defer active.mu.Unlock()

	active.analyzer.Reset()
	active.scoreSum = 0
	active.scored = 0

	session := &active.session
	session.TotalFrames = 0
	session.CorrectFrames = 0
	session.Reps = 0
	session.DurationSeconds = 0
	session.AvgScore = 0

	log.Debugf("workout session %s reset", sessionID)

	return nil
}

// End removes the session from the active set and returns its final
// snapshot for persisting.
func (m *Manager) End(sessionID string, userID int) (*Session, error) {
	m.mu.Lock()
	active, ok := m.sessions[sessionID]
	if ok && active.session.UserID == userID {
		delete(m.sessions, sessionID)
	} else {
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	m.metrics.GaugeActiveSessions.Dec()

	active.mu.Lock()
	defer active.mu.Unlock()

	now := time.Now()
	session := active.session
	session.EndedAt = &now
	session.Status = StatusFinished

	log.Debugf(
		"workout session %s ended: %d reps, %d/%d correct frames",
		sessionID, session.Reps, session.CorrectFrames, session.TotalFrames,
	)

	return &session, nil
}

// Get returns a snapshot of an active session.
func (m *Manager) Get(sessionID string, userID int) (*Session, error) {
	active, err := m.active(sessionID, userID)
	if err != nil {
		return nil, err
	}

	active.mu.Lock()
	defer active.mu.Unlock()

	session := active.session
	return &session, nil
}

// active looks up a session and checks ownership. A session of another
// user is reported as not found, not as forbidden.
func (m *Manager) active(sessionID string, userID int) (*activeSession, error) {
	m.mu.RLock()
	active, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok || active.session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return active, nil
}

func (a *activeSession) avgScore() float64 {
	if a.scored == 0 {
		return 0
	}
	return a.scoreSum / float64(a.scored)
}

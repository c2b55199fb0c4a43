package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fitmotion/fitmotion/internal/pose"
	"github.com/fitmotion/fitmotion/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) startSession(ctx context.Context, token, exerciseType string) workout.Session {
	resp, respBytes := s.doRequest(
		ctx, http.MethodPost, "/workout/session/start", token,
		map[string]string{"exerciseType": exerciseType},
	)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var session workout.Session
	require.NoError(s.T(), json.Unmarshal(respBytes, &session))
	require.NotEmpty(s.T(), session.ID)
	return session
}

func (s *IntegrationTestSuite) sendFrame(ctx context.Context, token, sessionID string, kneeAngle float64) pose.Result {
	resp, respBytes := s.doRequest(
		ctx, http.MethodPost,
		fmt.Sprintf("/workout/session/%s/frame", sessionID),
		token, squatFrameRequest(kneeAngle),
	)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var res pose.Result
	require.NoError(s.T(), json.Unmarshal(respBytes, &res))
	return res
}

func (s *IntegrationTestSuite) TestWorkout_FullSquatSession() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, user := s.registerAndLogin(ctx, "squatter", "squatters-pass1")
	session := s.startSession(ctx, token, "squat")
	assert.Equal(s.T(), workout.StatusActive, session.Status)

	// one full squat: two frames down, two frames up
	var res pose.Result
	for _, angle := range []float64{90, 90, 170, 170} {
		res = s.sendFrame(ctx, token, session.ID, angle)
	}
	assert.Equal(s.T(), 1, res.Count)
	assert.True(s.T(), res.IsCorrect)

	resp, respBytes := s.doRequest(
		ctx, http.MethodPost,
		fmt.Sprintf("/workout/session/%s/end", session.ID),
		token, nil,
	)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var ended workout.Session
	require.NoError(s.T(), json.Unmarshal(respBytes, &ended))
	assert.Equal(s.T(), workout.StatusFinished, ended.Status)
	assert.Equal(s.T(), 1, ended.Reps)
	assert.Equal(s.T(), 4, ended.TotalFrames)
	require.NotNil(s.T(), ended.EndedAt)

	// the session row is persisted with its final counters
	var dbReps, dbTotalFrames int
	var dbStatus string
	err := s.DB.QueryRow(
		`SELECT reps, total_frames, status FROM workout_session WHERE id = $1`,
		session.ID,
	).Scan(&dbReps, &dbTotalFrames, &dbStatus)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, dbReps)
	assert.Equal(s.T(), 4, dbTotalFrames)
	assert.Equal(s.T(), "finished", dbStatus)

	// and shows up in the session list and the stats
	resp, respBytes = s.doRequest(ctx, http.MethodGet, "/workout/sessions", token, nil)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var sessions []workout.Session
	require.NoError(s.T(), json.Unmarshal(respBytes, &sessions))
	require.Len(s.T(), sessions, 1)
	assert.Equal(s.T(), user.ID, sessions[0].UserID)

	resp, respBytes = s.doRequest(ctx, http.MethodGet, "/workout/stats", token, nil)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var stats workout.UserStats
	require.NoError(s.T(), json.Unmarshal(respBytes, &stats))
	assert.Equal(s.T(), 1, stats.TotalSessions)
	assert.Equal(s.T(), 1, stats.TotalReps)
	assert.Contains(s.T(), stats.Achievements, "first workout")
}

func (s *IntegrationTestSuite) TestWorkout_ResetSession() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, _ := s.registerAndLogin(ctx, "resetter", "resetters-pass1")
	session := s.startSession(ctx, token, "squat")

	var res pose.Result
	for _, angle := range []float64{90, 90, 170, 170} {
		res = s.sendFrame(ctx, token, session.ID, angle)
	}
	require.Equal(s.T(), 1, res.Count)

	resp, _ := s.doRequest(
		ctx, http.MethodPost,
		fmt.Sprintf("/workout/session/%s/reset", session.ID),
		token, nil,
	)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	res = s.sendFrame(ctx, token, session.ID, 170)
	assert.Equal(s.T(), 0, res.Count)
}

func (s *IntegrationTestSuite) TestWorkout_UnknownExerciseType() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, _ := s.registerAndLogin(ctx, "confused", "confuseds-pass1")

	resp, respBytes := s.doRequest(
		ctx, http.MethodPost, "/workout/session/start", token,
		map[string]string{"exerciseType": "deadlift"},
	)
	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
	assert.Contains(s.T(), string(respBytes), "unknown exercise type")
}

func (s *IntegrationTestSuite) TestWorkout_SessionIsolation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerToken, _ := s.registerAndLogin(ctx, "owner", "owners-pass-123")
	intruderToken, _ := s.registerAndLogin(ctx, "intruder", "intruders-pass1")

	session := s.startSession(ctx, ownerToken, "pushup")

	// another user cannot touch this session
	resp, _ := s.doRequest(
		ctx, http.MethodPost,
		fmt.Sprintf("/workout/session/%s/frame", session.ID),
		intruderToken, squatFrameRequest(90),
	)
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)

	resp, _ = s.doRequest(
		ctx, http.MethodGet,
		fmt.Sprintf("/workout/session/%s", session.ID),
		intruderToken, nil,
	)
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

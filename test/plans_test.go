package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fitmotion/fitmotion/internal/plans"
	"github.com/fitmotion/fitmotion/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestPlans_UpdateAndGet() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, user := s.registerAndLogin(ctx, "planner", "planners-pass-1")

	resp, _ := s.doRequest(ctx, http.MethodGet, "/plans", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)

	plan := plans.Plan{
		DailyGoals: []plans.Goal{
			{Exercise: "squat", TargetReps: 20},
			{Exercise: "plank", TargetDurationSeconds: 45},
		},
	}
	resp, respBytes := s.doRequest(ctx, http.MethodPost, "/plans", token, plan)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var updated plans.Plan
	require.NoError(s.T(), json.Unmarshal(respBytes, &updated))
	assert.Equal(s.T(), user.ID, updated.UserID)
	require.NotZero(s.T(), updated.ID)

	resp, respBytes = s.doRequest(ctx, http.MethodGet, "/plans", token, nil)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var fetched plans.Plan
	require.NoError(s.T(), json.Unmarshal(respBytes, &fetched))
	assert.Equal(s.T(), updated.ID, fetched.ID)
	require.Len(s.T(), fetched.DailyGoals, 2)
	assert.Equal(s.T(), 20, fetched.DailyGoals[0].TargetReps)
}

func (s *IntegrationTestSuite) TestPlans_Generate() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, user := s.registerAndLogin(ctx, "generated", "generateds-pass")

	profile := users.Profile{FitnessLevel: "advanced"}
	resp, _ := s.doRequest(ctx, http.MethodPut, "/users/me/profile", token, profile)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	// no generator service configured, the built-in plan kicks in
	resp, respBytes := s.doRequest(ctx, http.MethodPost, "/plans/generate", token, nil)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var generated plans.Plan
	require.NoError(s.T(), json.Unmarshal(respBytes, &generated))
	assert.Equal(s.T(), user.ID, generated.UserID)
	assert.Equal(s.T(), "built-in", generated.GeneratedBy)
	require.NotEmpty(s.T(), generated.DailyGoals)
	assert.Equal(s.T(), 25, generated.DailyGoals[0].TargetReps)
}

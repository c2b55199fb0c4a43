package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
	"github.com/fitmotion/fitmotion/internal/users"

	log "github.com/sirupsen/logrus"
)

// Generator asks an external plan generation service for a personalized
// plan. Without a configured service it falls back to a built-in plan
// based on the declared fitness level.
type Generator struct {
	baseURL    string
	httpClient *http.Client
}

func NewGenerator(baseURL string, httpClient *http.Client) *Generator {
	return &Generator{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type generateResponse struct {
	DailyGoals  []Goal `json:"dailyGoals"`
	WeeklyGoals []Goal `json:"weeklyGoals"`
}

func (g *Generator) Generate(ctx context.Context, profile users.Profile) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "plans.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if g.baseURL == "" {
		log.Debugln("plan generator service not configured, using built-in plan")
		return defaultPlan(profile), nil
	}

	profileJson, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		g.baseURL+"/generate",
		bytes.NewReader(profileJson),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call plan generator: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("close plan generator response body: %s", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plan generator returned status %d", resp.StatusCode)
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return nil, fmt.Errorf("decode plan generator response: %w", err)
	}

	return &Plan{
		DailyGoals:  generated.DailyGoals,
		WeeklyGoals: generated.WeeklyGoals,
		GeneratedBy: "generator-service",
	}, nil
}

func defaultPlan(profile users.Profile) *Plan {
	reps := 10
	holdSeconds := 30.0
	switch profile.FitnessLevel {
	case "intermediate":
		reps = 15
		holdSeconds = 60
	case "advanced":
		reps = 25
		holdSeconds = 90
	}

	return &Plan{
		DailyGoals: []Goal{
			{Exercise: "squat", TargetReps: reps},
			{Exercise: "pushup", TargetReps: reps},
			{Exercise: "jumping_jack", TargetReps: reps * 2},
			{Exercise: "plank", TargetDurationSeconds: holdSeconds},
		},
		WeeklyGoals: []Goal{
			{Exercise: "squat", TargetReps: reps * 5},
			{Exercise: "pushup", TargetReps: reps * 5},
			{Exercise: "jumping_jack", TargetReps: reps * 10},
			{Exercise: "plank", TargetDurationSeconds: holdSeconds * 5},
		},
		GeneratedBy: "built-in",
	}
}

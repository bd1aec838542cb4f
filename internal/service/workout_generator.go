package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGeneratorTimeout  = 90 * time.Second
	maxResponseBytes         = 4 << 20

	systemPromptTmplStr = `You are an experienced strength and conditioning coach. You design safe, effective single-session workouts and explain why each exercise was chosen. Return only valid JSON.`

	userPromptTmplStr = `Design one workout session with exactly {{.ExerciseCount}} exercises.

**Target muscle groups:** {{join .MuscleFocus ", "}}
**Training focus:** {{join .WorkoutFocus ", "}}
{{- if .Difficulty}}
**Difficulty:** {{.Difficulty}}
{{- end}}
{{- if .SpecialInstructions}}
**Special instructions from the athlete:** {{.SpecialInstructions}}
{{- end}}

Rules:
- Order exercises the way they should be performed (compound lifts before isolation work).
- "reps" is a number, or a short string for timed or open-ended sets (e.g. "30 seconds", "to failure").
- Use lower-case muscle names such as chest, back, shoulders, biceps, triceps, quads, hamstrings, glutes, calves, core.
- "equipment" is a single lower-case item (barbell, dumbbell, cable, machine, kettlebell, bodyweight, ...).
- "movement_type" is "compound" or "isolation".
- Keep each rationale under 300 characters.

Return ONLY valid JSON in this EXACT format:
{
  "name": "short workout title",
  "description": "one or two sentence overview",
  "total_duration_minutes": 45,
  "equipment_required": ["barbell", "bench"],
  "exercises": [
    {
      "name": "Barbell Bench Press",
      "sets": 4,
      "reps": 8,
      "rest_time_seconds": 90,
      "weight": "RPE 8",
      "notes": "control the eccentric",
      "rationale": "why this exercise fits the request",
      "primary_muscles": ["chest"],
      "secondary_muscles": ["triceps", "shoulders"],
      "equipment": "barbell",
      "movement_type": "compound"
    }
  ]
}`
)

// OpenRouterGenerator implements domain.WorkoutGenerator using the OpenRouter chat completions API
type OpenRouterGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	systemTmpl *template.Template
	userTmpl   *template.Template
}

// GeneratorOption customizes an OpenRouterGenerator
type GeneratorOption func(*OpenRouterGenerator)

// WithBaseURL points the generator at a different OpenAI-compatible endpoint
func WithBaseURL(baseURL string) GeneratorOption {
	return func(g *OpenRouterGenerator) {
		if baseURL != "" {
			g.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default client (90s timeout)
func WithHTTPClient(client *http.Client) GeneratorOption {
	return func(g *OpenRouterGenerator) {
		if client != nil {
			g.httpClient = client
		}
	}
}

func NewOpenRouterGenerator(apiKey, model string, opts ...GeneratorOption) *OpenRouterGenerator {
	funcs := template.FuncMap{"join": strings.Join}
	g := &OpenRouterGenerator{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultOpenRouterBaseURL,
		httpClient: &http.Client{Timeout: defaultGeneratorTimeout},
		systemTmpl: template.Must(template.New("system").Parse(systemPromptTmplStr)),
		userTmpl:   template.Must(template.New("user").Funcs(funcs).Parse(userPromptTmplStr)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type promptContext struct {
	MuscleFocus         []string
	WorkoutFocus        []string
	Difficulty          string
	SpecialInstructions string
	ExerciseCount       int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message  string                 `json:"message"`
		Code     int                    `json:"code"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
}

// Generate asks the model for a workout. Any transport, provider or parse failure
// is returned wrapped in domain.ErrGenerationFailed.
func (g *OpenRouterGenerator) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GeneratedWorkout, error) {
	started := time.Now()

	pc := promptContext{
		MuscleFocus:         req.MuscleFocus,
		WorkoutFocus:        req.WorkoutFocus,
		Difficulty:          req.Difficulty,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
		ExerciseCount:       req.NormalizedExerciseCount(),
	}

	var systemBuf, userBuf bytes.Buffer
	if err := g.systemTmpl.Execute(&systemBuf, pc); err != nil {
		return nil, fmt.Errorf("%w: render system prompt: %v", domain.ErrGenerationFailed, err)
	}
	if err := g.userTmpl.Execute(&userBuf, pc); err != nil {
		return nil, fmt.Errorf("%w: render user prompt: %v", domain.ErrGenerationFailed, err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemBuf.String()},
			{Role: "user", Content: userBuf.String()},
		},
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrGenerationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", "Workout Generator")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrGenerationFailed, err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrGenerationFailed, maxResponseBytes)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: openrouter api error (status %d): %s", domain.ErrGenerationFailed, resp.StatusCode, truncateForLog(string(body)))
	}

	var apiResponse chatResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("%w: parse response envelope: %v", domain.ErrGenerationFailed, err)
	}

	if apiResponse.Error != nil {
		msg := fmt.Sprintf("openrouter error: %s (code: %d)", apiResponse.Error.Message, apiResponse.Error.Code)
		if providerErr, ok := apiResponse.Error.Metadata["provider_error"].(string); ok {
			msg += " - provider error: " + providerErr
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrGenerationFailed, msg)
	}

	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from AI model", domain.ErrGenerationFailed)
	}

	content := apiResponse.Choices[0].Message.Content
	workout, err := parseGeneratedWorkout(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	workout.Model = g.model
	if apiResponse.Model != "" {
		workout.Model = apiResponse.Model
	}
	workout.RawResponse = content
	if apiResponse.Usage != nil {
		workout.PromptTokens = apiResponse.Usage.PromptTokens
		workout.CompletionTokens = apiResponse.Usage.CompletionTokens
	}
	workout.GenerationTimeMS = time.Since(started).Milliseconds()

	return workout, nil
}

// parseGeneratedWorkout accepts strict JSON, falling back to the outermost {...}
// when the model wraps its answer in prose or a code fence.
func parseGeneratedWorkout(content string) (*domain.GeneratedWorkout, error) {
	var workout domain.GeneratedWorkout
	if err := json.Unmarshal([]byte(content), &workout); err != nil {
		extracted, extractErr := extractJSONFromText(content)
		if extractErr != nil {
			return nil, fmt.Errorf("failed to parse AI response as JSON: %w", err)
		}
		workout = extracted
	}

	if len(workout.Exercises) == 0 {
		return nil, errors.New("AI response contained no exercises")
	}
	for i, ex := range workout.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return nil, fmt.Errorf("exercise %d has no name", i)
		}
	}
	return &workout, nil
}

// extractJSONFromText finds and parses the outermost JSON object in text
func extractJSONFromText(text string) (domain.GeneratedWorkout, error) {
	var workout domain.GeneratedWorkout

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')

	if start == -1 || end == -1 || start >= end {
		return workout, errors.New("no JSON object found in text")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &workout); err != nil {
		return workout, err
	}
	return workout, nil
}

func truncateForLog(s string) string {
	const max = 512
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

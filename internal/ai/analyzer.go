// Package ai provides vision-based session analysis backed by the
// Anthropic API, with caching, retry, and circuit-breaker protection.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tracecart/curator/internal/cache"
	"github.com/tracecart/curator/internal/types"
)

// Tiered model strategy: the default model handles full screenshot
// analysis, the simple-task model handles cheap one-shot classification.
//
// Environment variable overrides:
// - CURATOR_MODEL_DEFAULT: Override default model (default: Sonnet)
// - CURATOR_MODEL_SIMPLE: Override model for simple tasks (default: Haiku)
const (
	// ModelSonnet is the high-end model for screenshot analysis
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is the cost-efficient model for simple tasks
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// AnalysisTypeVision is the cache analysis type for screenshot results.
const AnalysisTypeVision = "vision"

// GetDefaultModel returns the default model, checking CURATOR_MODEL_DEFAULT first
func GetDefaultModel() string {
	if model := os.Getenv("CURATOR_MODEL_DEFAULT"); model != "" {
		return model
	}
	return ModelSonnet
}

// GetSimpleTaskModel returns the model for simple tasks, checking CURATOR_MODEL_SIMPLE first
func GetSimpleTaskModel() string {
	if model := os.Getenv("CURATOR_MODEL_SIMPLE"); model != "" {
		return model
	}
	return ModelHaiku
}

// VisionAnalysis is the structured result of analyzing one screenshot.
type VisionAnalysis struct {
	Scores     types.CategoryScores `json:"scores"`
	Insight    string               `json:"insight"`
	Confidence float64              `json:"confidence"`
}

// Analyzer calls the Anthropic API to score screenshots of recorded
// sessions. Results are cached per (session, event) so re-curating a
// session never repeats a vision call.
type Analyzer struct {
	client         *anthropic.Client
	cache          *cache.Cache
	model          string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted // Limits concurrent API calls
	limiter        *rate.Limiter       // Smooths request rate below the API quota
}

// Config holds analyzer configuration
type Config struct {
	APIKey string // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	Model  string // Model to use (default: claude-sonnet-4-5-20250929)
	Cache  *cache.Cache
	Retry  RetryConfig // Retry configuration (uses defaults if not specified)

	// RequestsPerMinute caps the steady-state call rate (default: 30, 0 = default)
	RequestsPerMinute int
}

// NewAnalyzer creates a vision analyzer
func NewAnalyzer(cfg *Config) (*Analyzer, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	var circuitBreaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		circuitBreaker = NewCircuitBreaker(
			retry.FailureThreshold,
			retry.SuccessThreshold,
			retry.OpenTimeout,
		)
	}

	var concurrencySem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)

	return &Analyzer{
		client:         &client,
		cache:          cfg.Cache,
		model:          model,
		retry:          retry,
		circuitBreaker: circuitBreaker,
		concurrencySem: concurrencySem,
		limiter:        limiter,
	}, nil
}

// AnalyzeScreenshot scores one screenshot, consulting the cache first.
// The subject key ties the result to the session and event so the same
// image re-analyzed in a later run is a cache hit, not an API call.
func (a *Analyzer) AnalyzeScreenshot(ctx context.Context, sessionID string, shot types.Screenshot) (*VisionAnalysis, error) {
	subjectKey := screenshotKey(sessionID, shot.EventSequence)

	var cached VisionAnalysis
	if a.cache.GetInto(ctx, subjectKey, AnalysisTypeVision, &cached) {
		return &cached, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait canceled: %w", err)
	}

	prompt := buildVisionPrompt()
	mediaType := shot.MediaType
	if mediaType == "" {
		mediaType = "image/png"
	}
	encoded := base64.StdEncoding.EncodeToString(shot.Data)

	var response *anthropic.Message
	err := a.retryWithBackoff(ctx, "screenshot-analysis", func(attemptCtx context.Context) error {
		resp, apiErr := a.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewImageBlockBase64(mediaType, encoded),
					anthropic.NewTextBlock(prompt),
				),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	// Extract the text content from the response
	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	result := Parse[VisionAnalysis](responseText, ParseOptions{Context: "screenshot-analysis"})
	if !result.Success {
		return nil, fmt.Errorf("failed to parse vision analysis: %s", result.Error)
	}

	analysis := result.Data
	overall := 0.0
	if v, ok := analysis.Scores[string(types.CategoryOverall)]; ok {
		overall = v
	}
	// Cache write failures degrade to a miss next time
	_ = a.cache.Put(ctx, subjectKey, AnalysisTypeVision, &analysis, overall, 0)

	return &analysis, nil
}

// HealthCheck fails fast when the circuit breaker is open so callers can
// skip vision analysis for the whole batch instead of timing out per call.
func (a *Analyzer) HealthCheck(ctx context.Context) error {
	if a.circuitBreaker != nil {
		state, failures, _ := a.circuitBreaker.GetMetrics()
		if state == CircuitOpen {
			return fmt.Errorf("vision analyzer unavailable: %w (failures=%d, retry in %v)",
				ErrCircuitOpen, failures, a.retry.OpenTimeout)
		}
	}
	return nil
}

func screenshotKey(sessionID string, sequence int) string {
	return fmt.Sprintf("%s:event-%d", sessionID, sequence)
}

func buildVisionPrompt() string {
	return `You are reviewing a screenshot captured during a recorded browser session.
Rate the visual quality of this capture for use as a training example.

Respond with ONLY a JSON object in this exact format:
{
  "scores": {
    "completeness": <0-100, is the page fully rendered with no blank regions>,
    "overall": <0-100, overall usefulness of this capture>
  },
  "insight": "<one sentence describing what the page shows>",
  "confidence": <0.0-1.0>
}`
}

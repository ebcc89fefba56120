package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"argus/core"
	"argus/metrics"
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no completion API key is set
var ErrNotConfigured = errors.New("completion API key not configured")

// DefaultModels is the ordered fallback chain tried for every analysis
var DefaultModels = []string{
	"anthropic/claude-3.5-sonnet",
	"anthropic/claude-3-haiku",
	"mistralai/mixtral-8x7b-instruct",
}

const (
	systemPrompt = "You are a senior cybersecurity threat analyst. Analyze the provided security data and return a STRICT JSON object with these fields ONLY: summary (1-2 sentence concise threat description), details (start with a short 'Cause:' paragraph explaining likely root cause, followed by deeper technical analysis), recommendations (an array of actionable remediation steps ordered by priority), severity (one of: low, medium, high, critical), confidence (number 0-100). Keep responses precise and practical for a SOC. No extra keys, no prose outside JSON."

	rawSnippetLimit  = 500
	defaultCacheSize = 256
)

// ExhaustedError is returned when every model in the chain failed
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all %d models failed: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("all %d models failed", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Analyzer runs the multi-model analysis pipeline with result caching
type Analyzer struct {
	client *Client
	models []string
	cache  *lru.Cache[uint64, *Result]
	logger *zap.SugaredLogger
}

// NewAnalyzer creates an analysis pipeline over the given model chain
func NewAnalyzer(client *Client, models []string, cacheSize int, logger *zap.SugaredLogger) (*Analyzer, error) {
	if len(models) == 0 {
		models = DefaultModels
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[uint64, *Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}
	return &Analyzer{
		client: client,
		models: models,
		cache:  cache,
		logger: logger,
	}, nil
}

// Analyze runs the content through the model chain in order and returns the
// first usable result. Auth, credit and transport failures skip to the next
// model. A reply that breaks the JSON contract still returns immediately,
// synthesized into a degraded low-severity result, because the provider did
// answer. Only full chain exhaustion is an error.
func (a *Analyzer) Analyze(ctx context.Context, content, targetType string) (*Result, error) {
	if !a.client.Configured() {
		return nil, ErrNotConfigured
	}
	if targetType == "" {
		targetType = core.DefaultTargetType
	}

	key := cacheKey(targetType, content)
	if cached, ok := a.cache.Get(key); ok {
		metrics.AnalysisCacheHits.Inc()
		return cached, nil
	}

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Analyze this security data: " + content},
	}

	var lastErr error
	for _, model := range a.models {
		raw, err := a.client.Complete(ctx, model, messages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			reason := "transport"
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				reason = "api_error"
				if apiErr.AuthRelated() {
					reason = "auth"
				}
			}
			metrics.ModelFallbacks.WithLabelValues(reason).Inc()
			a.logger.Warnw("Model attempt failed", "model", model, "reason", reason, "error", err)
			lastErr = fmt.Errorf("model %s failed: %w", model, err)
			continue
		}

		result := a.synthesize(model, targetType, raw)
		metrics.AnalysesGenerated.WithLabelValues(model).Inc()
		if !result.Degraded {
			a.cache.Add(key, result)
		}
		return result, nil
	}

	return nil, &ExhaustedError{Attempts: len(a.models), LastErr: lastErr}
}

// synthesize turns raw model output into a Result. Output violating the
// contract becomes a degraded result carrying the raw snippet for triage.
func (a *Analyzer) synthesize(model, targetType, raw string) *Result {
	if err := validateContract(raw); err != nil {
		a.logger.Warnw("Model broke the analysis contract", "model", model, "error", err)
		return &Result{
			TargetType:   targetType,
			AnalysisType: core.AnalysisTypeAIThreat,
			Summary:      "AI returned non-JSON content",
			Details:      fmt.Sprintf("Cause: Model %s did not follow JSON response format. Raw: %s", model, snippet(raw, rawSnippetLimit)),
			Recommendations: []string{
				"Retry with a different model",
				"Verify API key/credits",
				"Reduce prompt size if very large",
			},
			Severity:   string(core.SeverityLow),
			Confidence: 0,
			Model:      model,
			Degraded:   true,
		}
	}

	var parsed contract
	// Cannot fail after schema validation
	_ = json.Unmarshal([]byte(raw), &parsed)

	return &Result{
		TargetType:      targetType,
		AnalysisType:    core.AnalysisTypeAIThreat,
		Summary:         parsed.Summary,
		Details:         parsed.Details,
		Recommendations: parsed.Recommendations,
		Severity:        parsed.Severity,
		Confidence:      parsed.Confidence,
		Model:           model,
	}
}

func cacheKey(targetType, content string) uint64 {
	h := xxhash.New()
	h.WriteString(targetType)
	h.Write([]byte{0})
	h.WriteString(content)
	return h.Sum64()
}

func snippet(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Back off to a rune boundary so truncation never emits invalid UTF-8
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

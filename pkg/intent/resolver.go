// FILE: pkg/intent/resolver.go
// PURPOSE: Two-tier intent resolution: ordered fast-path patterns, then a budgeted classifier

package intent

import (
	"context"
	"time"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/upstream"
)

const module = "IntentResolver"

// Resolver never returns an empty intent. Classifier failures of any kind degrade
// to small talk with confidence 0.
type Resolver struct {
	classifier Classifier
	budget     time.Duration
	log        logger.ILogger
}

// NewResolver creates a resolver. classifier may be nil, in which case unmatched
// text always resolves to small talk.
func NewResolver(classifier Classifier, budget time.Duration, log logger.ILogger) *Resolver {
	return &Resolver{classifier: classifier, budget: budget, log: log}
}

// Resolve classifies text
func (r *Resolver) Resolve(ctx context.Context, text string) Result {
	if res, ok := MatchPattern(text); ok {
		r.log.Debug(module, "Intent matched fast path", map[string]interface{}{
			"intent":      string(res.Intent),
			"masked_text": logger.MaskText(text),
		})
		return res
	}

	if r.classifier == nil {
		return defaultResult()
	}

	out := upstream.Call(ctx, r.budget, func(ctx context.Context) (Classification, error) {
		return r.classifier.Classify(ctx, text)
	})
	if !out.OK() {
		r.log.Warn(module, "Classifier failed, defaulting to small talk", map[string]interface{}{
			"status":      string(out.Status),
			"error":       errString(out.Err),
			"duration_ms": out.Duration.Milliseconds(),
			"masked_text": logger.MaskText(text),
		})
		return defaultResult()
	}

	// implementations other than LLMClassifier may skip ParseClassification
	c := out.Value
	if !Valid(c.Intent) || c.Confidence < 0 || c.Confidence > 1 {
		r.log.Warn(module, "Classifier returned invalid result", map[string]interface{}{
			"intent":     c.Intent,
			"confidence": c.Confidence,
		})
		return defaultResult()
	}
	args := c.Args
	if args == nil {
		args = map[string]interface{}{}
	}

	r.log.Info(module, "Intent classified", map[string]interface{}{
		"intent":      c.Intent,
		"confidence":  c.Confidence,
		"duration_ms": out.Duration.Milliseconds(),
		"masked_text": logger.MaskText(text),
	})
	return Result{Intent: Intent(c.Intent), Confidence: c.Confidence, Args: args, Source: SourceClassifier}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

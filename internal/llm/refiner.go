package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Completer sends a conversation and returns the model's reply.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

const (
	defaultMaxTokens     = 256
	descriptionMaxTokens = 120
	keywordsMaxTokens    = 200
	jsonMaxTokens        = 512
	jsonCorrections      = 3
)

const (
	annotationPrompt = "Ты — ассистент, который улучшает аннотации. " +
		"Пиши аннотацию на русском языке в академическом стиле, 4–7 предложений. " +
		"В ответе пиши ТОЛЬКО аннотацию без пояснений."
	summaryPrompt = "Ты — ассистент, который сокращает пересказ текста. " +
		"Сократи текст до 3–4 предложений, сохранив главную мысль. " +
		"Пиши ТОЛЬКО сокращённый пересказ."
	descriptionPrompt = "Ты — ассистент, который формулирует краткое описание текста. " +
		"Составь одно предложение, отражающее суть. " +
		"Пиши ТОЛЬКО описание, без вступлений и пояснений."
	keywordsPrompt = "Ты — ассистент, который нормализует ключевые слова. " +
		"Приведи фразы к начальной форме, убери дубликаты и слишком общие слова. " +
		"Верни ТОЛЬКО список через запятую."
	jsonPrompt = "Ты извлекаешь сведения из текста учебного проекта. " +
		"Верни ТОЛЬКО JSON-объект с ключами: %s. " +
		"Если значение не найдено, укажи null, для списков — пустой массив."
	jsonCorrection = "Ответ не является корректным JSON-объектом. " +
		"Повтори ответ строго в формате JSON с ключами: %s."
)

// RefinerOptions configures a Refiner.
type RefinerOptions struct {
	// MaxAttempts per call, 3 when zero.
	MaxAttempts int
	// BaseDelay before the second attempt, doubled for each further one. 1s when zero.
	BaseDelay time.Duration
	Logger    *slog.Logger
	// OnFallback is called with the operation name whenever a draft is kept.
	OnFallback func(kind string)
}

// Refiner polishes drafts with a chat model. Every operation degrades to its
// input when the model cannot be reached.
type Refiner struct {
	llm         Completer
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
	onFallback  func(string)
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRefiner creates a refiner backed by llm.
func NewRefiner(llm Completer, opts RefinerOptions) *Refiner {
	r := &Refiner{
		llm:         llm,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		logger:      opts.Logger,
		onFallback:  opts.OnFallback,
		sleep:       sleepContext,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 3
	}
	if r.baseDelay <= 0 {
		r.baseDelay = time.Second
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// RefineAnnotation rewrites draft as an academic annotation.
func (r *Refiner) RefineAnnotation(ctx context.Context, draft string) string {
	return r.refine(ctx, "annotation", annotationPrompt, draft, defaultMaxTokens)
}

// RefineSummary shortens draft to a few sentences.
func (r *Refiner) RefineSummary(ctx context.Context, draft string) string {
	return r.refine(ctx, "summary", summaryPrompt, draft, defaultMaxTokens)
}

// RefineDescription condenses draft into one sentence.
func (r *Refiner) RefineDescription(ctx context.Context, draft string) string {
	return r.refine(ctx, "description", descriptionPrompt, draft, descriptionMaxTokens)
}

// RefineKeywords returns a normalised comma-joined keyword list.
func (r *Refiner) RefineKeywords(ctx context.Context, keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	return r.refine(ctx, "keywords", keywordsPrompt, strings.Join(keywords, ", "), keywordsMaxTokens)
}

func (r *Refiner) refine(ctx context.Context, kind, system, draft string, maxTokens int) string {
	if strings.TrimSpace(draft) == "" {
		return draft
	}
	out, err := r.call(ctx, []Message{{Role: "system", Content: system}, {Role: "user", Content: draft}}, maxTokens)
	if err != nil {
		r.logger.Warn("refinement failed, keeping draft", "kind", kind, "error", err)
		r.fallback(kind)
		return draft
	}
	return out
}

// call tries up to maxAttempts times, waiting baseDelay, 2*baseDelay, ...
// between attempts. Empty replies count as failures.
func (r *Refiner) call(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, r.baseDelay<<(attempt-1)); err != nil {
				return "", err
			}
		}
		out, err := r.llm.Complete(ctx, messages, maxTokens)
		if err == nil {
			if out = strings.TrimSpace(out); out != "" {
				return out, nil
			}
			err = fmt.Errorf("llm: empty reply")
		}
		lastErr = err
		r.logger.Warn("llm call failed", "attempt", attempt+1, "max_attempts", r.maxAttempts, "error", err)
	}
	return "", fmt.Errorf("after %d attempts: %w", r.maxAttempts, lastErr)
}

func (r *Refiner) fallback(kind string) {
	if r.onFallback != nil {
		r.onFallback(kind)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

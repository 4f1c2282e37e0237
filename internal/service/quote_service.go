package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"well-bot-be/internal/constant"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/llm"
	"well-bot-be/pkg/upstream"

	"github.com/google/uuid"
)

const (
	ToolQuoteGet = "quote.get"

	defaultQuoteCategory = "general"
	quoteRepeatWindow    = 7 * 24 * time.Hour
)

var fallbackQuote = entity.Quote{
	Category: defaultQuoteCategory,
	Text:     "The journey of a thousand miles begins with a single step.",
	Source:   "Lao Tzu",
}

const fallbackReflection = "Every meaningful change starts small. Take one gentle step today."

type IQuoteService interface {
	Get(ctx context.Context, env card.Envelope) (card.Card, error)
}

type quoteService struct {
	uowFactory       unitofwork.RepositoryFactory
	llmProvider      llm.LLMProvider
	reflectionBudget time.Duration
	activity         IActivityRecorder
	logger           logger.ILogger
}

// NewQuoteService builds the quote tool. llmProvider may be nil, in which case the
// reflection is always the canned one.
func NewQuoteService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	reflectionBudget time.Duration,
	activity IActivityRecorder,
	log logger.ILogger,
) IQuoteService {
	if reflectionBudget <= 0 {
		reflectionBudget = 3 * time.Second
	}
	return &quoteService{
		uowFactory:       uowFactory,
		llmProvider:      llmProvider,
		reflectionBudget: reflectionBudget,
		activity:         activity,
		logger:           log,
	}
}

func (s *quoteService) Get(ctx context.Context, env card.Envelope) (card.Card, error) {
	userId := UserUUID(env.UserId)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	category := env.String("category")
	if category == "" {
		category = defaultQuoteCategory
		pref, err := uow.PreferenceRepository().FindByUser(ctx, userId)
		if err != nil {
			return card.Card{}, fmt.Errorf("load preferences: %w", err)
		}
		if pref != nil && pref.Religion != "" {
			category = strings.ToLower(pref.Religion)
		}
	}

	now := time.Now().UTC()
	quote, err := uow.QuoteRepository().PickUnseen(ctx, userId, category, now.Add(-quoteRepeatWindow))
	if err != nil {
		return card.Card{}, fmt.Errorf("pick quote: %w", err)
	}
	if quote == nil && category != defaultQuoteCategory {
		quote, err = uow.QuoteRepository().PickUnseen(ctx, userId, defaultQuoteCategory, now.Add(-quoteRepeatWindow))
		if err != nil {
			return card.Card{}, fmt.Errorf("pick quote: %w", err)
		}
	}

	meta := map[string]interface{}{"kind": card.KindQuote, "category": category}
	if quote == nil {
		q := fallbackQuote
		quote = &q
		meta["fallback"] = true
	} else {
		if err := uow.QuoteRepository().MarkSeen(ctx, userId, quote.Id, now); err != nil {
			s.logger.Warn("QuoteService", "Failed to mark quote seen", map[string]interface{}{
				"quote_id": quote.Id,
				"error":    err.Error(),
			})
		}
		s.activity.Record(ctx, userId, "quote", &quote.Id, "view", nil)
	}

	reflection, generated := s.reflect(ctx, quote)
	meta["reflection_generated"] = generated
	if quote.Source != "" {
		meta["source"] = quote.Source
	}

	c := card.OK(ToolQuoteGet, "Daily Reflection", fmt.Sprintf("%q\n\n%s", quote.Text, reflection), meta)
	if quote.Id != uuid.Nil {
		c = c.WithPersisted(quote.Id.String())
	}
	return c, nil
}

// reflect asks the model for a short reflection, falling back to a canned one when the
// model is absent, slow or fails
func (s *quoteService) reflect(ctx context.Context, quote *entity.Quote) (string, bool) {
	if s.llmProvider == nil {
		return fallbackReflection, false
	}
	prompt := fmt.Sprintf(constant.QuoteReflectionPrompt, quote.Text)
	res := upstream.Call(ctx, s.reflectionBudget, func(ctx context.Context) (string, error) {
		return s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.7), llm.WithMaxTokens(120))
	})
	if !res.OK() || strings.TrimSpace(res.Value) == "" {
		s.logger.Warn("QuoteService", "Reflection unavailable, using fallback", map[string]interface{}{
			"status": string(res.Status),
		})
		return fallbackReflection, false
	}
	return strings.TrimSpace(res.Value), true
}

// Package assistant answers constitutional questions: canned replies, the response
// cache, corrections, retrieval and the generator call, in that order.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/cache"
	"github.com/hyperjump/konsti/internal/llm"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/ranking"
	"github.com/hyperjump/konsti/internal/search"
	"github.com/hyperjump/konsti/internal/session"
	"github.com/hyperjump/konsti/pkg/utils"
)

const (
	// DefaultTimeout bounds one generator call.
	DefaultTimeout = 10 * time.Second

	correctionConfidence = 0.8
	correctionTier       = "correction"
	historyTurnsInPrompt = 4
	excerptChars         = 200
)

// ArticleSource lists the articles retrieval may use. Only articles of active
// constitutions are returned; an empty constitution id means all of them.
type ArticleSource interface {
	ListActiveArticles(ctx context.Context, constitutionID string) ([]models.Article, error)
}

// Speller proposes a corrected spelling of a question.
type Speller interface {
	Correct(query string) (string, bool)
}

// Assistant is safe for concurrent use; its collaborators carry their own locks.
type Assistant struct {
	articles  ArticleSource
	retriever *search.Retriever
	responses *cache.ResponseCache
	sessions  *session.Store
	generator llm.Generator

	builder     *search.ContextBuilder
	weights     *ranking.RetrievalWeights
	speller     Speller
	timeout     time.Duration
	maxTokens   int
	temperature float64
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithWeights sets the confidence constants; use the retriever's weights.
func WithWeights(w *ranking.RetrievalWeights) Option {
	return func(a *Assistant) {
		if w != nil {
			a.weights = w
		}
	}
}

// WithContextBuilder replaces the default 4000/800 character context bounds.
func WithContextBuilder(b *search.ContextBuilder) Option {
	return func(a *Assistant) {
		if b != nil {
			a.builder = b
		}
	}
}

// WithSpeller enables "did you mean" suggestions on retrieval misses.
func WithSpeller(s Speller) Option {
	return func(a *Assistant) { a.speller = s }
}

// WithGeneration sets the token budget and temperature of generator calls.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(a *Assistant) {
		a.maxTokens = maxTokens
		a.temperature = temperature
	}
}

// WithClock replaces time.Now for search time measurement.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// New wires an Assistant.
func New(
	articles ArticleSource,
	retriever *search.Retriever,
	responses *cache.ResponseCache,
	sessions *session.Store,
	generator llm.Generator,
	opts ...Option,
) *Assistant {
	a := &Assistant{
		articles:    articles,
		retriever:   retriever,
		responses:   responses,
		sessions:    sessions,
		generator:   generator,
		builder:     search.NewContextBuilder(search.DefaultContextChars, search.DefaultArticleChars),
		weights:     ranking.DefaultRetrievalWeights(),
		timeout:     DefaultTimeout,
		maxTokens:   500,
		temperature: 0.3,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers one question. It never returns nil and never panics on collaborator
// failures; every failure becomes an Answer.
func (a *Assistant) Ask(ctx context.Context, req models.ChatRequest) *models.Answer {
	start := a.now()
	key := a.sessions.KeyFor(req.UserID, req.SessionID)
	question := strings.TrimSpace(req.Question)

	var ans *models.Answer
	if question == "" {
		ans = models.NewFallbackAnswer(emptyQuestionText, a.weights.FallbackConfidence, followUpsFor(KindGeneral))
	} else {
		ans = a.answer(ctx, key, question)
	}

	// temp_ keys are never seen again; keeping their history would only leak
	if ans.Kind != models.AnswerError && question != "" && !strings.HasPrefix(key, session.TempPrefix) {
		a.remember(key, question, ans.Text)
	}
	ans.Session = models.SessionInfo{Key: key, HistoryTurns: len(a.sessions.RecentHistory(key, 0))}
	ans.SearchTime = a.now().Sub(start).Milliseconds()

	a.logger.Info("question answered",
		zap.String("kind", string(ans.Kind)),
		zap.String("tier", ans.Tier),
		zap.Float64("confidence", ans.Confidence),
		zap.Int64("search_time_ms", ans.SearchTime))
	return ans
}

func (a *Assistant) answer(ctx context.Context, key, question string) *models.Answer {
	q := a.retriever.Analyze(question)
	kind := Classify(q)

	if kind.Canned() {
		return models.NewCannedAnswer(cannedText(kind, q.Lower))
	}

	if entry, ok := a.responses.Lookup(ctx, question); ok {
		a.logger.Debug("answer served from cache", zap.Int("hit_count", entry.HitCount))
		ans := models.NewCachedAnswer(entry)
		ans.Suggestions = followUpsFor(kind)
		return ans
	}

	if session.IsCorrection(question) {
		if prevQ, prevA, ok := a.sessions.LastExchange(key); ok {
			return a.correct(ctx, question, prevQ, prevA)
		}
	}

	articles, err := a.articles.ListActiveArticles(ctx, "")
	if err != nil {
		a.logger.Error("failed to list articles", zap.Error(err))
		articles = nil
	}
	res := a.retriever.Retrieve(question, articles, a.sessions.ContextFromHistory(key))
	if res.Empty() {
		return a.fallback(question, res.Query)
	}

	prompt := llm.Prompt{
		System:      systemPrompt,
		User:        questionPrompt(a.builder.Build(res.Articles), question, a.sessions.RecentHistory(key, historyTurnsInPrompt)),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}
	text, err := a.generate(ctx, prompt)
	if err != nil {
		return a.errorAnswer(err)
	}

	confidence := utils.Saturate(res.TopScore())
	if res.Tier == search.TierArticleNumber {
		confidence = a.weights.ExactNumberConfidence
	}
	ans := models.NewRetrievedAnswer(text, confidence, sources(res), res.Tier.String())
	ans.Suggestions = followUpsFor(kind)
	a.responses.Store(ctx, question, ans.Text, ans.References(), ans.Confidence)
	return ans
}

// correct asks the generator to revise its previous answer, grounded on the
// articles the previous question retrieves. Corrections depend on the
// conversation and are never cached.
func (a *Assistant) correct(ctx context.Context, correction, prevQ, prevA string) *models.Answer {
	kind := session.ClassifyCorrection(correction)
	a.logger.Debug("handling correction", zap.String("type", string(kind)))

	var res *search.Result
	if articles, err := a.articles.ListActiveArticles(ctx, ""); err != nil {
		a.logger.Error("failed to list articles", zap.Error(err))
	} else {
		res = a.retriever.Retrieve(prevQ, articles, "")
	}
	articleContext := ""
	if res != nil && !res.Empty() {
		articleContext = a.builder.Build(res.Articles)
	}

	text, err := a.generate(ctx, llm.Prompt{
		System:      correctionSystemPrompt,
		User:        correctionPrompt(prevQ, prevA, kind, correction, articleContext),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		ans := a.errorAnswer(err)
		ans.IsCorrection = true
		return ans
	}
	var src []models.Source
	if res != nil {
		src = sources(res)
	}
	ans := models.NewRetrievedAnswer(text, correctionConfidence, src, correctionTier)
	ans.IsCorrection = true
	ans.Suggestions = append([]string(nil), correctionFollowUps...)
	return ans
}

func (a *Assistant) fallback(question string, q *ranking.AnalyzedQuery) *models.Answer {
	message, suggestions := reformulate(q)
	if a.speller != nil {
		if corrected, ok := a.speller.Correct(question); ok {
			suggestions = append([]string{didYouMean(corrected)}, suggestions...)
		}
	}
	a.logger.Debug("no article matched", zap.String("question", utils.Truncate(question, 80)))
	return models.NewFallbackAnswer(fallbackText(question, message), a.weights.FallbackConfidence, suggestions)
}

// generate makes the single generator attempt under the configured deadline.
func (a *Assistant) generate(ctx context.Context, p llm.Prompt) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Complete(cctx, p)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		// the deadline may fire while the response is being decoded
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return "", err
	}
	return text, nil
}

func (a *Assistant) errorAnswer(err error) *models.Answer {
	kind := llm.Classify(err)
	a.logger.Warn("generator failed", zap.String("error_kind", string(kind)), zap.Error(err))
	switch kind {
	case models.ErrorTimeout:
		return models.NewErrorAnswer(kind, timeoutText)
	case models.ErrorQuotaOrAuth:
		return models.NewErrorAnswer(kind, unavailableText)
	default:
		return models.NewErrorAnswer(models.ErrorGeneric, fmt.Sprintf(genericErrorText, err.Error()))
	}
}

func (a *Assistant) remember(key, question, answer string) {
	if err := a.sessions.Append(key, models.RoleUser, question); err != nil {
		a.logger.Warn("session not updated", zap.String("session", key), zap.Error(err))
		return
	}
	if err := a.sessions.Append(key, models.RoleAssistant, answer); err != nil {
		a.logger.Warn("session not updated", zap.String("session", key), zap.Error(err))
	}
}

// Welcome returns the greeting shown when a conversation opens.
func (a *Assistant) Welcome(constitutionTitle string) string {
	if constitutionTitle == "" {
		constitutionTitle = "Constitution de la " + models.DefaultCountry
	}
	return fmt.Sprintf(welcomeTemplate, constitutionTitle)
}

// Suggestions returns example questions for an empty conversation.
func (a *Assistant) Suggestions() []string {
	return append([]string(nil), conversationSuggestions...)
}

func cannedText(kind Kind, lower string) string {
	if kind == KindIdentity {
		return identityText
	}
	switch politenessOf(lower) {
	case thanks:
		return thanksText
	case farewell:
		return farewellText
	default:
		return greetingText
	}
}

func sources(res *search.Result) []models.Source {
	out := make([]models.Source, len(res.Articles))
	for i, art := range res.Articles {
		out[i] = models.Source{
			ConstitutionID: art.ConstitutionID,
			Article:        art.Number,
			Excerpt:        utils.Truncate(art.Content, excerptChars),
			Score:          res.Scores[i],
		}
	}
	return out
}

package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/provider"
)

// Record is a completed analysis handed to the Recorder for persistence.
type Record struct {
	UserID    int64
	ProjectID int64
	Code      string
	Language  string
	Result    *Result
}

// Recorder persists completed analyses. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordAnalysis(ctx context.Context, rec *Record) (int64, error)
}

// Service runs analysis and chat requests against the configured provider.
type Service interface {
	// Analyze validates the request, calls the provider, and returns a
	// normalized Result. The Result either satisfies every contract
	// invariant or an error is returned; there are no partial results.
	Analyze(ctx context.Context, req *Request) (*Result, error)

	// Chat answers a free-text question about the code. The raw text reply
	// is the result; no JSON parsing is applied.
	Chat(ctx context.Context, req *ChatRequest) (string, error)
}

// Config configures the analysis service.
type Config struct {
	// Timeout bounds each upstream call (default: 60s).
	Timeout time.Duration
	// MaxTokens caps the upstream completion length (default: 2048).
	MaxTokens int
	// Temperature for upstream sampling (default: 0.3).
	Temperature float64
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() *Config {
	return &Config{
		Timeout:     60 * time.Second,
		MaxTokens:   2048,
		Temperature: 0.3,
	}
}

type service struct {
	config   *Config
	llm      provider.Completer
	recorder Recorder
	logger   *zap.Logger
	metrics  *serviceMetrics
}

// NewService creates a new analysis service. recorder may be nil, in which
// case results are never persisted.
func NewService(cfg *Config, llm provider.Completer, recorder Recorder, logger *zap.Logger) (Service, error) {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	if llm == nil {
		return nil, errors.New("provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		config:   cfg,
		llm:      llm,
		recorder: recorder,
		logger:   logger,
		metrics:  newServiceMetrics(),
	}, nil
}

func (s *service) Analyze(ctx context.Context, req *Request) (*Result, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		s.metrics.AnalysesTotal.WithLabelValues("none", "input_error").Inc()
		return nil, ErrEmptyCode
	}
	language := NormalizeLanguage(req.Language)

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Complete(ctx, provider.Request{
		System:      AnalysisSystemPrompt(),
		Prompt:      BuildAnalysisPrompt(code, language),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	s.metrics.UpstreamDur.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.AnalysesTotal.WithLabelValues(language, "upstream_error").Inc()
		s.logger.Warn("upstream analysis call failed",
			zap.String("provider", s.llm.Name()),
			zap.String("language", language),
			zap.Bool("transient", provider.IsTransient(err)),
			zap.Error(err))
		return nil, err
	}

	result, err := Normalize(resp.Content)
	if err != nil {
		s.metrics.AnalysesTotal.WithLabelValues(language, "invalid_response").Inc()
		s.logger.Warn("upstream reply failed normalization",
			zap.String("provider", s.llm.Name()),
			zap.Int("reply_len", len(resp.Content)))
		return nil, err
	}

	s.metrics.AnalysesTotal.WithLabelValues(language, "ok").Inc()
	s.logger.Info("analysis complete",
		zap.String("language", language),
		zap.Int("score", result.Score),
		zap.Int("bugs", len(result.Bugs)),
		zap.Int("tokens", resp.TokensUsed))

	// Persistence is a non-blocking side effect: a failed history write is
	// logged and the analysis result is still returned.
	if s.recorder != nil && req.UserID > 0 {
		// Detached from the request context so a client that gave up right
		// at the deadline still gets its history row.
		pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer pcancel()
		if _, err := s.recorder.RecordAnalysis(pctx, &Record{
			UserID:    req.UserID,
			ProjectID: req.ProjectID,
			Code:      code,
			Language:  language,
			Result:    result,
		}); err != nil {
			s.metrics.PersistFailures.Inc()
			s.logger.Error("failed to persist analysis",
				zap.Int64("user_id", req.UserID),
				zap.Error(err))
		}
	}

	return result, nil
}

func (s *service) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		s.metrics.ChatsTotal.WithLabelValues("input_error").Inc()
		return "", ErrEmptyCode
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.metrics.ChatsTotal.WithLabelValues("input_error").Inc()
		return "", ErrEmptyQuestion
	}
	language := NormalizeLanguage(req.Language)

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.llm.Complete(ctx, provider.Request{
		System:      ChatSystemPrompt(),
		Prompt:      BuildChatPrompt(code, language, req.History, question),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		s.metrics.ChatsTotal.WithLabelValues("upstream_error").Inc()
		s.logger.Warn("upstream chat call failed",
			zap.String("provider", s.llm.Name()),
			zap.Error(err))
		return "", err
	}

	s.metrics.ChatsTotal.WithLabelValues("ok").Inc()
	return resp.Content, nil
}

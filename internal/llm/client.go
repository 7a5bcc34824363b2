package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/wizz/internal/config"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/logging"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Client sends a message list to a completion service and returns the raw text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	// Model identifies the model this client addresses.
	Model() string
}

// Options configures a client for one persona.
type Options struct {
	APIKey      config.Secret
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	Limiter     *rate.Limiter
	Logger      *logging.Logger
}

const defaultTimeout = 18 * time.Second

func (o *Options) normalize() error {
	if !o.APIKey.IsSet() {
		return errors.New("llm: API key required")
	}
	if o.Model == "" {
		return errors.New("llm: model required")
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Limiter == nil {
		o.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return nil
}

// NewLimiter builds the shared limiter from llm settings.
func NewLimiter(lc config.LLMConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(lc.RateLimit), lc.Burst)
}

// New builds the client selected by llm.provider for one persona.
func New(lc config.LLMConfig, ac config.AgentConfig, limiter *rate.Limiter, logger *logging.Logger) (Client, error) {
	opts := Options{
		APIKey:      ac.APIKey,
		Model:       ac.Model,
		BaseURL:     lc.BaseURL,
		Temperature: ac.Temperature,
		Timeout:     lc.Timeout,
		Limiter:     limiter,
		Logger:      logger,
	}
	switch lc.Provider {
	case "", "openrouter":
		return NewOpenRouterClient(opts)
	case "langchain":
		return NewLangChainClient(opts)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", lc.Provider)
	}
}

// call bounds fn with the per-call deadline and classifies the outcome.
// The limiter wait happens under the caller's context, outside the deadline.
func call(ctx context.Context, o *Options, op, url string, fn func(ctx context.Context) (string, error)) (string, error) {
	if err := o.Limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			// Caller cancellation stays unclassified.
			return "", fmt.Errorf("rate limiter: %w", context.Cause(ctx))
		}
		return "", &failure.Error{Kind: failure.KindUpstream, Op: op, URL: url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	timeout := fmt.Errorf("timeout after %dms", o.Timeout.Milliseconds())
	callCtx, cancel := context.WithTimeoutCause(ctx, o.Timeout, timeout)
	defer cancel()

	start := time.Now()
	out, err := fn(callCtx)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = context.Cause(ctx)
		case context.Cause(callCtx) == timeout:
			err = &failure.Error{Kind: failure.KindTimeout, Op: op, URL: url, Err: timeout}
		default:
			if _, ok := failure.As(err); !ok {
				err = &failure.Error{Kind: failure.KindUpstream, Op: op, URL: url, Err: err}
			}
		}
		o.Logger.Debug(ctx, "completion call failed",
			zap.String("model", o.Model),
			zap.Duration("duration", elapsed),
			zap.String("kind", string(failure.KindOf(err))),
			zap.Error(err))
		return "", err
	}

	o.Logger.Debug(ctx, "completion call succeeded",
		zap.String("model", o.Model),
		zap.Duration("duration", elapsed),
		zap.Int("response_chars", len(out)))
	return out, nil
}

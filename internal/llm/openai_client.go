package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/codeGROOVE-dev/retry"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var (
	// ErrOpenAIUnavailable indicates the OpenAI service is not configured or unavailable.
	ErrOpenAIUnavailable = errors.New("OpenAI service unavailable")
	// ErrOpenAIRequest indicates an error during the OpenAI API request.
	ErrOpenAIRequest = errors.New("OpenAI request failed")
	// ErrOpenAIResponse indicates an error parsing the OpenAI response.
	ErrOpenAIResponse = errors.New("failed to parse OpenAI response")
)

// DefaultSystemPrompt is used when no prompt is loaded from Langfuse or disk.
const DefaultSystemPrompt = `You are a non-medical baby sleep coach helping a parent move their child from two naps to one.

You receive the child's active schedule, rolling nap statistics, the transition progress and a push-readiness analysis. Base every statement only on the provided data.

Your goals:
- Explain where the transition stands (phase, current nap time, goal nap time).
- Describe how recent naps are going (length, good naps of 90+ minutes, crib time).
- Say plainly whether the push-readiness analysis suggests moving the nap later now or holding.
- Give practical routine suggestions for the next few days.

Rules:
- Do NOT provide medical advice or diagnoses.
- Do NOT contradict the push-readiness decision; explain it.
- If data is limited, say so.
- Be warm, concise and concrete.

You must respond as strict JSON with exactly this shape:

{
  "summary": "2-3 sentences on where the transition stands.",
  "observations": ["3-6 short observations drawn from the numbers"],
  "guidance": ["3-5 concrete next steps for the parent"]
}

No extra fields. No comments. No backticks.`

const userPromptTemplate = `Here is JSON describing this child's nap transition.

- "schedule" is the active schedule (wall-clock times are HH:mm in the child's timezone).
- "stats" summarises completed sleep sessions over the last 7 days.
- "progress" is the transition phase, pace and percent complete.
- "push_readiness" is the rule-based decision on moving the single nap later.
- "next_recommendation", when present, is the next sleep action.

JSON:

%s

Based on this data, respond in the required JSON format.`

const (
	defaultModel      = "gpt-4o-mini"
	defaultAttempts   = 3
	defaultRetryDelay = time.Second
	maxRetryDelay     = 20 * time.Second
)

// CoachingLLM is the interface for generating transition coaching using an LLM.
type CoachingLLM interface {
	// GenerateCoaching takes a context object and returns LLM-generated coaching.
	GenerateCoaching(ctx context.Context, coachingCtx *domain.CoachingContext) (*domain.CoachingOutput, error)
}

// OpenAIClient implements CoachingLLM using the OpenAI API.
type OpenAIClient struct {
	client       openai.Client
	model        string
	systemPrompt string
	attempts     uint
	retryDelay   time.Duration
	log          logger.Logger
}

// Option configures an OpenAIClient.
type Option func(*clientOptions)

type clientOptions struct {
	systemPrompt string
	attempts     uint
	retryDelay   time.Duration
	log          logger.Logger
	requestOpts  []option.RequestOption
}

// WithSystemPrompt replaces DefaultSystemPrompt. Empty prompts are ignored.
func WithSystemPrompt(prompt string) Option {
	return func(o *clientOptions) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// WithMaxAttempts sets how many times a failed completion is attempted.
func WithMaxAttempts(n uint) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithRetryDelay sets the base backoff delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *clientOptions) { o.retryDelay = d }
}

func WithLogger(log logger.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.requestOpts = append(o.requestOpts, option.WithBaseURL(url))
	}
}

// NewOpenAIClient creates a new OpenAI client for generating coaching.
// Returns nil if apiKey is empty.
func NewOpenAIClient(apiKey, model string, opts ...Option) *OpenAIClient {
	if apiKey == "" {
		return nil
	}

	if model == "" {
		model = defaultModel
	}

	o := clientOptions{
		systemPrompt: DefaultSystemPrompt,
		attempts:     defaultAttempts,
		retryDelay:   defaultRetryDelay,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Retries are handled here so they can be logged and bounded by config.
	requestOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, o.requestOpts...)

	return &OpenAIClient{
		client:       openai.NewClient(requestOpts...),
		model:        model,
		systemPrompt: o.systemPrompt,
		attempts:     o.attempts,
		retryDelay:   o.retryDelay,
		log:          o.log,
	}
}

// GenerateCoaching calls OpenAI to generate transition coaching.
func (c *OpenAIClient) GenerateCoaching(ctx context.Context, coachingCtx *domain.CoachingContext) (*domain.CoachingOutput, error) {
	if c == nil {
		return nil, ErrOpenAIUnavailable
	}

	// Serialize context to JSON
	contextJSON, err := json.MarshalIndent(coachingCtx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize context: %v", ErrOpenAIRequest, err)
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptTemplate, string(contextJSON))),
		},
	}

	var output *domain.CoachingOutput
	err = retry.Do(
		func() error {
			out, err := c.complete(ctx, params)
			if err != nil {
				return err
			}
			output = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnf("retrying coaching completion (attempt %d): %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*domain.CoachingOutput, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrOpenAIRequest, err)
		if !retryable(err) {
			return nil, retry.Unrecoverable(wrapped)
		}
		return nil, wrapped
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrOpenAIResponse)
	}

	// Parse the JSON response
	var output domain.CoachingOutput
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &output); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenAIResponse, err)
	}
	if output.Summary == "" {
		return nil, fmt.Errorf("%w: empty summary", ErrOpenAIResponse)
	}

	return &output, nil
}

// retryable reports whether a request error is worth another attempt:
// transport failures, rate limits and server errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

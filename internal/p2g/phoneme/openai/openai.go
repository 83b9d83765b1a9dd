// Package openai provides a phoneme source backed by the OpenAI chat API.
//
// The model is asked for the CMU-dictionary (ARPAbet) pronunciation of a
// name and must answer with space-separated symbols only. Replies are
// validated symbol by symbol; a reply with nothing usable is reported as
// [phoneme.ErrUnknownWord] so that a [phoneme.Chain] can fall through to the
// next source.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You convert English words and names into CMU Pronouncing Dictionary (ARPAbet) phonemes.
Reply with the phonemes only, separated by single spaces, with stress digits on vowels (for example: D EH1 L IY0).
For several words, separate the words with " | ". Never add explanations.`

// symbolPattern accepts a bare ARPAbet symbol with an optional stress digit.
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,2}[0-2]?$`)

// Compile-time assertion that Source satisfies the phoneme.Source interface.
var _ phoneme.Source = (*Source)(nil)

// Source implements phoneme.Source using an OpenAI chat model.
type Source struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the source.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Source.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI phoneme Source. If model is empty,
// [DefaultModel] is used.
func New(apiKey, model string, opts ...Option) (*Source, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai phonemes: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Source{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Phonemes implements phoneme.Source.
func (s *Source) Phonemes(ctx context.Context, word string) ([]string, error) {
	if strings.TrimSpace(word) == "" {
		return []string{}, nil
	}

	resp, err := s.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(word),
		},
		Temperature: param.NewOpt(0.0),
	})
	if err != nil {
		return nil, fmt.Errorf("openai phonemes: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai phonemes: empty choices in response")
	}
	return parseReply(word, resp.Choices[0].Message.Content)
}

// parseReply turns the model's answer into symbols. "|" marks a word
// boundary and becomes a blank separator symbol. Any token that is not a
// plausible ARPAbet symbol invalidates the reply.
func parseReply(word, content string) ([]string, error) {
	var out []string
	for _, tok := range strings.Fields(strings.ToUpper(content)) {
		if tok == "|" {
			out = append(out, " ")
			continue
		}
		if !symbolPattern.MatchString(tok) {
			return nil, fmt.Errorf("%w: %q: model replied with %q", phoneme.ErrUnknownWord, word, tok)
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q: empty reply", phoneme.ErrUnknownWord, word)
	}
	return out, nil
}

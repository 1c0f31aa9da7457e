// Package analyzer produces AI summaries of downloaded judgments.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const systemPrompt = "Jesteś ekspertem od prawa administracyjnego. " +
	"Analizujesz orzeczenia sądów administracyjnych w Polsce i tworzysz " +
	"szczegółowe biuletyny analityczne."

const analysisPrompt = "Przeanalizuj poniższe orzeczenie sądu administracyjnego. " +
	"Podaj: sygnaturę i datę, streszczenie stanu faktycznego, główne tezy " +
	"rozstrzygnięcia oraz praktyczne znaczenie dla podatników.\n\nTreść orzeczenia:\n"

const skippedMessage = "Brak uzasadnienia w orzeczeniu - nie wygenerowano podsumowania"

// completionClient is the slice of the OpenAI client the analyzer uses;
// tests substitute a stub.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config tunes the analyzer.
type Config struct {
	APIKey              string
	Model               string
	MaxCompletionTokens int
}

// Analysis is the outcome for one judgment.
type Analysis struct {
	Signature  string
	Summary    string
	TokensUsed int
	// Skipped marks judgments without a justification section; the API
	// is not called for these.
	Skipped bool
	Err     error
}

// Stats aggregates a batch of analyses.
type Stats struct {
	Total      int
	Successful int
	Failed     int
	Skipped    int
	TokensUsed int
}

// Analyzer summarizes judgment texts through the OpenAI API. A circuit
// breaker fails the remaining batch fast when the upstream keeps erroring,
// instead of burning a retry cycle per judgment.
type Analyzer struct {
	client  completionClient
	cfg     Config
	breaker *gobreaker.CircuitBreaker[string]
	logger  *zap.Logger
}

// New builds an Analyzer. The API key must be non-empty.
func New(cfg Config, logger *zap.Logger) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-5-nano"
	}
	if cfg.MaxCompletionTokens <= 0 {
		cfg.MaxCompletionTokens = 2000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		client:  openai.NewClient(cfg.APIKey),
		cfg:     cfg,
		breaker: newBreaker(),
		logger:  logger,
	}, nil
}

func newBreaker() *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// HasJustification reports whether the judgment text contains a
// justification ("uzasadnienie") section. Judgments without one carry no
// reasoning worth summarizing.
func HasJustification(text string) bool {
	return strings.Contains(strings.ToLower(text), "uzasadnienie")
}

// AnalyzeJudgment summarizes one judgment. text is the plain judgment
// text; signature is attached to the result for reporting.
func (a *Analyzer) AnalyzeJudgment(ctx context.Context, text, signature string) Analysis {
	if !HasJustification(text) {
		a.logger.Info("Skipping analysis, no justification section",
			zap.String("signature", signature))
		return Analysis{Signature: signature, Summary: skippedMessage, Skipped: true}
	}

	var tokens int
	summary, err := a.breaker.Execute(func() (string, error) {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: analysisPrompt + text},
			},
			MaxCompletionTokens: a.cfg.MaxCompletionTokens,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty completion response")
		}
		tokens = resp.Usage.TotalTokens
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		a.logger.Warn("Judgment analysis failed",
			zap.String("signature", signature),
			zap.Error(err),
		)
		return Analysis{Signature: signature, Err: err}
	}

	a.logger.Info("Analyzed judgment",
		zap.String("signature", signature),
		zap.Int("tokens_used", tokens),
	)
	return Analysis{Signature: signature, Summary: summary, TokensUsed: tokens}
}

// ComputeStats aggregates batch results.
func ComputeStats(results []Analysis) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Err != nil:
			s.Failed++
		default:
			s.Successful++
		}
		s.TokensUsed += r.TokensUsed
	}
	return s
}

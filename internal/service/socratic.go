package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks clarify/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_socratic_service.go -package=mocks clarify/internal/service SocraticService

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"clarify/internal/contextutil"
	"clarify/internal/llm"
	"clarify/internal/socratic"
)

const (
	// MinSocraticContentLength is the shortest trimmed content worth questioning.
	MinSocraticContentLength = 20

	socraticMaxTokens = 1024
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Complete sends the conversation and returns the model's reply.
	Complete(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// SocraticService generates Socratic questions about a journal entry.
type SocraticService interface {
	Generate(ctx context.Context, req socratic.Request) (socratic.Response, error)
}

type socraticService struct {
	llmClient LLMClient
	logger    *slog.Logger
}

// NewSocraticService creates a SocraticService. A nil llmClient leaves the
// feature unconfigured: Generate then fails with ErrNotConfigured.
func NewSocraticService(llmClient LLMClient) SocraticService {
	return &socraticService{
		llmClient: llmClient,
		logger:    slog.Default(),
	}
}

// Generate validates the request, asks the model and parses its reply.
func (s *socraticService) Generate(ctx context.Context, req socratic.Request) (socratic.Response, error) {
	logger := contextutil.LoggerFromContextOr(ctx, s.logger)

	content := strings.TrimSpace(req.Content)
	if utf8.RuneCountInString(content) < MinSocraticContentLength {
		logger.WarnContext(ctx, "content too short for socratic questions", "length", utf8.RuneCountInString(content))
		return socratic.Response{}, &ValidationError{
			Field:   "content",
			Message: "must be at least 20 characters",
		}
	}

	if s.llmClient == nil {
		return socratic.Response{}, ErrNotConfigured
	}

	messages := []llm.Message{
		{Role: "system", Content: socratic.SystemPrompt},
		{Role: "user", Content: socratic.BuildUserMessage(req)},
	}

	reply, err := s.llmClient.Complete(ctx, messages, llm.ChatParams{MaxTokens: socraticMaxTokens})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get socratic questions", "error", err)
		return socratic.Response{}, wrapKind(ErrExternalService, err, "failed to generate questions")
	}

	resp := socratic.ParseResponse(reply)
	logger.InfoContext(ctx, "socratic questions generated",
		"reply_length", len(reply), "questions", len(resp.Questions), "blind_spots", len(resp.BlindSpots))
	return resp, nil
}

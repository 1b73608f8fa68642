package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"clarify/internal/llm"
	"clarify/internal/service"
	"clarify/internal/service/mocks"
	"clarify/internal/socratic"

	"go.uber.org/mock/gomock"
)

func init() {
	// Keep test output clean; services log through slog.Default().
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

const longContent = "I keep postponing the move because the timing never feels right."

func TestSocraticService_Generate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLLM := mocks.NewMockLLMClient(ctrl)
	svc := service.NewSocraticService(mockLLM)

	tests := []struct {
		name         string
		req          socratic.Request
		mockSetup    func()
		want         socratic.Response
		wantErr      bool
		checkErrType func(error) bool
	}{
		{
			name: "questions parsed from reply",
			req:  socratic.Request{Content: longContent, Assumptions: []string{"timing matters"}},
			mockSetup: func() {
				mockLLM.EXPECT().
					Complete(gomock.Any(), gomock.Any(), llm.ChatParams{MaxTokens: 1024}).
					DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
						if len(messages) != 2 || messages[0].Role != "system" || messages[0].Content != socratic.SystemPrompt {
							t.Errorf("first message should be the system prompt, got %+v", messages)
						}
						if !strings.Contains(messages[1].Content, "- timing matters") {
							t.Errorf("user message should list assumptions, got %q", messages[1].Content)
						}
						return "Questions:\n1. What would make the timing feel right?\n\nBlind spots:\n- The cost of waiting", nil
					})
			},
			want: socratic.Response{
				Questions:  []string{"What would make the timing feel right?"},
				BlindSpots: []string{"The cost of waiting"},
			},
		},
		{
			name:      "content too short after trimming",
			req:       socratic.Request{Content: "   too short       "},
			mockSetup: func() {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "content"
			},
		},
		{
			name: "LLM failure",
			req:  socratic.Request{Content: longContent},
			mockSetup: func() {
				mockLLM.EXPECT().
					Complete(gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("bad status 500"))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			got, err := svc.Generate(testContext(), tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Generate() expected error, got nil")
				}
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("Generate() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Generate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSocraticService_NotConfigured(t *testing.T) {
	svc := service.NewSocraticService(nil)

	_, err := svc.Generate(testContext(), socratic.Request{Content: longContent})
	if !errors.Is(err, service.ErrNotConfigured) {
		t.Errorf("Generate() error = %v, want ErrNotConfigured", err)
	}

	// Validation still runs first.
	_, err = svc.Generate(testContext(), socratic.Request{Content: "short"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Generate() error = %v, want ErrInvalidInput", err)
	}
}

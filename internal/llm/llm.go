package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"torquebackend/internal/chat/models"
	"torquebackend/pkg/config"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type ErrorKind string

const (
	KindTimeout	ErrorKind	= "timeout"
	KindRateLimited	ErrorKind	= "rate_limited"
	KindAPI		ErrorKind	= "api"
	KindNetwork	ErrorKind	= "network"
)

// UpstreamError — любой отказ на стороне модели или сети. Никогда не
// смешивается с отказом бюджетного контроля.
type UpstreamError struct {
	Kind	ErrorKind
	Err	error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ошибка запроса к модели (%s): %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type Service struct {
	client	*openai.Client
	model	string
}

func NewService(cfg *config.Config) *Service {
	client := openai.NewClient(cfg.OpenAIKey)
	return &Service{
		client:	client,
		model:	cfg.OpenAIModel,
	}
}

func (s *Service) Complete(ctx context.Context, messages []models.Message, params models.CompletionParams) (models.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:		s.model,
		Messages:	toChatCompletionMessages(messages),
		Temperature:	params.Temperature,
		MaxTokens:	params.MaxTokens,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logrus.Errorf("Ошибка при запросе к OpenAI: %v", err)
		return models.Completion{}, classify(err)
	}

	if len(resp.Choices) == 0 {
		return models.Completion{}, &UpstreamError{
			Kind:	KindAPI,
			Err:	errors.New("нет ответа от OpenAI"),
		}
	}

	completion := models.Completion{Text: resp.Choices[0].Message.Content}
	if resp.Usage.TotalTokens > 0 {
		completion.Usage = &models.Usage{
			PromptTokens:		resp.Usage.PromptTokens,
			CompletionTokens:	resp.Usage.CompletionTokens,
			TotalTokens:		resp.Usage.TotalTokens,
		}
	}
	return completion, nil
}

func toChatCompletionMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:		string(msg.Role),
			Content:	msg.Content,
		}
	}
	return out
}

func classify(err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &UpstreamError{Kind: KindTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &UpstreamError{Kind: KindRateLimited, Err: err}
		}
		return &UpstreamError{Kind: KindAPI, Err: err}
	}

	return &UpstreamError{Kind: KindNetwork, Err: err}
}

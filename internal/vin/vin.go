package vin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"torquebackend/internal/chat"
	"torquebackend/internal/chat/models"
)

var ErrInvalidVIN = errors.New("некорректный VIN")

const vinLength = 17

const decodePrompt = "You are a vehicle identification assistant for the Torque app. " +
	"Given a VIN, report the manufacturer, model year, assembly plant, body style and engine " +
	"that can be derived from the VIN structure. If a portion of the VIN cannot be decoded " +
	"reliably, say so instead of guessing. Do not discuss anything other than the vehicle itself."

type Service struct {
	completer	chat.Completer
	ceilings	map[models.Tier]int
}

func NewService(completer chat.Completer, ceilings map[models.Tier]int) *Service {
	return &Service{
		completer:	completer,
		ceilings:	ceilings,
	}
}

// Normalize приводит VIN к верхнему регистру без пробелов и проверяет формат:
// 17 символов, латиница и цифры без I, O и Q.
func Normalize(raw string) (string, error) {
	vin := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if len(vin) != vinLength {
		return "", fmt.Errorf("%w: ожидается %d символов, получено %d", ErrInvalidVIN, vinLength, len(vin))
	}
	for _, r := range vin {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z' && r != 'I' && r != 'O' && r != 'Q':
		default:
			return "", fmt.Errorf("%w: недопустимый символ %q", ErrInvalidVIN, r)
		}
	}
	return vin, nil
}

func (s *Service) Decode(ctx context.Context, raw string, tier models.Tier) (models.Completion, error) {
	vin, err := Normalize(raw)
	if err != nil {
		return models.Completion{}, err
	}

	messages := []models.Message{
		{Role: models.RoleSystem, Content: decodePrompt},
		{Role: models.RoleUser, Content: "Decode this VIN and describe the vehicle: " + vin},
	}

	if err := chat.CheckBudget(messages, tier, s.ceilings); err != nil {
		return models.Completion{}, err
	}

	return s.completer.Complete(ctx, messages, models.CompletionParams{
		Temperature:	0.2,
		MaxTokens:	400,
	})
}

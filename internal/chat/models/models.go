package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage	= errors.New("сообщение без роли или содержимого недопустимо")
	ErrUnknownTier		= errors.New("неизвестный уровень подписки")
)

type Role string

const (
	RoleSystem	Role	= "system"
	RoleUser	Role	= "user"
	RoleAssistant	Role	= "assistant"
)

type Tier string

const (
	TierFree	Tier	= "free"
	TierPro		Tier	= "pro"
)

type Message struct {
	Role	Role	`json:"role"`
	Content	string	`json:"content"`
}

type CompletionParams struct {
	Temperature	float32
	MaxTokens	int
}

type Usage struct {
	PromptTokens		int	`json:"prompt_tokens"`
	CompletionTokens	int	`json:"completion_tokens"`
	TotalTokens		int	`json:"total_tokens"`
}

type Completion struct {
	Text	string
	Usage	*Usage
}

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree:
		return TierFree, nil
	case TierPro:
		return TierPro, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("%w: роль %q", ErrInvalidMessage, m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("%w: пустое содержимое", ErrInvalidMessage)
	}
	return nil
}

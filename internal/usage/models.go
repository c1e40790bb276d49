package usage

import (
	"time"
)

type Exchange struct {
	ID			string		`db:"id" json:"id"`
	DeviceID		string		`db:"device_id" json:"device_id"`
	Tier			string		`db:"tier" json:"tier"`
	Kind			string		`db:"kind" json:"kind"`
	EstimatedTokens		int		`db:"estimated_tokens" json:"estimated_tokens"`
	PromptTokens		*int		`db:"prompt_tokens" json:"prompt_tokens,omitempty"`
	CompletionTokens	*int		`db:"completion_tokens" json:"completion_tokens,omitempty"`
	CreatedAt		time.Time	`db:"created_at" json:"created_at"`
}

type Totals struct {
	Exchanges		int	`db:"exchanges" json:"exchanges"`
	EstimatedTokens		int	`db:"estimated_tokens" json:"estimated_tokens"`
	PromptTokens		int	`db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens	int	`db:"completion_tokens" json:"completion_tokens"`
}

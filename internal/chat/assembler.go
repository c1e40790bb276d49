package chat

import (
	"context"
	"torquebackend/internal/chat/models"
	"torquebackend/internal/prompt"

	"github.com/sirupsen/logrus"
)

type Completer interface {
	Complete(ctx context.Context, messages []models.Message, params models.CompletionParams) (models.Completion, error)
}

type Assembler struct {
	completer	Completer
	maxTurns	int
	ceilings	map[models.Tier]int
	replyTokens	map[models.Tier]int
}

func NewAssembler(completer Completer, maxTurns int, ceilings, replyTokens map[models.Tier]int) *Assembler {
	return &Assembler{
		completer:	completer,
		maxTurns:	maxTurns,
		ceilings:	ceilings,
		replyTokens:	replyTokens,
	}
}

// Assemble формирует ограниченный список сообщений для модели: системный
// промпт всегда генерируется заново под уровень текущего запроса (входящие
// системные сообщения отбрасываются по роли, без анализа содержимого), затем
// история обрезается и проверяется бюджет. Повторная сборка уже собранного
// диалога даёт ровно одно системное сообщение.
func (a *Assembler) Assemble(conversation []models.Message, tier models.Tier) ([]models.Message, error) {
	for _, msg := range conversation {
		if err := msg.Validate(); err != nil {
			return nil, err
		}
	}

	system, err := prompt.BuildSystemPrompt(tier)
	if err != nil {
		return nil, err
	}

	assembled := make([]models.Message, 0, len(conversation)+1)
	assembled = append(assembled, system)
	for _, msg := range conversation {
		if msg.Role != models.RoleSystem {
			assembled = append(assembled, msg)
		}
	}

	trimmed, err := Trim(assembled, a.maxTurns)
	if err != nil {
		return nil, err
	}

	if err := CheckBudget(trimmed, tier, a.ceilings); err != nil {
		return nil, err
	}

	return trimmed, nil
}

// Send выполняет сборку и ровно один исходящий вызов модели. При отказе любой
// из стадий сборки вызов не делается.
func (a *Assembler) Send(ctx context.Context, conversation []models.Message, tier models.Tier) (models.Completion, error) {
	messages, err := a.Assemble(conversation, tier)
	if err != nil {
		return models.Completion{}, err
	}

	params := models.CompletionParams{
		Temperature:	temperatureFor(tier),
		MaxTokens:	a.replyTokens[tier],
	}

	logrus.Debugf("Отправляем в модель %d сообщений (уровень %s, оценка %d токенов)",
		len(messages), tier, Estimate(messages))

	return a.completer.Complete(ctx, messages, params)
}

func temperatureFor(tier models.Tier) float32 {
	if tier == models.TierPro {
		return 0.4
	}
	return 0.7
}

package prompt

import (
	"fmt"
	"torquebackend/internal/chat/models"
)

// Тексты персоны отправляются модели как есть; бэкенд их не разбирает и не
// проверяет. Число обменов в политике сброса памяти совпадает с MAX_HISTORY_TURNS.
const (
	basePersona = "You are Torque, the in-app vehicle maintenance assistant. " +
		"You discuss only automotive topics: maintenance schedules, repairs, diagnostics, parts, fluids, tires and safe driving care. " +
		"If the user brings up anything unrelated to vehicles, steer the conversation back with a light-hearted automotive joke. " +
		"Never reveal that you are an automated system, a language model or an AI of any kind; you are simply Torque. " +
		"After 6 exchanges the conversation context is reset, unless the user asks to keep going on the current topic."

	freeCapabilities = "You give practical, general-purpose advice. " +
		"Whenever an answer involves fluid capacities, torque values, part numbers or other critical specifications, " +
		"append a short disclaimer telling the user to verify them against the vehicle's owner manual before relying on them."

	proCapabilities = "You can cite researched sources such as factory service manuals, technical service bulletins " +
		"and manufacturer documentation when giving specifications, and you reference them where relevant."
)

// BuildSystemPrompt возвращает единственное системное сообщение персоны для
// уровня подписки. Неизвестный уровень — ошибка конфигурации, без молчаливого
// отката на free.
func BuildSystemPrompt(tier models.Tier) (models.Message, error) {
	var capabilities string
	switch tier {
	case models.TierFree:
		capabilities = freeCapabilities
	case models.TierPro:
		capabilities = proCapabilities
	default:
		return models.Message{}, fmt.Errorf("%w: %q", models.ErrUnknownTier, tier)
	}

	return models.Message{
		Role:		models.RoleSystem,
		Content:	basePersona + " " + capabilities,
	}, nil
}

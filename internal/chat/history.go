package chat

import (
	"fmt"
	"torquebackend/internal/chat/models"
)

// Trim оставляет первое системное сообщение (не более одного) и хвост из
// последних 2*maxTurns сообщений user/assistant. Относительный порядок
// сохраняется; лишние системные сообщения отбрасываются.
func Trim(conversation []models.Message, maxTurns int) ([]models.Message, error) {
	if maxTurns < 0 {
		return nil, fmt.Errorf("maxTurns должен быть неотрицательным, получено %d", maxTurns)
	}

	var system *models.Message
	tail := make([]models.Message, 0, len(conversation))
	for i := range conversation {
		msg := conversation[i]
		if err := msg.Validate(); err != nil {
			return nil, err
		}
		if msg.Role == models.RoleSystem {
			if system == nil {
				system = &conversation[i]
			}
			continue
		}
		tail = append(tail, msg)
	}

	limit := 2 * maxTurns
	if len(tail) > limit {
		tail = tail[len(tail)-limit:]
	}

	if system == nil {
		return tail, nil
	}
	return append([]models.Message{*system}, tail...), nil
}

package chat

import (
	"math"
	"strings"
	"torquebackend/internal/chat/models"
)

const charsPerToken = 4

// Estimate оценивает стоимость списка сообщений в токенах: сообщения
// склеиваются как "role:content" через перевод строки, итог — round(длина/4).
// Это грубая эвристика вместо настоящего токенизатора; замена на точный
// токенизатор не должна менять сигнатуру и округление.
func Estimate(messages []models.Message) int {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(msg.Role))
		b.WriteByte(':')
		b.WriteString(msg.Content)
	}
	return int(math.Round(float64(b.Len()) / charsPerToken))
}

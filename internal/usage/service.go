package usage

import (
	"context"
	"time"
	"torquebackend/internal/chat/models"

	"github.com/sirupsen/logrus"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// RecordExchange сохраняет учёт одного успешного обращения к модели. Отказ
// хранилища логируется и не влияет на ответ клиенту.
func (s *Service) RecordExchange(ctx context.Context, deviceID string, tier models.Tier, kind string, estimatedTokens int, u *models.Usage) {
	var promptTokens, completionTokens *int
	if u != nil {
		pt := u.PromptTokens
		ct := u.CompletionTokens
		promptTokens = &pt
		completionTokens = &ct
	}

	exchangeID, err := s.repo.StoreExchange(ctx, deviceID, string(tier), kind, estimatedTokens, promptTokens, completionTokens)
	if err != nil {
		logrus.Errorf("Ошибка сохранения учёта для устройства %s: %v", deviceID, err)
		return
	}
	logrus.Debugf("Сохранён обмен %s для устройства %s", exchangeID, deviceID)
}

func (s *Service) GetTotals(ctx context.Context, deviceID string, since time.Time) (*Totals, error) {
	logrus.Debugf("Получение статистики использования устройства %s с %v", deviceID, since)
	return s.repo.GetTotals(ctx, deviceID, since)
}

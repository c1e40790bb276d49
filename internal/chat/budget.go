package chat

import (
	"errors"
	"fmt"
	"torquebackend/internal/chat/models"
)

var ErrNoCeiling = errors.New("для уровня подписки не задан потолок токенов")

type ExceededError struct {
	Estimated	int
	Ceiling		int
	Tier		models.Tier
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("оценка %d токенов превышает потолок %d для уровня %s", e.Estimated, e.Ceiling, e.Tier)
}

// CheckBudget — допусковый контроль перед обращением к модели: выполняется
// строго до исходящего вызова и при отказе ничего не отправляет.
func CheckBudget(messages []models.Message, tier models.Tier, ceilings map[models.Tier]int) error {
	ceiling, ok := ceilings[tier]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoCeiling, tier)
	}

	estimated := Estimate(messages)
	if estimated > ceiling {
		return &ExceededError{
			Estimated:	estimated,
			Ceiling:	ceiling,
			Tier:		tier,
		}
	}
	return nil
}

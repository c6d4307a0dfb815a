package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/models"
)

// BracketNotifier получает события об изменении сеток (websocket-хаб).
type BracketNotifier interface {
	Publish(championshipID int, msg brackets.Message)
}

type noopNotifier struct{}

func (noopNotifier) Publish(int, brackets.Message) {}

func notifierOrNoop(n BracketNotifier) BracketNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func normalizeSport(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}

// normalizeKey приводит вид спорта к нижнему регистру и проверяет ключ сетки.
func normalizeKey(key models.BracketKey) (models.BracketKey, error) {
	key.SportType = normalizeSport(key.SportType)
	if key.ChampionshipID <= 0 {
		return key, fmt.Errorf("%w: championship_id must be positive", ErrValidationFailed)
	}
	if key.SportType == "" {
		return key, fmt.Errorf("%w: sport_type is required", ErrValidationFailed)
	}
	if !key.Gender.IsValid() {
		return key, fmt.Errorf("%w, got %q", ErrInvalidGender, key.Gender)
	}
	return key, nil
}

func intPtr(v int) *int {
	return &v
}

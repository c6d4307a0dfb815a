package brackets

import "github.com/Dosada05/league-bracket/models"

// Лестницы стадий для каждого пола. Последняя стадия всегда финал.
var ladders = map[models.Gender][]models.Stage{
	models.GenderMale: {
		models.StagePreliminary,
		models.StageSemiFinals,
		models.StageFinals,
	},
	models.GenderFemale: {
		models.StagePreliminary,
		models.StageQuarterFinals,
		models.StageSemiFinals,
		models.StageFinals,
	},
}

// Ladder возвращает копию лестницы стадий для пола или nil для неизвестного пола.
func Ladder(gender models.Gender) []models.Stage {
	ladder, ok := ladders[gender]
	if !ok {
		return nil
	}
	out := make([]models.Stage, len(ladder))
	copy(out, ladder)
	return out
}

// StageIndex возвращает позицию стадии в лестнице пола, -1 если стадии там нет.
func StageIndex(stage models.Stage, gender models.Gender) int {
	for i, s := range ladders[gender] {
		if s == stage {
			return i
		}
	}
	return -1
}

func IsStageOf(stage models.Stage, gender models.Gender) bool {
	return StageIndex(stage, gender) >= 0
}

// FirstStage - стадия, с которой начинается сетка пола.
func FirstStage(gender models.Gender) (models.Stage, bool) {
	ladder := ladders[gender]
	if len(ladder) == 0 {
		return "", false
	}
	return ladder[0], true
}

// NextStage возвращает стадию после current. ok == false, если current - финал
// или не входит в лестницу пола.
func NextStage(current models.Stage, gender models.Gender) (next models.Stage, ok bool) {
	ladder := ladders[gender]
	idx := StageIndex(current, gender)
	if idx < 0 || idx+1 >= len(ladder) {
		return "", false
	}
	return ladder[idx+1], true
}

// IsFinal истинно, если стадия последняя хотя бы в одной лестнице.
func IsFinal(stage models.Stage) bool {
	for _, ladder := range ladders {
		if len(ladder) > 0 && ladder[len(ladder)-1] == stage {
			return true
		}
	}
	return false
}

package services

import (
	"errors"
	"fmt"
)

// Общие ошибки сервисного слоя, используемые в маппинге HTTP.
var (
	// Ошибки валидации входных данных
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidStage     = errors.New("stage is not on the gender's ladder")
	ErrInvalidGender    = fmt.Errorf("%w: gender must be male or female", ErrInvalidStage)

	// Ресурс не найден
	ErrMatchNotFound        = errors.New("match not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrChampionshipNotFound = errors.New("championship not found")

	// Ошибки сетки
	ErrBracketFull           = errors.New("bracket is full: no free slot in the next stage")
	ErrInvalidWinner         = errors.New("winner must be one of the match's teams")
	ErrResultAlreadyRecorded = errors.New("match already has a different recorded winner")

	ErrSnapshotStorageDisabled = errors.New("snapshot storage is not configured")
)

// WarningAdvancementFailed возвращается вместе с успешным результатом матча,
// если победителя не удалось поставить в следующий матч.
const WarningAdvancementFailed = "winner could not be advanced, next match is full"

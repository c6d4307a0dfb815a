package handlers

import (
	"net/http"

	"github.com/Dosada05/league-bracket/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	resultService services.ResultService
}

func NewMatchHandler(ms services.MatchService, rs services.ResultService) *MatchHandler {
	return &MatchHandler{
		matchService:  ms,
		resultService: rs,
	}
}

// CreateMatch godoc
// @Summary Создать матч сетки
// @Tags matches
// @Description Создает матч с известными командами и привязывает его к матчу следующей стадии.
// @Description Новый матч всегда not_yet_scheduled, переданный статус игнорируется.
// @Accept json
// @Produce json
// @Param input body services.CreateMatchInput true "Команды, чемпионат, вид спорта, пол и стадия"
// @Success 201 {object} map[string]interface{} "Матч создан"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Команда или чемпионат не найдены"
// @Failure 409 {object} map[string]string "Сетка заполнена"
// @Failure 422 {object} map[string]string "Стадия не подходит для пола"
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary Получить матч
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResult godoc
// @Summary Записать результат матча
// @Tags matches
// @Description Отмечает матч сыгранным и ставит победителя в свободный слот следующего матча.
// @Description Если слот занять не удалось, результат все равно сохраняется, а в ответе будет warning.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param input body services.RecordResultInput true "Победитель и счет"
// @Success 200 {object} map[string]interface{} "result: match, next_match, slot, warning"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 409 {object} map[string]string "Записан другой победитель"
// @Failure 422 {object} map[string]string "Победитель не играет в матче"
// @Router /matches/{matchID}/result [post]
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.resultService.RecordResult(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

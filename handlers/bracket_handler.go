package handlers

import (
	"net/http"

	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/services"
)

type BracketHandler struct {
	bracketService   services.BracketService
	integrityService services.IntegrityService
}

func NewBracketHandler(bs services.BracketService, is services.IntegrityService) *BracketHandler {
	return &BracketHandler{
		bracketService:   bs,
		integrityService: is,
	}
}

// GetBracket godoc
// @Summary Получить сетку
// @Tags brackets
// @Description Матчи сетки по стадиям, финал и чемпион, если он уже определен.
// @Produce json
// @Param championshipID path int true "Championship ID"
// @Param sport path string true "Вид спорта"
// @Param gender path string true "male или female"
// @Param status query string false "Фильтр по статусу матча"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неверные параметры"
// @Failure 404 {object} map[string]string "Чемпионат не найден"
// @Router /championships/{championshipID}/brackets/{sport}/{gender} [get]
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	key, err := bracketKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.MatchStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.MatchStatus(s)
		status = &st
	}

	view, err := h.bracketService.GetBracket(r.Context(), key, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SeedBracket godoc
// @Summary Посеять первую стадию
// @Tags brackets
// @Description Создает матчи первой стадии парами 1-2, 3-4, ... Останавливается на первой ошибке.
// @Accept json
// @Produce json
// @Param championshipID path int true "Championship ID"
// @Param sport path string true "Вид спорта"
// @Param gender path string true "male или female"
// @Param input body services.SeedBracketInput true "Команды в порядке посева"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неверный список команд"
// @Failure 409 {object} map[string]string "Сетка заполнена"
// @Router /championships/{championshipID}/brackets/{sport}/{gender}/seed [post]
func (h *BracketHandler) SeedBracket(w http.ResponseWriter, r *http.Request) {
	key, err := bracketKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SeedBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.bracketService.SeedBracket(r.Context(), key, input)
	if err != nil {
		status := errorStatus(err)
		if status == 0 || len(created) == 0 {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		// Часть пар уже создана: сообщаем об ошибке вместе с созданными матчами.
		writeErrorEnvelope(w, r, status, jsonResponse{"error": err.Error(), "matches": created})
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CheckIntegrity godoc
// @Summary Проверить целостность сетки
// @Tags brackets
// @Description Только читает данные. Пустой список issues - сетка в порядке.
// @Produce json
// @Param championshipID path int true "Championship ID"
// @Param sport path string true "Вид спорта"
// @Param gender path string true "male или female"
// @Success 200 {object} map[string]interface{}
// @Router /championships/{championshipID}/brackets/{sport}/{gender}/integrity [get]
func (h *BracketHandler) CheckIntegrity(w http.ResponseWriter, r *http.Request) {
	key, err := bracketKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	issues, err := h.integrityService.CheckIntegrity(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"issues": issues}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportSnapshot godoc
// @Summary Выгрузить снимок сетки в R2
// @Tags brackets
// @Produce json
// @Param championshipID path int true "Championship ID"
// @Param sport path string true "Вид спорта"
// @Param gender path string true "male или female"
// @Success 201 {object} map[string]interface{}
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Router /championships/{championshipID}/brackets/{sport}/{gender}/snapshot [post]
func (h *BracketHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	key, err := bracketKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.bracketService.ExportSnapshot(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/services" // Импортируем для маппинга ошибок сервисов
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Паника, т.к. это ошибка программиста (передан не указатель)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	writeErrorEnvelope(w, r, status, jsonResponse{"error": message})
}

func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, env jsonResponse) {
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response",
			slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

// errorStatus возвращает HTTP-статус для ошибки сервиса. 0 - ошибка непредвиденная.
func errorStatus(err error) int {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrChampionshipNotFound):
		return http.StatusNotFound

	// Конфликты состояния сетки
	case errors.Is(err, services.ErrBracketFull),
		errors.Is(err, services.ErrResultAlreadyRecorded):
		return http.StatusConflict

	// Нарушение правил сетки
	case errors.Is(err, services.ErrInvalidStage),
		errors.Is(err, services.ErrInvalidWinner):
		return http.StatusUnprocessableEntity

	case errors.Is(err, services.ErrValidationFailed):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrSnapshotStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return 0
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == 0 {
		serverErrorResponse(w, r, err)
		return
	}
	errorResponse(w, r, status, err.Error())
}

// NotFound - ответ роутера на неизвестный путь.
func NotFound(w http.ResponseWriter, r *http.Request) {
	notFoundResponse(w, r)
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}

	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", paramName, id)
	}
	return id, nil
}

// bracketKeyFromURL собирает ключ сетки из /championships/{championshipID}/brackets/{sport}/{gender}.
func bracketKeyFromURL(r *http.Request) (models.BracketKey, error) {
	championshipID, err := getIDFromURL(r, "championshipID")
	if err != nil {
		return models.BracketKey{}, err
	}
	return models.BracketKey{
		ChampionshipID: championshipID,
		SportType:      chi.URLParam(r, "sport"),
		Gender:         models.Gender(chi.URLParam(r, "gender")),
	}, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tours-api/store"
	"tours-api/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Envelope is the uniform response body for every JSON endpoint.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token,omitempty"`
	Results *int        `json:"results,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func results(n int) *int { return &n }

func respond(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

// apiHandler is the handler shape used throughout: any returned error goes
// to the single translator instead of being formatted locally.
type apiHandler func(w http.ResponseWriter, r *http.Request) error

// ErrorTranslator is the terminal error middleware: it turns whatever error
// a handler returned into the envelope plus an HTTP status code.
type ErrorTranslator struct {
	Logger      *zap.Logger
	Development bool
}

// Handle adapts an apiHandler into an http.HandlerFunc, funneling errors
// through the translator.
func (t *ErrorTranslator) Handle(h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		appErr := TranslateError(err)
		if !appErr.Operational {
			t.Logger.Error("unexpected error",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			if !t.Development {
				appErr = utils.Internal("Something went very wrong!")
			}
		}
		respond(w, appErr.Code, Envelope{
			Status:  appErr.Status(),
			Message: appErr.Message,
		})
	}
}

// TranslateError normalizes driver, validation, and application errors into
// an AppError. Unknown errors come back non-operational with the original
// message, which the dispatcher masks outside development mode.
func TranslateError(err error) *utils.AppError {
	if appErr, ok := utils.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, store.ErrNotFound) {
		return utils.NotFound("No document found with that ID")
	}
	if store.IsDuplicateKey(err) {
		return utils.BadRequest("Duplicate field value. Please use another value!")
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
		return utils.BadRequest("Invalid input data: " + strings.Join(fields, "; "))
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return utils.BadRequest("Invalid JSON payload")
	}
	return &utils.AppError{Code: http.StatusInternalServerError, Message: err.Error()}
}

// NotFoundHandler is the JSON catch-all for unmatched routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusNotFound, Envelope{
		Status:  "fail",
		Message: fmt.Sprintf("Can't find %s on this server!", r.URL.Path),
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tours-api/store"
	"tours-api/utils"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestTranslateErrorPassesAppErrorsThrough(t *testing.T) {
	appErr := utils.Forbidden("You do not have permission to perform this action.")

	got := TranslateError(appErr)

	assert.Same(t, appErr, got)
	assert.Equal(t, "fail", got.Status())
}

func TestTranslateErrorMapsNotFound(t *testing.T) {
	got := TranslateError(store.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, got.Code)
	assert.True(t, got.Operational)
	assert.Equal(t, "No document found with that ID", got.Message)
}

func TestTranslateErrorMapsDuplicateKey(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{
		{Code: 11000, Message: "E11000 duplicate key error collection: tours.tours index: name_1"},
	}}

	got := TranslateError(err)

	assert.Equal(t, http.StatusBadRequest, got.Code)
	assert.True(t, got.Operational)
	assert.Equal(t, "Duplicate field value. Please use another value!", got.Message)
}

func TestTranslateErrorMapsValidationErrors(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(struct {
		Email string `validate:"required,email"`
	}{Email: "not-an-email"})
	require.Error(t, err)

	got := TranslateError(err)

	assert.Equal(t, http.StatusBadRequest, got.Code)
	assert.True(t, got.Operational)
	assert.Contains(t, got.Message, "Invalid input data")
}

func TestTranslateErrorUnknownIsNonOperational(t *testing.T) {
	got := TranslateError(errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, got.Code)
	assert.False(t, got.Operational)
	assert.Equal(t, "error", got.Status())
}

func TestHandleMasksProgrammingErrorsInProduction(t *testing.T) {
	et := &ErrorTranslator{Logger: zap.NewNop(), Development: false}
	h := et.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("pointer dereference in layer 7")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Something went very wrong!", env.Message)
}

func TestHandleExposesProgrammingErrorsInDevelopment(t *testing.T) {
	et := &ErrorTranslator{Logger: zap.NewNop(), Development: true}
	h := et.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("pointer dereference in layer 7")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Contains(t, env.Message, "pointer dereference")
}

func TestHandleWritesOperationalErrorsVerbatim(t *testing.T) {
	et := &ErrorTranslator{Logger: zap.NewNop(), Development: false}
	h := et.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return utils.NotFound("No document found with that ID")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tours/x", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "No document found with that ID", env.Message)
}

func TestNotFoundHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "fail", env.Status)
	assert.Contains(t, env.Message, "/api/v1/nope")
}

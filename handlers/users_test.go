package handlers

import (
	"net/http"
	"testing"

	"tours-api/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestProfileUpdatesBuildsSetDocument(t *testing.T) {
	updates, err := profileUpdates([]byte(`{"name":"Lourdes B.","email":" LouLou@Example.COM ","photo":"me.jpg"}`), newValidate())

	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"name":  "Lourdes B.",
		"email": "loulou@example.com",
		"photo": "me.jpg",
	}, updates)
}

func TestProfileUpdatesRejectsNonStringValues(t *testing.T) {
	for _, body := range []string{
		`{"name":123}`,
		`{"email":true}`,
		`{"photo":["a.jpg"]}`,
	} {
		_, err := profileUpdates([]byte(body), newValidate())
		require.Error(t, err, body)
		appErr, ok := utils.AsAppError(err)
		require.True(t, ok, body)
		assert.Equal(t, http.StatusBadRequest, appErr.Code, body)
	}
}

func TestProfileUpdatesRejectsPasswordFields(t *testing.T) {
	for _, body := range []string{
		`{"password":"newpass123"}`,
		`{"name":"x y","passwordConfirm":"newpass123"}`,
	} {
		_, err := profileUpdates([]byte(body), newValidate())
		require.Error(t, err, body)
		appErr, ok := utils.AsAppError(err)
		require.True(t, ok, body)
		assert.Contains(t, appErr.Message, "/updateMyPassword", body)
	}
}

func TestProfileUpdatesRejectsInvalidEmail(t *testing.T) {
	_, err := profileUpdates([]byte(`{"email":"not-an-email"}`), newValidate())

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, TranslateError(err).Code)
}

func TestProfileUpdatesIgnoresUnknownFields(t *testing.T) {
	_, err := profileUpdates([]byte(`{"role":"admin","active":true}`), newValidate())

	require.Error(t, err)
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "No updatable fields in request body", appErr.Message)
}

func TestSanitizeUserUpdatesStripsCredentialFields(t *testing.T) {
	updates := sanitizeUserUpdates(bson.M{
		"name":                 "Renamed",
		"email":                " Admin@TrailTours.IO ",
		"password":             "sneaky",
		"passwordResetToken":   "deadbeef",
		"passwordResetExpires": "2030-01-01",
		"createdAt":            "2020-01-01",
	})

	assert.Equal(t, bson.M{
		"name":  "Renamed",
		"email": "admin@trailtours.io",
	}, updates)
}

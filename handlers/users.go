package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"tours-api/middleware"
	"tours-api/models"
	"tours-api/store"
	"tours-api/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

type UsersHandler struct {
	DB       *store.DB
	Validate *validator.Validate
}

// Me returns the authenticated principal.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	respond(w, http.StatusOK, Envelope{
		Status: "success",
		Data:   map[string]interface{}{"user": user},
	})
	return nil
}

// profileUpdate is the self-service profile surface. Pointer fields
// distinguish absent from empty, and the typed decode rejects non-string
// values before anything reaches the collection.
type profileUpdate struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo"`
}

// profileUpdates parses an updateMe body into a $set document. Password
// fields are refused so credential changes always go through the
// rehash-and-restamp path.
func profileUpdates(body []byte, validate *validator.Validate) (bson.M, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, utils.BadRequest("Invalid JSON payload")
	}
	for _, field := range []string{"password", "passwordConfirm"} {
		if _, ok := raw[field]; ok {
			return nil, utils.BadRequest("This route is not for password updates. Please use /updateMyPassword.")
		}
	}
	var req profileUpdate
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, utils.BadRequest("Name, email and photo must be strings")
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}

	updates := bson.M{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Photo != nil {
		updates["photo"] = *req.Photo
	}
	if len(updates) == 0 {
		return nil, utils.BadRequest("No updatable fields in request body")
	}
	return updates, nil
}

// UpdateMe updates the caller's profile.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	updates, err := profileUpdates(body, h.Validate)
	if err != nil {
		return err
	}

	updated, err := h.DB.Users.UpdateByID(r.Context(), user.ID, updates)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, Envelope{
		Status: "success",
		Data:   map[string]interface{}{"user": updated},
	})
	return nil
}

// DeleteMe soft-deletes the account: the record stays but default-scoped
// listings stop returning it.
func (h *UsersHandler) DeleteMe(w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	if err := h.DB.Users.Deactivate(r.Context(), user.ID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type createUserRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Photo           string `json:"photo"`
	Role            string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Create is the admin-only user creation endpoint; unlike signup it may
// assign any role.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return utils.BadRequest("Invalid JSON payload")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:      req.Name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Photo:     req.Photo,
		Role:      role,
		Password:  string(hash),
		CreatedAt: time.Now(),
	}
	id, err := h.DB.Users.InsertOne(r.Context(), user)
	if err != nil {
		return err
	}
	user.ID = id
	respond(w, http.StatusCreated, Envelope{
		Status: "success",
		Data:   map[string]interface{}{"user": user},
	})
	return nil
}

// UpdateUser is the admin-only generic update; credentials never move
// through it.
func UpdateUser(repo Repo[models.User], validate *validator.Validate) apiHandler {
	return UpdateOne[models.User](repo, validate, sanitizeUserUpdates, nil)
}

// sanitizeUserUpdates keeps the generic admin update away from credentials
// and reset state; those only move through the dedicated password flows.
func sanitizeUserUpdates(updates bson.M) bson.M {
	for _, field := range []string{"password", "passwordConfirm", "passwordChangedAt", "passwordResetToken", "passwordResetExpires", "createdAt"} {
		delete(updates, field)
	}
	if v, ok := updates["email"].(string); ok {
		updates["email"] = strings.ToLower(strings.TrimSpace(v))
	}
	return updates
}

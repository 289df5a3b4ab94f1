package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

var ValidRoles = []string{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

func RoleValid(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name" validate:"required"`
	Email             string             `bson:"email" json:"email" validate:"required,email"`
	Photo             string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role              string             `bson:"role" json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Password          string             `bson:"password" json:"-"` // bcrypt hash
	PasswordChangedAt time.Time          `bson:"passwordChangedAt,omitempty" json:"-"`
	ResetTokenHash    string             `bson:"passwordResetToken,omitempty" json:"-"`
	ResetTokenExpires time.Time          `bson:"passwordResetExpires,omitempty" json:"-"`
	Active            *bool              `bson:"active,omitempty" json:"-"` // nil means active; soft delete sets false
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issuance time. Tokens minted before a change are rejected.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}

// IsActive treats a missing flag as active so that documents created before
// soft delete existed keep working.
func (u *User) IsActive() bool {
	return u.Active == nil || *u.Active
}

package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role classifies a staff account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a staff account administering products and leads.
// Accounts are never hard-deleted, only deactivated.
type User struct {
	gorm.Model

	Name         string `gorm:"not null" json:"nom"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(10);default:'user'" json:"role"`

	// No default-true tag: GORM would drop an explicit false on insert in
	// favor of the column default. Registration sets the flag explicitly.
	IsActive     bool       `json:"est_actif"`
	LastLogin    *time.Time `json:"derniere_connexion,omitempty"`
	ProfileImage string     `json:"image_profil,omitempty"`
}

// SetPassword hashes the plaintext and stores the hash. It runs before the
// record is handed to the store so the transformation stays visible and
// testable instead of hiding in a persistence hook.
func (u *User) SetPassword(plain string, cost int) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword verifies a plaintext candidate against the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

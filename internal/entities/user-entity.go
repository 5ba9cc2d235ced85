// Файл: internal/entities/user-entity.go
package entities

import (
	"pem-system/internal/authz"
	"pem-system/pkg/types"
)

type User struct {
	ID       uint64  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Username string  `json:"username" db:"username"`
	Email    *string `json:"email,omitempty" db:"email"`

	Password string `json:"-" db:"password_hash"`

	Role     authz.Role `json:"role" db:"role"`
	IsActive bool       `json:"is_active" db:"is_active"`

	types.BaseEntity
}

func (u *User) Identity() *authz.Identity {
	return &authz.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

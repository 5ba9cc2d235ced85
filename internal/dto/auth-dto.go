package dto

import (
	"time"

	"pem-system/internal/authz"
)

// LoginDTO: username принимает и имя пользователя, и email.
type LoginDTO struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type SessionUserDTO struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Username    string         `json:"username"`
	Role        authz.Role     `json:"role"`
	Permissions []authz.Action `json:"permissions"`
}

type LoginResponseDTO struct {
	User      SessionUserDTO `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type MeResponseDTO struct {
	User SessionUserDTO `json:"user"`
}

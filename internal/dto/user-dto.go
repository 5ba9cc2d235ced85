package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	Name     string      `json:"name" validate:"required,notblank,max=150"`
	Username string      `json:"username" validate:"required,notblank,min=3,max=50"`
	Email    null.String `json:"email" validate:"omitempty,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     string      `json:"role" validate:"required,user_role"`
}

// UpdateUserDTO - частичное обновление, меняются только переданные поля.
type UpdateUserDTO struct {
	Name     null.String `json:"name" validate:"omitempty,notblank,max=150"`
	Username null.String `json:"username" validate:"omitempty,notblank,min=3,max=50"`
	Email    null.String `json:"email" validate:"omitempty,email"`
	Password null.String `json:"password" validate:"omitempty,min=6"`
	Role     null.String `json:"role" validate:"omitempty,user_role"`
	IsActive null.Bool   `json:"is_active"`
}

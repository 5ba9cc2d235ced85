package authz

import (
	apperrors "pem-system/pkg/errors"
)

// Identity - аутентифицированный субъект запроса.
type Identity struct {
	UserID   uint64 `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Authorize не имеет состояния: одинаковые входы дают одинаковый результат.
func Authorize(identity *Identity, action Action) error {
	if identity == nil {
		return apperrors.ErrUnauthorized
	}
	if !HasPermission(identity.Role, action) {
		return apperrors.ErrForbidden
	}
	return nil
}

// CanOverrideStatus - обход таблицы переходов статусов оборудования.
func CanOverrideStatus(identity *Identity) bool {
	return identity != nil && identity.Role == RoleAdmin
}

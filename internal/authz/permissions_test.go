package authz

import (
	"testing"

	apperrors "pem-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission_RoleTable(t *testing.T) {
	testCases := []struct {
		role    Role
		allowed []Action
		denied  []Action
	}{
		{
			role:    RoleAdmin,
			allowed: []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionManageUsers, ActionImport, ActionExport},
		},
		{
			role:    RoleOperator,
			allowed: []Action{ActionView, ActionCreate, ActionEdit, ActionImport, ActionExport},
			denied:  []Action{ActionDelete, ActionManageUsers},
		},
		{
			role:    RoleViewer,
			allowed: []Action{ActionView},
			denied:  []Action{ActionCreate, ActionEdit, ActionDelete, ActionManageUsers, ActionImport, ActionExport},
		},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			for _, a := range tc.allowed {
				assert.True(t, HasPermission(tc.role, a), "роль %s должна иметь право %s", tc.role, a)
			}
			for _, a := range tc.denied {
				assert.False(t, HasPermission(tc.role, a), "роль %s не должна иметь право %s", tc.role, a)
			}
		})
	}
}

func TestHasPermission_UnknownInputs(t *testing.T) {
	assert.False(t, HasPermission("GUEST", ActionView))
	assert.False(t, HasPermission(RoleAdmin, "launch_rockets"))
	assert.False(t, HasPermission("", ""))
}

func TestPermissions_FixedOrder(t *testing.T) {
	assert.Equal(t, []Action{ActionView, ActionCreate, ActionEdit, ActionImport, ActionExport}, Permissions(RoleOperator))
	assert.Equal(t, []Action{ActionView}, Permissions(RoleViewer))
	assert.Empty(t, Permissions("GUEST"))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" admin ")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestAuthorize(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, ActionView), apperrors.ErrUnauthorized)

	viewer := &Identity{UserID: 3, Username: "viewer", Role: RoleViewer}
	assert.NoError(t, Authorize(viewer, ActionView))
	assert.ErrorIs(t, Authorize(viewer, ActionEdit), apperrors.ErrForbidden)

	// одинаковые входы - одинаковый результат
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, Authorize(viewer, ActionDelete), apperrors.ErrForbidden)
	}
}

func TestCanOverrideStatus(t *testing.T) {
	assert.True(t, CanOverrideStatus(&Identity{UserID: 1, Role: RoleAdmin}))
	assert.False(t, CanOverrideStatus(&Identity{UserID: 2, Role: RoleOperator}))
	assert.False(t, CanOverrideStatus(nil))
}

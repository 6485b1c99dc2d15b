package identity

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHeader(t *testing.T) {
	tests := []struct {
		name      string
		customer  string
		roles     string
		wantOK    bool
		wantRoles []Role
	}{
		{"no customer", "", "ADMIN", false, nil},
		{"no roles", "c1", "", true, nil},
		{"normalised roles", "c1", " admin, user ,ADMIN,", true, []Role{RoleAdmin, RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			h.Set(HeaderCustomerID, tt.customer)
			h.Set(HeaderRoles, tt.roles)

			id, ok := FromHeader(h)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.customer, id.CustomerID)
				assert.Equal(t, tt.wantRoles, id.Roles)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	_, err := Require(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	ctx := With(context.Background(), Identity{CustomerID: "c1", Roles: []Role{RoleUser}})

	id, err := Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", id.CustomerID)

	_, err = Require(ctx, RoleAdmin)
	require.ErrorIs(t, err, ErrForbidden)

	admin := With(context.Background(), Identity{CustomerID: "root", Roles: []Role{RoleAdmin}})
	_, err = Require(admin, RoleAdmin)
	require.NoError(t, err)
}

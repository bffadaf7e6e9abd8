package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
)

func TestRBACServiceImpl_HasPermission(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customer := h.register(t, "trent@example.com")
	dealer := h.register(t, "uma@example.com")
	require.NoError(t, h.roles.AssignRole(ctx, dealer.ID, "dealer"))
	admin := h.register(t, "victor@example.com")
	require.NoError(t, h.roles.AssignRole(ctx, admin.ID, domain.RoleAdmin))

	tests := []struct {
		name      string
		accountID uint
		resource  string
		action    string
		want      bool
	}{
		{"customer reads gemstones", customer.ID, "gemstone", "read", true},
		{"customer cannot delete gemstones", customer.ID, "gemstone", "delete", false},
		{"customer cannot list", customer.ID, "listing", "create", false},
		{"dealer lists", dealer.ID, "listing", "create", true},
		{"dealer keeps customer grants", dealer.ID, "order", "create", true},
		{"dealer cannot delete gemstones", dealer.ID, "gemstone", "delete", false},
		{"admin passes everything", admin.ID, "gemstone", "delete", true},
		{"admin passes unknown resources", admin.ID, "vault", "open", true},
		{"unknown account", 9999, "gemstone", "read", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.rbac.HasPermission(ctx, tt.accountID, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRBACServiceImpl_HasRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customer := h.register(t, "walter@example.com")
	admin := h.register(t, "xena@example.com")
	require.NoError(t, h.roles.AssignRole(ctx, admin.ID, domain.RoleAdmin))

	ok, err := h.rbac.HasRole(ctx, customer.ID, "dealer", "customer")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.rbac.HasRole(ctx, customer.ID, "dealer")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.rbac.HasRole(ctx, admin.ID, "dealer")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRBACServiceImpl_ResolvePermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	account := h.register(t, "yara@example.com")
	require.NoError(t, h.roles.AssignRole(ctx, account.ID, "dealer"))

	permissions, err := h.rbac.ResolvePermissions(ctx, account.ID)
	require.NoError(t, err)
	// customer grants are shared with dealer and appear once
	assert.Len(t, permissions, 7)

	require.NoError(t, h.roles.UnassignRole(ctx, account.ID, "dealer"))
	permissions, err = h.rbac.ResolvePermissions(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, permissions, 3)
}

func TestRoleAdminServiceImpl_Roles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	role, err := h.roles.CreateRole(ctx, "  Appraiser ", "Certifies stones")
	require.NoError(t, err)
	assert.Equal(t, "appraiser", role.Name)
	assert.NotZero(t, role.ID)

	_, err = h.roles.CreateRole(ctx, "appraiser", "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = h.roles.CreateRole(ctx, " ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, h.roles.GrantPermission(ctx, "appraiser", "certificate", "issue"))
	require.NoError(t, h.roles.GrantPermission(ctx, "appraiser", "certificate", "issue"))
	assert.ErrorIs(t, h.roles.GrantPermission(ctx, "appraiser", "", "issue"), domain.ErrInvalidInput)
	assert.ErrorIs(t, h.roles.GrantPermission(ctx, "jeweler", "certificate", "issue"), domain.ErrNotFound)

	account := h.register(t, "zoe@example.com")
	require.NoError(t, h.roles.AssignRole(ctx, account.ID, "appraiser"))
	assert.ErrorIs(t, h.roles.AssignRole(ctx, 9999, "appraiser"), domain.ErrNotFound)

	ok, err := h.rbac.HasPermission(ctx, account.ID, "certificate", "issue")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.roles.RevokePermission(ctx, "appraiser", "certificate", "issue"))
	ok, err = h.rbac.HasPermission(ctx, account.ID, "certificate", "issue")
	require.NoError(t, err)
	assert.False(t, ok)

	roles, err := h.roles.ListRoles(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"admin", "appraiser", "customer", "dealer"}, names)
	assert.True(t, h.audit.HasEvent(domain.RoleChangedEvent, true))
}

func TestRoleAdminServiceImpl_ChangeStatus(t *testing.T) {
	tests := []struct {
		name       string
		events     []domain.StatusEvent
		wantStatus domain.AccountStatus
		wantErr    error
	}{
		{"activate pending", []domain.StatusEvent{domain.EventActivate}, domain.StatusActive, nil},
		{"deactivate then activate", []domain.StatusEvent{domain.EventDeactivate, domain.EventActivate}, domain.StatusActive, nil},
		{"suspend then reinstate", []domain.StatusEvent{domain.EventSuspend, domain.EventReinstate}, domain.StatusActive, nil},
		{"suspended cannot be activated", []domain.StatusEvent{domain.EventSuspend, domain.EventActivate}, domain.StatusSuspended, domain.ErrIllegalTransition},
		{"active cannot be reinstated", []domain.StatusEvent{domain.EventActivate, domain.EventReinstate}, domain.StatusActive, domain.ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			account := h.register(t, "status@example.com")

			var err error
			for _, ev := range tt.events {
				_, err = h.roles.ChangeStatus(ctx, account.ID, ev)
				if err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, h.account(t, account.ID).Status)
		})
	}

	t.Run("leaving a login state revokes the session", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		account := h.register(t, "revoke@example.com")

		login, err := h.auth.Login(ctx, "revoke@example.com", testPassword)
		require.NoError(t, err)

		next, err := h.roles.ChangeStatus(ctx, account.ID, domain.EventDeactivate)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInactive, next)
		assert.Empty(t, h.account(t, account.ID).RefreshToken)

		_, err = h.auth.Refresh(ctx, login.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
		assert.True(t, h.audit.HasEvent(domain.AccountStatusChangedEvent, true))
	})

	t.Run("unknown account", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.roles.ChangeStatus(context.Background(), 9999, domain.EventActivate)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

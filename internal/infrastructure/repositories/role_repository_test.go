package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
)

func TestRoleRepositoryImpl_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	role := &domain.Role{Name: "dealer", Description: "Sells gemstones"}
	require.NoError(t, repo.Create(ctx, role))
	assert.NotZero(t, role.ID)

	err := repo.Create(ctx, &domain.Role{Name: "dealer"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.FindByName(ctx, "dealer")
	require.NoError(t, err)
	assert.Equal(t, "Sells gemstones", got.Description)
	assert.Empty(t, got.Permissions)

	_, err = repo.FindByName(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoleRepositoryImpl_Grants(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Role{Name: "customer"}))
	require.NoError(t, repo.Create(ctx, &domain.Role{Name: "dealer"}))

	require.NoError(t, repo.GrantPermission(ctx, "customer", "gemstone", "read"))
	require.NoError(t, repo.GrantPermission(ctx, "dealer", "gemstone", "read"))
	require.NoError(t, repo.GrantPermission(ctx, "dealer", "gemstone", "create"))
	// idempotent
	require.NoError(t, repo.GrantPermission(ctx, "dealer", "gemstone", "create"))

	err := repo.GrantPermission(ctx, "ghost", "gemstone", "read")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var permissionRows int64
	require.NoError(t, db.Model(&DBPermission{}).Count(&permissionRows).Error)
	assert.Equal(t, int64(2), permissionRows)

	dealer, err := repo.FindByName(ctx, "dealer")
	require.NoError(t, err)
	require.Len(t, dealer.Permissions, 2)
	assert.Equal(t, []domain.Permission{
		{ID: dealer.Permissions[0].ID, Resource: "gemstone", Action: "create"},
		{ID: dealer.Permissions[1].ID, Resource: "gemstone", Action: "read"},
	}, dealer.Permissions)

	require.NoError(t, repo.RevokePermission(ctx, "dealer", "gemstone", "create"))
	require.NoError(t, repo.RevokePermission(ctx, "dealer", "listing", "delete"))

	roles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "customer", roles[0].Name)
	assert.Len(t, roles[0].Permissions, 1)
	assert.Equal(t, "dealer", roles[1].Name)
	assert.Len(t, roles[1].Permissions, 1)
}

func TestRoleRepositoryImpl_Assignments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()
	account := createAccount(t, db, "member@example.com")

	require.NoError(t, repo.Create(ctx, &domain.Role{Name: "customer"}))
	require.NoError(t, repo.Create(ctx, &domain.Role{Name: "dealer"}))
	require.NoError(t, repo.GrantPermission(ctx, "dealer", "listing", "create"))

	require.NoError(t, repo.AssignToAccount(ctx, account.ID, "customer"))
	require.NoError(t, repo.AssignToAccount(ctx, account.ID, "dealer"))
	require.NoError(t, repo.AssignToAccount(ctx, account.ID, "dealer"))

	assert.ErrorIs(t, repo.AssignToAccount(ctx, account.ID, "ghost"), domain.ErrNotFound)
	assert.ErrorIs(t, repo.AssignToAccount(ctx, 999, "customer"), domain.ErrNotFound)

	roles, err := repo.RolesForAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "customer", roles[0].Name)
	assert.Equal(t, "dealer", roles[1].Name)
	require.Len(t, roles[1].Permissions, 1)
	assert.True(t, roles[1].Permissions[0].Matches("listing", "create"))

	require.NoError(t, repo.UnassignFromAccount(ctx, account.ID, "dealer"))
	roles, err = repo.RolesForAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "customer", roles[0].Name)

	none, err := repo.RolesForAccount(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

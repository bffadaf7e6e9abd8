package services

import (
	"context"
	"errors"

	"github.com/gemstone-market/identity/domain"
)

// RoleSeed describes a role created by SeedDefaultRoles
type RoleSeed struct {
	Name        string
	Description string
	Permissions []domain.Permission
}

func perm(resource, action string) domain.Permission {
	return domain.Permission{Resource: resource, Action: action}
}

var customerPermissions = []domain.Permission{
	perm("gemstone", "read"),
	perm("listing", "read"),
	perm("order", "create"),
}

// DefaultRoles are the marketplace roles every installation starts with. The
// admin role needs no grants; the resolver lets it through everything.
var DefaultRoles = []RoleSeed{
	{
		Name:        "customer",
		Description: "Browses the catalog and places orders",
		Permissions: customerPermissions,
	},
	{
		Name:        "dealer",
		Description: "Lists and manages gemstones for sale",
		Permissions: append(append([]domain.Permission{}, customerPermissions...),
			perm("gemstone", "create"),
			perm("gemstone", "update"),
			perm("listing", "create"),
			perm("listing", "update"),
		),
	},
	{
		Name:        domain.RoleAdmin,
		Description: "Full administrative access",
	},
}

// SeedDefaultRoles creates the default roles and grants. Running it again is a
// no-op.
func SeedDefaultRoles(ctx context.Context, store domain.Store) error {
	return store.WithinTx(ctx, func(tx domain.Store) error {
		for _, seed := range DefaultRoles {
			if _, err := tx.Roles().FindByName(ctx, seed.Name); errors.Is(err, domain.ErrNotFound) {
				if err := tx.Roles().Create(ctx, &domain.Role{Name: seed.Name, Description: seed.Description}); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			for _, p := range seed.Permissions {
				if err := tx.Roles().GrantPermission(ctx, seed.Name, p.Resource, p.Action); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

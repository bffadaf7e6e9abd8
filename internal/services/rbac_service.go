package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// RBACServiceImpl implements domain.RBACResolver. It is the only place the
// admin role short-circuits authorization.
type RBACServiceImpl struct {
	store domain.Store
}

// NewRBACService creates a new RBAC resolver
func NewRBACService(store domain.Store) domain.RBACResolver {
	return &RBACServiceImpl{store: store}
}

// ResolveRoles implements domain.RBACResolver
func (s *RBACServiceImpl) ResolveRoles(ctx context.Context, accountID uint) ([]string, error) {
	roles, err := s.store.Roles().RolesForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}

// ResolvePermissions implements domain.RBACResolver
func (s *RBACServiceImpl) ResolvePermissions(ctx context.Context, accountID uint) ([]domain.Permission, error) {
	roles, err := s.store.Roles().RolesForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	permissions := make([]domain.Permission, 0)
	for _, role := range roles {
		for _, p := range role.Permissions {
			key := p.Resource + ":" + p.Action
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			permissions = append(permissions, p)
		}
	}
	return permissions, nil
}

// HasRole implements domain.RBACResolver
func (s *RBACServiceImpl) HasRole(ctx context.Context, accountID uint, roles ...string) (bool, error) {
	held, err := s.ResolveRoles(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, name := range held {
		if name == domain.RoleAdmin {
			return true, nil
		}
		for _, want := range roles {
			if name == want {
				return true, nil
			}
		}
	}
	return false, nil
}

// HasPermission implements domain.RBACResolver
func (s *RBACServiceImpl) HasPermission(ctx context.Context, accountID uint, resource, action string) (bool, error) {
	roles, err := s.store.Roles().RolesForAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if role.Name == domain.RoleAdmin {
			return true, nil
		}
	}
	for _, role := range roles {
		for _, p := range role.Permissions {
			if p.Matches(resource, action) {
				return true, nil
			}
		}
	}
	return false, nil
}

// RoleAdminServiceImpl implements domain.RoleAdminService
type RoleAdminServiceImpl struct {
	store domain.Store
	audit domain.AuditLogger
	log   zerolog.Logger
}

// NewRoleAdminService creates a new role administration service
func NewRoleAdminService(store domain.Store, audit domain.AuditLogger, log zerolog.Logger) domain.RoleAdminService {
	return &RoleAdminServiceImpl{store: store, audit: audit, log: log}
}

// CreateRole implements domain.RoleAdminService
func (s *RoleAdminServiceImpl) CreateRole(ctx context.Context, name, description string) (*domain.Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", domain.ErrInvalidInput)
	}

	role := &domain.Role{Name: name, Description: description}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RoleChangedEvent, 0).
		WithMetadata("action", "create_role").
		WithMetadata("role", name))
	return role, nil
}

// ListRoles implements domain.RoleAdminService
func (s *RoleAdminServiceImpl) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.store.Roles().List(ctx)
}

// GrantPermission implements domain.RoleAdminService
func (s *RoleAdminServiceImpl) GrantPermission(ctx context.Context, roleName, resource, action string) error {
	if resource == "" || action == "" {
		return fmt.Errorf("%w: resource and action are required", domain.ErrInvalidInput)
	}
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		return tx.Roles().GrantPermission(ctx, roleName, resource, action)
	})
	if err != nil {
		return err
	}
	s.logRoleChange(ctx, 0, "grant_permission", roleName, resource+":"+action)
	return nil
}

// RevokePermission implements domain.RoleAdminService
func (s *RoleAdminServiceImpl) RevokePermission(ctx context.Context, roleName, resource, action string) error {
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		return tx.Roles().RevokePermission(ctx, roleName, resource, action)
	})
	if err != nil {
		return err
	}
	s.logRoleChange(ctx, 0, "revoke_permission", roleName, resource+":"+action)
	return nil
}

// AssignRole implements domain.RoleAdminService
func (s *RoleAdminServiceImpl) AssignRole(ctx context.Context, accountID uint, roleName string) error {
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		return tx.Roles().AssignToAccount(ctx, accountID, roleName)
	})
	if err != nil {
		return err
	}
	s.logRoleChange(ctx, accountID, "assign_role", roleName, "")
	return nil
}

// UnassignRole implements domain.RoleAdminService
func (s *RoleAdminServiceImpl) UnassignRole(ctx context.Context, accountID uint, roleName string) error {
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		return tx.Roles().UnassignFromAccount(ctx, accountID, roleName)
	})
	if err != nil {
		return err
	}
	s.logRoleChange(ctx, accountID, "unassign_role", roleName, "")
	return nil
}

// ChangeStatus implements domain.RoleAdminService. Leaving a login-capable
// state also revokes the stored refresh token.
func (s *RoleAdminServiceImpl) ChangeStatus(ctx context.Context, accountID uint, ev domain.StatusEvent) (domain.AccountStatus, error) {
	var previous, next domain.AccountStatus
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		account, err := tx.Accounts().FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		previous = account.Status

		next, err = account.Status.Transition(ev)
		if err != nil {
			return err
		}

		verified := account.EmailVerified || ev == domain.EventVerifyEmail
		if err := tx.Accounts().UpdateStatus(ctx, accountID, next, verified); err != nil {
			return err
		}
		if !next.CanLogin() {
			return tx.Accounts().SetRefreshToken(ctx, accountID, "")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			s.log.Debug().Uint("account_id", accountID).Str("event", string(ev)).Msg("rejected status transition")
		}
		return "", err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AccountStatusChangedEvent, accountID).
		WithMetadata("event", string(ev)).
		WithMetadata("from", string(previous)).
		WithMetadata("to", string(next)))
	return next, nil
}

func (s *RoleAdminServiceImpl) logRoleChange(ctx context.Context, accountID uint, action, role, permission string) {
	event := domain.NewAuditEvent(domain.RoleChangedEvent, accountID).
		WithMetadata("action", action).
		WithMetadata("role", role)
	if permission != "" {
		event.WithMetadata("permission", permission)
	}
	s.audit.LogEvent(ctx, event)
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gemstone-market/identity/domain"
)

// RoleRepositoryImpl implements domain.RoleRepository using GORM
type RoleRepositoryImpl struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) domain.RoleRepository {
	return &RoleRepositoryImpl{db: db}
}

// Create implements domain.RoleRepository
func (r *RoleRepositoryImpl) Create(ctx context.Context, role *domain.Role) error {
	dbRole := &DBRole{Name: role.Name, Description: role.Description}
	if err := r.db.WithContext(ctx).Create(dbRole).Error; err != nil {
		return writeError("create role", err)
	}
	role.ID = dbRole.ID
	return nil
}

// FindByName implements domain.RoleRepository
func (r *RoleRepositoryImpl) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	dbRole, err := r.findRole(ctx, name)
	if err != nil {
		return nil, err
	}
	roles, err := r.withPermissions(ctx, []DBRole{*dbRole})
	if err != nil {
		return nil, err
	}
	return &roles[0], nil
}

// List implements domain.RoleRepository
func (r *RoleRepositoryImpl) List(ctx context.Context) ([]domain.Role, error) {
	var dbRoles []DBRole
	if err := r.db.WithContext(ctx).Order("name").Find(&dbRoles).Error; err != nil {
		return nil, storageError("list roles", err)
	}
	return r.withPermissions(ctx, dbRoles)
}

// GrantPermission implements domain.RoleRepository. Granting an existing pair
// is a no-op.
func (r *RoleRepositoryImpl) GrantPermission(ctx context.Context, roleName, resource, action string) error {
	dbRole, err := r.findRole(ctx, roleName)
	if err != nil {
		return err
	}

	perm := DBPermission{Resource: resource, Action: action}
	if err := r.db.WithContext(ctx).
		Where(DBPermission{Resource: resource, Action: action}).
		FirstOrCreate(&perm).Error; err != nil {
		return storageError("create permission", err)
	}

	grant := DBRolePermission{RoleID: dbRole.ID, PermissionID: perm.ID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant).Error; err != nil {
		return storageError("grant permission", err)
	}
	return nil
}

// RevokePermission implements domain.RoleRepository
func (r *RoleRepositoryImpl) RevokePermission(ctx context.Context, roleName, resource, action string) error {
	dbRole, err := r.findRole(ctx, roleName)
	if err != nil {
		return err
	}

	var perm DBPermission
	err = r.db.WithContext(ctx).Where("resource = ? AND action = ?", resource, action).First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return storageError("load permission", err)
	}

	if err := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", dbRole.ID, perm.ID).
		Delete(&DBRolePermission{}).Error; err != nil {
		return storageError("revoke permission", err)
	}
	return nil
}

// AssignToAccount implements domain.RoleRepository
func (r *RoleRepositoryImpl) AssignToAccount(ctx context.Context, accountID uint, roleName string) error {
	dbRole, err := r.findRole(ctx, roleName)
	if err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return storageError("load account", err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}

	link := DBAccountRole{AccountID: accountID, RoleID: dbRole.ID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error; err != nil {
		return storageError("assign role", err)
	}
	return nil
}

// UnassignFromAccount implements domain.RoleRepository
func (r *RoleRepositoryImpl) UnassignFromAccount(ctx context.Context, accountID uint, roleName string) error {
	dbRole, err := r.findRole(ctx, roleName)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND role_id = ?", accountID, dbRole.ID).
		Delete(&DBAccountRole{}).Error; err != nil {
		return storageError("unassign role", err)
	}
	return nil
}

// RolesForAccount implements domain.RoleRepository
func (r *RoleRepositoryImpl) RolesForAccount(ctx context.Context, accountID uint) ([]domain.Role, error) {
	var dbRoles []DBRole
	err := r.db.WithContext(ctx).
		Joins("JOIN account_roles ON account_roles.role_id = roles.id").
		Where("account_roles.account_id = ?", accountID).
		Order("roles.name").
		Find(&dbRoles).Error
	if err != nil {
		return nil, storageError("load account roles", err)
	}
	return r.withPermissions(ctx, dbRoles)
}

func (r *RoleRepositoryImpl) findRole(ctx context.Context, name string) (*DBRole, error) {
	var dbRole DBRole
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&dbRole).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError("load role", err)
	}
	return &dbRole, nil
}

type rolePermissionRow struct {
	RoleID   uint
	ID       uint
	Resource string
	Action   string
}

// withPermissions attaches granted permissions to each role in one query.
func (r *RoleRepositoryImpl) withPermissions(ctx context.Context, dbRoles []DBRole) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(dbRoles))
	if len(dbRoles) == 0 {
		return roles, nil
	}

	ids := make([]uint, 0, len(dbRoles))
	for _, dbRole := range dbRoles {
		ids = append(ids, dbRole.ID)
	}

	var rows []rolePermissionRow
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("role_permissions.role_id, permissions.id, permissions.resource, permissions.action").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id IN ?", ids).
		Order("permissions.resource, permissions.action").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("load role permissions", err)
	}

	byRole := make(map[uint][]domain.Permission, len(dbRoles))
	for _, row := range rows {
		byRole[row.RoleID] = append(byRole[row.RoleID], domain.Permission{
			ID:       row.ID,
			Resource: row.Resource,
			Action:   row.Action,
		})
	}

	for _, dbRole := range dbRoles {
		roles = append(roles, domain.Role{
			ID:          dbRole.ID,
			Name:        dbRole.Name,
			Description: dbRole.Description,
			Permissions: byRole[dbRole.ID],
		})
	}
	return roles, nil
}

package domain

// Role is a user's role within a landlord scope
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleStaff      Role = "STAFF"
)

// AllRoles returns every landlord role
func AllRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager, RoleAccountant, RoleStaff}
}

// IsValid checks if the role is a known landlord role
func (r Role) IsValid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// OrgRole is a user's role within an organization
type OrgRole string

const (
	OrgRoleOwner  OrgRole = "OWNER"
	OrgRoleAdmin  OrgRole = "ADMIN"
	OrgRoleMember OrgRole = "MEMBER"
)

// IsValid checks if the role is a known organization role
func (r OrgRole) IsValid() bool {
	switch r {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleMember:
		return true
	}
	return false
}

// Permission names an action gated by role
type Permission string

const (
	PermTenantCreate    Permission = "TENANT_CREATE"
	PermTenantDelete    Permission = "TENANT_DELETE"
	PermLeaseCreate     Permission = "LEASE_CREATE"
	PermLeaseUpdate     Permission = "LEASE_UPDATE"
	PermInvoiceCreate   Permission = "INVOICE_CREATE"
	PermInvoiceMarkPaid Permission = "INVOICE_MARK_PAID"
	PermTicketCreate    Permission = "TICKET_CREATE"
	PermTicketUpdate    Permission = "TICKET_UPDATE"
	PermTicketDelete    Permission = "TICKET_DELETE"
	PermPropertyManage  Permission = "PROPERTY_MANAGE"
	PermMemberManage    Permission = "MEMBER_MANAGE"
	PermSettings        Permission = "SETTINGS"
)

var permissionRoles = map[Permission][]Role{
	PermTenantCreate:    {RoleOwner, RoleAdmin, RoleManager},
	PermTenantDelete:    {RoleOwner, RoleAdmin, RoleManager},
	PermLeaseCreate:     {RoleOwner, RoleAdmin, RoleManager},
	PermLeaseUpdate:     {RoleOwner, RoleAdmin, RoleManager},
	PermInvoiceCreate:   {RoleOwner, RoleAdmin, RoleAccountant},
	PermInvoiceMarkPaid: {RoleOwner, RoleAdmin, RoleAccountant},
	PermTicketCreate:    {RoleOwner, RoleAdmin, RoleManager, RoleStaff},
	PermTicketUpdate:    {RoleOwner, RoleAdmin, RoleManager, RoleStaff},
	PermTicketDelete:    {RoleOwner, RoleAdmin},
	PermPropertyManage:  {RoleOwner, RoleAdmin, RoleManager},
	PermMemberManage:    {RoleOwner, RoleAdmin},
	PermSettings:        {RoleOwner, RoleAdmin},
}

// HasPermission reports whether role may exercise permission
func HasPermission(role Role, permission Permission) bool {
	for _, r := range permissionRoles[permission] {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionsFor returns every permission granted to role
func PermissionsFor(role Role) []Permission {
	var perms []Permission
	for _, p := range allPermissions {
		if HasPermission(role, p) {
			perms = append(perms, p)
		}
	}
	return perms
}

var allPermissions = []Permission{
	PermTenantCreate, PermTenantDelete,
	PermLeaseCreate, PermLeaseUpdate,
	PermInvoiceCreate, PermInvoiceMarkPaid,
	PermTicketCreate, PermTicketUpdate, PermTicketDelete,
	PermPropertyManage, PermMemberManage, PermSettings,
}

package model

// Role is a user's authorization level.
type Role string

// Roles.
const (
	RoleCommon     Role = "COMMON"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Capabilities is the set of operations a role may perform.
type Capabilities struct {
	Admin           bool
	SuperAdmin      bool
	ManageUsers     bool
	CreateLoans     bool
	ManageEquipment bool
	ManageCategory  bool
	GenerateReports bool
}

// capabilities is the complete role table. Roles missing from it get the
// zero Capabilities value.
var capabilities = map[Role]Capabilities{
	RoleCommon: {
		CreateLoans: true,
	},
	RoleAdmin: {
		Admin:           true,
		ManageUsers:     true,
		CreateLoans:     true,
		ManageEquipment: true,
		ManageCategory:  true,
	},
	RoleSuperAdmin: {
		Admin:           true,
		SuperAdmin:      true,
		ManageUsers:     true,
		CreateLoans:     true,
		ManageEquipment: true,
		ManageCategory:  true,
		GenerateReports: true,
	},
}

// CapabilitiesOf returns the capabilities granted to role.
func CapabilitiesOf(role Role) Capabilities {
	return capabilities[role]
}

// Permission is a predicate over a role.
type Permission func(role Role) bool

// IsAdmin reports whether role sees every user's loans.
func IsAdmin(role Role) bool { return capabilities[role].Admin }

// IsSuperAdmin reports whether role may grant SUPER_ADMIN and act on other
// super admins.
func IsSuperAdmin(role Role) bool { return capabilities[role].SuperAdmin }

// CanManageUsers reports whether role may create, edit and delete users.
func CanManageUsers(role Role) bool { return capabilities[role].ManageUsers }

// CanCreateLoans reports whether role may open loans.
func CanCreateLoans(role Role) bool { return capabilities[role].CreateLoans }

// CanManageEquipments reports whether role may edit equipment and serials.
func CanManageEquipments(role Role) bool { return capabilities[role].ManageEquipment }

// CanManageCategories reports whether role may edit categories.
func CanManageCategories(role Role) bool { return capabilities[role].ManageCategory }

// CanGenerateReports reports whether role may download stock reports.
func CanGenerateReports(role Role) bool { return capabilities[role].GenerateReports }

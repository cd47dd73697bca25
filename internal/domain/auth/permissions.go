package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

var Roles = []string{RoleEmployee, RoleManager, RoleAdmin}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	PermUsersRead          = "users.read"
	PermUsersWrite         = "users.write"
	PermLeaveRead          = "leave.read"
	PermLeaveWrite         = "leave.write"
	PermLeaveProcess       = "leave.process"
	PermLeaveTypesWrite    = "leave_types.write"
	PermHolidaysWrite      = "holidays.write"
	PermNotificationsRead  = "notifications.read"
	PermNotificationsWrite = "notifications.write"
	PermConsumptionRead    = "consumption.read"
	PermConsumptionWrite   = "consumption.write"
	PermReportsExport      = "reports.export"
	PermAuditRead          = "audit.read"
)

var DefaultPermissions = []string{
	PermUsersRead,
	PermUsersWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveProcess,
	PermLeaveTypesWrite,
	PermHolidaysWrite,
	PermNotificationsRead,
	PermNotificationsWrite,
	PermConsumptionRead,
	PermConsumptionWrite,
	PermReportsExport,
	PermAuditRead,
}

// RolePermissions lists what each role adds on top of the role it inherits
// from (see RoleParents).
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermUsersRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermNotificationsRead,
		PermConsumptionRead,
	},
	RoleManager: {
		PermLeaveProcess,
		PermNotificationsWrite,
		PermConsumptionWrite,
		PermReportsExport,
	},
	RoleAdmin: {
		PermUsersWrite,
		PermLeaveTypesWrite,
		PermHolidaysWrite,
		PermAuditRead,
	},
}

var RoleParents = map[string]string{
	RoleManager: RoleEmployee,
	RoleAdmin:   RoleManager,
}

// CanManage reports whether role may act on other users' leave and
// notifications.
func CanManage(role string) bool {
	return role == RoleManager || role == RoleAdmin
}

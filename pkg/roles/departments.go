package roles

import "strings"

// Department names an organisational unit. The empty value means no
// department is selected.
type Department string

const (
	DepartmentPropertyManagement Department = "Property Management"
	DepartmentAccounting         Department = "Accounting"
	DepartmentMaintenance        Department = "Maintenance"
	DepartmentAdministration     Department = "Administration"
	DepartmentMarketing          Department = "Marketing"
	DepartmentExecutive          Department = "Executive"
)

var departmentOrder = []Department{
	DepartmentPropertyManagement,
	DepartmentAccounting,
	DepartmentMaintenance,
	DepartmentAdministration,
	DepartmentMarketing,
	DepartmentExecutive,
}

// departmentRoles constrains which roles are selectable once a department is
// chosen. Order matters: a singleton list is auto-selected.
var departmentRoles = map[Department][]Key{
	DepartmentPropertyManagement: {PropertyManager, AssistantPropertyManager, LeasingAgent},
	DepartmentAccounting:         {Accountant, FinancialAnalyst},
	DepartmentMaintenance:        {MaintenanceStaff},
	DepartmentAdministration:     {Administrator, OfficeManager},
	DepartmentMarketing:          {MarketingCoordinator},
	DepartmentExecutive:          {RegionalManager, Executive},
}

// Departments lists the known departments in display order.
func Departments() []Department {
	return append([]Department(nil), departmentOrder...)
}

// DepartmentNames returns the departments as strings, for enum rules.
func DepartmentNames() []string {
	out := make([]string, len(departmentOrder))
	for i, d := range departmentOrder {
		out[i] = string(d)
	}
	return out
}

// ParseDepartment matches a department name case-insensitively. Unknown
// names are returned trimmed so callers can still treat them as a
// department with no allowed roles.
func ParseDepartment(raw string) Department {
	trimmed := strings.TrimSpace(raw)
	for _, d := range departmentOrder {
		if strings.EqualFold(string(d), trimmed) {
			return d
		}
	}
	return Department(trimmed)
}

// AllowedRoles returns the roles selectable in d. Unknown departments allow
// nothing.
func AllowedRoles(d Department) []Key {
	return append([]Key(nil), departmentRoles[d]...)
}

// Allows reports whether role k may be selected in d.
func Allows(d Department, k Key) bool {
	for _, candidate := range departmentRoles[d] {
		if candidate == k {
			return true
		}
	}
	return false
}

package roles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/permissions"
)

// ErrUnknownRole is returned when a role key cannot be resolved.
var ErrUnknownRole = errors.New("roles: unknown role")

// Key is the closed set of selectable roles. The zero value means no role is
// selected.
type Key int

const (
	None Key = iota
	PropertyManager
	AssistantPropertyManager
	LeasingAgent
	Accountant
	FinancialAnalyst
	MaintenanceStaff
	Administrator
	OfficeManager
	MarketingCoordinator
	RegionalManager
	Executive

	keyCount
)

// Definition is the static description of a role.
type Definition struct {
	Key                Key
	Name               string
	DisplayName        string
	Description        string
	Department         Department
	DefaultAccessLevel permissions.AccessLevel

	preset     []permissions.Flag
	categories []permissions.Category
}

// definitions is indexed by Key; keyCount sizes the table so a new key
// without an entry is caught by TestEveryKeyIsDefined.
var definitions = [keyCount]Definition{
	PropertyManager: {
		Name:               "PROPERTY_MANAGER",
		DisplayName:        "Property Manager",
		Description:        "Runs day-to-day operations for an assigned portfolio",
		Department:         DepartmentPropertyManagement,
		DefaultAccessLevel: permissions.AccessAdvanced,
		preset: []permissions.Flag{
			permissions.ManageProperties,
			permissions.ManageTenants,
			permissions.ManageLeases,
			permissions.ManageMaintenance,
			permissions.ViewReports,
			permissions.ProcessPayments,
			permissions.ManageVendors,
			permissions.ManageInspections,
			permissions.ExportData,
			permissions.ManageDocuments,
		},
		categories: []permissions.Category{
			permissions.CategoryCore,
			permissions.CategoryFinancial,
			permissions.CategorySpecialized,
			permissions.CategoryData,
		},
	},
	AssistantPropertyManager: {
		Name:               "ASSISTANT_PROPERTY_MANAGER",
		DisplayName:        "Assistant Property Manager",
		Description:        "Supports the property manager with tenants and inspections",
		Department:         DepartmentPropertyManagement,
		DefaultAccessLevel: permissions.AccessStandard,
		preset: []permissions.Flag{
			permissions.ManageTenants,
			permissions.ManageLeases,
			permissions.ManageMaintenance,
			permissions.ViewReports,
			permissions.ManageInspections,
			permissions.ManageDocuments,
		},
		categories: []permissions.Category{
			permissions.CategoryCore,
			permissions.CategorySpecialized,
			permissions.CategoryData,
		},
	},
	LeasingAgent: {
		Name:               "LEASING_AGENT",
		DisplayName:        "Leasing Agent",
		Description:        "Shows units and signs new leases",
		Department:         DepartmentPropertyManagement,
		DefaultAccessLevel: permissions.AccessBasic,
		preset: []permissions.Flag{
			permissions.ManageTenants,
			permissions.ManageLeases,
			permissions.ManageMarketing,
			permissions.ManageDocuments,
		},
		categories: []permissions.Category{
			permissions.CategoryCore,
			permissions.CategorySpecialized,
		},
	},
	Accountant: {
		Name:               "ACCOUNTANT",
		DisplayName:        "Accountant",
		Description:        "Keeps the books and processes payments",
		Department:         DepartmentAccounting,
		DefaultAccessLevel: permissions.AccessStandard,
		preset: []permissions.Flag{
			permissions.ManageFinancials,
			permissions.ViewReports,
			permissions.ProcessPayments,
			permissions.ExportData,
			permissions.ImportData,
		},
		categories: []permissions.Category{
			permissions.CategoryFinancial,
			permissions.CategoryData,
		},
	},
	FinancialAnalyst: {
		Name:               "FINANCIAL_ANALYST",
		DisplayName:        "Financial Analyst",
		Description:        "Builds budgets and financial reporting",
		Department:         DepartmentAccounting,
		DefaultAccessLevel: permissions.AccessStandard,
		preset: []permissions.Flag{
			permissions.ViewReports,
			permissions.ManageBudgets,
			permissions.ViewAuditLogs,
			permissions.ExportData,
		},
		categories: []permissions.Category{
			permissions.CategoryFinancial,
			permissions.CategoryData,
		},
	},
	MaintenanceStaff: {
		Name:               "MAINTENANCE_STAFF",
		DisplayName:        "Maintenance Staff",
		Description:        "Handles work orders and vendor visits",
		Department:         DepartmentMaintenance,
		DefaultAccessLevel: permissions.AccessBasic,
		preset: []permissions.Flag{
			permissions.ManageMaintenance,
			permissions.ViewReports,
			permissions.ViewAuditLogs,
			permissions.ManageVendors,
			permissions.ExportData,
		},
		categories: []permissions.Category{
			permissions.CategoryCore,
			permissions.CategorySpecialized,
		},
	},
	Administrator: {
		Name:               "ADMINISTRATOR",
		DisplayName:        "Administrator",
		Description:        "Full access to every module and setting",
		Department:         DepartmentAdministration,
		DefaultAccessLevel: permissions.AccessAdmin,
		preset:             permissions.All(),
		categories:         permissions.Categories(),
	},
	OfficeManager: {
		Name:               "OFFICE_MANAGER",
		DisplayName:        "Office Manager",
		Description:        "Manages staff accounts, settings and records",
		Department:         DepartmentAdministration,
		DefaultAccessLevel: permissions.AccessAdvanced,
		preset: []permissions.Flag{
			permissions.ViewReports,
			permissions.ManageUsers,
			permissions.ManageSettings,
			permissions.ViewAuditLogs,
			permissions.ExportData,
			permissions.ImportData,
			permissions.ManageDocuments,
		},
		categories: []permissions.Category{
			permissions.CategoryAdministrative,
			permissions.CategoryData,
		},
	},
	MarketingCoordinator: {
		Name:               "MARKETING_COORDINATOR",
		DisplayName:        "Marketing Coordinator",
		Description:        "Publishes listings and runs campaigns",
		Department:         DepartmentMarketing,
		DefaultAccessLevel: permissions.AccessBasic,
		preset: []permissions.Flag{
			permissions.ViewReports,
			permissions.ManageMarketing,
			permissions.ManageDocuments,
		},
		categories: []permissions.Category{
			permissions.CategorySpecialized,
			permissions.CategoryData,
		},
	},
	RegionalManager: {
		Name:               "REGIONAL_MANAGER",
		DisplayName:        "Regional Manager",
		Description:        "Oversees several portfolios and their budgets",
		Department:         DepartmentExecutive,
		DefaultAccessLevel: permissions.AccessAdvanced,
		preset: []permissions.Flag{
			permissions.ManageProperties,
			permissions.ManageTenants,
			permissions.ManageLeases,
			permissions.ManageFinancials,
			permissions.ViewReports,
			permissions.ManageBudgets,
			permissions.ViewAuditLogs,
			permissions.ExportData,
		},
		categories: []permissions.Category{
			permissions.CategoryCore,
			permissions.CategoryFinancial,
			permissions.CategoryData,
		},
	},
	Executive: {
		Name:               "EXECUTIVE",
		DisplayName:        "Executive",
		Description:        "Company leadership with reporting and staffing authority",
		Department:         DepartmentExecutive,
		DefaultAccessLevel: permissions.AccessAdmin,
		preset: []permissions.Flag{
			permissions.ManageFinancials,
			permissions.ViewReports,
			permissions.ManageBudgets,
			permissions.ManageUsers,
			permissions.ViewAuditLogs,
			permissions.ManageRoles,
			permissions.ExportData,
		},
		categories: []permissions.Category{
			permissions.CategoryFinancial,
			permissions.CategoryAdministrative,
			permissions.CategoryData,
		},
	},
}

var nameIndex = func() map[string]Key {
	out := make(map[string]Key, keyCount)
	for key := PropertyManager; key < keyCount; key++ {
		definitions[key].Key = key
		out[definitions[key].Name] = key
	}
	return out
}()

// Keys lists every selectable role in declaration order.
func Keys() []Key {
	out := make([]Key, 0, keyCount-1)
	for key := PropertyManager; key < keyCount; key++ {
		out = append(out, key)
	}
	return out
}

// Valid reports whether k names a selectable role.
func (k Key) Valid() bool {
	return k > None && k < keyCount
}

func (k Key) String() string {
	if k == None {
		return ""
	}
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return definitions[k].Name
}

// Parse resolves a role key such as "PROPERTY_MANAGER". An empty string
// parses to None.
func Parse(raw string) (Key, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return None, nil
	}
	if key, ok := nameIndex[trimmed]; ok {
		return key, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// Lookup returns the definition for k.
func Lookup(k Key) (Definition, bool) {
	if !k.Valid() {
		return Definition{}, false
	}
	return definitions[k], true
}

// Preset returns a full flag set with the role's preset applied over an
// all-false baseline.
func (d Definition) Preset() permissions.Set {
	return permissions.Of(d.preset...)
}

// Relevant lists the flags shown for this role: every flag in its relevant
// categories plus any preset flag outside them, in catalog order.
func (d Definition) Relevant() []permissions.Flag {
	include := make(map[permissions.Flag]struct{})
	for _, category := range d.categories {
		for _, flag := range permissions.InCategory(category) {
			include[flag] = struct{}{}
		}
	}
	for _, flag := range d.preset {
		include[flag] = struct{}{}
	}
	var out []permissions.Flag
	for _, flag := range permissions.All() {
		if _, ok := include[flag]; ok {
			out = append(out, flag)
		}
	}
	return out
}

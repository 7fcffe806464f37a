package permissions

import "strings"

// Flag identifies a single boolean permission. The string value doubles as
// the form field name carrying the flag inside the wizard state.
type Flag string

const (
	ManageProperties  Flag = "canManageProperties"
	ManageTenants     Flag = "canManageTenants"
	ManageLeases      Flag = "canManageLeases"
	ManageMaintenance Flag = "canManageMaintenance"

	ManageFinancials Flag = "canManageFinancials"
	ViewReports      Flag = "canViewReports"
	ProcessPayments  Flag = "canProcessPayments"
	ManageBudgets    Flag = "canManageBudgets"

	ManageUsers    Flag = "canManageUsers"
	ManageSettings Flag = "canManageSettings"
	ViewAuditLogs  Flag = "canViewAuditLogs"
	ManageRoles    Flag = "canManageRoles"

	ManageVendors     Flag = "canManageVendors"
	ManageInspections Flag = "canManageInspections"
	ManageMarketing   Flag = "canManageMarketing"

	ExportData      Flag = "canExportData"
	ImportData      Flag = "canImportData"
	ManageDocuments Flag = "canManageDocuments"
)

// Category groups related flags for presentation.
type Category string

const (
	CategoryCore           Category = "Core Management"
	CategoryFinancial      Category = "Financial & Reporting"
	CategoryAdministrative Category = "Administrative"
	CategorySpecialized    Category = "Specialized Operations"
	CategoryData           Category = "Data Management"
)

// Definition describes a flag in the catalog.
type Definition struct {
	Flag        Flag
	Label       string
	Description string
	Category    Category
}

var catalog = []Definition{
	{ManageProperties, "Manage Properties", "Create, edit and archive properties and units", CategoryCore},
	{ManageTenants, "Manage Tenants", "Onboard tenants and edit tenant records", CategoryCore},
	{ManageLeases, "Manage Leases", "Draft, renew and terminate leases", CategoryCore},
	{ManageMaintenance, "Manage Maintenance", "Triage and assign maintenance requests", CategoryCore},

	{ManageFinancials, "Manage Financials", "Edit ledgers, charges and invoices", CategoryFinancial},
	{ViewReports, "View Reports", "Access occupancy and financial reports", CategoryFinancial},
	{ProcessPayments, "Process Payments", "Record and refund tenant payments", CategoryFinancial},
	{ManageBudgets, "Manage Budgets", "Set property and department budgets", CategoryFinancial},

	{ManageUsers, "Manage Users", "Invite and deactivate team members", CategoryAdministrative},
	{ManageSettings, "Manage Settings", "Change organisation settings", CategoryAdministrative},
	{ViewAuditLogs, "View Audit Logs", "Read the activity and audit trail", CategoryAdministrative},
	{ManageRoles, "Manage Roles", "Edit role presets and assignments", CategoryAdministrative},

	{ManageVendors, "Manage Vendors", "Maintain vendor contracts and contacts", CategorySpecialized},
	{ManageInspections, "Manage Inspections", "Schedule and record unit inspections", CategorySpecialized},
	{ManageMarketing, "Manage Marketing", "Publish listings and campaigns", CategorySpecialized},

	{ExportData, "Export Data", "Export records to CSV or spreadsheets", CategoryData},
	{ImportData, "Import Data", "Bulk import records", CategoryData},
	{ManageDocuments, "Manage Documents", "Upload and share documents", CategoryData},
}

var (
	flagIndex     = buildIndex()
	categoryOrder = []Category{
		CategoryCore,
		CategoryFinancial,
		CategoryAdministrative,
		CategorySpecialized,
		CategoryData,
	}
)

func buildIndex() map[Flag]int {
	index := make(map[Flag]int, len(catalog))
	for i, def := range catalog {
		index[def.Flag] = i
	}
	return index
}

// All returns every known flag in catalog order.
func All() []Flag {
	out := make([]Flag, len(catalog))
	for i, def := range catalog {
		out[i] = def.Flag
	}
	return out
}

// Definitions returns a copy of the catalog.
func Definitions() []Definition {
	return append([]Definition(nil), catalog...)
}

// Lookup returns the definition for a flag.
func Lookup(flag Flag) (Definition, bool) {
	idx, ok := flagIndex[flag]
	if !ok {
		return Definition{}, false
	}
	return catalog[idx], true
}

// IsFlag reports whether name is a catalog flag.
func IsFlag(name string) bool {
	_, ok := flagIndex[Flag(strings.TrimSpace(name))]
	return ok
}

// Categories returns the categories in display order.
func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// InCategory returns the flags belonging to category, in catalog order.
func InCategory(category Category) []Flag {
	var out []Flag
	for _, def := range catalog {
		if def.Category == category {
			out = append(out, def.Flag)
		}
	}
	return out
}

// Group partitions flags by category, dropping unknown flags. Categories
// without members are omitted.
func Group(flags []Flag) map[Category][]Flag {
	if len(flags) == 0 {
		return nil
	}
	out := make(map[Category][]Flag)
	for _, flag := range flags {
		def, ok := Lookup(flag)
		if !ok {
			continue
		}
		out[def.Category] = append(out[def.Category], flag)
	}
	return out
}

// Package wizards holds the static step schemas of the onboarding flows.
package wizards

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/permissions"
	"github.com/goliatone/go-formwizard/pkg/roles"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

// ErrUnknownWizard is returned by Lookup for unregistered names.
var ErrUnknownWizard = errors.New("wizards: unknown wizard")

// Names of the built-in wizards.
const (
	TeamMemberName = "team-member"
	TenantName     = "tenant"
)

// Form state keys shared with the derivation engine.
const (
	FieldRole        = "role"
	FieldDepartment  = "department"
	FieldAccessLevel = "accessLevel"
	FieldAvatar      = "avatar"
)

// Option sources referenced by lease details.
const (
	SourceProperties = "properties"
	SourceUnits      = "units"
)

var registry = map[string]func() schema.Schema{
	TeamMemberName: TeamMember,
	TenantName:     TenantOnboarding,
}

// Lookup returns the schema registered under name.
func Lookup(name string) (schema.Schema, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return schema.Schema{}, fmt.Errorf("%w: %q", ErrUnknownWizard, name)
	}
	return build(), nil
}

// Names lists the registered wizards.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func personalInformation() schema.Step {
	return schema.Step{
		ID:          1,
		Title:       "Personal Information",
		Description: "Basic contact details",
		Fields: []schema.Field{
			{Name: "firstName", Label: "First name", Type: schema.TypeString, Required: true, Rules: "min=2,max=50"},
			{Name: "lastName", Label: "Last name", Type: schema.TypeString, Required: true, Rules: "min=2,max=50"},
			{Name: "email", Label: "Email", Type: schema.TypeString, Required: true, Rules: "email,max=254"},
			{Name: "phone", Label: "Phone", Type: schema.TypeString, Required: true, Rules: "phone"},
			{Name: FieldAvatar, Label: "Avatar", Type: schema.TypeString},
		},
	}
}

func review(id int, description string) schema.Step {
	return schema.Step{
		ID:          id,
		Title:       "Review",
		Description: description,
		Fields: []schema.Field{
			{Name: "notes", Label: "Notes", Type: schema.TypeString, Rules: "max=1000", Sanitize: true},
		},
	}
}

// TeamMember is the "Add Team Member" flow.
func TeamMember() schema.Schema {
	return schema.Schema{
		Name:  TeamMemberName,
		Title: "Add Team Member",
		Steps: []schema.Step{
			personalInformation(),
			{
				ID:          2,
				Title:       "Professional Background",
				Description: "Experience and qualifications",
				Fields: []schema.Field{
					{Name: "jobTitle", Label: "Job title", Type: schema.TypeString, Required: true, Rules: "min=2,max=100"},
					{Name: "yearsExperience", Label: "Years of experience", Type: schema.TypeInteger, Required: true, Rules: "gte=0,lte=60"},
					{Name: "certifications", Label: "Certifications", Type: schema.TypeString, Rules: "max=500", Sanitize: true},
					{Name: "bio", Label: "Bio", Type: schema.TypeString, Rules: "max=1000", Sanitize: true},
					{Name: "linkedinUrl", Label: "LinkedIn URL", Type: schema.TypeString, Rules: "url"},
				},
			},
			rolesAndPermissions(),
			{
				ID:          4,
				Title:       "Employment Details",
				Description: "Contract and start date",
				Fields: []schema.Field{
					{Name: "employeeId", Label: "Employee ID", Type: schema.TypeString, Rules: "alphanum,max=20"},
					{Name: "startDate", Label: "Start date", Type: schema.TypeDate, Required: true},
					{Name: "employmentType", Label: "Employment type", Type: schema.TypeString, Required: true, Rules: "oneof=full_time part_time contract", Default: "full_time"},
					{Name: "salary", Label: "Annual salary", Type: schema.TypeNumber, Rules: "gte=0"},
					{Name: "workLocation", Label: "Work location", Type: schema.TypeString, Rules: "max=100"},
				},
			},
			review(5, "Confirm the team member details"),
		},
	}
}

func rolesAndPermissions() schema.Step {
	fields := []schema.Field{
		{Name: FieldDepartment, Label: "Department", Type: schema.TypeString, Required: true, Rules: "oneof=" + quoted(roles.DepartmentNames())},
		{Name: FieldRole, Label: "Role", Type: schema.TypeString, Required: true, Rules: "oneof=" + quoted(roleNames())},
		{Name: FieldAccessLevel, Label: "Access level", Type: schema.TypeString, Required: true, Rules: "oneof=" + quoted(permissions.AccessLevelNames()), Default: permissions.AccessBasic.String()},
	}
	for _, def := range permissions.Definitions() {
		fields = append(fields, schema.Field{
			Name:  string(def.Flag),
			Label: def.Label,
			Type:  schema.TypeBoolean,
		})
	}
	return schema.Step{
		ID:          3,
		Title:       "Role & Permissions",
		Description: "Department, role and granted permissions",
		Fields:      fields,
	}
}

// TenantOnboarding is the "Add Tenant" flow.
func TenantOnboarding() schema.Schema {
	return schema.Schema{
		Name:  TenantName,
		Title: "Add Tenant",
		Steps: []schema.Step{
			personalInformation(),
			{
				ID:          2,
				Title:       "Rental Background",
				Description: "Current address and rental history",
				Fields: []schema.Field{
					{Name: "currentAddress", Label: "Current address", Type: schema.TypeString, Required: true, Rules: "min=5,max=200", Sanitize: true},
					{Name: "yearsAtAddress", Label: "Years at address", Type: schema.TypeInteger, Rules: "gte=0,lte=100"},
					{Name: "previousLandlord", Label: "Previous landlord", Type: schema.TypeString, Rules: "max=100"},
					{Name: "landlordPhone", Label: "Landlord phone", Type: schema.TypeString, Rules: "phone"},
					{Name: "evictionHistory", Label: "Previously evicted", Type: schema.TypeBoolean},
				},
			},
			{
				ID:          3,
				Title:       "Lease Details",
				Description: "Unit, term and rent",
				Fields: []schema.Field{
					{Name: "propertyId", Label: "Property", Type: schema.TypeString, Required: true, OptionsSource: SourceProperties},
					{Name: "unitId", Label: "Unit", Type: schema.TypeString, Required: true, OptionsSource: SourceUnits},
					{Name: "leaseStart", Label: "Lease start", Type: schema.TypeDate, Required: true},
					{Name: "leaseEnd", Label: "Lease end", Type: schema.TypeDate, Required: true},
					{Name: "monthlyRent", Label: "Monthly rent", Type: schema.TypeNumber, Required: true, Rules: "gt=0"},
					{Name: "securityDeposit", Label: "Security deposit", Type: schema.TypeNumber, Rules: "gte=0"},
				},
				Assertions: []schema.Assertion{{
					Field:   "leaseEnd",
					Rule:    `values.leaseStart == "" || values.leaseEnd == "" || values.leaseEnd > values.leaseStart`,
					Message: "must be after the lease start",
				}},
			},
			{
				ID:          4,
				Title:       "Screening",
				Description: "Employment, income and consent",
				Fields: []schema.Field{
					{Name: "employmentStatus", Label: "Employment status", Type: schema.TypeString, Required: true, Rules: "oneof=employed self_employed unemployed retired student"},
					{Name: "employerName", Label: "Employer", Type: schema.TypeString, Required: true, Rules: "min=2,max=100", When: `values.employmentStatus == "employed"`},
					{Name: "annualIncome", Label: "Annual income", Type: schema.TypeNumber, Rules: "gte=0"},
					{Name: "hasPets", Label: "Has pets", Type: schema.TypeBoolean},
					{Name: "petDetails", Label: "Pet details", Type: schema.TypeString, Required: true, Rules: "max=500", Sanitize: true, When: "values.hasPets"},
					{Name: "creditCheckConsent", Label: "Consent to credit check", Type: schema.TypeBoolean, Required: true},
				},
			},
			review(5, "Confirm the tenant details"),
		},
	}
}

func roleNames() []string {
	keys := roles.Keys()
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.String())
	}
	return out
}

// quoted renders oneof parameters; values containing spaces need quotes.
func quoted(values []string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if strings.ContainsRune(value, ' ') {
			parts = append(parts, "'"+value+"'")
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, " ")
}

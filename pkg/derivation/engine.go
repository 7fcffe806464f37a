// Package derivation keeps role, department, access level and permission
// flags mutually consistent when the role or department selection changes.
package derivation

import (
	"github.com/goliatone/go-formwizard/pkg/permissions"
	"github.com/goliatone/go-formwizard/pkg/roles"
)

// Selection is the slice of form state the engine owns.
type Selection struct {
	Role        roles.Key
	Department  roles.Department
	AccessLevel permissions.AccessLevel
	Flags       permissions.Set
}

// Clone copies the selection, including the flag set.
func (s Selection) Clone() Selection {
	out := s
	if s.Flags != nil {
		out.Flags = s.Flags.Clone()
	}
	return out
}

// Outcome labels what a derivation did, for logging and observers.
type Outcome string

const (
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeRoleApplied   Outcome = "role_applied"
	OutcomeRoleCleared   Outcome = "role_cleared"
	OutcomeAutoSelected  Outcome = "auto_selected"
	OutcomeDepartmentSet Outcome = "department_realigned"
)

// Result is the next selection plus what produced it.
type Result struct {
	Selection Selection
	Outcome   Outcome
}

// Lookup resolves role definitions. It exists so tests and alternative
// registries can stand in for the static roles table.
type Lookup interface {
	Role(roles.Key) (roles.Definition, bool)
	AllowedRoles(roles.Department) []roles.Key
}

type staticLookup struct{}

func (staticLookup) Role(k roles.Key) (roles.Definition, bool) { return roles.Lookup(k) }
func (staticLookup) AllowedRoles(d roles.Department) []roles.Key {
	return roles.AllowedRoles(d)
}

// Engine applies the role and department derivation rules. It is stateless
// and safe for concurrent use.
type Engine struct {
	lookup Lookup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLookup swaps the role registry used by the engine.
func WithLookup(lookup Lookup) Option {
	return func(e *Engine) {
		if lookup != nil {
			e.lookup = lookup
		}
	}
}

// New builds an Engine backed by the static role registry.
func New(options ...Option) *Engine {
	e := &Engine{lookup: staticLookup{}}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// SelectRole resets every flag, applies the preset of role and adopts its
// default access level. Selecting roles.None leaves all flags false at Basic.
// When a department is set that does not allow role, the department moves
// to the role's owning department.
func (e *Engine) SelectRole(sel Selection, role roles.Key) (Result, error) {
	next := sel.Clone()
	next.Flags = permissions.Empty()

	if role == roles.None {
		next.Role = roles.None
		next.AccessLevel = permissions.AccessBasic
		return Result{Selection: next, Outcome: OutcomeRoleCleared}, nil
	}

	def, ok := e.lookup.Role(role)
	if !ok {
		return Result{Selection: sel}, roles.ErrUnknownRole
	}

	next.Role = role
	for flag, value := range def.Preset() {
		next.Flags[flag] = value
	}
	next.AccessLevel = def.DefaultAccessLevel

	outcome := OutcomeRoleApplied
	if next.Department != "" && !contains(e.lookup.AllowedRoles(next.Department), role) {
		next.Department = def.Department
		outcome = OutcomeDepartmentSet
	}
	return Result{Selection: next, Outcome: outcome}, nil
}

// SelectDepartment applies the department constraint. A role outside the
// allowed set is cleared along with every flag; a department with a single
// allowed role auto-selects it when no role is chosen yet.
func (e *Engine) SelectDepartment(sel Selection, dept roles.Department) Result {
	next := sel.Clone()
	next.Department = dept
	if next.Flags == nil {
		next.Flags = permissions.Empty()
	}
	if dept == "" {
		return Result{Selection: next, Outcome: OutcomeUnchanged}
	}

	allowed := e.lookup.AllowedRoles(dept)
	if next.Role != roles.None && !contains(allowed, next.Role) {
		next.Role = roles.None
		next.Flags = permissions.Empty()
		next.AccessLevel = permissions.AccessBasic
		return Result{Selection: next, Outcome: OutcomeRoleCleared}
	}

	if next.Role == roles.None && len(allowed) == 1 {
		res, err := e.SelectRole(next, allowed[0])
		if err != nil {
			return Result{Selection: next, Outcome: OutcomeUnchanged}
		}
		res.Outcome = OutcomeAutoSelected
		return res
	}

	if next.Role == roles.None {
		// No role in a multi-role department: flags reset too.
		next.Flags = permissions.Empty()
		next.AccessLevel = permissions.AccessBasic
		return Result{Selection: next, Outcome: OutcomeRoleCleared}
	}

	return Result{Selection: next, Outcome: OutcomeUnchanged}
}

// ClearAll sets every flag false and leaves everything else alone.
func (e *Engine) ClearAll(sel Selection) Selection {
	next := sel.Clone()
	next.Flags = permissions.Empty()
	return next
}

// VisibleFlags lists the flags relevant to the selected role, or every flag
// when no role is selected.
func (e *Engine) VisibleFlags(sel Selection) []permissions.Flag {
	if sel.Role == roles.None {
		return permissions.All()
	}
	def, ok := e.lookup.Role(sel.Role)
	if !ok {
		return permissions.All()
	}
	return def.Relevant()
}

func contains(keys []roles.Key, key roles.Key) bool {
	for _, candidate := range keys {
		if candidate == key {
			return true
		}
	}
	return false
}

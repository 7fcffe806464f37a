// Package roles holds the static role registry and the department to role
// index. Roles are a closed enumeration; every key maps to a Definition with
// its owning department, permission preset and default access level.
package roles

package permissions

import "sort"

// Set holds a value for every catalog flag. The zero value reads as all
// flags false.
type Set map[Flag]bool

// Empty returns a set with every catalog flag explicitly false.
func Empty() Set {
	out := make(Set, len(catalog))
	for _, def := range catalog {
		out[def.Flag] = false
	}
	return out
}

// Of returns a full set where only the supplied flags are true.
func Of(flags ...Flag) Set {
	out := Empty()
	for _, flag := range flags {
		if _, ok := flagIndex[flag]; ok {
			out[flag] = true
		}
	}
	return out
}

// Clone copies the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for flag, value := range s {
		out[flag] = value
	}
	return out
}

// Has reports whether flag is granted.
func (s Set) Has(flag Flag) bool {
	return s[flag]
}

// Granted lists the true flags in catalog order.
func (s Set) Granted() []Flag {
	var out []Flag
	for _, def := range catalog {
		if s[def.Flag] {
			out = append(out, def.Flag)
		}
	}
	return out
}

// Equal reports whether both sets grant the same flags.
func (s Set) Equal(other Set) bool {
	for _, def := range catalog {
		if s[def.Flag] != other[def.Flag] {
			return false
		}
	}
	return true
}

// Strings returns the granted flags as sorted strings.
func (s Set) Strings() []string {
	granted := s.Granted()
	out := make([]string, len(granted))
	for i, flag := range granted {
		out[i] = string(flag)
	}
	sort.Strings(out)
	return out
}

package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAccessLevel is returned when parsing an unrecognised level.
var ErrUnknownAccessLevel = errors.New("permissions: unknown access level")

// AccessLevel is the coarse tier set alongside the fine-grained flags. Levels
// are ordered; the zero value is Basic.
type AccessLevel int

const (
	AccessBasic AccessLevel = iota
	AccessStandard
	AccessAdvanced
	AccessAdmin
)

var accessLevelNames = [...]string{
	AccessBasic:    "Basic",
	AccessStandard: "Standard",
	AccessAdvanced: "Advanced",
	AccessAdmin:    "Admin",
}

// AccessLevels lists every level in ascending order.
func AccessLevels() []AccessLevel {
	return []AccessLevel{AccessBasic, AccessStandard, AccessAdvanced, AccessAdmin}
}

func (l AccessLevel) String() string {
	if l < 0 || int(l) >= len(accessLevelNames) {
		return fmt.Sprintf("AccessLevel(%d)", int(l))
	}
	return accessLevelNames[l]
}

// ParseAccessLevel accepts the display name in any case.
func ParseAccessLevel(raw string) (AccessLevel, error) {
	trimmed := strings.TrimSpace(raw)
	for idx, name := range accessLevelNames {
		if strings.EqualFold(name, trimmed) {
			return AccessLevel(idx), nil
		}
	}
	return AccessBasic, fmt.Errorf("%w: %q", ErrUnknownAccessLevel, raw)
}

// AtLeast reports whether l is the same as or above other.
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return l >= other
}

// AccessLevelNames lists the level names in ascending order.
func AccessLevelNames() []string {
	return append([]string(nil), accessLevelNames[:]...)
}

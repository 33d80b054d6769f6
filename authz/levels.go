package authz

import (
	"fmt"
	"strings"
)

// Level is an ordered permission tier. L1 needs no authentication, L2
// needs a verified PIN, L3 adds explicit confirmation, L4 adds a delay
// between confirmation and execution, and L5 is never executable.
type Level int

const (
	LevelAuto         Level = 1 // L1: status/help class actions
	LevelPIN          Level = 2 // L2: read sensitive data
	LevelConfirm      Level = 3 // L3: write/modify data
	LevelConfirmDelay Level = 4 // L4: high-risk actions
	LevelBlocked      Level = 5 // L5: banking/payments, permanently denied
)

func (l Level) String() string {
	if l < LevelAuto || l > LevelBlocked {
		return fmt.Sprintf("L?(%d)", int(l))
	}
	return fmt.Sprintf("L%d", int(l))
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L1", "AUTO":
		return LevelAuto, nil
	case "L2", "PIN":
		return LevelPIN, nil
	case "L3", "CONFIRM":
		return LevelConfirm, nil
	case "L4", "CONFIRM_DELAY":
		return LevelConfirmDelay, nil
	case "L5", "BLOCKED":
		return LevelBlocked, nil
	default:
		return 0, fmt.Errorf("unknown permission level: %q", s)
	}
}

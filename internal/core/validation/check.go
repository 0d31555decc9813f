package validation

import (
	"fmt"

	"github.com/zeusync/gamestate/internal/core/models"
)

// CheckKind tags which rule produced a ValidationErrorEvent.
type CheckKind uint8

const (
	KindExactlyN CheckKind = iota
	KindAtLeastN
	KindAtMostN
	KindComponentValidationError
)

func (k CheckKind) String() string {
	switch k {
	case KindExactlyN:
		return "ExactlyN"
	case KindAtLeastN:
		return "AtLeastN"
	case KindAtMostN:
		return "AtMostN"
	case KindComponentValidationError:
		return "ComponentValidationError"
	default:
		return fmt.Sprintf("CheckKind(%d)", uint8(k))
	}
}

// Check describes a failed rule. Cardinality checks carry the number of
// entities actually found so subscribers never have to parse messages.
type Check struct {
	kind  CheckKind
	found int
}

func CheckExactlyN(found int) Check { return Check{kind: KindExactlyN, found: found} }
func CheckAtLeastN(found int) Check { return Check{kind: KindAtLeastN, found: found} }
func CheckAtMostN(found int) Check  { return Check{kind: KindAtMostN, found: found} }

// ComponentValidationError is the check of every per-component failure.
var ComponentValidationError = Check{kind: KindComponentValidationError}

func (c Check) Kind() CheckKind { return c.kind }

// Found returns the observed count of a cardinality check and false for
// per-component checks.
func (c Check) Found() (int, bool) {
	if c.kind == KindComponentValidationError {
		return 0, false
	}
	return c.found, true
}

// IsCardinality reports whether c came from ExactlyN, AtLeastN or AtMostN.
func (c Check) IsCardinality() bool {
	_, ok := c.Found()
	return ok
}

func (c Check) String() string {
	if n, ok := c.Found(); ok {
		return fmt.Sprintf("%s(%d)", c.kind, n)
	}
	return c.kind.String()
}

// MakeMessage prefixes message with the check, e.g. "ExactlyN(3): message".
func (c Check) MakeMessage(message string) string {
	return fmt.Sprintf("%s: %s", c, message)
}

// ValidationErrorEvent reports one rule failure. Entity is models.NoEntity
// for cardinality failures.
type ValidationErrorEvent struct {
	Message     string
	Check       Check
	Entity      models.EntityID
	Component   string
	ComponentID models.ComponentID
}

func (e ValidationErrorEvent) String() string {
	return e.Check.MakeMessage(e.Message)
}

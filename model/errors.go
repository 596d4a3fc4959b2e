package model

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation is matched by every *SchemaViolation via errors.Is.
var ErrSchemaViolation = errors.New("schema violation")

// ErrPosition reports a position outside of a node's content.
var ErrPosition = errors.New("position out of range")

// ErrReplace reports a structurally impossible replace (open depths that do
// not line up with the target positions).
var ErrReplace = errors.New("invalid replace")

// SchemaViolation describes why a node, attribute or mark was rejected.
type SchemaViolation struct {
	Type   string
	Reason string
}

func (e *SchemaViolation) Error() string {
	if e.Type == "" {
		return "schema violation: " + e.Reason
	}
	return fmt.Sprintf("schema violation (%s): %s", e.Type, e.Reason)
}

func (e *SchemaViolation) Is(target error) bool { return target == ErrSchemaViolation }

func violation(typ, format string, args ...any) error {
	return &SchemaViolation{Type: typ, Reason: fmt.Sprintf(format, args...)}
}

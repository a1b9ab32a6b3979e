package validation

import (
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
)

// fail records a rejected body. Only the check name and the schema errors
// are kept; field values never reach the audit trail.
func (v *Validator) fail(name Schema, check, msg string) {
	audit.Record(v.audit, audit.EventValidationFailed, string(name), "failure", msg,
		map[string]string{"check": check})
}

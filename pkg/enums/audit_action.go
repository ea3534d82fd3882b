package enums

import "fmt"

// AuditAction is the canonical `action` value recorded in order audit rows.
type AuditAction string

const (
	AuditActionCreated   AuditAction = "created"
	AuditActionStarted   AuditAction = "started"
	AuditActionFinished  AuditAction = "finished"
	AuditActionCancelled AuditAction = "cancelled"
)

var validAuditActions = []AuditAction{
	AuditActionCreated,
	AuditActionStarted,
	AuditActionFinished,
	AuditActionCancelled,
}

// IsValid reports whether the value matches the canonical audit action enum.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts the raw string to AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}

// Package domain contains the audit log entities.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradeware/securecore/internal/errors"
)

// Operation identifies the kind of key lifecycle event an audit entry records.
type Operation string

// Audit operations.
const (
	OperationKeyGenerated    Operation = "key_generated"
	OperationKeyAccessed     Operation = "key_accessed"
	OperationKeyRotated      Operation = "key_rotated"
	OperationKeyRevoked      Operation = "key_revoked"
	OperationRotationFailed  Operation = "rotation_failed"
	OperationMultiSigCreated Operation = "multisig_created"
	OperationMessageSigned   Operation = "message_signed"
	OperationAddressDerived  Operation = "address_derived"
)

// SystemActor is the actor recorded for entries produced by the rotation
// scheduler rather than a key owner.
const SystemActor = "system"

// ErrSignatureInvalid is returned when an audit entry signature fails verification.
var ErrSignatureInvalid = errors.Wrap(errors.ErrUnauthorized, "audit entry signature is invalid")

// Entry is a single audit log record. Entries are signed at append time;
// Signature covers every other field, so any later mutation is detectable.
type Entry struct {
	ID          uuid.UUID
	Operation   Operation
	ActorID     string
	Description string
	Metadata    map[string]string
	CreatedAt   time.Time
	Signature   []byte
}

// VisibleTo reports whether the entry should appear in ownerID's audit view.
// Scheduler-generated entries are visible to everyone.
func (e *Entry) VisibleTo(ownerID string) bool {
	return e.ActorID == ownerID || e.ActorID == SystemActor
}

package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appvalidation "github.com/tradeware/securecore/internal/validation"
)

// SchemeStatus represents the lifecycle status of a multi-sig scheme.
type SchemeStatus string

const (
	// SchemeActive is the servable state of a scheme.
	SchemeActive SchemeStatus = "active"

	// SchemeRevoked is terminal; the scheme can no longer authorize actions.
	SchemeRevoked SchemeStatus = "revoked"
)

// MultiSigScheme is a policy requiring a threshold number of distinct
// wallet-signing keys to authorize an action. Schemes are immutable after
// creation except for the status transition to revoked.
type MultiSigScheme struct {
	ID        uuid.UUID
	OwnerID   string
	KeyIDs    []uuid.UUID // ordered; each must reference an active wallet-signing record
	Threshold int         // 1..len(KeyIDs)
	Status    SchemeStatus
	CreatedAt time.Time
	Metadata  map[string]string
}

// Validate checks the structural invariants of a scheme: a non-blank owner,
// at least one key, and a threshold within [1, len(KeyIDs)]. Key type and
// status checks require the repository and live in the use case.
func (m *MultiSigScheme) Validate() error {
	err := validation.ValidateStruct(m,
		validation.Field(&m.OwnerID, validation.Required, appvalidation.NotBlank),
		validation.Field(&m.KeyIDs, validation.Required, validation.Length(1, 0)),
		validation.Field(&m.Threshold, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return appvalidation.WrapValidationError(err)
	}

	if m.Threshold > len(m.KeyIDs) {
		return ErrThresholdExceedsKeys
	}

	return nil
}

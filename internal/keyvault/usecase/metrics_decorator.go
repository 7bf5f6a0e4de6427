package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
	"github.com/tradeware/securecore/internal/metrics"
)

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUseCaseWithMetrics(next UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    next,
		metrics: m,
	}
}

func (u *useCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordOperation(ctx, "keyvault", operation, status)
	u.metrics.RecordDuration(ctx, "keyvault", operation, time.Since(start), status)
}

func (u *useCaseWithMetrics) GenerateKey(
	ctx context.Context,
	keyType keyvaultDomain.KeyType,
	ownerID string,
) (*keyvaultDomain.KeyRecord, error) {
	start := time.Now()
	record, err := u.next.GenerateKey(ctx, keyType, ownerID)
	u.record(ctx, "generate_key", start, err)
	return record, err
}

func (u *useCaseWithMetrics) GetKey(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (*keyvaultDomain.KeyRecord, []byte, error) {
	start := time.Now()
	record, material, err := u.next.GetKey(ctx, keyID, actorID)
	u.record(ctx, "get_key", start, err)
	return record, material, err
}

func (u *useCaseWithMetrics) GetArchivedKey(
	ctx context.Context,
	keyID uuid.UUID,
	version uint,
	actorID string,
) (*keyvaultDomain.KeyRecord, []byte, error) {
	start := time.Now()
	record, material, err := u.next.GetArchivedKey(ctx, keyID, version, actorID)
	u.record(ctx, "get_archived_key", start, err)
	return record, material, err
}

func (u *useCaseWithMetrics) RotateKey(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (*keyvaultDomain.KeyRecord, error) {
	start := time.Now()
	record, err := u.next.RotateKey(ctx, keyID, actorID)
	u.record(ctx, "rotate_key", start, err)
	return record, err
}

func (u *useCaseWithMetrics) RevokeKey(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
	reason string,
) error {
	start := time.Now()
	err := u.next.RevokeKey(ctx, keyID, actorID, reason)
	u.record(ctx, "revoke_key", start, err)
	return err
}

func (u *useCaseWithMetrics) DeriveWalletAddress(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (string, error) {
	start := time.Now()
	address, err := u.next.DeriveWalletAddress(ctx, keyID, actorID)
	u.record(ctx, "derive_wallet_address", start, err)
	return address, err
}

func (u *useCaseWithMetrics) SignMessage(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
	message []byte,
) ([]byte, error) {
	start := time.Now()
	signature, err := u.next.SignMessage(ctx, keyID, actorID, message)
	u.record(ctx, "sign_message", start, err)
	return signature, err
}

func (u *useCaseWithMetrics) CreateMultiSigScheme(
	ctx context.Context,
	ownerID string,
	keyIDs []uuid.UUID,
	threshold int,
	metadata map[string]string,
) (*keyvaultDomain.MultiSigScheme, error) {
	start := time.Now()
	scheme, err := u.next.CreateMultiSigScheme(ctx, ownerID, keyIDs, threshold, metadata)
	u.record(ctx, "create_multisig_scheme", start, err)
	return scheme, err
}

package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/tradeware/securecore/internal/audit/domain"
	auditService "github.com/tradeware/securecore/internal/audit/service"
	"github.com/tradeware/securecore/internal/errors"
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
	keyvaultService "github.com/tradeware/securecore/internal/keyvault/service"
)

// keyUseCase implements the UseCase interface for key lifecycle management.
//
// It coordinates the material service for cryptographic operations, the
// repositories for persistence, the master key chain for envelope encryption,
// the rotation planner for timer bookkeeping, and the audit log. A per-key
// mutex serializes lifecycle operations so exactly one active version exists
// per key at all times.
type keyUseCase struct {
	keyRepo         KeyRepository
	schemeRepo      SchemeRepository
	materialService keyvaultService.MaterialService
	signer          keyvaultService.Signer
	masterKeyChain  *keyvaultDomain.MasterKeyChain
	auditLog        auditService.Log
	planner         RotationPlanner
	locks           keyedMutex
	logger          *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewKeyUseCase creates a new key lifecycle use case.
func NewKeyUseCase(
	keyRepo KeyRepository,
	schemeRepo SchemeRepository,
	materialService keyvaultService.MaterialService,
	signer keyvaultService.Signer,
	masterKeyChain *keyvaultDomain.MasterKeyChain,
	auditLog auditService.Log,
	planner RotationPlanner,
	logger *slog.Logger,
) UseCase {
	return &keyUseCase{
		keyRepo:         keyRepo,
		schemeRepo:      schemeRepo,
		materialService: materialService,
		signer:          signer,
		masterKeyChain:  masterKeyChain,
		auditLog:        auditLog,
		planner:         planner,
		logger:          logger,
		now:             time.Now,
	}
}

// materialAAD returns the additional authenticated data binding encrypted
// material to its key record. Archived versions share the record's ID, so the
// same AAD decrypts every version of a key.
func materialAAD(keyID uuid.UUID) []byte {
	return keyID[:]
}

// GenerateKey creates a new key of the given registry type.
func (u *keyUseCase) GenerateKey(
	ctx context.Context,
	keyType keyvaultDomain.KeyType,
	ownerID string,
) (*keyvaultDomain.KeyRecord, error) {
	spec, ok := keyType.Spec()
	if !ok {
		return nil, keyvaultDomain.ErrUnknownKeyType
	}
	if ownerID == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "owner id is required")
	}

	keyID := uuid.Must(uuid.NewV7())
	unlock := u.locks.lock(keyID)
	defer unlock()

	material, publicKey, err := u.materialService.Generate(keyType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key material")
	}
	defer keyvaultDomain.Zero(material)

	masterKey, err := u.masterKeyChain.Active()
	if err != nil {
		return nil, err
	}

	encrypted, err := u.materialService.Encrypt(masterKey, spec.Algorithm, material, materialAAD(keyID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt key material")
	}

	now := u.now().UTC()
	record := &keyvaultDomain.KeyRecord{
		ID:                  keyID,
		Type:                keyType,
		OwnerID:             ownerID,
		Algorithm:           spec.Algorithm,
		MasterKeyID:         masterKey.ID,
		Material:            encrypted,
		Version:             1,
		Status:              keyvaultDomain.StatusActive,
		CreatedAt:           now,
		RotationScheduledAt: now.Add(spec.RotationInterval),
	}
	if keyType == keyvaultDomain.KeyTypeWalletSigning {
		record.PublicKey = publicKey
		record.DerivationPath = keyvaultDomain.DefaultDerivationPath
	}

	if err := u.keyRepo.Create(ctx, record); err != nil {
		return nil, errors.Wrap(err, "failed to persist key record")
	}

	u.planner.Schedule(keyID, record.RotationScheduledAt)
	u.auditLog.Append(ctx, auditDomain.OperationKeyGenerated, ownerID,
		"generated new key",
		map[string]string{
			"key_id":   keyID.String(),
			"key_type": string(keyType),
			"version":  "1",
		},
	)

	return record, nil
}

// GetKey returns the active record and its decrypted material.
func (u *keyUseCase) GetKey(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (*keyvaultDomain.KeyRecord, []byte, error) {
	unlock := u.locks.lock(keyID)
	defer unlock()

	record, err := u.authorizedActiveRecord(ctx, keyID, actorID)
	if err != nil {
		return nil, nil, err
	}

	material, err := u.decryptMaterial(record)
	if err != nil {
		return nil, nil, err
	}

	record.LastUsedAt = u.now().UTC()
	if err := u.keyRepo.Update(ctx, record); err != nil {
		keyvaultDomain.Zero(material)
		return nil, nil, errors.Wrap(err, "failed to update key record")
	}

	u.auditLog.Append(ctx, auditDomain.OperationKeyAccessed, actorID,
		"accessed key material",
		map[string]string{"key_id": keyID.String()},
	)

	return record, material, nil
}

// GetArchivedKey returns an archived version and its decrypted material.
func (u *keyUseCase) GetArchivedKey(
	ctx context.Context,
	keyID uuid.UUID,
	version uint,
	actorID string,
) (*keyvaultDomain.KeyRecord, []byte, error) {
	record, err := u.keyRepo.GetArchived(ctx, keyID, version)
	if err != nil {
		return nil, nil, err
	}
	if record.OwnerID != actorID {
		return nil, nil, keyvaultDomain.ErrAccessDenied
	}

	material, err := u.decryptMaterial(record)
	if err != nil {
		return nil, nil, err
	}

	u.auditLog.Append(ctx, auditDomain.OperationKeyAccessed, actorID,
		"accessed archived key material",
		map[string]string{
			"key_id":  keyID.String(),
			"version": keyvaultDomain.ArchiveID(keyID, version),
		},
	)

	return record, material, nil
}

// RotateKey archives the current version and activates fresh material.
//
// Everything that can fail (material generation, master key lookup,
// encryption) happens before any persistence, so a failed rotation leaves
// the previous version active and untouched.
func (u *keyUseCase) RotateKey(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (*keyvaultDomain.KeyRecord, error) {
	unlock := u.locks.lock(keyID)
	defer unlock()

	record, err := u.keyRepo.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != actorID && actorID != keyvaultDomain.SystemActor {
		return nil, keyvaultDomain.ErrAccessDenied
	}
	if !record.IsActive() {
		return nil, keyvaultDomain.ErrInvalidKeyState
	}

	spec, ok := record.Type.Spec()
	if !ok {
		return nil, keyvaultDomain.ErrUnknownKeyType
	}

	material, publicKey, err := u.materialService.Generate(record.Type)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key material")
	}
	defer keyvaultDomain.Zero(material)

	masterKey, err := u.masterKeyChain.Active()
	if err != nil {
		return nil, err
	}

	encrypted, err := u.materialService.Encrypt(masterKey, spec.Algorithm, material, materialAAD(keyID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt key material")
	}

	// Nothing persisted above this line.
	archived := record.Clone()
	archived.Status = keyvaultDomain.StatusArchived
	if err := u.keyRepo.Archive(ctx, archived); err != nil {
		return nil, errors.Wrap(err, "failed to archive key version")
	}

	now := u.now().UTC()
	rotated := record.Clone()
	rotated.Algorithm = spec.Algorithm
	rotated.MasterKeyID = masterKey.ID
	rotated.Material = encrypted
	rotated.Version = record.Version + 1
	rotated.CreatedAt = now
	rotated.LastUsedAt = time.Time{}
	rotated.RotationScheduledAt = now.Add(spec.RotationInterval)
	if record.Type == keyvaultDomain.KeyTypeWalletSigning {
		rotated.PublicKey = publicKey
	}

	if err := u.keyRepo.Update(ctx, rotated); err != nil {
		return nil, errors.Wrap(err, "failed to persist rotated key")
	}

	u.planner.Schedule(keyID, rotated.RotationScheduledAt)
	u.auditLog.Append(ctx, auditDomain.OperationKeyRotated, actorID,
		"rotated key",
		map[string]string{
			"key_id":        keyID.String(),
			"old_version":   keyvaultDomain.ArchiveID(keyID, record.Version),
			"new_version":   keyvaultDomain.ArchiveID(keyID, rotated.Version),
			"key_type":      string(record.Type),
			"master_key_id": masterKey.ID,
		},
	)

	return rotated, nil
}

// RevokeKey marks the key revoked. Terminal.
func (u *keyUseCase) RevokeKey(ctx context.Context, keyID uuid.UUID, actorID string, reason string) error {
	unlock := u.locks.lock(keyID)
	defer unlock()

	record, err := u.keyRepo.Get(ctx, keyID)
	if err != nil {
		return err
	}
	if record.OwnerID != actorID {
		return keyvaultDomain.ErrAccessDenied
	}
	if !record.IsActive() {
		return keyvaultDomain.ErrInvalidKeyState
	}

	record.Status = keyvaultDomain.StatusRevoked
	record.RotationScheduledAt = time.Time{}
	if err := u.keyRepo.Update(ctx, record); err != nil {
		return errors.Wrap(err, "failed to persist revocation")
	}

	u.planner.Cancel(keyID)
	u.auditLog.Append(ctx, auditDomain.OperationKeyRevoked, actorID,
		"revoked key",
		map[string]string{"key_id": keyID.String(), "reason": reason},
	)

	return nil
}

// DeriveWalletAddress returns the EVM-style address for a wallet-signing key.
func (u *keyUseCase) DeriveWalletAddress(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (string, error) {
	unlock := u.locks.lock(keyID)
	defer unlock()

	record, err := u.authorizedActiveRecord(ctx, keyID, actorID)
	if err != nil {
		return "", err
	}
	if record.Type != keyvaultDomain.KeyTypeWalletSigning {
		return "", keyvaultDomain.ErrWrongKeyType
	}

	material, err := u.decryptMaterial(record)
	if err != nil {
		return "", err
	}
	defer keyvaultDomain.Zero(material)

	address, err := u.signer.Address(material)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive address")
	}

	u.auditLog.Append(ctx, auditDomain.OperationAddressDerived, actorID,
		"derived wallet address",
		map[string]string{"key_id": keyID.String(), "address": address},
	)

	return address, nil
}

// SignMessage signs message with a wallet-signing key.
func (u *keyUseCase) SignMessage(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
	message []byte,
) ([]byte, error) {
	unlock := u.locks.lock(keyID)
	defer unlock()

	record, err := u.authorizedActiveRecord(ctx, keyID, actorID)
	if err != nil {
		return nil, err
	}
	if record.Type != keyvaultDomain.KeyTypeWalletSigning {
		return nil, keyvaultDomain.ErrWrongKeyType
	}

	material, err := u.decryptMaterial(record)
	if err != nil {
		return nil, err
	}
	defer keyvaultDomain.Zero(material)

	signature, err := u.signer.Sign(material, message)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}

	record.LastUsedAt = u.now().UTC()
	if err := u.keyRepo.Update(ctx, record); err != nil {
		return nil, errors.Wrap(err, "failed to update key record")
	}

	u.auditLog.Append(ctx, auditDomain.OperationMessageSigned, actorID,
		"signed message",
		map[string]string{"key_id": keyID.String()},
	)

	return signature, nil
}

// CreateMultiSigScheme validates and registers a threshold signing scheme.
func (u *keyUseCase) CreateMultiSigScheme(
	ctx context.Context,
	ownerID string,
	keyIDs []uuid.UUID,
	threshold int,
	metadata map[string]string,
) (*keyvaultDomain.MultiSigScheme, error) {
	scheme := &keyvaultDomain.MultiSigScheme{
		ID:        uuid.Must(uuid.NewV7()),
		OwnerID:   ownerID,
		KeyIDs:    keyIDs,
		Threshold: threshold,
		Status:    keyvaultDomain.SchemeActive,
		CreatedAt: u.now().UTC(),
		Metadata:  metadata,
	}
	if err := scheme.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(keyIDs))
	for _, keyID := range keyIDs {
		if _, ok := seen[keyID]; ok {
			return nil, errors.Wrap(errors.ErrInvalidInput, "duplicate key in scheme")
		}
		seen[keyID] = struct{}{}

		record, err := u.keyRepo.Get(ctx, keyID)
		if err != nil {
			return nil, err
		}
		if record.OwnerID != ownerID {
			return nil, keyvaultDomain.ErrAccessDenied
		}
		if record.Type != keyvaultDomain.KeyTypeWalletSigning {
			return nil, keyvaultDomain.ErrWrongKeyType
		}
		if !record.IsActive() {
			return nil, keyvaultDomain.ErrInvalidKeyState
		}
	}

	if err := u.schemeRepo.Create(ctx, scheme); err != nil {
		return nil, errors.Wrap(err, "failed to persist scheme")
	}

	u.auditLog.Append(ctx, auditDomain.OperationMultiSigCreated, ownerID,
		"created multi-sig scheme",
		map[string]string{
			"scheme_id": scheme.ID.String(),
			"threshold": strconv.Itoa(threshold),
			"key_count": strconv.Itoa(len(keyIDs)),
		},
	)

	return scheme, nil
}

// authorizedActiveRecord loads keyID and runs the fixed check order:
// existence, ownership, status. No key material is touched before all three
// pass.
func (u *keyUseCase) authorizedActiveRecord(
	ctx context.Context,
	keyID uuid.UUID,
	actorID string,
) (*keyvaultDomain.KeyRecord, error) {
	record, err := u.keyRepo.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != actorID {
		return nil, keyvaultDomain.ErrAccessDenied
	}
	if !record.IsActive() {
		return nil, keyvaultDomain.ErrInvalidKeyState
	}
	return record, nil
}

// decryptMaterial recovers a record's raw material using the master key the
// record was encrypted under. A decryption failure is fatal for this key
// only; the error never carries cipher internals.
func (u *keyUseCase) decryptMaterial(record *keyvaultDomain.KeyRecord) ([]byte, error) {
	masterKey, ok := u.masterKeyChain.Get(record.MasterKeyID)
	if !ok {
		return nil, keyvaultDomain.ErrMasterKeyNotFound
	}

	material, err := u.materialService.Decrypt(masterKey, record.Algorithm, record.Material, materialAAD(record.ID))
	if err != nil {
		u.logger.Error("key material decryption failed",
			"key_id", record.ID,
			"master_key_id", record.MasterKeyID,
		)
		return nil, err
	}
	return material, nil
}

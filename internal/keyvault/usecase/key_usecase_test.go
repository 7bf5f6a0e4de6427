package usecase

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	auditDomain "github.com/tradeware/securecore/internal/audit/domain"
	auditService "github.com/tradeware/securecore/internal/audit/service"
	"github.com/tradeware/securecore/internal/errors"
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
	"github.com/tradeware/securecore/internal/keyvault/repository"
	keyvaultService "github.com/tradeware/securecore/internal/keyvault/service"
)

// plannerStub records Schedule and Cancel calls.
type plannerStub struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
	cancelled map[uuid.UUID]bool
}

func newPlannerStub() *plannerStub {
	return &plannerStub{
		scheduled: make(map[uuid.UUID]time.Time),
		cancelled: make(map[uuid.UUID]bool),
	}
}

func (p *plannerStub) Schedule(keyID uuid.UUID, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled[keyID] = at
}

func (p *plannerStub) Cancel(keyID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled[keyID] = true
}

func (p *plannerStub) scheduledAt(keyID uuid.UUID) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.scheduled[keyID]
	return at, ok
}

func (p *plannerStub) wasCancelled(keyID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled[keyID]
}

type vaultFixture struct {
	useCase  UseCase
	keyRepo  *repository.MemoryKeyRepository
	planner  *plannerStub
	auditLog auditService.Log
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()

	masterKeyMaterial := make([]byte, 32)
	_, err := rand.Read(masterKeyMaterial)
	require.NoError(t, err)

	chain, err := keyvaultDomain.NewMasterKeyChain(
		"mk1",
		&keyvaultDomain.MasterKey{ID: "mk1", Key: masterKeyMaterial},
	)
	require.NoError(t, err)
	t.Cleanup(chain.Close)

	keyRepo := repository.NewMemoryKeyRepository()
	schemeRepo := repository.NewMemorySchemeRepository()
	signer := keyvaultService.NewSecp256k1Signer()
	materialService := keyvaultService.NewMaterialService(keyvaultService.NewAEADManager(), signer)
	auditLog := auditService.NewLog(100, auditService.NewSigner(), masterKeyMaterial, slog.Default())
	planner := newPlannerStub()

	useCase := NewKeyUseCase(
		keyRepo,
		schemeRepo,
		materialService,
		signer,
		chain,
		auditLog,
		planner,
		slog.Default(),
	)

	return &vaultFixture{
		useCase:  useCase,
		keyRepo:  keyRepo,
		planner:  planner,
		auditLog: auditLog,
	}
}

func TestKeyUseCase_GenerateKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SymmetricKey", func(t *testing.T) {
		f := newVaultFixture(t)

		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		assert.Equal(t, keyvaultDomain.KeyTypeUserEncryption, record.Type)
		assert.Equal(t, keyvaultDomain.AESGCM, record.Algorithm)
		assert.Equal(t, "user-1", record.OwnerID)
		assert.Equal(t, "mk1", record.MasterKeyID)
		assert.Equal(t, uint(1), record.Version)
		assert.Equal(t, keyvaultDomain.StatusActive, record.Status)
		assert.NotEmpty(t, record.Material.Ciphertext)
		assert.Nil(t, record.PublicKey)
		assert.Equal(t, record.CreatedAt.Add(90*24*time.Hour), record.RotationScheduledAt)

		at, ok := f.planner.scheduledAt(record.ID)
		require.True(t, ok)
		assert.Equal(t, record.RotationScheduledAt, at)
	})

	t.Run("Success_WalletSigningKey", func(t *testing.T) {
		f := newVaultFixture(t)

		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeWalletSigning, "user-1")
		require.NoError(t, err)

		assert.Equal(t, keyvaultDomain.Secp256k1, record.Algorithm)
		assert.Len(t, record.PublicKey, 33)
		assert.Equal(t, keyvaultDomain.DefaultDerivationPath, record.DerivationPath)
	})

	t.Run("Success_AuditEntryAppended", func(t *testing.T) {
		f := newVaultFixture(t)

		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeAPIAuthentication, "user-1")
		require.NoError(t, err)

		entries := f.auditLog.List("user-1", 0)
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.OperationKeyGenerated, entries[0].Operation)
		assert.Equal(t, record.ID.String(), entries[0].Metadata["key_id"])
	})

	t.Run("Error_UnknownKeyType", func(t *testing.T) {
		f := newVaultFixture(t)

		record, err := f.useCase.GenerateKey(ctx, "session-tokens", "user-1")
		assert.ErrorIs(t, err, keyvaultDomain.ErrUnknownKeyType)
		assert.Nil(t, record)
	})

	t.Run("Error_MissingOwner", func(t *testing.T) {
		f := newVaultFixture(t)

		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		assert.Nil(t, record)
	})
}

func TestKeyUseCase_GetKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ReturnsStableMaterial", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		_, material1, err := f.useCase.GetKey(ctx, record.ID, "user-1")
		require.NoError(t, err)
		got, material2, err := f.useCase.GetKey(ctx, record.ID, "user-1")
		require.NoError(t, err)

		assert.Len(t, material1, 32)
		assert.Equal(t, material1, material2)
		assert.False(t, got.LastUsedAt.IsZero())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		f := newVaultFixture(t)

		_, _, err := f.useCase.GetKey(ctx, uuid.Must(uuid.NewV7()), "user-1")
		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyNotFound)
	})

	t.Run("Error_AccessDenied", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		_, _, err = f.useCase.GetKey(ctx, record.ID, "user-2")
		assert.ErrorIs(t, err, keyvaultDomain.ErrAccessDenied)
	})

	t.Run("Error_AccessDeniedBeforeStateCheck", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)
		require.NoError(t, f.useCase.RevokeKey(ctx, record.ID, "user-1", "compromised"))

		// A non-owner probing a revoked key learns nothing about its state.
		_, _, err = f.useCase.GetKey(ctx, record.ID, "user-2")
		assert.ErrorIs(t, err, keyvaultDomain.ErrAccessDenied)
	})
}

func TestKeyUseCase_RotateKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ArchivesOldVersion", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeDatabaseEncryption, "user-1")
		require.NoError(t, err)

		_, materialV1, err := f.useCase.GetKey(ctx, record.ID, "user-1")
		require.NoError(t, err)

		rotated, err := f.useCase.RotateKey(ctx, record.ID, "user-1")
		require.NoError(t, err)

		assert.Equal(t, record.ID, rotated.ID)
		assert.Equal(t, uint(2), rotated.Version)
		assert.Equal(t, keyvaultDomain.StatusActive, rotated.Status)

		_, materialV2, err := f.useCase.GetKey(ctx, record.ID, "user-1")
		require.NoError(t, err)
		assert.NotEqual(t, materialV1, materialV2)

		archived, archivedMaterial, err := f.useCase.GetArchivedKey(ctx, record.ID, 1, "user-1")
		require.NoError(t, err)
		assert.Equal(t, keyvaultDomain.StatusArchived, archived.Status)
		assert.Equal(t, materialV1, archivedMaterial)
	})

	t.Run("Success_SystemActorAllowed", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		rotated, err := f.useCase.RotateKey(ctx, record.ID, keyvaultDomain.SystemActor)
		require.NoError(t, err)
		assert.Equal(t, uint(2), rotated.Version)
	})

	t.Run("Success_ReschedulesRotation", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		rotated, err := f.useCase.RotateKey(ctx, record.ID, "user-1")
		require.NoError(t, err)

		at, ok := f.planner.scheduledAt(record.ID)
		require.True(t, ok)
		assert.Equal(t, rotated.RotationScheduledAt, at)
	})

	t.Run("Error_AccessDenied", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		_, err = f.useCase.RotateKey(ctx, record.ID, "user-2")
		assert.ErrorIs(t, err, keyvaultDomain.ErrAccessDenied)
	})

	t.Run("Error_RevokedKey", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)
		require.NoError(t, f.useCase.RevokeKey(ctx, record.ID, "user-1", "compromised"))

		_, err = f.useCase.RotateKey(ctx, record.ID, "user-1")
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeyState)
	})

	t.Run("Success_ConcurrentRotationsSequential", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		const workers = 5
		var wg sync.WaitGroup
		wg.Add(workers)
		for range workers {
			go func() {
				defer wg.Done()
				_, err := f.useCase.RotateKey(ctx, record.ID, "user-1")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		final, _, err := f.useCase.GetKey(ctx, record.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, uint(workers+1), final.Version)

		// Every prior version was archived exactly once.
		for version := uint(1); version <= workers; version++ {
			_, _, err := f.useCase.GetArchivedKey(ctx, record.ID, version, "user-1")
			assert.NoError(t, err)
		}
	})
}

func TestKeyUseCase_RevokeKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CancelsSchedule", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		require.NoError(t, f.useCase.RevokeKey(ctx, record.ID, "user-1", "rotated out of service"))
		assert.True(t, f.planner.wasCancelled(record.ID))

		_, _, err = f.useCase.GetKey(ctx, record.ID, "user-1")
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeyState)
	})

	t.Run("Success_ReasonInAuditTrail", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		require.NoError(t, f.useCase.RevokeKey(ctx, record.ID, "user-1", "compromised"))

		entries := f.auditLog.List("user-1", 0)
		require.NotEmpty(t, entries)
		revoked := entries[0]
		assert.Equal(t, auditDomain.OperationKeyRevoked, revoked.Operation)
		assert.Equal(t, record.ID.String(), revoked.Metadata["key_id"])
		assert.Equal(t, "compromised", revoked.Metadata["reason"])
	})

	t.Run("Error_AlreadyRevoked", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		require.NoError(t, f.useCase.RevokeKey(ctx, record.ID, "user-1", "compromised"))
		assert.ErrorIs(
			t,
			f.useCase.RevokeKey(ctx, record.ID, "user-1", "compromised"),
			keyvaultDomain.ErrInvalidKeyState,
		)
	})

	t.Run("Error_AccessDenied", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		assert.ErrorIs(
			t,
			f.useCase.RevokeKey(ctx, record.ID, "user-2", "compromised"),
			keyvaultDomain.ErrAccessDenied,
		)
	})
}

func TestKeyUseCase_WalletOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeriveAddress", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeWalletSigning, "user-1")
		require.NoError(t, err)

		address, err := f.useCase.DeriveWalletAddress(ctx, record.ID, "user-1")
		require.NoError(t, err)
		assert.Len(t, address, 42)
		assert.Equal(t, "0x", address[:2])
	})

	t.Run("Success_SignMessageVerifiesAgainstRecordPublicKey", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeWalletSigning, "user-1")
		require.NoError(t, err)
		message := []byte("withdraw 100 USDC")

		signatureDER, err := f.useCase.SignMessage(ctx, record.ID, "user-1", message)
		require.NoError(t, err)

		signature, err := secpecdsa.ParseDERSignature(signatureDER)
		require.NoError(t, err)
		publicKey, err := secp256k1.ParsePubKey(record.PublicKey)
		require.NoError(t, err)

		hasher := sha3.NewLegacyKeccak256()
		hasher.Write(message)
		assert.True(t, signature.Verify(hasher.Sum(nil), publicKey))
	})

	t.Run("Error_WrongKeyType", func(t *testing.T) {
		f := newVaultFixture(t)
		record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		_, err = f.useCase.DeriveWalletAddress(ctx, record.ID, "user-1")
		assert.ErrorIs(t, err, keyvaultDomain.ErrWrongKeyType)

		_, err = f.useCase.SignMessage(ctx, record.ID, "user-1", []byte("msg"))
		assert.ErrorIs(t, err, keyvaultDomain.ErrWrongKeyType)
	})
}

func TestKeyUseCase_CreateMultiSigScheme(t *testing.T) {
	ctx := context.Background()

	generateWalletKeys := func(t *testing.T, f *vaultFixture, owner string, n int) []uuid.UUID {
		t.Helper()
		ids := make([]uuid.UUID, 0, n)
		for range n {
			record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeWalletSigning, owner)
			require.NoError(t, err)
			ids = append(ids, record.ID)
		}
		return ids
	}

	t.Run("Success", func(t *testing.T) {
		f := newVaultFixture(t)
		keyIDs := generateWalletKeys(t, f, "user-1", 3)

		scheme, err := f.useCase.CreateMultiSigScheme(ctx, "user-1", keyIDs, 2, map[string]string{
			"purpose": "treasury",
		})
		require.NoError(t, err)

		assert.Equal(t, keyvaultDomain.SchemeActive, scheme.Status)
		assert.Equal(t, 2, scheme.Threshold)
		assert.Equal(t, keyIDs, scheme.KeyIDs)
	})

	t.Run("Error_ThresholdExceedsKeys", func(t *testing.T) {
		f := newVaultFixture(t)
		keyIDs := generateWalletKeys(t, f, "user-1", 2)

		_, err := f.useCase.CreateMultiSigScheme(ctx, "user-1", keyIDs, 3, nil)
		assert.ErrorIs(t, err, keyvaultDomain.ErrThresholdExceedsKeys)
	})

	t.Run("Error_NonWalletKey", func(t *testing.T) {
		f := newVaultFixture(t)
		keyIDs := generateWalletKeys(t, f, "user-1", 1)
		symmetric, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeUserEncryption, "user-1")
		require.NoError(t, err)

		_, err = f.useCase.CreateMultiSigScheme(ctx, "user-1", append(keyIDs, symmetric.ID), 1, nil)
		assert.ErrorIs(t, err, keyvaultDomain.ErrWrongKeyType)
	})

	t.Run("Error_RevokedKey", func(t *testing.T) {
		f := newVaultFixture(t)
		keyIDs := generateWalletKeys(t, f, "user-1", 2)
		require.NoError(t, f.useCase.RevokeKey(ctx, keyIDs[1], "user-1", "compromised"))

		_, err := f.useCase.CreateMultiSigScheme(ctx, "user-1", keyIDs, 1, nil)
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeyState)
	})

	t.Run("Error_ForeignKey", func(t *testing.T) {
		f := newVaultFixture(t)
		mine := generateWalletKeys(t, f, "user-1", 1)
		theirs := generateWalletKeys(t, f, "user-2", 1)

		_, err := f.useCase.CreateMultiSigScheme(ctx, "user-1", append(mine, theirs...), 1, nil)
		assert.ErrorIs(t, err, keyvaultDomain.ErrAccessDenied)
	})

	t.Run("Error_DuplicateKeys", func(t *testing.T) {
		f := newVaultFixture(t)
		keyIDs := generateWalletKeys(t, f, "user-1", 1)

		_, err := f.useCase.CreateMultiSigScheme(ctx, "user-1", append(keyIDs, keyIDs[0]), 2, nil)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

// TestKeyUseCase_Lifecycle covers the full rotate-and-revoke journey: old
// data stays decryptable through the archived version, and revocation is
// terminal.
func TestKeyUseCase_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newVaultFixture(t)

	record, err := f.useCase.GenerateKey(ctx, keyvaultDomain.KeyTypeDatabaseEncryption, "user-1")
	require.NoError(t, err)

	_, originalMaterial, err := f.useCase.GetKey(ctx, record.ID, "user-1")
	require.NoError(t, err)

	rotated, err := f.useCase.RotateKey(ctx, record.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, uint(2), rotated.Version)

	_, archivedMaterial, err := f.useCase.GetArchivedKey(ctx, record.ID, 1, "user-1")
	require.NoError(t, err)
	assert.Equal(t, originalMaterial, archivedMaterial)

	require.NoError(t, f.useCase.RevokeKey(ctx, record.ID, "user-1", "compromised"))

	_, _, err = f.useCase.GetKey(ctx, record.ID, "user-1")
	assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeyState)

	// The audit trail recorded every step, including the revocation cause.
	entries := f.auditLog.List("user-1", 0)
	operations := make([]auditDomain.Operation, 0, len(entries))
	for _, entry := range entries {
		operations = append(operations, entry.Operation)
		if entry.Operation == auditDomain.OperationKeyRevoked {
			assert.Equal(t, "compromised", entry.Metadata["reason"])
		}
	}
	assert.Contains(t, operations, auditDomain.OperationKeyGenerated)
	assert.Contains(t, operations, auditDomain.OperationKeyRotated)
	assert.Contains(t, operations, auditDomain.OperationKeyRevoked)
}

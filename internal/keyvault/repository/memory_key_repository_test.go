package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

func newTestRecord(status keyvaultDomain.KeyStatus) *keyvaultDomain.KeyRecord {
	now := time.Now().UTC()
	return &keyvaultDomain.KeyRecord{
		ID:          uuid.Must(uuid.NewV7()),
		Type:        keyvaultDomain.KeyTypeUserEncryption,
		OwnerID:     "user-1",
		Algorithm:   keyvaultDomain.AESGCM,
		MasterKeyID: "mk1",
		Material: keyvaultDomain.EncryptedMaterial{
			Ciphertext: []byte("ciphertext"),
			Nonce:      []byte("nonce"),
		},
		Version:             1,
		Status:              status,
		CreatedAt:           now,
		RotationScheduledAt: now.Add(90 * 24 * time.Hour),
	}
}

func TestMemoryKeyRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)

		require.NoError(t, repo.Create(ctx, record))

		got, err := repo.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("Success_StoredCopyIsIsolated", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)
		require.NoError(t, repo.Create(ctx, record))

		record.Material.Ciphertext[0] = 0xff
		record.Status = keyvaultDomain.StatusRevoked

		got, err := repo.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, byte('c'), got.Material.Ciphertext[0])
		assert.Equal(t, keyvaultDomain.StatusActive, got.Status)
	})

	t.Run("Error_DuplicateID", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)

		require.NoError(t, repo.Create(ctx, record))
		assert.ErrorIs(t, repo.Create(ctx, record), keyvaultDomain.ErrKeyAlreadyExists)
	})
}

func TestMemoryKeyRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_NotFound", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		got, err := repo.Get(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyNotFound)
		assert.Nil(t, got)
	})
}

func TestMemoryKeyRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)
		require.NoError(t, repo.Create(ctx, record))

		record.Status = keyvaultDomain.StatusRevoked
		require.NoError(t, repo.Update(ctx, record))

		got, err := repo.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, keyvaultDomain.StatusRevoked, got.Status)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)
		assert.ErrorIs(t, repo.Update(ctx, record), keyvaultDomain.ErrKeyNotFound)
	})
}

func TestMemoryKeyRepository_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ArchivedVersionRetrievable", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)
		require.NoError(t, repo.Create(ctx, record))

		archived := record.Clone()
		archived.Status = keyvaultDomain.StatusArchived
		require.NoError(t, repo.Archive(ctx, archived))

		got, err := repo.GetArchived(ctx, record.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, keyvaultDomain.StatusArchived, got.Status)
		assert.Equal(t, uint(1), got.Version)
	})

	t.Run("Success_ArchiveDoesNotShadowActiveRecord", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		record := newTestRecord(keyvaultDomain.StatusActive)
		require.NoError(t, repo.Create(ctx, record))
		require.NoError(t, repo.Archive(ctx, record))

		got, err := repo.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, keyvaultDomain.StatusActive, got.Status)
	})

	t.Run("Error_VersionNeverArchived", func(t *testing.T) {
		repo := NewMemoryKeyRepository()
		got, err := repo.GetArchived(ctx, uuid.Must(uuid.NewV7()), 3)
		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyNotFound)
		assert.Nil(t, got)
	})
}

func TestMemoryKeyRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryKeyRepository()

	active := newTestRecord(keyvaultDomain.StatusActive)
	revoked := newTestRecord(keyvaultDomain.StatusRevoked)
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, revoked))

	records, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, active.ID, records[0].ID)
}

func TestMemoryKeyRepository_ListDue(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryKeyRepository()
	now := time.Now().UTC()

	due := newTestRecord(keyvaultDomain.StatusActive)
	due.RotationScheduledAt = now.Add(-time.Hour)
	notDue := newTestRecord(keyvaultDomain.StatusActive)
	revokedDue := newTestRecord(keyvaultDomain.StatusRevoked)
	revokedDue.RotationScheduledAt = now.Add(-time.Hour)

	require.NoError(t, repo.Create(ctx, due))
	require.NoError(t, repo.Create(ctx, notDue))
	require.NoError(t, repo.Create(ctx, revokedDue))

	records, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, due.ID, records[0].ID)
}

func TestMemorySchemeRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CreateAndGet", func(t *testing.T) {
		repo := NewMemorySchemeRepository()
		scheme := &keyvaultDomain.MultiSigScheme{
			ID:        uuid.Must(uuid.NewV7()),
			OwnerID:   "user-1",
			KeyIDs:    []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())},
			Threshold: 2,
			Status:    keyvaultDomain.SchemeActive,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, scheme))

		got, err := repo.Get(ctx, scheme.ID)
		require.NoError(t, err)
		assert.Equal(t, scheme, got)
	})

	t.Run("Success_StoredCopyIsIsolated", func(t *testing.T) {
		repo := NewMemorySchemeRepository()
		scheme := &keyvaultDomain.MultiSigScheme{
			ID:        uuid.Must(uuid.NewV7()),
			OwnerID:   "user-1",
			KeyIDs:    []uuid.UUID{uuid.Must(uuid.NewV7())},
			Threshold: 1,
			Status:    keyvaultDomain.SchemeActive,
		}
		require.NoError(t, repo.Create(ctx, scheme))

		scheme.KeyIDs[0] = uuid.Must(uuid.NewV7())

		got, err := repo.Get(ctx, scheme.ID)
		require.NoError(t, err)
		assert.NotEqual(t, scheme.KeyIDs[0], got.KeyIDs[0])
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		repo := NewMemorySchemeRepository()
		got, err := repo.Get(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, keyvaultDomain.ErrSchemeNotFound)
		assert.Nil(t, got)
	})
}

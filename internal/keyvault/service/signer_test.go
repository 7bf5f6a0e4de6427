package service

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

func TestSecp256k1Signer_GeneratePrivateKey(t *testing.T) {
	signer := NewSecp256k1Signer()

	t.Run("Success_ValidScalar", func(t *testing.T) {
		privateKey, err := signer.GeneratePrivateKey()
		require.NoError(t, err)
		require.NotNil(t, privateKey)
		assert.Len(t, privateKey.Serialize(), 32)
	})

	t.Run("Success_UniqueKeys", func(t *testing.T) {
		key1, err := signer.GeneratePrivateKey()
		require.NoError(t, err)
		key2, err := signer.GeneratePrivateKey()
		require.NoError(t, err)
		assert.NotEqual(t, key1.Serialize(), key2.Serialize())
	})
}

func TestSecp256k1Signer_PublicKey(t *testing.T) {
	signer := NewSecp256k1Signer()

	t.Run("Success_CompressedFormat", func(t *testing.T) {
		privateKey, err := signer.GeneratePrivateKey()
		require.NoError(t, err)

		publicKey, err := signer.PublicKey(privateKey.Serialize())
		require.NoError(t, err)
		require.Len(t, publicKey, 33)
		assert.Contains(t, []byte{0x02, 0x03}, publicKey[0])
		assert.Equal(t, privateKey.PubKey().SerializeCompressed(), publicKey)
	})

	t.Run("Error_WrongMaterialLength", func(t *testing.T) {
		publicKey, err := signer.PublicKey(make([]byte, 16))
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeySize)
		assert.Nil(t, publicKey)
	})

	t.Run("Error_ZeroScalar", func(t *testing.T) {
		publicKey, err := signer.PublicKey(make([]byte, 32))
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeySize)
		assert.Nil(t, publicKey)
	})
}

func TestSecp256k1Signer_Sign(t *testing.T) {
	signer := NewSecp256k1Signer()

	t.Run("Success_SignatureVerifies", func(t *testing.T) {
		privateKey, err := signer.GeneratePrivateKey()
		require.NoError(t, err)
		message := []byte("transfer 1.5 ETH to 0xabc")

		signatureDER, err := signer.Sign(privateKey.Serialize(), message)
		require.NoError(t, err)

		signature, err := secpecdsa.ParseDERSignature(signatureDER)
		require.NoError(t, err)

		publicKeyBytes, err := signer.PublicKey(privateKey.Serialize())
		require.NoError(t, err)
		publicKey, err := secp256k1.ParsePubKey(publicKeyBytes)
		require.NoError(t, err)

		assert.True(t, signature.Verify(keccak256(message), publicKey))
	})

	t.Run("Success_DifferentMessagesDifferentSignatures", func(t *testing.T) {
		privateKey, err := signer.GeneratePrivateKey()
		require.NoError(t, err)

		sig1, err := signer.Sign(privateKey.Serialize(), []byte("message one"))
		require.NoError(t, err)
		sig2, err := signer.Sign(privateKey.Serialize(), []byte("message two"))
		require.NoError(t, err)

		assert.NotEqual(t, sig1, sig2)
	})

	t.Run("Error_InvalidMaterial", func(t *testing.T) {
		signature, err := signer.Sign([]byte("short"), []byte("message"))
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeySize)
		assert.Nil(t, signature)
	})
}

func TestSecp256k1Signer_Address(t *testing.T) {
	signer := NewSecp256k1Signer()

	t.Run("Success_KnownVector", func(t *testing.T) {
		// Private scalar 1 maps to a well-known EVM address.
		material := make([]byte, 32)
		material[31] = 0x01

		address, err := signer.Address(material)
		require.NoError(t, err)
		assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", address)
	})

	t.Run("Success_Format", func(t *testing.T) {
		privateKey, err := signer.GeneratePrivateKey()
		require.NoError(t, err)

		address, err := signer.Address(privateKey.Serialize())
		require.NoError(t, err)
		assert.Len(t, address, 42)
		assert.Equal(t, "0x", address[:2])
	})

	t.Run("Success_Deterministic", func(t *testing.T) {
		privateKey, err := signer.GeneratePrivateKey()
		require.NoError(t, err)

		address1, err := signer.Address(privateKey.Serialize())
		require.NoError(t, err)
		address2, err := signer.Address(privateKey.Serialize())
		require.NoError(t, err)
		assert.Equal(t, address1, address2)
	})

	t.Run("Error_InvalidMaterial", func(t *testing.T) {
		address, err := signer.Address(make([]byte, 31))
		assert.ErrorIs(t, err, keyvaultDomain.ErrInvalidKeySize)
		assert.Empty(t, address)
	})
}

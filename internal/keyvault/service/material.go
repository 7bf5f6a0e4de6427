package service

import (
	"crypto/rand"
	"fmt"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// MaterialServiceImpl implements MaterialService using the AEAD manager for
// envelope encryption and the secp256k1 signer for wallet key generation.
type MaterialServiceImpl struct {
	aeadManager AEADManager
	signer      Signer
}

// NewMaterialService creates a new MaterialServiceImpl.
func NewMaterialService(aeadManager AEADManager, signer Signer) *MaterialServiceImpl {
	return &MaterialServiceImpl{
		aeadManager: aeadManager,
		signer:      signer,
	}
}

// Generate produces raw material for the key type. Symmetric algorithms get
// random bytes of the registered size; secp256k1 gets a rejection-sampled
// private scalar plus its compressed public key.
func (ms *MaterialServiceImpl) Generate(
	keyType keyvaultDomain.KeyType,
) (material, publicKey []byte, err error) {
	spec, ok := keyType.Spec()
	if !ok {
		return nil, nil, keyvaultDomain.ErrUnknownKeyType
	}

	if spec.Algorithm == keyvaultDomain.Secp256k1 {
		privateKey, err := ms.signer.GeneratePrivateKey()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		material = privateKey.Serialize()
		publicKey = privateKey.PubKey().SerializeCompressed()
		privateKey.Zero()
		return material, publicKey, nil
	}

	material = make([]byte, spec.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	return material, nil, nil
}

// envelopeCipher returns the AEAD algorithm used to seal material of the
// given record algorithm. AEAD key types seal under their own algorithm;
// signing material has no AEAD form and is sealed under AES-256-GCM.
func envelopeCipher(algorithm keyvaultDomain.Algorithm) keyvaultDomain.Algorithm {
	if algorithm == keyvaultDomain.Secp256k1 {
		return keyvaultDomain.AESGCM
	}
	return algorithm
}

// Encrypt seals raw material under the master key. The caller's AAD (the key
// record ID) binds the envelope to its record.
func (ms *MaterialServiceImpl) Encrypt(
	masterKey *keyvaultDomain.MasterKey,
	algorithm keyvaultDomain.Algorithm,
	material []byte,
	aad []byte,
) (keyvaultDomain.EncryptedMaterial, error) {
	aead, err := ms.aeadManager.CreateCipher(masterKey.Key, envelopeCipher(algorithm))
	if err != nil {
		return keyvaultDomain.EncryptedMaterial{}, fmt.Errorf("failed to create cipher: %w", err)
	}

	ciphertext, nonce, err := aead.Encrypt(material, aad)
	if err != nil {
		return keyvaultDomain.EncryptedMaterial{}, fmt.Errorf("failed to encrypt material: %w", err)
	}

	return keyvaultDomain.EncryptedMaterial{
		Ciphertext: ciphertext,
		Nonce:      nonce,
	}, nil
}

// Decrypt opens a record's encrypted envelope with the master key. Any
// authentication failure surfaces as ErrDecryptionFailed so callers never see
// cipher internals.
func (ms *MaterialServiceImpl) Decrypt(
	masterKey *keyvaultDomain.MasterKey,
	algorithm keyvaultDomain.Algorithm,
	encrypted keyvaultDomain.EncryptedMaterial,
	aad []byte,
) ([]byte, error) {
	aead, err := ms.aeadManager.CreateCipher(masterKey.Key, envelopeCipher(algorithm))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	material, err := aead.Decrypt(encrypted.Ciphertext, encrypted.Nonce, aad)
	if err != nil {
		return nil, keyvaultDomain.ErrDecryptionFailed
	}
	return material, nil
}

package bitcoin

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
)

const (
	KeySize = 32
)

var (
	ErrBadKeyLength = errors.New("Key has invalid length")
)

// Key is an elliptic curve private key using the secp256k1 elliptic curve.
type Key struct {
	value *btcec.PrivateKey
}

// GenerateKey randomly generates a new key.
func GenerateKey() (Key, error) {
	value, err := btcec.NewPrivateKey()
	if err != nil {
		return Key{}, errors.Wrap(err, "generate")
	}

	return Key{value: value}, nil
}

// KeyFromBytes creates a key from a 32 byte big endian number.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) != KeySize {
		return Key{}, errors.Wrapf(ErrBadKeyLength, "got %d, want %d", len(b), KeySize)
	}

	value, _ := btcec.PrivKeyFromBytes(b)
	if value.Key.IsZero() {
		return Key{}, errors.New("Zero key")
	}

	return Key{value: value}, nil
}

// KeyFromStr creates a key from a hex string.
func KeyFromStr(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, errors.Wrap(err, "decode hex")
	}

	return KeyFromBytes(b)
}

// PublicKey returns the public key for the key.
func (k Key) PublicKey() PublicKey {
	return publicKeyFromValue(k.value.PubKey())
}

// Sign signs a 32 byte pre-computed hash.
func (k Key) Sign(hash Hash32) (Signature, error) {
	if k.value == nil {
		return Signature{}, errors.New("Key empty")
	}

	return signatureFromValue(ecdsa.Sign(k.value, hash[:])), nil
}

// Bytes returns the 32 byte big endian number for the key.
func (k Key) Bytes() []byte {
	return k.value.Serialize()
}

// String returns the hex for the key.
func (k Key) String() string {
	return hex.EncodeToString(k.Bytes())
}

func (k Key) IsEmpty() bool {
	return k.value == nil
}

func (k Key) Equal(other Key) bool {
	if k.value == nil || other.value == nil {
		return k.value == other.value
	}

	return k.value.Key.Equals(&other.value.Key)
}

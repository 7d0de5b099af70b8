package bitcoin

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
)

var (
	ErrBadSignature = errors.New("Bad signature")
)

// Signature is an elliptic curve signature using the secp256k1 elliptic
// curve. The original DER encoding is retained so unlocking scripts
// re-serialize byte for byte.
type Signature struct {
	value *ecdsa.Signature
	der   []byte
}

// SignatureFromBytes decodes a DER encoded signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	value, err := ecdsa.ParseDERSignature(b)
	if err != nil {
		return Signature{}, errors.Wrap(ErrBadSignature, err.Error())
	}

	der := make([]byte, len(b))
	copy(der, b)
	return Signature{value: value, der: der}, nil
}

// SignatureFromStr converts signature hex text to a signature.
func SignatureFromStr(s string) (Signature, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Signature{}, errors.Wrap(err, "decode hex")
	}

	return SignatureFromBytes(b)
}

func signatureFromValue(value *ecdsa.Signature) Signature {
	return Signature{
		value: value,
		der:   value.Serialize(),
	}
}

// Verify returns true if the signature is valid for this hash and public key.
func (s Signature) Verify(hash Hash32, key PublicKey) bool {
	if s.value == nil || key.value == nil {
		return false
	}

	return s.value.Verify(hash[:], key.value)
}

// Bytes returns the DER encoding of the signature.
func (s Signature) Bytes() []byte {
	return s.der
}

// String returns the hex of the DER encoding.
func (s Signature) String() string {
	return hex.EncodeToString(s.der)
}

func (s Signature) IsEmpty() bool {
	return s.value == nil
}

func (s Signature) Equal(o Signature) bool {
	return bytes.Equal(s.der, o.der)
}

package bitcoin

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

const (
	PublicKeyCompressedLength   = 33
	PublicKeyUncompressedLength = 65
)

var (
	ErrBadPublicKey = errors.New("Bad public key")
)

// PublicKey is an elliptic curve public key using the secp256k1 elliptic
// curve. The original SEC1 encoding, compressed or uncompressed, is retained
// so that hashing and re-serialization match the bytes that appeared on the
// wire.
type PublicKey struct {
	value *btcec.PublicKey
	data  []byte
}

// PublicKeyFromBytes decodes a SEC1 encoded public key, compressed or
// uncompressed.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	value, err := btcec.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, errors.Wrap(ErrBadPublicKey, err.Error())
	}

	data := make([]byte, len(b))
	copy(data, b)
	return PublicKey{value: value, data: data}, nil
}

// PublicKeyFromStr converts hex public key text to a public key.
func PublicKeyFromStr(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "decode hex")
	}

	return PublicKeyFromBytes(b)
}

func publicKeyFromValue(value *btcec.PublicKey) PublicKey {
	return PublicKey{
		value: value,
		data:  value.SerializeCompressed(),
	}
}

// Bytes returns the SEC1 encoding the key was created with.
func (k PublicKey) Bytes() []byte {
	return k.data
}

// Hash returns the Hash160 of the key's SEC1 encoding.
func (k PublicKey) Hash() Hash20 {
	return Hash160Hash(k.data)
}

// LockingScript returns a P2PK locking script paying to this key.
func (k PublicKey) LockingScript() (Script, error) {
	return P2PK{PublicKey: k}.LockingScript()
}

func (k PublicKey) IsEmpty() bool {
	return k.value == nil
}

func (k PublicKey) Equal(o PublicKey) bool {
	return bytes.Equal(k.data, o.data)
}

// String returns the hex for the key.
func (k PublicKey) String() string {
	return hex.EncodeToString(k.data)
}

// Serialize writes the key's SEC1 encoding preceded by a length byte.
func (k PublicKey) Serialize(w io.Writer) error {
	if _, err := w.Write([]byte{byte(len(k.data))}); err != nil {
		return err
	}

	_, err := w.Write(k.data)
	return err
}

// MarshalJSON converts to json.
func (k PublicKey) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

// UnmarshalJSON converts from json.
func (k *PublicKey) UnmarshalJSON(data []byte) error {
	l := len(data)
	if l < 2 {
		return errors.Wrap(ErrBadPublicKey, "json data")
	}

	value, err := PublicKeyFromStr(string(data[1 : l-1]))
	if err != nil {
		return err
	}

	*k = value
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PublicKey) UnmarshalText(text []byte) error {
	value, err := PublicKeyFromStr(string(text))
	if err != nil {
		return err
	}

	*k = value
	return nil
}

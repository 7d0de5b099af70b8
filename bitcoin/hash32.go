package bitcoin

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

const (
	Hash32Size = 32
)

var (
	ErrWrongSize = errors.New("Wrong size")
)

// Hash32 is a 32 byte hash in little endian format. The human readable hex
// form is byte reversed, which is the convention for transaction and block
// ids.
type Hash32 [Hash32Size]byte

func NewHash32(b []byte) (*Hash32, error) {
	if len(b) != Hash32Size {
		return nil, errors.Wrapf(ErrWrongSize, "got %d, want %d", len(b), Hash32Size)
	}
	result := Hash32{}
	copy(result[:], b)
	return &result, nil
}

// NewHash32FromStr creates a little endian hash from a big endian string.
func NewHash32FromStr(s string) (*Hash32, error) {
	if len(s) != 2*Hash32Size {
		return nil, errors.Wrapf(ErrWrongSize, "hex: got %d, want %d", len(s), Hash32Size*2)
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	result := &Hash32{}
	for i, v := range b {
		result[Hash32Size-1-i] = v
	}
	return result, nil
}

// DoubleSha256Hash returns the double SHA256 of the input as a Hash32.
func DoubleSha256Hash(b []byte) Hash32 {
	var result Hash32
	copy(result[:], DoubleSha256(b))
	return result
}

// Bytes returns the data for the hash.
func (h Hash32) Bytes() []byte {
	return h[:]
}

// ReverseBytes returns the bytes in reverse order (big endian).
func (h Hash32) ReverseBytes() []byte {
	b := make([]byte, Hash32Size)
	for i, v := range h[:] {
		b[Hash32Size-1-i] = v
	}
	return b
}

// Int returns the numeric value of the hash, interpreting the reversed bytes
// as a big endian integer. Used to compare header hashes against the proof of
// work target.
func (h Hash32) Int() *big.Int {
	value := &big.Int{}
	value.SetBytes(h.ReverseBytes())
	return value
}

// SetBytes sets the value of the hash.
func (h *Hash32) SetBytes(b []byte) error {
	if len(b) != Hash32Size {
		return errors.Wrapf(ErrWrongSize, "got %d, want %d", len(b), Hash32Size)
	}
	copy(h[:], b)
	return nil
}

// String returns the big endian hex for the hash.
func (h Hash32) String() string {
	return hex.EncodeToString(h.ReverseBytes())
}

// Equal returns true if the parameter has the same value.
func (h *Hash32) Equal(o *Hash32) bool {
	if h == nil {
		return o == nil
	}
	if o == nil {
		return false
	}
	return bytes.Equal(h[:], o[:])
}

func (h Hash32) Copy() Hash32 {
	var c Hash32
	copy(c[:], h[:])
	return c
}

func (h Hash32) IsZero() bool {
	var zero Hash32
	return h.Equal(&zero)
}

// Serialize writes the hash into a writer.
func (h Hash32) Serialize(w io.Writer) error {
	_, err := w.Write(h[:])
	return err
}

// Deserialize reads a hash from a reader.
func (h *Hash32) Deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return err
	}
	return nil
}

// MarshalJSON converts to json.
func (h Hash32) MarshalJSON() ([]byte, error) {
	return []byte("\"" + h.String() + "\""), nil
}

// UnmarshalJSON converts from json.
func (h *Hash32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	value, err := NewHash32FromStr(s)
	if err != nil {
		return err
	}

	*h = *value
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	value, err := NewHash32FromStr(string(text))
	if err != nil {
		return err
	}

	*h = *value
	return nil
}

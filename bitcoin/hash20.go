package bitcoin

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

const (
	Hash20Size = 20
)

// Hash20 is a 20 byte hash, the output size of Hash160. Used for public key
// hashes and pay to script hash script hashes.
type Hash20 [Hash20Size]byte

func NewHash20(b []byte) (*Hash20, error) {
	if len(b) != Hash20Size {
		return nil, errors.Wrapf(ErrWrongSize, "got %d, want %d", len(b), Hash20Size)
	}
	result := Hash20{}
	copy(result[:], b)
	return &result, nil
}

func NewHash20FromStr(s string) (*Hash20, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewHash20(b)
}

// Hash160Hash returns the Hash160 of the input as a Hash20.
func Hash160Hash(b []byte) Hash20 {
	var result Hash20
	copy(result[:], Hash160(b))
	return result
}

// Bytes returns the data for the hash.
func (h Hash20) Bytes() []byte {
	return h[:]
}

// String returns the hex for the hash. Unlike Hash32, 20 byte hashes are not
// byte reversed for display.
func (h Hash20) String() string {
	return hex.EncodeToString(h[:])
}

// Equal returns true if the parameter has the same value.
func (h *Hash20) Equal(o *Hash20) bool {
	if h == nil {
		return o == nil
	}
	if o == nil {
		return false
	}
	return bytes.Equal(h[:], o[:])
}

// Serialize writes the hash into a writer.
func (h Hash20) Serialize(w io.Writer) error {
	_, err := w.Write(h[:])
	return err
}

// Deserialize reads a hash from a reader.
func (h *Hash20) Deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return err
	}
	return nil
}

// MarshalJSON converts to json.
func (h Hash20) MarshalJSON() ([]byte, error) {
	return []byte("\"" + h.String() + "\""), nil
}

// UnmarshalJSON converts from json.
func (h *Hash20) UnmarshalJSON(data []byte) error {
	l := len(data)
	if l < 2 {
		return errors.Wrap(ErrWrongSize, "json data")
	}

	value, err := NewHash20FromStr(string(data[1 : l-1]))
	if err != nil {
		return err
	}

	*h = *value
	return nil
}

package bitcoin

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	ScriptItemTypeOpCode   = ScriptItemType(0x01)
	ScriptItemTypePushData = ScriptItemType(0x02)

	OP_FALSE = byte(0x00)
	OP_TRUE  = byte(0x51)

	OP_0       = byte(0x00)
	OP_1NEGATE = byte(0x4f)
	OP_1       = byte(0x51)
	OP_16      = byte(0x60)

	OP_RETURN         = byte(0x6a)
	OP_DUP            = byte(0x76)
	OP_EQUAL          = byte(0x87)
	OP_EQUALVERIFY    = byte(0x88)
	OP_RIPEMD160      = byte(0xa6)
	OP_SHA256         = byte(0xa8)
	OP_HASH160        = byte(0xa9)
	OP_HASH256        = byte(0xaa)
	OP_CODESEPARATOR  = byte(0xab)
	OP_CHECKSIG       = byte(0xac)
	OP_CHECKSIGVERIFY = byte(0xad)
	OP_CHECKMULTISIG  = byte(0xae)

	// OP_MAX_SINGLE_BYTE_PUSH_DATA represents the max length for a single byte push
	OP_MAX_SINGLE_BYTE_PUSH_DATA = byte(0x4b)

	// OP_PUSH_DATA_1 represents the OP_PUSHDATA1 opcode.
	OP_PUSH_DATA_1 = byte(0x4c)

	// OP_PUSH_DATA_2 represents the OP_PUSHDATA2 opcode.
	OP_PUSH_DATA_2 = byte(0x4d)

	// OP_PUSH_DATA_4 represents the OP_PUSHDATA4 opcode.
	OP_PUSH_DATA_4 = byte(0x4e)

	// OP_PUSH_DATA_1_MAX is the maximum number of bytes that can be pushed with
	// the OP_PUSHDATA1 opcode.
	OP_PUSH_DATA_1_MAX = uint64(255)

	// OP_PUSH_DATA_2_MAX is the maximum number of bytes that can be pushed with
	// the OP_PUSHDATA2 opcode.
	OP_PUSH_DATA_2_MAX = uint64(65535)

	// maxPushDataSize bounds allocation when parsing a push from a stream that
	// doesn't know its remaining length.
	maxPushDataSize = 0x02000000
)

var (
	endian = binary.LittleEndian

	ErrEmptyScript           = errors.New("Empty Script")
	ErrInvalidScript         = errors.New("Invalid Script")
	ErrInvalidScriptItemType = errors.New("Invalid Script Item Type")

	byteToNames = map[byte]string{
		OP_0:              "OP_0",
		OP_1NEGATE:        "OP_1NEGATE",
		OP_RETURN:         "OP_RETURN",
		OP_DUP:            "OP_DUP",
		OP_EQUAL:          "OP_EQUAL",
		OP_EQUALVERIFY:    "OP_EQUALVERIFY",
		OP_RIPEMD160:      "OP_RIPEMD160",
		OP_SHA256:         "OP_SHA256",
		OP_HASH160:        "OP_HASH160",
		OP_HASH256:        "OP_HASH256",
		OP_CODESEPARATOR:  "OP_CODESEPARATOR",
		OP_CHECKSIG:       "OP_CHECKSIG",
		OP_CHECKSIGVERIFY: "OP_CHECKSIGVERIFY",
		OP_CHECKMULTISIG:  "OP_CHECKMULTISIG",
	}
)

type ScriptItemType uint8

// ScriptItem is one instruction of a script. It is either an op code or a
// push of data. For pushes the OpCode field records the encoding flavor the
// push was parsed with (direct length byte, OP_PUSHDATA1/2/4, OP_0,
// OP_1NEGATE, or OP_1 through OP_16) so that re-serializing reproduces the
// original bytes exactly.
type ScriptItem struct {
	Type   ScriptItemType
	OpCode byte
	Data   []byte
}

type ScriptItems []*ScriptItem

// Script is a raw bitcoin script.
type Script []byte

func NewScript(b []byte) Script {
	return Script(b)
}

func NewOpCodeScriptItem(opCode byte) *ScriptItem {
	return &ScriptItem{
		Type:   ScriptItemTypeOpCode,
		OpCode: opCode,
	}
}

// NewPushDataScriptItem creates a push item with the smallest encoding flavor
// that fits the data.
func NewPushDataScriptItem(b []byte) *ScriptItem {
	var opCode byte
	switch {
	case len(b) == 0:
		opCode = OP_0
	case len(b) <= int(OP_MAX_SINGLE_BYTE_PUSH_DATA):
		opCode = byte(len(b))
	case uint64(len(b)) <= OP_PUSH_DATA_1_MAX:
		opCode = OP_PUSH_DATA_1
	case uint64(len(b)) <= OP_PUSH_DATA_2_MAX:
		opCode = OP_PUSH_DATA_2
	default:
		opCode = OP_PUSH_DATA_4
	}

	return &ScriptItem{
		Type:   ScriptItemTypePushData,
		OpCode: opCode,
		Data:   b,
	}
}

// NewSmallIntegerScriptItem creates a push of a small integer 1 through 16
// using the single byte number op codes.
func NewSmallIntegerScriptItem(value uint8) *ScriptItem {
	return &ScriptItem{
		Type:   ScriptItemTypePushData,
		OpCode: 0x50 + value,
		Data:   []byte{value},
	}
}

func (item ScriptItem) String() string {
	if item.Type == ScriptItemTypePushData {
		if item.OpCode >= OP_1 && item.OpCode <= OP_16 {
			return fmt.Sprintf("%d", item.OpCode-0x50)
		}
		return fmt.Sprintf("0x%s", hex.EncodeToString(item.Data))
	}

	name, exists := byteToNames[item.OpCode]
	if exists {
		return name
	}

	// Undefined op code
	return fmt.Sprintf("{0x%02x}", item.OpCode)
}

func (item ScriptItem) Equal(other ScriptItem) bool {
	if item.Type != other.Type {
		return false
	}

	if item.OpCode != other.OpCode {
		return false
	}

	return bytes.Equal(item.Data, other.Data)
}

// IsSmallInteger returns true if the item is a push of a small integer 1
// through 16 via the single byte number op codes.
func (item ScriptItem) IsSmallInteger() bool {
	return item.Type == ScriptItemTypePushData && item.OpCode >= OP_1 && item.OpCode <= OP_16
}

// SmallInteger returns the value of a small integer push.
func (item ScriptItem) SmallInteger() uint8 {
	return item.OpCode - 0x50
}

// Write serializes the item, reproducing the encoding flavor it was created
// or parsed with.
func (item ScriptItem) Write(w io.Writer) error {
	if item.Type == ScriptItemTypeOpCode {
		_, err := w.Write([]byte{item.OpCode})
		return errors.Wrap(err, "op code")
	}

	if item.Type != ScriptItemTypePushData {
		return errors.Wrapf(ErrInvalidScriptItemType, "%d", item.Type)
	}

	switch {
	case item.OpCode == OP_0, item.OpCode == OP_1NEGATE,
		item.OpCode >= OP_1 && item.OpCode <= OP_16:
		// Value is implied by the op code itself.
		_, err := w.Write([]byte{item.OpCode})
		return errors.Wrap(err, "push op code")

	case item.OpCode <= OP_MAX_SINGLE_BYTE_PUSH_DATA:
		if _, err := w.Write([]byte{byte(len(item.Data))}); err != nil {
			return errors.Wrap(err, "size")
		}

	case item.OpCode == OP_PUSH_DATA_1:
		if _, err := w.Write([]byte{OP_PUSH_DATA_1, byte(len(item.Data))}); err != nil {
			return errors.Wrap(err, "size")
		}

	case item.OpCode == OP_PUSH_DATA_2:
		if _, err := w.Write([]byte{OP_PUSH_DATA_2}); err != nil {
			return errors.Wrap(err, "op code")
		}
		if err := binary.Write(w, endian, uint16(len(item.Data))); err != nil {
			return errors.Wrap(err, "size")
		}

	case item.OpCode == OP_PUSH_DATA_4:
		if _, err := w.Write([]byte{OP_PUSH_DATA_4}); err != nil {
			return errors.Wrap(err, "op code")
		}
		if err := binary.Write(w, endian, uint32(len(item.Data))); err != nil {
			return errors.Wrap(err, "size")
		}

	default:
		return errors.Wrapf(ErrInvalidScript, "push op code 0x%02x", item.OpCode)
	}

	_, err := w.Write(item.Data)
	return errors.Wrap(err, "data")
}

func (item ScriptItem) Script() (Script, error) {
	buf := &bytes.Buffer{}
	if err := item.Write(buf); err != nil {
		return nil, err
	}
	return Script(buf.Bytes()), nil
}

func (items ScriptItems) Write(w io.Writer) error {
	for i, item := range items {
		if err := item.Write(w); err != nil {
			return errors.Wrapf(err, "item %d", i)
		}
	}
	return nil
}

func (items ScriptItems) Script() (Script, error) {
	buf := &bytes.Buffer{}
	if err := items.Write(buf); err != nil {
		return nil, err
	}
	return Script(buf.Bytes()), nil
}

// ParseScript parses the next item of a bitcoin script, recording the push
// flavor for data pushes.
func ParseScript(r io.Reader) (*ScriptItem, error) {
	var opCode [1]byte
	if _, err := io.ReadFull(r, opCode[:]); err != nil {
		return nil, err
	}

	return parseScriptItem(r, opCode[0])
}

func parseScriptItem(r io.Reader, opCode byte) (*ScriptItem, error) {
	dataSize := 0
	switch {
	case opCode == OP_0:
		return &ScriptItem{
			Type:   ScriptItemTypePushData,
			OpCode: OP_0,
		}, nil

	case opCode <= OP_MAX_SINGLE_BYTE_PUSH_DATA:
		dataSize = int(opCode)

	case opCode == OP_1NEGATE:
		return &ScriptItem{
			Type:   ScriptItemTypePushData,
			OpCode: OP_1NEGATE,
			Data:   []byte{0x81},
		}, nil

	case opCode >= OP_1 && opCode <= OP_16:
		return &ScriptItem{
			Type:   ScriptItemTypePushData,
			OpCode: opCode,
			Data:   []byte{opCode - 0x50},
		}, nil

	case opCode == OP_PUSH_DATA_1:
		var size uint8
		if err := binary.Read(r, endian, &size); err != nil {
			return nil, err
		}
		dataSize = int(size)

	case opCode == OP_PUSH_DATA_2:
		var size uint16
		if err := binary.Read(r, endian, &size); err != nil {
			return nil, err
		}
		dataSize = int(size)

	case opCode == OP_PUSH_DATA_4:
		var size uint32
		if err := binary.Read(r, endian, &size); err != nil {
			return nil, err
		}
		dataSize = int(size)

	default:
		return &ScriptItem{
			Type:   ScriptItemTypeOpCode,
			OpCode: opCode,
		}, nil
	}

	if dataSize > maxPushDataSize {
		return nil, errors.Wrapf(ErrInvalidScript, "push data size too large : %d", dataSize)
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	return &ScriptItem{
		Type:   ScriptItemTypePushData,
		OpCode: opCode,
		Data:   data,
	}, nil
}

// ParseScriptItems parses all items of a script. If count is -1 then items
// are parsed until the reader is empty.
func ParseScriptItems(r *bytes.Reader, count int) (ScriptItems, error) {
	if count == -1 {
		var result ScriptItems
		i := 0
		for r.Len() > 0 {
			item, err := ParseScript(r)
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}

			result = append(result, item)
			i++
		}

		return result, nil
	}

	result := make(ScriptItems, count)
	for i := range result {
		item, err := ParseScript(r)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}

		result[i] = item
	}

	return result, nil
}

// Items parses the full script into its items.
func (s Script) Items() (ScriptItems, error) {
	return ParseScriptItems(bytes.NewReader(s), -1)
}

func (s Script) Equal(r Script) bool {
	return bytes.Equal(s, r)
}

func (s Script) Copy() Script {
	c := make(Script, len(s))
	copy(c, s)
	return c
}

func (s Script) Bytes() []byte {
	return s
}

func (s Script) String() string {
	items, err := s.Items()
	if err != nil {
		return hex.EncodeToString(s)
	}

	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}

	result := ""
	for i, part := range parts {
		if i > 0 {
			result += " "
		}
		result += part
	}
	return result
}

// MarshalJSON converts to json.
func (s Script) MarshalJSON() ([]byte, error) {
	return []byte("\"" + hex.EncodeToString(s) + "\""), nil
}

// UnmarshalJSON converts from json.
func (s *Script) UnmarshalJSON(data []byte) error {
	l := len(data)
	if l < 2 {
		return fmt.Errorf("Too short for Script hex data : %d", l)
	}

	if l == 2 {
		*s = nil
		return nil
	}

	raw, err := hex.DecodeString(string(data[1 : l-1]))
	if err != nil {
		return err
	}
	*s = raw

	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Script) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Script) UnmarshalBinary(data []byte) error {
	// Copy byte slice in case it is reused after this call.
	*s = make([]byte, len(data))
	copy(*s, data)
	return nil
}

// WritePushDataScript writes a push data script item for the data, choosing
// the smallest encoding flavor.
func WritePushDataScript(w io.Writer, data []byte) error {
	return NewPushDataScriptItem(data).Write(w)
}

// OpCodeToString returns the name of an op code, or its hex value if the name
// is not known.
func OpCodeToString(opCode byte) string {
	name, exists := byteToNames[opCode]
	if exists {
		return name
	}

	return fmt.Sprintf("{0x%02x}", opCode)
}

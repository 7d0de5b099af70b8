package bitcoin

import (
	"github.com/pkg/errors"
)

var (
	ErrUnknownScriptTemplate = errors.New("Unknown Script Template")
)

// StandardScriptType identifies one of the standard locking script templates.
type StandardScriptType uint8

const (
	StandardScriptTypeP2PK = StandardScriptType(iota + 1)
	StandardScriptTypeP2PKH
	StandardScriptTypeP2MS
	StandardScriptTypeP2SH
	StandardScriptTypeNullData
	StandardScriptTypeP2WPKH
	StandardScriptTypeP2WSH
)

func (t StandardScriptType) String() string {
	switch t {
	case StandardScriptTypeP2PK:
		return "P2PK"
	case StandardScriptTypeP2PKH:
		return "P2PKH"
	case StandardScriptTypeP2MS:
		return "P2MS"
	case StandardScriptTypeP2SH:
		return "P2SH"
	case StandardScriptTypeNullData:
		return "NullData"
	case StandardScriptTypeP2WPKH:
		return "P2WPKH"
	case StandardScriptTypeP2WSH:
		return "P2WSH"
	}
	return "Unknown"
}

// StandardScript is a locking script matching one of the standard templates.
// Rendering with LockingScript is the exact inverse of recognition with
// ParseStandardScript.
type StandardScript interface {
	Type() StandardScriptType
	LockingScript() (Script, error)
}

// P2PK locks an output to a public key. The spender provides a signature.
type P2PK struct {
	PublicKey PublicKey
}

func (p P2PK) Type() StandardScriptType { return StandardScriptTypeP2PK }

func (p P2PK) LockingScript() (Script, error) {
	return ScriptItems{
		NewPushDataScriptItem(p.PublicKey.Bytes()),
		NewOpCodeScriptItem(OP_CHECKSIG),
	}.Script()
}

// P2PKH locks an output to the Hash160 of a public key. The spender provides
// a signature and the public key.
type P2PKH struct {
	PubKeyHash Hash20
}

func (p P2PKH) Type() StandardScriptType { return StandardScriptTypeP2PKH }

func (p P2PKH) LockingScript() (Script, error) {
	return ScriptItems{
		NewOpCodeScriptItem(OP_DUP),
		NewOpCodeScriptItem(OP_HASH160),
		NewPushDataScriptItem(p.PubKeyHash.Bytes()),
		NewOpCodeScriptItem(OP_EQUALVERIFY),
		NewOpCodeScriptItem(OP_CHECKSIG),
	}.Script()
}

// P2MS locks an output to m of n public keys.
type P2MS struct {
	Required   uint8
	Total      uint8
	PublicKeys []PublicKey
}

func (p P2MS) Type() StandardScriptType { return StandardScriptTypeP2MS }

func (p P2MS) LockingScript() (Script, error) {
	items := make(ScriptItems, 0, len(p.PublicKeys)+3)
	items = append(items, NewSmallIntegerScriptItem(p.Required))
	for _, publicKey := range p.PublicKeys {
		items = append(items, NewPushDataScriptItem(publicKey.Bytes()))
	}
	items = append(items, NewSmallIntegerScriptItem(p.Total))
	items = append(items, NewOpCodeScriptItem(OP_CHECKMULTISIG))
	return items.Script()
}

// P2SH locks an output to the Hash160 of a redeem script.
type P2SH struct {
	ScriptHash Hash20
}

func (p P2SH) Type() StandardScriptType { return StandardScriptTypeP2SH }

func (p P2SH) LockingScript() (Script, error) {
	return ScriptItems{
		NewOpCodeScriptItem(OP_HASH160),
		NewPushDataScriptItem(p.ScriptHash.Bytes()),
		NewOpCodeScriptItem(OP_EQUAL),
	}.Script()
}

// NullData is a provably unspendable data carrier output.
type NullData struct {
	Data []byte
}

func (p NullData) Type() StandardScriptType { return StandardScriptTypeNullData }

func (p NullData) LockingScript() (Script, error) {
	return ScriptItems{
		NewOpCodeScriptItem(OP_RETURN),
		NewPushDataScriptItem(p.Data),
	}.Script()
}

// P2WPKH locks an output to the Hash160 of a public key, spent via the
// segregated witness.
type P2WPKH struct {
	PubKeyHash Hash20
}

func (p P2WPKH) Type() StandardScriptType { return StandardScriptTypeP2WPKH }

func (p P2WPKH) LockingScript() (Script, error) {
	return ScriptItems{
		NewPushDataScriptItem(nil),
		NewPushDataScriptItem(p.PubKeyHash.Bytes()),
	}.Script()
}

// P2WSH locks an output to the SHA256 of a witness script.
type P2WSH struct {
	ScriptHash Hash32Data
}

func (p P2WSH) Type() StandardScriptType { return StandardScriptTypeP2WSH }

func (p P2WSH) LockingScript() (Script, error) {
	return ScriptItems{
		NewPushDataScriptItem(nil),
		NewPushDataScriptItem(p.ScriptHash[:]),
	}.Script()
}

// Hash32Data is a 32 byte value that is not byte reversed for display, such
// as a P2WSH witness program.
type Hash32Data [Hash32Size]byte

// ParseStandardScript pattern matches a locking script against the closed set
// of standard templates. It returns ErrUnknownScriptTemplate when the script
// is non-standard.
func ParseStandardScript(s Script) (StandardScript, error) {
	items, err := s.Items()
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	l := len(items)

	if l >= 3 && items[0].IsSmallInteger() && items[l-2].IsSmallInteger() &&
		items[l-1].Type == ScriptItemTypeOpCode && items[l-1].OpCode == OP_CHECKMULTISIG {

		required := items[0].SmallInteger()
		total := items[l-2].SmallInteger()
		if l == int(total)+3 {
			publicKeys := make([]PublicKey, 0, total)
			for _, item := range items[1 : l-2] {
				if item.Type != ScriptItemTypePushData {
					break
				}

				publicKey, err := PublicKeyFromBytes(item.Data)
				if err != nil {
					break
				}

				publicKeys = append(publicKeys, publicKey)
			}

			if len(publicKeys) == int(total) {
				return P2MS{
					Required:   required,
					Total:      total,
					PublicKeys: publicKeys,
				}, nil
			}
		}
	}

	switch l {
	case 2:
		if items[0].OpCode == OP_0 && items[0].Type == ScriptItemTypePushData {
			if items[1].Type != ScriptItemTypePushData {
				return nil, ErrUnknownScriptTemplate
			}

			switch len(items[1].Data) {
			case Hash20Size:
				hash, _ := NewHash20(items[1].Data)
				return P2WPKH{PubKeyHash: *hash}, nil

			case Hash32Size:
				var hash Hash32Data
				copy(hash[:], items[1].Data)
				return P2WSH{ScriptHash: hash}, nil
			}

			return nil, ErrUnknownScriptTemplate
		}

		if items[0].Type == ScriptItemTypePushData {
			if items[1].Type == ScriptItemTypeOpCode && items[1].OpCode == OP_CHECKSIG {
				publicKey, err := PublicKeyFromBytes(items[0].Data)
				if err != nil {
					return nil, errors.Wrap(ErrUnknownScriptTemplate, err.Error())
				}

				return P2PK{PublicKey: publicKey}, nil
			}

			return nil, ErrUnknownScriptTemplate
		}

		if items[0].Type == ScriptItemTypeOpCode && items[0].OpCode == OP_RETURN &&
			items[1].Type == ScriptItemTypePushData {
			return NullData{Data: items[1].Data}, nil
		}

	case 3:
		if items[0].Type == ScriptItemTypeOpCode && items[0].OpCode == OP_HASH160 &&
			items[1].Type == ScriptItemTypePushData &&
			items[2].Type == ScriptItemTypeOpCode && items[2].OpCode == OP_EQUAL {

			hash, err := NewHash20(items[1].Data)
			if err != nil {
				return nil, errors.Wrap(ErrUnknownScriptTemplate, err.Error())
			}

			return P2SH{ScriptHash: *hash}, nil
		}

	case 5:
		if items[0].Type == ScriptItemTypeOpCode && items[0].OpCode == OP_DUP &&
			items[1].Type == ScriptItemTypeOpCode && items[1].OpCode == OP_HASH160 &&
			items[2].Type == ScriptItemTypePushData &&
			items[3].Type == ScriptItemTypeOpCode && items[3].OpCode == OP_EQUALVERIFY &&
			items[4].Type == ScriptItemTypeOpCode && items[4].OpCode == OP_CHECKSIG {

			hash, err := NewHash20(items[2].Data)
			if err != nil {
				return nil, errors.Wrap(ErrUnknownScriptTemplate, err.Error())
			}

			return P2PKH{PubKeyHash: *hash}, nil
		}
	}

	return nil, ErrUnknownScriptTemplate
}

package bitcoin

import (
	"bytes"

	"github.com/pkg/errors"
)

var (
	ErrNotUnlockingScript = errors.New("Not Unlocking Script")
)

// SignaturePush is a signature with its trailing hash type byte, as pushed in
// an unlocking script.
type SignaturePush struct {
	Signature Signature
	HashType  byte
}

// ParseSignaturePush splits a pushed signature into its DER signature and
// trailing hash type byte.
func ParseSignaturePush(b []byte) (*SignaturePush, error) {
	if len(b) < 2 {
		return nil, errors.Wrap(ErrBadSignature, "too short")
	}

	signature, err := SignatureFromBytes(b[:len(b)-1])
	if err != nil {
		return nil, err
	}

	return &SignaturePush{
		Signature: signature,
		HashType:  b[len(b)-1],
	}, nil
}

// Bytes returns the DER signature with the hash type byte appended.
func (s SignaturePush) Bytes() []byte {
	return append(s.Signature.Bytes(), s.HashType)
}

// UnlockingScript is an unlocking script matching the standard form for a
// known locking template.
type UnlockingScript interface {
	UnlockedType() StandardScriptType
}

// P2PKUnlocking spends a P2PK output: a single signature push.
type P2PKUnlocking struct {
	Signature SignaturePush
}

func (u P2PKUnlocking) UnlockedType() StandardScriptType { return StandardScriptTypeP2PK }

func (u P2PKUnlocking) Script() (Script, error) {
	return ScriptItems{
		NewPushDataScriptItem(u.Signature.Bytes()),
	}.Script()
}

// P2PKHUnlocking spends a P2PKH output: a signature push followed by the
// public key.
type P2PKHUnlocking struct {
	Signature SignaturePush
	PublicKey PublicKey
}

func (u P2PKHUnlocking) UnlockedType() StandardScriptType { return StandardScriptTypeP2PKH }

func (u P2PKHUnlocking) Script() (Script, error) {
	return ScriptItems{
		NewPushDataScriptItem(u.Signature.Bytes()),
		NewPushDataScriptItem(u.PublicKey.Bytes()),
	}.Script()
}

// P2MSUnlocking spends a P2MS output: an OP_0 place holder, for the off by
// one bug in the original OP_CHECKMULTISIG, followed by the signatures.
type P2MSUnlocking struct {
	Signatures []SignaturePush
}

func (u P2MSUnlocking) UnlockedType() StandardScriptType { return StandardScriptTypeP2MS }

func (u P2MSUnlocking) Script() (Script, error) {
	items := make(ScriptItems, 0, len(u.Signatures)+1)
	items = append(items, NewPushDataScriptItem(nil))
	for _, signature := range u.Signatures {
		items = append(items, NewPushDataScriptItem(signature.Bytes()))
	}
	return items.Script()
}

// P2SHUnlocking spends a P2SH output: the inner unlocking items followed by a
// push of the serialized redeem script.
type P2SHUnlocking struct {
	Inner        Script
	RedeemScript Script
}

func (u P2SHUnlocking) UnlockedType() StandardScriptType { return StandardScriptTypeP2SH }

func (u P2SHUnlocking) Script() (Script, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.Write(u.Inner); err != nil {
		return nil, errors.Wrap(err, "inner")
	}
	if err := WritePushDataScript(buf, u.RedeemScript); err != nil {
		return nil, errors.Wrap(err, "redeem script")
	}
	return Script(buf.Bytes()), nil
}

// ParseUnlockingScript parses an unlocking script given the template of the
// locking script it is expected to satisfy. NullData outputs are provably
// unspendable so no unlocking script parses for them.
func ParseUnlockingScript(s Script, lockType StandardScriptType) (UnlockingScript, error) {
	items, err := s.Items()
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	l := len(items)
	switch lockType {
	case StandardScriptTypeP2PK:
		if l != 1 || items[0].Type != ScriptItemTypePushData {
			return nil, errors.Wrap(ErrNotUnlockingScript, "want one push")
		}

		signature, err := ParseSignaturePush(items[0].Data)
		if err != nil {
			return nil, errors.Wrap(ErrNotUnlockingScript, err.Error())
		}

		return P2PKUnlocking{Signature: *signature}, nil

	case StandardScriptTypeP2PKH:
		if l != 2 || items[0].Type != ScriptItemTypePushData ||
			items[1].Type != ScriptItemTypePushData {
			return nil, errors.Wrap(ErrNotUnlockingScript, "want two pushes")
		}

		signature, err := ParseSignaturePush(items[0].Data)
		if err != nil {
			return nil, errors.Wrap(ErrNotUnlockingScript, err.Error())
		}

		publicKey, err := PublicKeyFromBytes(items[1].Data)
		if err != nil {
			return nil, errors.Wrap(ErrNotUnlockingScript, err.Error())
		}

		return P2PKHUnlocking{
			Signature: *signature,
			PublicKey: publicKey,
		}, nil

	case StandardScriptTypeP2MS:
		if l < 2 || items[0].OpCode != OP_0 {
			return nil, errors.Wrap(ErrNotUnlockingScript, "want OP_0 place holder")
		}

		signatures := make([]SignaturePush, 0, l-1)
		for _, item := range items[1:] {
			if item.Type != ScriptItemTypePushData {
				break
			}

			signature, err := ParseSignaturePush(item.Data)
			if err != nil {
				break
			}

			signatures = append(signatures, *signature)
		}

		if len(signatures) != l-1 {
			return nil, errors.Wrap(ErrNotUnlockingScript, "non signature push")
		}

		return P2MSUnlocking{Signatures: signatures}, nil

	case StandardScriptTypeP2SH:
		if l < 1 || items[l-1].Type != ScriptItemTypePushData {
			return nil, errors.Wrap(ErrNotUnlockingScript, "want trailing redeem push")
		}

		redeemScript := Script(items[l-1].Data)
		if _, err := redeemScript.Items(); err != nil {
			return nil, errors.Wrap(ErrNotUnlockingScript, "redeem script")
		}

		inner, err := items[:l-1].Script()
		if err != nil {
			return nil, errors.Wrap(err, "inner script")
		}

		return P2SHUnlocking{
			Inner:        inner,
			RedeemScript: redeemScript.Copy(),
		}, nil

	case StandardScriptTypeNullData:
		return nil, errors.Wrap(ErrNotUnlockingScript, "null data is unspendable")
	}

	return nil, errors.Wrapf(ErrNotUnlockingScript, "unsupported template %s", lockType)
}

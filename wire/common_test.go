package wire

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestVarIntEncode(t *testing.T) {
	tests := []struct {
		value uint64
		hex   string
	}{
		{0, "00"},
		{187, "bb"},
		{252, "fc"},
		{255, "fd00ff"},
		{13337, "fd3419"},
		{14435729, "fe00dc4591"},
		{134250981, "fe080081e5"},
		{198849843832919, "ff0000b4da564e2857"},
		{5473425651754713432, "ff4bf583a17d59c158"},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := WriteVarInt(buf, tt.value); err != nil {
				t.Fatalf("Failed to write var int : %s", err)
			}

			want, err := hex.DecodeString(tt.hex)
			if err != nil {
				t.Fatalf("Failed to decode hex : %s", err)
			}

			if !bytes.Equal(buf.Bytes(), want) {
				t.Fatalf("Wrong encoding\ngot:%x\nwant:%x", buf.Bytes(), want)
			}

			if size := VarIntSerializeSize(tt.value); size != len(want) {
				t.Fatalf("Wrong serialize size : got %d, want %d", size, len(want))
			}

			value, err := ReadVarInt(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("Failed to read var int : %s", err)
			}

			if value != tt.value {
				t.Fatalf("Wrong value : got %d, want %d", value, tt.value)
			}
		})
	}
}

func TestVarIntTruncated(t *testing.T) {
	tests := []string{
		"fd00",
		"fe0000",
		"ff00000000",
	}

	for _, tt := range tests {
		if _, err := ReadVarInt(bytes.NewReader(mustDecodeHex(t, tt))); err == nil {
			t.Fatalf("Expected error for truncated var int %s", tt)
		}
	}
}

func TestVarBytes(t *testing.T) {
	data := []byte("some payload bytes")

	buf := &bytes.Buffer{}
	if err := WriteVarBytes(buf, data); err != nil {
		t.Fatalf("Failed to write var bytes : %s", err)
	}

	read, err := ReadVarBytes(bytes.NewReader(buf.Bytes()), MaxScriptSize, "payload")
	if err != nil {
		t.Fatalf("Failed to read var bytes : %s", err)
	}

	if !bytes.Equal(read, data) {
		t.Fatalf("Wrong bytes\ngot:%x\nwant:%x", read, data)
	}

	if _, err := ReadVarBytes(bytes.NewReader(buf.Bytes()), 4, "payload"); err == nil {
		t.Fatalf("Expected error for bytes over max allowed")
	}
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("Failed to decode hex : %s", err)
	}
	return b
}

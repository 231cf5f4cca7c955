package common

import (
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestEncodeHasNoTrailingNewline(t *testing.T) {
	enc, err := Encode(sample{Name: "<a&b>", Value: 3})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"name":"<a&b>","value":3}`
	if string(enc) != want {
		t.Errorf("Encode() = %s, want %s", enc, want)
	}

	dec, err := Decode[sample](enc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if dec.Name != "<a&b>" || dec.Value != 3 {
		t.Errorf("Decode() = %+v", dec)
	}
}

func TestHexKeysKeepOrder(t *testing.T) {
	a, err := ToHex(uint64(2))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ToHex(uint64(256))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) >= string(b) {
		t.Errorf("big-endian keys should sort numerically: %x >= %x", a, b)
	}

	n, err := FromHex[uint64](b)
	if err != nil {
		t.Fatal(err)
	}
	if n != 256 {
		t.Errorf("FromHex() = %d, want 256", n)
	}
}

func TestExistFile(t *testing.T) {
	if ExistFile(filepath.Join(t.TempDir(), "missing")) {
		t.Error("ExistFile() reported a missing file")
	}
}

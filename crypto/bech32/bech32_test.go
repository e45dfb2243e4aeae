package bech32

import (
	"bytes"
	"strings"
	"testing"
)

func TestBech32EncodeDecode(t *testing.T) {
	payload := []byte("test-payload")

	raw, err := Encode("toll", payload)
	if err != nil {
		t.Fatalf("cannot encode: %s", err)
	}
	if !strings.HasPrefix(string(raw), "toll1") {
		t.Fatalf("invalid encoding: %q", raw)
	}

	hrp, got, err := Decode(string(raw))
	if err != nil {
		t.Fatalf("cannot decode: %s", err)
	}
	if hrp != "toll" {
		t.Fatalf("unexpected human readable part: %q", hrp)
	}
	if !bytes.Equal(payload, got) {
		t.Logf("want %d", payload)
		t.Logf("got  %d", got)
		t.Fatal("invalid decode")
	}
}

func TestBech32DecodeGarbage(t *testing.T) {
	if _, _, err := Decode("this is not bech32"); err == nil {
		t.Fatal("decode must fail")
	}
}

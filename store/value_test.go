package store

import "testing"

func TestValueFromUint64_IsZero(t *testing.T) {
	if !IsZero(ZeroValue) {
		t.Fatal("ZeroValue must report IsZero")
	}
	v := ValueFromUint64(0)
	if !IsZero(v) {
		t.Fatal("ValueFromUint64(0) must report IsZero")
	}
	nz := ValueFromUint64(1)
	if IsZero(nz) {
		t.Fatal("ValueFromUint64(1) must not report IsZero")
	}
}

func TestHexToValue_Roundtrip(t *testing.T) {
	v := ValueFromUint64(42)
	hex := ValueHex(v)
	parsed, err := HexToValue(hex)
	if err != nil {
		t.Fatalf("HexToValue: %v", err)
	}
	if parsed != v {
		t.Fatalf("roundtrip mismatch: got %v want %v", parsed, v)
	}
}

func TestHexToValue_TooLong(t *testing.T) {
	long := make([]byte, 66)
	for i := range long {
		long[i] = 'f'
	}
	if _, err := HexToValue(string(long)); err == nil {
		t.Fatal("expected error for value hex exceeding 256 bits")
	}
}

package fingerprint

import "testing"

func TestVerify(t *testing.T) {
	data := []byte("chunk meta bytes")
	fp := Of(data)

	if !Verify(data, fp) {
		t.Fatal("expected fingerprint to verify against its own input")
	}
	if Verify([]byte("different bytes"), fp) {
		t.Fatal("expected fingerprint mismatch to be detected")
	}
}

package idemstore

import "testing"

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("msg-1"), []byte("body"))
	b := Fingerprint([]byte("msg-1"), []byte("body"))
	if a != b {
		t.Errorf("Fingerprint not stable: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Fingerprint length = %d, want 64", len(a))
	}

	if Fingerprint([]byte("ab"), []byte("c")) == Fingerprint([]byte("a"), []byte("bc")) {
		t.Error("part boundaries should change the fingerprint")
	}
	if Fingerprint() == Fingerprint(nil) {
		t.Error("an empty part should differ from no parts")
	}
}

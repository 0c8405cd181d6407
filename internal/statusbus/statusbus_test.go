package statusbus

import "testing"

func TestNewRejectsMalformedURL(t *testing.T) {
	if _, err := New("not a valid redis url", "", nil); err == nil {
		t.Fatal("expected an error for a malformed redis URL")
	}
}

package buildinfo

import "testing"

func TestInfo_String(t *testing.T) {
	expected := Name + ": " + Time + ", " + BuildTag
	if got := Info.String(); got != expected {
		t.Errorf("banner got: %s, expected: %s", got, expected)
	}
}

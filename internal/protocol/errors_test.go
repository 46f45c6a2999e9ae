package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrPhase,
		ErrNoResource,
		ErrNoPV,
		ErrInvalidTarget,
		ErrNoActions,
		ErrStale,
		ErrDuplicateStructure,
		ErrStructureLimit,
		ErrGameOver,
		ErrNoPermission,
		ErrConflict,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

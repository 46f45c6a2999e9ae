package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule/action layer.
	ErrBadRequest         = "E_BAD_REQUEST"
	ErrPhase              = "E_PHASE"
	ErrNoResource         = "E_NO_RESOURCE"
	ErrNoPV               = "E_NO_PV"
	ErrInvalidTarget      = "E_INVALID_TARGET"
	ErrNoActions          = "E_NO_ACTIONS"
	ErrStale              = "E_STALE"
	ErrDuplicateStructure = "E_DUPLICATE_STRUCTURE"
	ErrStructureLimit     = "E_STRUCTURE_LIMIT"
	ErrGameOver           = "E_GAME_OVER"
	ErrNoPermission       = "E_NO_PERMISSION"
	ErrConflict           = "E_CONFLICT"
	ErrInternal           = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrBadRequest:         {},
	ErrPhase:              {},
	ErrNoResource:         {},
	ErrNoPV:               {},
	ErrInvalidTarget:      {},
	ErrNoActions:          {},
	ErrStale:              {},
	ErrDuplicateStructure: {},
	ErrStructureLimit:     {},
	ErrGameOver:           {},
	ErrNoPermission:       {},
	ErrConflict:           {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

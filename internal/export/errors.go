package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrUnknownKind = errors.New("unknown export kind")
	ErrWrite       = errors.New("write export failed")
)

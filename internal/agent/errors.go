package agent

import "errors"

var (
	// ErrNoSafeToken means every listing for the symbol failed the risk gates.
	ErrNoSafeToken = errors.New("no safe token candidate")
	// ErrSymbolUnresolved means the symbol maps to no known token id.
	ErrSymbolUnresolved = errors.New("symbol could not be resolved")
)

package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation succeeded
	SymbolFail     = "✗" // Operation failed
	SymbolPending  = "○" // Nothing yet
	SymbolOnline   = "●" // Device answered its last probe
	SymbolDegraded = "◌" // Device missed its last refresh
)

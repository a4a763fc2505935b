// Package state holds the session aggregate the engine folds journal records
// into.
//
// A Session is a plain data structure split into subsystem slices
// (System, Discovery, Exobio, Combat, Pledge, Inventory, Ledger, Activity).
// Each slice carries the small mutation API its handlers need; nothing here
// reads files or the clock.
//
// Ownership: one goroutine mutates a Session. Readers on other goroutines
// receive a Snapshot, which shares no maps or slices with the live value.
//
// Per-system slices (System, Discovery, Exobio, Combat, Intel) are reset by
// ClearSystem when the commander arrives in a different star system.
// Inventory, Ledger, Pledge and Commander survive system changes.
package state

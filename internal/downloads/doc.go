// Package downloads tracks the handoff of selected sources to a
// downloader backend and drives each download through its state machine.
//
// The backend contract is deliberately narrow: add, cancel, archive, list
// and per-id state. Everything stateful lives on this side, persisted in
// the store, and Sync reconciles it against what the backend actually
// still knows about.
package downloads

// Package selector groups filtered sources by resolved entity and ranks
// each group's candidates into a deterministic winner.
package selector

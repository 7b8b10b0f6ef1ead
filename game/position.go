// Package game holds the rules engine the relay consults before accepting a move.
package game

// Position is one game's authoritative state. Implementations are not safe for
// concurrent use; callers serialize access per room.
type Position interface {
	// TryApply plays move if it is legal in the current position and reports
	// whether it did. An illegal or malformed move leaves the position untouched.
	TryApply(move string) bool
	// IsTerminal reports whether the game is over.
	IsTerminal() bool
	// Outcome returns the result descriptor once the game is over.
	Outcome() (string, bool)
	// Repr is the wire representation of the position.
	Repr() string
}

// Oracle creates fresh positions.
type Oracle interface {
	NewPosition() Position
}

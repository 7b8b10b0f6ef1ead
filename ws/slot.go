package ws

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

type Slot string

const (
	SlotWhite Slot = "white"
	SlotBlack Slot = "black"
)

// AllSlots lists the slots in broadcast order.
var AllSlots = []Slot{SlotWhite, SlotBlack}

var ErrInvalidSlot = errors.New("invalid slot")

func ParseSlot(s string) (Slot, error) {
	slot := Slot(s)
	if !slices.Contains(AllSlots, slot) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	return slot, nil
}

// Opponent returns the other side of the board.
func (s Slot) Opponent() Slot {
	if s == SlotWhite {
		return SlotBlack
	}
	return SlotWhite
}

func (s Slot) String() string {
	return string(s)
}

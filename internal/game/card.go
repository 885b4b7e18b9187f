package game

import (
	"fmt"
	"strconv"
	"strings"
)

// CardID locates one cell of the board. The wire form is "item.<row>.<col>"
// and must round-trip exactly for grid lookups.
type CardID struct {
	Row int
	Col int
}

const cardPrefix = "item"

// ParseCardID parses the structural 3-part wire form.
func ParseCardID(s string) (CardID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] != cardPrefix {
		return CardID{}, fmt.Errorf("malformed card id %q", s)
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil {
		return CardID{}, fmt.Errorf("malformed card id %q: %w", s, err)
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil {
		return CardID{}, fmt.Errorf("malformed card id %q: %w", s, err)
	}
	return CardID{Row: row, Col: col}, nil
}

func (c CardID) String() string {
	return fmt.Sprintf("%s.%d.%d", cardPrefix, c.Row, c.Col)
}

// index flattens the card position onto a board of the given side length.
func (c CardID) index(size int) int {
	return c.Row*size + c.Col
}

// inBounds reports whether the card lies on a board of the given side length.
func (c CardID) inBounds(size int) bool {
	return c.Row >= 0 && c.Row < size && c.Col >= 0 && c.Col < size
}

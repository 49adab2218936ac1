package game

// placementKind enumerates the three outcomes of playing a card against the
// table rows.
type placementKind int

const (
	placeExtend placementKind = iota
	placeForcedChoice
	placeClaimAndReset
)

type placement struct {
	kind     placementKind
	rowIndex int
	claimed  []Card
}

// rowLayout is the shared table state: a fixed number of ordered rows, each
// append-only until claimed. The head of a row is its last card's face.
type rowLayout struct {
	rows     [][]Card
	capacity int
}

// newRowLayout seeds one row per card. Seed cards must have distinct faces;
// the deck guarantees that, so a duplicate here is a fault.
func newRowLayout(seed []Card, capacity int) (*rowLayout, error) {
	rl := &rowLayout{
		rows:     make([][]Card, 0, len(seed)),
		capacity: capacity,
	}
	for _, c := range seed {
		rl.rows = append(rl.rows, []Card{c})
	}
	if err := rl.checkHeads(); err != nil {
		return nil, err
	}
	return rl, nil
}

func (rl *rowLayout) head(i int) int {
	row := rl.rows[i]
	return row[len(row)-1].Face
}

// place resolves where a card lands. The card extends the row whose head is
// the closest below its face; if every head is above it, the owner owes a
// row choice; if the target row is already at capacity, the row is claimed
// and reset to the played card.
func (rl *rowLayout) place(c Card) (placement, error) {
	if err := rl.checkHeads(); err != nil {
		return placement{}, err
	}

	target := -1
	bestGap := 0
	for i := range rl.rows {
		gap := c.Face - rl.head(i)
		if gap <= 0 {
			continue
		}
		if target == -1 || gap < bestGap {
			target = i
			bestGap = gap
		}
	}

	if target == -1 {
		return placement{kind: placeForcedChoice}, nil
	}

	if len(rl.rows[target]) >= rl.capacity {
		claimed := rl.rows[target]
		rl.rows[target] = []Card{c}
		return placement{kind: placeClaimAndReset, rowIndex: target, claimed: claimed}, nil
	}

	rl.rows[target] = append(rl.rows[target], c)
	return placement{kind: placeExtend, rowIndex: target}, nil
}

// claim empties the chosen row into the claimer's penalty pile and restarts
// the row with the card whose placement forced the choice.
func (rl *rowLayout) claim(rowIndex int, pending Card) ([]Card, error) {
	if rowIndex < 0 || rowIndex >= len(rl.rows) {
		return nil, ErrBadRowIndex
	}
	if len(rl.rows[rowIndex]) == 0 {
		return nil, faultf("claim against empty row %d", rowIndex)
	}
	claimed := rl.rows[rowIndex]
	rl.rows[rowIndex] = []Card{pending}
	return claimed, nil
}

// shortestRow is the timeout fallback target: fewest cards, lowest index on
// ties.
func (rl *rowLayout) shortestRow() int {
	best := 0
	for i := 1; i < len(rl.rows); i++ {
		if len(rl.rows[i]) < len(rl.rows[best]) {
			best = i
		}
	}
	return best
}

// checkHeads enforces the no-two-rows-share-a-head invariant. A violation
// would make the smallest-gap rule ambiguous, so it is never guessed around.
func (rl *rowLayout) checkHeads() error {
	seen := make(map[int]int, len(rl.rows))
	for i := range rl.rows {
		if len(rl.rows[i]) == 0 {
			return faultf("row %d is empty", i)
		}
		if len(rl.rows[i]) > rl.capacity {
			return faultf("row %d above capacity: %d cards", i, len(rl.rows[i]))
		}
		h := rl.head(i)
		if j, dup := seen[h]; dup {
			return faultf("rows %d and %d share head %d", j, i, h)
		}
		seen[h] = i
	}
	return nil
}

// snapshot deep-copies the rows for outbound packets.
func (rl *rowLayout) snapshot() [][]Card {
	out := make([][]Card, len(rl.rows))
	for i, row := range rl.rows {
		out[i] = append([]Card(nil), row...)
	}
	return out
}

func (rl *rowLayout) cardCount() int {
	n := 0
	for _, row := range rl.rows {
		n += len(row)
	}
	return n
}

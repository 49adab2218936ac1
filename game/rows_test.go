package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(face int) Card {
	return Card{Face: face, Penalty: penaltyWeight(VariantTakeSix, face)}
}

func cards(faces ...int) []Card {
	out := make([]Card, 0, len(faces))
	for _, f := range faces {
		out = append(out, card(f))
	}
	return out
}

func TestRowLayout_PlacementScenario(t *testing.T) {
	t.Parallel()
	// four rows with heads 5, 12, 20, 88 and capacity 6
	rl, err := newRowLayout(cards(5, 12, 20, 88), 6)
	require.NoError(t, err)

	// 19 extends the head-12 row: smallest positive gap (7)
	pl, err := rl.place(card(19))
	require.NoError(t, err)
	assert.Equal(t, placeExtend, pl.kind)
	assert.Equal(t, 1, pl.rowIndex)
	assert.Equal(t, 19, rl.head(1))

	// 3 sits below every head: the owner owes a row choice
	pl, err = rl.place(card(3))
	require.NoError(t, err)
	assert.Equal(t, placeForcedChoice, pl.kind)

	// 41 extends the head-20 row (gap 21 beats 22 against head 19)
	pl, err = rl.place(card(41))
	require.NoError(t, err)
	assert.Equal(t, placeExtend, pl.kind)
	assert.Equal(t, 2, pl.rowIndex)
	assert.Equal(t, 41, rl.head(2))
}

func TestRowLayout_ClaimAndResetAtCapacity(t *testing.T) {
	t.Parallel()
	rl, err := newRowLayout(cards(1, 50), 3)
	require.NoError(t, err)

	for _, f := range []int{2, 3} {
		pl, err := rl.place(card(f))
		require.NoError(t, err)
		require.Equal(t, placeExtend, pl.kind)
	}

	// row 0 holds 1,2,3 at capacity; the next fitting card claims it
	pl, err := rl.place(card(10))
	require.NoError(t, err)
	assert.Equal(t, placeClaimAndReset, pl.kind)
	assert.Equal(t, 0, pl.rowIndex)
	assert.Equal(t, cards(1, 2, 3), pl.claimed)
	assert.Equal(t, []Card{card(10)}, rl.rows[0])
}

func TestRowLayout_ClaimResetsToPendingCard(t *testing.T) {
	t.Parallel()
	rl, err := newRowLayout(cards(10, 20), 5)
	require.NoError(t, err)

	claimed, err := rl.claim(1, card(4))
	require.NoError(t, err)
	assert.Equal(t, cards(20), claimed)
	assert.Equal(t, []Card{card(4)}, rl.rows[1])
	assert.Len(t, rl.rows, 2)
}

func TestRowLayout_ClaimBadIndex(t *testing.T) {
	t.Parallel()
	rl, err := newRowLayout(cards(10, 20), 5)
	require.NoError(t, err)

	_, err = rl.claim(2, card(4))
	assert.ErrorIs(t, err, ErrBadRowIndex)
	_, err = rl.claim(-1, card(4))
	assert.ErrorIs(t, err, ErrBadRowIndex)
}

func TestRowLayout_DuplicateHeadsAreAFault(t *testing.T) {
	t.Parallel()
	_, err := newRowLayout(cards(7, 7), 5)
	require.Error(t, err)
	assert.True(t, IsFault(err))

	// corrupt an existing layout and make sure place refuses to guess
	rl, err := newRowLayout(cards(5, 9), 5)
	require.NoError(t, err)
	rl.rows[1] = []Card{card(5)}
	_, err = rl.place(card(30))
	require.Error(t, err)
	assert.True(t, IsFault(err))
}

func TestRowLayout_ShortestRowPrefersLowestIndex(t *testing.T) {
	t.Parallel()
	rl, err := newRowLayout(cards(5, 12, 20, 88), 6)
	require.NoError(t, err)

	// all rows equal: lowest index wins
	assert.Equal(t, 0, rl.shortestRow())

	_, err = rl.place(card(6))
	require.NoError(t, err)
	// row 0 now has two cards; row 1 is the first of the shortest
	assert.Equal(t, 1, rl.shortestRow())
}

func TestRowLayout_SnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()
	rl, err := newRowLayout(cards(5, 12), 5)
	require.NoError(t, err)

	snap := rl.snapshot()
	snap[0][0] = card(99)
	assert.Equal(t, 5, rl.head(0))
	assert.Equal(t, 2, rl.cardCount())
}

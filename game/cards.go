package game

import "math/rand"

// Card is a single playing card. Face values are unique across a deck, so
// Face alone identifies a card; Penalty is the bullhead weight whoever is
// forced to take it pays.
type Card struct {
	Face    int `json:"face"`
	Penalty int `json:"penalty"`
}

// newDeck builds the full, sorted card universe for the given rules.
func newDeck(r Rules) []Card {
	deck := make([]Card, 0, r.DeckSize)
	for face := 1; face <= r.DeckSize; face++ {
		deck = append(deck, Card{Face: face, Penalty: penaltyWeight(r.Variant, face)})
	}
	return deck
}

// penaltyWeight maps a face value to its bullhead count.
//
// Take6 uses the classic distribution: 55 carries 7, multiples of 11 carry 5,
// multiples of 10 carry 3, remaining multiples of 5 carry 2, everything else 1.
// Top Hog weights by divisibility bands of 4.
func penaltyWeight(v Variant, face int) int {
	switch v {
	case VariantTopHog:
		switch {
		case face%16 == 0:
			return 5
		case face%8 == 0:
			return 3
		case face%4 == 0:
			return 2
		default:
			return 1
		}
	default:
		switch {
		case face == 55:
			return 7
		case face%11 == 0:
			return 5
		case face%10 == 0:
			return 3
		case face%5 == 0:
			return 2
		default:
			return 1
		}
	}
}

func shuffleDeck(rng *rand.Rand, deck []Card) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

func sumPenalty(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Penalty
	}
	return total
}

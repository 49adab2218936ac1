package game

import "time"

// Variant selects which of the two hosted games a room plays. Both share the
// same engine; they differ only in deck composition and scoring parameters.
type Variant string

const (
	VariantTakeSix Variant = "take6"
	VariantTopHog  Variant = "tophog"
)

// Rules holds every tunable the engine consumes. The zero value is not
// usable; start from a preset and override.
type Rules struct {
	Variant Variant

	DeckSize    int // card faces run 1..DeckSize, one card per face
	RowCount    int
	RowCapacity int // a card extending a row already at capacity claims it
	HandSize    int

	MinPlayers int
	MaxPlayers int

	// PenaltyLimit ends the match once any player's accumulated penalty
	// reaches it. MaxRounds caps the match length regardless.
	PenaltyLimit int
	MaxRounds    int

	ChoiceTimeout time.Duration
}

func TakeSixRules() Rules {
	return Rules{
		Variant:       VariantTakeSix,
		DeckSize:      104,
		RowCount:      4,
		RowCapacity:   5,
		HandSize:      10,
		MinPlayers:    2,
		MaxPlayers:    10,
		PenaltyLimit:  66,
		MaxRounds:     100,
		ChoiceTimeout: 30 * time.Second,
	}
}

func TopHogRules() Rules {
	return Rules{
		Variant:       VariantTopHog,
		DeckSize:      80,
		RowCount:      5,
		RowCapacity:   6,
		HandSize:      8,
		MinPlayers:    2,
		MaxPlayers:    8,
		PenaltyLimit:  50,
		MaxRounds:     80,
		ChoiceTimeout: 30 * time.Second,
	}
}

// RulesForVariant returns the preset for the named variant.
func RulesForVariant(v Variant) (Rules, error) {
	switch v {
	case VariantTakeSix:
		return TakeSixRules(), nil
	case VariantTopHog:
		return TopHogRules(), nil
	default:
		return Rules{}, ErrUnknownVariant
	}
}

// Validate rejects rule sets that cannot produce a playable match, e.g. a
// deck too small to seed the rows and deal every hand.
func (r Rules) Validate() error {
	if r.RowCount < 1 || r.RowCapacity < 1 || r.HandSize < 1 {
		return ErrInvalidRules
	}
	if r.MinPlayers < 2 || r.MaxPlayers < r.MinPlayers {
		return ErrInvalidRules
	}
	if r.DeckSize < r.RowCount+r.MaxPlayers*r.HandSize {
		return ErrInvalidRules
	}
	if r.PenaltyLimit < 1 || r.MaxRounds < 1 || r.ChoiceTimeout <= 0 {
		return ErrInvalidRules
	}
	return nil
}

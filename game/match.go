package game

import (
	"math/rand"
	"sort"
)

// Phase is the single authoritative lifecycle value of a match.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseDealing
	PhasePlaying
	PhaseProcessingTurn
	PhaseWaitingForChoice
	PhaseRoundOver
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDealing:
		return "dealing"
	case PhasePlaying:
		return "playing"
	case PhaseProcessingTurn:
		return "processing_turn"
	case PhaseWaitingForChoice:
		return "waiting_for_player_choice"
	case PhaseRoundOver:
		return "round_over"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

type submission struct {
	player string
	card   Card
}

type pendingChoice struct {
	player string
	card   Card
}

// match is the aggregate behind one room: deck, rows, hands, penalty piles
// and the round-scoped transient state. It is not safe for concurrent use;
// the owning room serializes every call.
type match struct {
	rules Rules
	rng   *rand.Rand

	phase Phase
	round int

	deck  []Card
	rows  *rowLayout
	seats []string // join order; stable ranking tie-break

	hands  map[string][]Card
	taken  map[string][]Card
	scores map[string]int

	submissions map[string]Card
	queue       []submission
	pending     *pendingChoice
}

func newMatch(rules Rules, rng *rand.Rand, players []string) *match {
	m := &match{
		rules:       rules,
		rng:         rng,
		phase:       PhaseWaiting,
		seats:       append([]string(nil), players...),
		hands:       make(map[string][]Card, len(players)),
		taken:       make(map[string][]Card, len(players)),
		scores:      make(map[string]int, len(players)),
		submissions: make(map[string]Card, len(players)),
	}
	for _, p := range players {
		m.hands[p] = nil
		m.taken[p] = nil
		m.scores[p] = 0
	}
	return m
}

// start shuffles a fresh deck, deals every hand and seeds the rows, then
// opens the first round.
func (m *match) start() ([]Event, error) {
	if m.phase != PhaseWaiting {
		return nil, ErrWrongPhase
	}
	if len(m.seats) < m.rules.MinPlayers {
		return nil, ErrWrongPhase
	}

	m.phase = PhaseDealing
	m.deck = newDeck(m.rules)
	shuffleDeck(m.rng, m.deck)

	for _, p := range m.seats {
		m.hands[p] = m.drawCards(m.rules.HandSize)
	}

	rows, err := newRowLayout(m.drawCards(m.rules.RowCount), m.rules.RowCapacity)
	if err != nil {
		return nil, err
	}
	m.rows = rows

	m.round = 1
	m.phase = PhasePlaying
	return m.roundStartedEvents(), nil
}

// submitCard records one player's simultaneous pick for the round. Once the
// last active player has submitted, resolution runs immediately.
func (m *match) submitCard(player string, face int) ([]Event, error) {
	if m.phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	hand, ok := m.hands[player]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if _, dup := m.submissions[player]; dup {
		return nil, ErrAlreadySubmitted
	}

	idx := -1
	for i, c := range hand {
		if c.Face == face {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrCardNotInHand
	}

	card := hand[idx]
	m.hands[player] = append(hand[:idx:idx], hand[idx+1:]...)
	m.submissions[player] = card

	events := []Event{{
		Kind:    EventCardSubmitted,
		Payload: CardSubmittedPayload{UserID: player},
	}}

	if len(m.submissions) < len(m.hands) {
		return events, nil
	}

	m.phase = PhaseProcessingTurn
	m.queue = m.sortedQueue()
	resolved, err := m.resolve()
	return append(events, resolved...), err
}

// sortedQueue orders this round's submissions ascending by face value. Faces
// are unique across the deck, so the order is total.
func (m *match) sortedQueue() []submission {
	queue := make([]submission, 0, len(m.submissions))
	for p, c := range m.submissions {
		queue = append(queue, submission{player: p, card: c})
	}
	sort.Slice(queue, func(i, j int) bool {
		return queue[i].card.Face < queue[j].card.Face
	})
	return queue
}

// resolve applies queued submissions strictly in ascending order. A forced
// choice suspends the queue; later submissions wait until it is resolved.
func (m *match) resolve() ([]Event, error) {
	var events []Event
	for len(m.queue) > 0 {
		sub := m.queue[0]
		pl, err := m.rows.place(sub.card)
		if err != nil {
			return events, err
		}
		m.queue = m.queue[1:]

		switch pl.kind {
		case placeExtend:
			events = append(events, Event{
				Kind:    EventCardPlaced,
				Payload: CardPlacedPayload{UserID: sub.player, Card: sub.card, RowIndex: pl.rowIndex},
			})

		case placeClaimAndReset:
			penalty, err := m.take(sub.player, pl.claimed)
			if err != nil {
				return events, err
			}
			events = append(events, Event{
				Kind: EventRowClaimed,
				Payload: RowClaimedPayload{
					UserID:   sub.player,
					RowIndex: pl.rowIndex,
					Claimed:  pl.claimed,
					Penalty:  penalty,
				},
			})

		case placeForcedChoice:
			m.phase = PhaseWaitingForChoice
			m.pending = &pendingChoice{player: sub.player, card: sub.card}
			events = append(events, Event{
				Kind:    EventChoiceRequested,
				Payload: ChoiceRequestedPayload{UserID: sub.player},
			})
			return events, nil
		}
	}

	finished, err := m.finishRound()
	return append(events, finished...), err
}

// chooseRow resolves a pending forced choice with the owner's explicit pick.
func (m *match) chooseRow(player string, rowIndex int) ([]Event, error) {
	if m.phase != PhaseWaitingForChoice || m.pending == nil {
		return nil, ErrNoPendingChoice
	}
	if m.pending.player != player {
		return nil, ErrNotYourChoice
	}
	return m.applyChoice(rowIndex, true)
}

// resolveChoiceTimeout applies the fallback policy: fewest cards, lowest
// index. A timeout racing an already-applied choice is a no-op, not an
// error; the forced-choice phase has simply closed.
func (m *match) resolveChoiceTimeout(player string) ([]Event, error) {
	if m.phase != PhaseWaitingForChoice || m.pending == nil || m.pending.player != player {
		return nil, nil
	}
	return m.applyChoice(m.rows.shortestRow(), false)
}

func (m *match) applyChoice(rowIndex int, byChoice bool) ([]Event, error) {
	pending := *m.pending
	claimed, err := m.rows.claim(rowIndex, pending.card)
	if err != nil {
		return nil, err
	}
	penalty, err := m.take(pending.player, claimed)
	if err != nil {
		return nil, err
	}

	m.pending = nil
	m.phase = PhaseProcessingTurn

	events := []Event{{
		Kind: EventRowClaimed,
		Payload: RowClaimedPayload{
			UserID:   pending.player,
			RowIndex: rowIndex,
			Claimed:  claimed,
			Penalty:  penalty,
			ByChoice: byChoice,
		},
	}}

	resolved, err := m.resolve()
	return append(events, resolved...), err
}

// take moves claimed cards into a player's penalty pile and accrues their
// weights on the ledger. The ledger is monotonically non-decreasing.
func (m *match) take(player string, claimed []Card) (int, error) {
	penalty := sumPenalty(claimed)
	if penalty < 0 {
		return 0, faultf("negative penalty %d for %s", penalty, player)
	}
	m.taken[player] = append(m.taken[player], claimed...)
	m.scores[player] += penalty
	return penalty, nil
}

// finishRound closes the round, then either ends the match, or replenishes
// hands from the deck and opens the next round.
func (m *match) finishRound() ([]Event, error) {
	m.phase = PhaseRoundOver
	m.submissions = make(map[string]Card, len(m.hands))
	m.queue = nil

	events := []Event{{
		Kind:    EventRoundEnded,
		Payload: RoundEndedPayload{Round: m.round, Scores: m.scoresBySeat()},
	}}

	if m.penaltyLimitReached() {
		return append(events, m.gameOverEvent()), nil
	}

	m.phase = PhaseDealing
	for _, p := range m.seats {
		if _, active := m.hands[p]; !active {
			continue
		}
		if len(m.deck) > 0 {
			m.hands[p] = append(m.hands[p], m.drawCards(1)...)
		}
	}

	if m.round >= m.rules.MaxRounds || m.anyHandEmpty() {
		return append(events, m.gameOverEvent()), nil
	}

	m.round++
	m.phase = PhasePlaying
	return append(events, m.roundStartedEvents()...), nil
}

// retirePlayer removes a departed player from the active set. A choice they
// owe resolves by the fallback immediately; a round waiting only on them
// proceeds without them.
func (m *match) retirePlayer(player string) ([]Event, error) {
	if _, ok := m.hands[player]; !ok {
		return nil, ErrUnknownPlayer
	}

	delete(m.hands, player)
	delete(m.submissions, player)
	for i, sub := range m.queue {
		if sub.player == player {
			m.queue = append(m.queue[:i:i], m.queue[i+1:]...)
			break
		}
	}

	if m.phase == PhaseWaitingForChoice && m.pending != nil && m.pending.player == player {
		return m.resolveChoiceTimeout(player)
	}

	if m.phase == PhasePlaying && len(m.hands) > 0 && len(m.submissions) == len(m.hands) {
		m.phase = PhaseProcessingTurn
		m.queue = m.sortedQueue()
		return m.resolve()
	}

	return nil, nil
}

func (m *match) activePlayerCount() int {
	return len(m.hands)
}

// rankings orders active players ascending by penalty total; seat (join)
// order breaks ties so the result is deterministic.
func (m *match) rankings() []Ranking {
	ranked := make([]Ranking, 0, len(m.hands))
	for _, p := range m.seats {
		if _, active := m.hands[p]; !active {
			continue
		}
		ranked = append(ranked, Ranking{UserID: p, Score: m.scores[p]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func (m *match) gameOverEvent() Event {
	m.phase = PhaseGameOver
	return Event{
		Kind:    EventMatchEnded,
		Payload: MatchEndedPayload{Rankings: m.rankings()},
	}
}

func (m *match) roundStartedEvents() []Event {
	rows := m.rows.snapshot()
	scores := m.scoresBySeat()
	events := make([]Event, 0, len(m.hands))
	for _, p := range m.seats {
		hand, active := m.hands[p]
		if !active {
			continue
		}
		events = append(events, Event{
			Kind: EventRoundStarted,
			Payload: RoundStartedPayload{
				Round:  m.round,
				Hand:   append([]Card(nil), hand...),
				Rows:   rows,
				Scores: scores,
			},
			Recipients: []string{p},
		})
	}
	return events
}

func (m *match) scoresBySeat() []PlayerScore {
	scores := make([]PlayerScore, 0, len(m.hands))
	for _, p := range m.seats {
		if _, active := m.hands[p]; !active {
			continue
		}
		scores = append(scores, PlayerScore{UserID: p, Score: m.scores[p]})
	}
	return scores
}

func (m *match) penaltyLimitReached() bool {
	for p := range m.hands {
		if m.scores[p] >= m.rules.PenaltyLimit {
			return true
		}
	}
	return false
}

func (m *match) anyHandEmpty() bool {
	for _, hand := range m.hands {
		if len(hand) == 0 {
			return true
		}
	}
	return false
}

func (m *match) drawCards(n int) []Card {
	if n > len(m.deck) {
		n = len(m.deck)
	}
	drawn := append([]Card(nil), m.deck[:n]...)
	m.deck = m.deck[n:]
	return drawn
}

// totalCardCount sums every card the match still tracks: deck, hands, rows,
// penalty piles and in-flight submissions. Used by the conservation checks.
func (m *match) totalCardCount() int {
	n := len(m.deck) + m.rows.cardCount()
	for _, hand := range m.hands {
		n += len(hand)
	}
	for _, pile := range m.taken {
		n += len(pile)
	}
	switch m.phase {
	case PhasePlaying:
		n += len(m.submissions)
	case PhaseProcessingTurn, PhaseWaitingForChoice:
		n += len(m.queue)
		if m.pending != nil {
			n++
		}
	}
	return n
}

package game

// EventKind identifies engine events the room layer turns into packets.
type EventKind string

const (
	EventRoundStarted    EventKind = "round_started"
	EventCardSubmitted   EventKind = "card_submitted"
	EventCardPlaced      EventKind = "card_placed"
	EventRowClaimed      EventKind = "row_claimed"
	EventChoiceRequested EventKind = "choice_requested"
	EventRoundEnded      EventKind = "round_ended"
	EventMatchEnded      EventKind = "match_ended"
)

// Event is an engine event with optional targeted recipients; an empty
// Recipients list means broadcast to the whole room.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string
}

// PlayerScore is one ledger entry, ordered by seat in every payload so
// encoded packets stay deterministic.
type PlayerScore struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

type RoundStartedPayload struct {
	Round  int           `json:"round"`
	Hand   []Card        `json:"hand"`
	Rows   [][]Card      `json:"rows"`
	Scores []PlayerScore `json:"scores"`
}

type CardSubmittedPayload struct {
	UserID string `json:"userId"`
}

type CardPlacedPayload struct {
	UserID   string `json:"userId"`
	Card     Card   `json:"card"`
	RowIndex int    `json:"rowIndex"`
}

type RowClaimedPayload struct {
	UserID   string `json:"userId"`
	RowIndex int    `json:"rowIndex"`
	Claimed  []Card `json:"claimed"`
	Penalty  int    `json:"penalty"`
	ByChoice bool   `json:"byChoice"`
}

// ChoiceRequestedPayload leaves DeadlineUnixMs zero inside the engine; the
// room layer stamps it when it arms the timeout.
type ChoiceRequestedPayload struct {
	UserID         string `json:"userId"`
	DeadlineUnixMs int64  `json:"deadlineUnixMs,omitempty"`
}

type RoundEndedPayload struct {
	Round  int           `json:"round"`
	Scores []PlayerScore `json:"scores"`
}

// Ranking is one final standing: rank 1 is the lowest penalty total.
type Ranking struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

type MatchEndedPayload struct {
	Rankings []Ranking `json:"rankings"`
}

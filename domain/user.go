package domain

// User is an account row as the rest of the app sees it. The game engine only
// ever touches the Id, which it treats as an opaque key.
type User struct {
	Id           string
	Username     string
	PasswordHash string
}

// MatchResult is the write-once summary persisted per player when a room
// reaches game over.
type MatchResult struct {
	UserID       string
	RoomID       string
	FinalScore   int
	Rank         int
	RoomAvgScore float64
}

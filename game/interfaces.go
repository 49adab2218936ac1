package game

import (
	"context"
	"time"

	"github.com/wmsir/take6-all-sub001/domain"
)

// NetworkSession is one player's transport connection, abstracted so the
// actors never touch websocket types directly.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type UserGetter interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}

// MatchReporter persists final standings once a match ends. Called off the
// room goroutine; a slow reporter never stalls a room.
type MatchReporter interface {
	SaveMatchResults(ctx context.Context, results []domain.MatchResult) error
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(d time.Duration) <-chan time.Time
}

// Scheduler arms a one-shot deferred callback. The returned func cancels it;
// cancelling after the callback ran is a no-op.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// Room is the lobby's handle on one room actor.
type Room interface {
	GameLoop()
	RequestJoin(jreq roomJoinRequest)
	Tick(now time.Time)
	PingPlayers()
	SetId(id string)
	SetParentLobby(l Lobby)
	Description() roomDescription
	CloseAndRelease()
}

// Lobby is a room's handle back to the registry that owns it.
type Lobby interface {
	RemoveRoom(roomId string)
	RequestUpdateDescription(desc roomDescription)
}

package game

import (
	"encoding/json"
	"sync"

	"golang.org/x/time/rate"
)

// Player is the connection-side actor: one read pump feeding the room inbox,
// one write pump draining its own outbox. The room never blocks on a slow
// player.
type Player struct {
	id          string
	username    string
	rateLimiter *rate.Limiter
	socket      NetworkSession
	inbox       chan []byte
	pingChan    chan struct{}
	room        *room
	releaseOnce sync.Once
}

func NewPlayer(id, username string, socket NetworkSession) *Player {
	return &Player{
		id:          id,
		username:    username,
		rateLimiter: rate.NewLimiter(4, 8),
		socket:      socket,
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
	}
}

// SetRoom must be called before the pumps start; afterwards only the room
// goroutine touches the player.
func (p *Player) SetRoom(r *room) { p.room = r }

func (p *Player) ReadPump() {
	room := p.room
	defer room.RequestRemovePlayer(p)

	for {
		data, err := p.socket.Read()
		if err != nil {
			break
		}
		if !p.rateLimiter.Allow() {
			continue
		}
		var packet ClientPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			continue
		}
		select {
		case room.inbox <- clientPacketEnvelope{packet: packet, from: p}:
		case <-room.done:
			return
		}
	}
}

func (p *Player) WritePump() {
loop:
	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				break loop
			}
			if err := p.socket.Write(data); err != nil {
				break loop
			}
		case _, ok := <-p.pingChan:
			if !ok {
				break loop
			}
			if err := p.socket.Ping(); err != nil {
				break loop
			}
		}
	}
}

// send queues outbound data without blocking the room actor. A player whose
// outbox stays full misses packets and gets dropped by the ping cycle.
func (p *Player) send(data []byte) {
	select {
	case p.inbox <- data:
	default:
	}
}

func (p *Player) ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// release shuts both pumps down exactly once.
func (p *Player) release(errCode string) {
	p.releaseOnce.Do(func() {
		close(p.inbox)
		close(p.pingChan)
		p.socket.Close(errCode)
	})
}

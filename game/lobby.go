package game

import (
	"context"
	"time"
)

type addRoomRequest struct {
	room     Room
	respChan chan addRoomResponse
}

type addRoomResponse struct {
	id  string
	err error
}

// lobby is the registry actor: the only goroutine that touches the room
// index. Rooms run in parallel; the lobby just routes joins, fans out ticks
// and pings, and retires finished rooms.
type lobby struct {
	rooms                map[string]Room
	pubRoomsDescriptions map[string]roomDescription
	maxRooms             int

	addRoomReqs    chan addRoomRequest
	removeRoomChan chan string
	pubGamesReq    chan chan []roomDescription
	roomDescUpdate chan roomDescription
	roomJoinReqs   chan roomJoinRequest

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, maxRooms int) *lobby {
	return &lobby{
		rooms:                map[string]Room{},
		pubRoomsDescriptions: map[string]roomDescription{},
		maxRooms:             maxRooms,
		addRoomReqs:          make(chan addRoomRequest, 32),
		removeRoomChan:       make(chan string, 32),
		pubGamesReq:          make(chan chan []roomDescription, 256),
		roomDescUpdate:       make(chan roomDescription, 256),
		roomJoinReqs:         make(chan roomJoinRequest, 256),
		idGenerator:          idgen,
		tickerCreator:        tickerCreator,
	}
}

// AddAndRunRoom registers the room, assigns its id and starts its loop.
func (l *lobby) AddAndRunRoom(ctx context.Context, r Room) (string, error) {
	respChan := make(chan addRoomResponse, 1)
	select {
	case l.addRoomReqs <- addRoomRequest{room: r, respChan: respChan}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case resp := <-respChan:
		return resp.id, resp.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	select {
	case l.roomJoinReqs <- jreq:
	case <-ctx.Done():
	}
}

// RemoveRoom is called from room goroutines; the buffered channel keeps a
// retiring room from stalling behind a busy lobby.
func (l *lobby) RemoveRoom(roomId string) {
	l.removeRoomChan <- roomId
}

func (l *lobby) RequestUpdateDescription(desc roomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *lobby) GetPublicGames(ctx context.Context) []roomDescription {
	respChan := make(chan []roomDescription, 1)
	select {
	case l.pubGamesReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case req := <-l.addRoomReqs:
			l.handleAddAndRunRoom(req)

		case roomId := <-l.removeRoomChan:
			l.handleRemoveRoom(roomId)

		case desc := <-l.roomDescUpdate:
			l.handleDescriptionUpdate(desc)

		case pubGamesReq := <-l.pubGamesReq:
			l.handleGetPublicRoomsDescription(pubGamesReq)

		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(req addRoomRequest) {
	if len(l.rooms) >= l.maxRooms {
		req.respChan <- addRoomResponse{err: ErrLobbyFull}
		return
	}

	id := l.idGenerator.Generate()
	req.room.SetParentLobby(l)
	req.room.SetId(id)
	l.rooms[id] = req.room

	desc := req.room.Description()
	go req.room.GameLoop()
	if !desc.private {
		l.pubRoomsDescriptions[id] = desc
	}
	req.respChan <- addRoomResponse{id: id}
}

func (l *lobby) handleRemoveRoom(toRemoveId string) {
	room, ok := l.rooms[toRemoveId]
	if !ok {
		return
	}
	delete(l.rooms, toRemoveId)
	delete(l.pubRoomsDescriptions, toRemoveId)
	room.CloseAndRelease()
	l.idGenerator.Dispose(toRemoveId)
}

func (l *lobby) handleDescriptionUpdate(desc roomDescription) {
	if _, ok := l.rooms[desc.id]; !ok {
		return
	}
	l.pubRoomsDescriptions[desc.id] = desc
}

func (l *lobby) handleGetPublicRoomsDescription(req chan []roomDescription) {
	descriptions := make([]roomDescription, 0, len(l.pubRoomsDescriptions))
	for _, description := range l.pubRoomsDescriptions {
		descriptions = append(descriptions, description)
	}
	req <- descriptions
}

func (l *lobby) handleJoinReq(joinReq roomJoinRequest) {
	room, ok := l.rooms[joinReq.roomId]
	if !ok {
		joinReq.errChan <- ErrRoomNotFound
		close(joinReq.errChan)
		return
	}
	room.RequestJoin(joinReq)
}

package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wmsir/take6-all-sub001/domain"
)

// Rooms that never start get reaped by the lobby tick.
const waitingExpiry = 10 * time.Minute

const reportTimeout = 10 * time.Second

type roomJoinRequest struct {
	roomId  string
	player  *Player
	errChan chan error
}

func NewRoomJoinRequest(roomId string, player *Player) roomJoinRequest {
	return roomJoinRequest{roomId: roomId, player: player, errChan: make(chan error, 1)}
}

type clientPacketEnvelope struct {
	packet ClientPacket
	from   *Player
}

type choiceTimeoutMsg struct {
	epoch  int
	userId string
}

type roomDescription struct {
	id           string
	name         string
	variant      Variant
	playersCount int
	size         int
	started      bool
	private      bool
}

type dataSendTask struct {
	data []byte
	to   []*Player // nil means broadcast
}

// room owns one match. Every mutation runs on the GameLoop goroutine; the
// exported methods only post messages into its channels.
type room struct {
	id        string
	name      string
	private   bool
	size      int
	rules     Rules
	lobby     Lobby
	createdAt time.Time

	players []*Player

	rng    *rand.Rand
	m      *match
	frozen bool

	choiceEpoch  int
	cancelChoice func()

	scheduler Scheduler
	reporter  MatchReporter
	logger    zerolog.Logger

	dataSendTasks []dataSendTask

	inbox           chan clientPacketEnvelope
	joinReqs        chan roomJoinRequest
	removalRequests chan *Player
	ticks           chan time.Time
	pingReqs        chan struct{}
	choiceTimeouts  chan choiceTimeoutMsg
	done            chan struct{}
	closeOnce       sync.Once
}

func NewRoom(name string, host *Player, rules Rules, size int, private bool, scheduler Scheduler, reporter MatchReporter, logger zerolog.Logger) *room {
	r := &room{
		name:            name,
		private:         private,
		size:            size,
		rules:           rules,
		createdAt:       time.Now(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		scheduler:       scheduler,
		reporter:        reporter,
		logger:          logger,
		players:         make([]*Player, 0, size),
		inbox:           make(chan clientPacketEnvelope, 1024),
		joinReqs:        make(chan roomJoinRequest, 32),
		removalRequests: make(chan *Player, 64),
		ticks:           make(chan time.Time, 24),
		pingReqs:        make(chan struct{}, 4),
		choiceTimeouts:  make(chan choiceTimeoutMsg, 8),
		done:            make(chan struct{}),
	}
	r.players = append(r.players, host)
	host.SetRoom(r)
	return r
}

func (r *room) SetId(id string) {
	r.id = id
	r.logger = r.logger.With().Str("room", id).Logger()
}

func (r *room) SetParentLobby(l Lobby) { r.lobby = l }

func (r *room) Description() roomDescription {
	return roomDescription{
		id:           r.id,
		name:         r.name,
		variant:      r.rules.Variant,
		playersCount: len(r.players),
		size:         r.size,
		started:      r.m != nil,
		private:      r.private,
	}
}

func (r *room) RequestJoin(jreq roomJoinRequest) {
	select {
	case r.joinReqs <- jreq:
	case <-r.done:
		jreq.errChan <- ErrRoomNotFound
		close(jreq.errChan)
	default:
		jreq.errChan <- ErrRoomFull
		close(jreq.errChan)
	}
}

func (r *room) RequestRemovePlayer(p *Player) {
	select {
	case r.removalRequests <- p:
	case <-r.done:
	}
}

func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingReqs <- struct{}{}:
	default:
	}
}

// CloseAndRelease asks the loop to stop; the loop itself releases players so
// no other goroutine ever touches room state.
func (r *room) CloseAndRelease() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *room) GameLoop() {
	r.logger.Info().Str("variant", string(r.rules.Variant)).Int("size", r.size).Msg("room running")
	r.broadcast(MakeRoomCreatedPacket(r.id, r.rules.Variant))
	r.flush()
	for {
		select {
		case <-r.done:
			r.cancelPendingTimer()
			for _, p := range r.players {
				p.release("")
			}
			r.players = nil
			r.logger.Info().Msg("room released")
			return
		case env := <-r.inbox:
			r.handleClientPacket(env)
		case jreq := <-r.joinReqs:
			r.handleJoinRequest(jreq)
		case p := <-r.removalRequests:
			r.handleRemovePlayer(p)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pingReqs:
			r.handlePingPlayers()
		case msg := <-r.choiceTimeouts:
			r.handleChoiceTimeout(msg)
		}
		r.flush()
	}
}

func (r *room) handleClientPacket(env clientPacketEnvelope) {
	if r.frozen {
		return
	}
	switch env.packet.Type {
	case packetSubmitCard:
		r.handleSubmitCardEnvelope(env)
	case packetChooseRow:
		r.handleChooseRowEnvelope(env)
	default:
		// unknown packet types are dropped, not answered
	}
}

func (r *room) handleSubmitCardEnvelope(env clientPacketEnvelope) {
	if r.m == nil {
		r.sendTo(env.from, MakeErrorPacket(ErrWrongPhase))
		return
	}
	events, err := r.m.submitCard(env.from.id, env.packet.Card)
	r.applyOutcome(events, err, env.from)
}

func (r *room) handleChooseRowEnvelope(env clientPacketEnvelope) {
	if r.m == nil {
		r.sendTo(env.from, MakeErrorPacket(ErrWrongPhase))
		return
	}
	events, err := r.m.chooseRow(env.from.id, env.packet.Row)
	r.applyOutcome(events, err, env.from)
}

func (r *room) handleChoiceTimeout(msg choiceTimeoutMsg) {
	if r.frozen || r.m == nil {
		return
	}
	// a stale epoch means the choice it was armed for has already resolved
	if msg.epoch != r.choiceEpoch {
		return
	}
	r.cancelChoice = nil
	events, err := r.m.resolveChoiceTimeout(msg.userId)
	r.applyOutcome(events, err, nil)
}

func (r *room) handleJoinRequest(jreq roomJoinRequest) {
	err := func() error {
		if r.frozen {
			return ErrRoomNotFound
		}
		if r.m != nil {
			return ErrRoomStarted
		}
		if len(r.players) >= r.size {
			return ErrRoomFull
		}
		return nil
	}()
	if err != nil {
		jreq.errChan <- err
		close(jreq.errChan)
		return
	}

	// the player's room pointer must be set before the caller is told to
	// start the pumps
	jreq.player.SetRoom(r)
	r.players = append(r.players, jreq.player)
	jreq.errChan <- nil
	close(jreq.errChan)
	r.broadcast(MakePlayerJoinedPacket(jreq.player.id, jreq.player.username, len(r.players)))
	r.updateDescription()

	if len(r.players) == r.size {
		r.startMatch()
	}
}

func (r *room) startMatch() {
	seats := make([]string, 0, len(r.players))
	for _, p := range r.players {
		seats = append(seats, p.id)
	}
	r.m = newMatch(r.rules, r.rng, seats)
	events, err := r.m.start()
	r.applyOutcome(events, err, nil)
	r.updateDescription()
}

func (r *room) handleRemovePlayer(toRemove *Player) {
	idx := -1
	for i, p := range r.players {
		if p == toRemove {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	toRemove.release("")
	r.broadcast(MakePlayerLeftPacket(toRemove.id, toRemove.username, len(r.players)))

	if r.m == nil || r.frozen {
		if len(r.players) == 0 {
			r.retire()
			return
		}
		r.updateDescription()
		return
	}

	if r.m.phase != PhaseGameOver {
		events, err := r.m.retirePlayer(toRemove.id)
		if err != nil && err != ErrUnknownPlayer {
			r.applyOutcome(events, err, nil)
		} else {
			r.applyOutcome(events, nil, nil)
		}

		if r.m.phase != PhaseGameOver && r.m.activePlayerCount() < r.rules.MinPlayers {
			r.broadcast(MakeRoomTerminatedPacket("not-enough-players"))
			r.retire()
			return
		}
	}

	if len(r.players) == 0 {
		r.retire()
		return
	}
	r.updateDescription()
}

func (r *room) handleTick(now time.Time) {
	if r.m == nil && now.Sub(r.createdAt) > waitingExpiry {
		r.broadcast(MakeRoomTerminatedPacket("idle"))
		r.retire()
	}
}

func (r *room) handlePingPlayers() {
	for _, p := range r.players {
		p.ping()
	}
}

// applyOutcome is the single sink for engine results: faults freeze the
// room, protocol errors bounce to the offender, events get timers armed and
// packets queued.
func (r *room) applyOutcome(events []Event, err error, offender *Player) {
	if err != nil && IsFault(err) {
		r.emitEvents(events)
		r.freeze(err)
		return
	}
	if err != nil && offender != nil {
		r.sendTo(offender, MakeErrorPacket(err))
	}

	matchEnded := false
	for i := range events {
		switch events[i].Kind {
		case EventRowClaimed:
			r.cancelPendingTimer()
		case EventChoiceRequested:
			r.armChoiceTimeout(&events[i])
		case EventMatchEnded:
			matchEnded = true
		}
	}

	r.emitEvents(events)

	if matchEnded {
		r.reportResults()
		r.retire()
	}
}

// armChoiceTimeout stamps the packet deadline and schedules the fallback.
// The timer posts back through the inbox-side channel so the firing races a
// player choice only at the serialization point.
func (r *room) armChoiceTimeout(ev *Event) {
	payload, ok := ev.Payload.(ChoiceRequestedPayload)
	if !ok {
		return
	}
	r.cancelPendingTimer()
	r.choiceEpoch++
	epoch := r.choiceEpoch
	userId := payload.UserID

	deadline := time.Now().Add(r.rules.ChoiceTimeout)
	payload.DeadlineUnixMs = deadline.UnixMilli()
	ev.Payload = payload

	r.cancelChoice = r.scheduler.Schedule(r.rules.ChoiceTimeout, func() {
		select {
		case r.choiceTimeouts <- choiceTimeoutMsg{epoch: epoch, userId: userId}:
		case <-r.done:
		}
	})
}

func (r *room) cancelPendingTimer() {
	if r.cancelChoice != nil {
		r.cancelChoice()
		r.cancelChoice = nil
	}
}

// freeze is the fault path: the room stops accepting play and is retired,
// never patched.
func (r *room) freeze(err error) {
	r.logger.Error().Err(err).Msg("room frozen on consistency fault")
	r.frozen = true
	r.broadcast(MakeRoomTerminatedPacket("internal-error"))
	r.retire()
}

func (r *room) retire() {
	r.cancelPendingTimer()
	if r.lobby != nil {
		r.lobby.RemoveRoom(r.id)
	}
}

// reportResults hands the finalized standings to the persistence
// collaborator off the room goroutine.
func (r *room) reportResults() {
	if r.reporter == nil {
		return
	}
	rankings := r.m.rankings()
	if len(rankings) == 0 {
		return
	}

	total := 0
	for _, rk := range rankings {
		total += rk.Score
	}
	avg := float64(total) / float64(len(rankings))

	results := make([]domain.MatchResult, 0, len(rankings))
	for _, rk := range rankings {
		results = append(results, domain.MatchResult{
			UserID:       rk.UserID,
			RoomID:       r.id,
			FinalScore:   rk.Score,
			Rank:         rk.Rank,
			RoomAvgScore: avg,
		})
	}

	reporter := r.reporter
	logger := r.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := reporter.SaveMatchResults(ctx, results); err != nil {
			logger.Error().Err(err).Msg("failed to persist match results")
		}
	}()
}

func (r *room) updateDescription() {
	if r.lobby == nil || r.private {
		return
	}
	r.lobby.RequestUpdateDescription(r.Description())
}

func (r *room) emitEvents(events []Event) {
	for _, ev := range events {
		data := MakeEventPacket(ev)
		if len(ev.Recipients) == 0 {
			r.broadcast(data)
			continue
		}
		to := make([]*Player, 0, len(ev.Recipients))
		for _, id := range ev.Recipients {
			for _, p := range r.players {
				if p.id == id {
					to = append(to, p)
					break
				}
			}
		}
		r.dataSendTasks = append(r.dataSendTasks, dataSendTask{data: data, to: to})
	}
}

func (r *room) broadcast(data []byte) {
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{data: data})
}

func (r *room) sendTo(p *Player, data []byte) {
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{data: data, to: []*Player{p}})
}

func (r *room) flush() {
	for _, task := range r.dataSendTasks {
		if task.to == nil {
			for _, p := range r.players {
				p.send(task.data)
			}
			continue
		}
		for _, p := range task.to {
			p.send(task.data)
		}
	}
	r.dataSendTasks = r.dataSendTasks[:0]
}

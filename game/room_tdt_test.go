package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wmsir/take6-all-sub001/domain"
)

type decodedPacket struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func decodeTask(t *testing.T, task dataSendTask) decodedPacket {
	t.Helper()
	var p decodedPacket
	require.NoError(t, json.Unmarshal(task.data, &p))
	return p
}

// takeTasks drains the room outbox the way flush would, returning what was
// queued since the last call.
func takeTasks(r *room) []dataSendTask {
	tasks := r.dataSendTasks
	r.dataSendTasks = nil
	return tasks
}

func taskTypes(t *testing.T, tasks []dataSendTask) []string {
	t.Helper()
	types := make([]string, 0, len(tasks))
	for _, task := range tasks {
		types = append(types, decodeTask(t, task).Type)
	}
	return types
}

func newTestRoom(t *testing.T, size int) (*room, *manualScheduler, *captureReporter, *MockLobby, *Player) {
	t.Helper()
	sched := &manualScheduler{}
	reporter := newCaptureReporter()
	host := NewPlayer("alice", "Alice", fakeSession{})
	r := NewRoom("test room", host, TakeSixRules(), size, false, sched, reporter, zerolog.Nop())
	r.SetId("rid")

	l := &MockLobby{}
	l.On("RequestUpdateDescription", mock.Anything).Return()
	l.On("RemoveRoom", "rid").Return()
	r.SetParentLobby(l)
	return r, sched, reporter, l, host
}

// rigMatch replaces the shuffled state with a fixed one so the scenario is
// deterministic.
func rigMatch(t *testing.T, r *room, hands map[string][]Card, rowSeeds []Card) {
	t.Helper()
	require.NotNil(t, r.m)
	rows, err := newRowLayout(rowSeeds, r.rules.RowCapacity)
	require.NoError(t, err)
	r.m.rows = rows
	r.m.deck = nil
	r.m.hands = make(map[string][]Card, len(hands))
	for p, h := range hands {
		r.m.hands[p] = append([]Card(nil), h...)
	}
	r.m.submissions = make(map[string]Card, len(hands))
}

func submit(r *room, from *Player, face int) {
	r.handleClientPacket(clientPacketEnvelope{packet: ClientPacket{Type: packetSubmitCard, Card: face}, from: from})
}

func chooseRowPacket(r *room, from *Player, row int) {
	r.handleClientPacket(clientPacketEnvelope{packet: ClientPacket{Type: packetChooseRow, Row: row}, from: from})
}

func TestRoom_FullMatchScenario_ExplicitChoice(t *testing.T) {
	t.Parallel()
	r, sched, reporter, l, alice := newTestRoom(t, 2)
	bob := NewPlayer("bob", "Bob", fakeSession{})

	// bob joins, the room reaches its size and the match starts
	jreq := NewRoomJoinRequest("rid", bob)
	r.handleJoinRequest(jreq)
	require.NoError(t, <-jreq.errChan)

	tasks := takeTasks(r)
	assert.Equal(t, []string{"player_joined", "round_started", "round_started"}, taskTypes(t, tasks))
	require.Equal(t, PhasePlaying, r.m.phase)

	rigMatch(t, r, map[string][]Card{
		"alice": cards(2),
		"bob":   cards(3),
	}, cards(10, 12, 30, 88))

	submit(r, alice, 2)
	assert.Equal(t, []string{"card_submitted"}, taskTypes(t, takeTasks(r)))

	// bob's submission closes the round and alice's 2 forces a choice
	submit(r, bob, 3)
	tasks = takeTasks(r)
	require.Equal(t, []string{"card_submitted", "choice_requested"}, taskTypes(t, tasks))
	assert.Equal(t, PhaseWaitingForChoice, r.m.phase)

	var choice ChoiceRequestedPayload
	require.NoError(t, json.Unmarshal(decodeTask(t, tasks[1]).Payload, &choice))
	assert.Equal(t, "alice", choice.UserID)
	assert.NotZero(t, choice.DeadlineUnixMs)

	require.Len(t, sched.armed, 1)
	assert.Equal(t, r.rules.ChoiceTimeout, sched.durations[0])

	// bob cannot answer alice's choice
	chooseRowPacket(r, bob, 0)
	tasks = takeTasks(r)
	require.Equal(t, []string{"error"}, taskTypes(t, tasks))
	assert.Equal(t, []*Player{bob}, tasks[0].to)

	// alice picks row 1; the match plays out to game over
	chooseRowPacket(r, alice, 1)
	tasks = takeTasks(r)
	assert.Equal(t, []string{"row_claimed", "card_placed", "round_ended", "match_ended"}, taskTypes(t, tasks))
	assert.Equal(t, PhaseGameOver, r.m.phase)
	assert.Equal(t, 1, sched.cancelled)

	select {
	case results := <-reporter.ch:
		require.Len(t, results, 2)
		assert.Equal(t, domain.MatchResult{UserID: "bob", RoomID: "rid", FinalScore: 0, Rank: 1, RoomAvgScore: 0.5}, results[0])
		assert.Equal(t, domain.MatchResult{UserID: "alice", RoomID: "rid", FinalScore: 1, Rank: 2, RoomAvgScore: 0.5}, results[1])
	case <-time.After(2 * time.Second):
		t.Fatal("match results were never reported")
	}

	l.AssertCalled(t, "RemoveRoom", "rid")
}

func TestRoom_ChoiceTimeoutFallback(t *testing.T) {
	t.Parallel()
	r, sched, _, _, alice := newTestRoom(t, 2)
	bob := NewPlayer("bob", "Bob", fakeSession{})

	jreq := NewRoomJoinRequest("rid", bob)
	r.handleJoinRequest(jreq)
	require.NoError(t, <-jreq.errChan)
	takeTasks(r)

	rigMatch(t, r, map[string][]Card{
		"alice": cards(2),
		"bob":   cards(30),
	}, cards(10, 12, 20, 88))

	submit(r, alice, 2)
	submit(r, bob, 30)
	takeTasks(r)
	require.Equal(t, PhaseWaitingForChoice, r.m.phase)
	require.Len(t, sched.armed, 1)

	// the deadline passes: the fallback claims the shortest row for alice
	sched.fireLast()
	var msg choiceTimeoutMsg
	select {
	case msg = <-r.choiceTimeouts:
	case <-time.After(time.Second):
		t.Fatal("timeout message never posted")
	}
	r.handleChoiceTimeout(msg)

	tasks := takeTasks(r)
	require.NotEmpty(t, tasks)
	assert.Equal(t, "row_claimed", decodeTask(t, tasks[0]).Type)

	var claim RowClaimedPayload
	require.NoError(t, json.Unmarshal(decodeTask(t, tasks[0]).Payload, &claim))
	assert.Equal(t, "alice", claim.UserID)
	assert.Equal(t, 0, claim.RowIndex)
	assert.False(t, claim.ByChoice)

	// a second firing of the same timeout is a no-op
	r.handleChoiceTimeout(msg)
	assert.Empty(t, takeTasks(r))
}

func TestRoom_JoinRejections(t *testing.T) {
	t.Parallel()
	r, _, _, _, _ := newTestRoom(t, 2)

	bob := NewPlayer("bob", "Bob", fakeSession{})
	jreq := NewRoomJoinRequest("rid", bob)
	r.handleJoinRequest(jreq)
	require.NoError(t, <-jreq.errChan)

	// room full and already started
	carol := NewPlayer("carol", "Carol", fakeSession{})
	jreq = NewRoomJoinRequest("rid", carol)
	r.handleJoinRequest(jreq)
	assert.ErrorIs(t, <-jreq.errChan, ErrRoomStarted)
}

func TestRoom_RemovingPlayerMidMatchTerminatesBelowMinimum(t *testing.T) {
	t.Parallel()
	r, _, _, l, _ := newTestRoom(t, 2)
	bob := NewPlayer("bob", "Bob", fakeSession{})

	jreq := NewRoomJoinRequest("rid", bob)
	r.handleJoinRequest(jreq)
	require.NoError(t, <-jreq.errChan)
	takeTasks(r)

	r.handleRemovePlayer(bob)
	assert.Equal(t, []string{"player_left", "room_terminated"}, taskTypes(t, takeTasks(r)))
	l.AssertCalled(t, "RemoveRoom", "rid")
}

func TestRoom_RemovingLastWaitingPlayerRetiresRoom(t *testing.T) {
	t.Parallel()
	r, _, _, l, alice := newTestRoom(t, 3)

	r.handleRemovePlayer(alice)
	l.AssertCalled(t, "RemoveRoom", "rid")
	assert.Empty(t, r.players)
}

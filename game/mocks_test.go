package game

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wmsir/take6-all-sub001/domain"
)

// --- NetworkSession ---

// fakeSession is a no-op session for tests that never run the pumps.
type fakeSession struct{}

func (fakeSession) Close(errCode string)  {}
func (fakeSession) Write(data []byte) error { return nil }
func (fakeSession) Read() ([]byte, error)   { return nil, io.EOF }
func (fakeSession) Ping() error             { return nil }

// scriptedSession feeds a fixed sequence of reads and records writes.
type scriptedSession struct {
	mu     sync.Mutex
	reads  [][]byte
	writes [][]byte
	pings  int
	closed bool
}

func (s *scriptedSession) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reads) == 0 {
		return nil, io.EOF
	}
	data := s.reads[0]
	s.reads = s.reads[1:]
	return data, nil
}

func (s *scriptedSession) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, data)
	return nil
}

func (s *scriptedSession) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
	return nil
}

func (s *scriptedSession) Close(errCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *scriptedSession) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}

func (m *MockLobby) RequestUpdateDescription(desc roomDescription) {
	m.Called(desc)
}

// --- Room ---

type MockRoom struct {
	mock.Mock
}

func (m *MockRoom) GameLoop() {
	m.Called()
}

func (m *MockRoom) RequestJoin(jreq roomJoinRequest) {
	m.Called(jreq)
}

func (m *MockRoom) Tick(now time.Time) {
	m.Called(now)
}

func (m *MockRoom) PingPlayers() {
	m.Called()
}

func (m *MockRoom) SetId(id string) {
	m.Called(id)
}

func (m *MockRoom) SetParentLobby(l Lobby) {
	m.Called(l)
}

func (m *MockRoom) Description() roomDescription {
	args := m.Called()
	return args.Get(0).(roomDescription)
}

func (m *MockRoom) CloseAndRelease() {
	m.Called()
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- UserGetter ---

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUserById(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

// --- Scheduler ---

// manualScheduler records armed timeouts so tests fire or inspect them
// explicitly.
type manualScheduler struct {
	armed     []func()
	durations []time.Duration
	cancelled int
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) func() {
	s.armed = append(s.armed, fn)
	s.durations = append(s.durations, d)
	return func() { s.cancelled++ }
}

func (s *manualScheduler) fireLast() {
	s.armed[len(s.armed)-1]()
}

// --- MatchReporter ---

type captureReporter struct {
	ch chan []domain.MatchResult
}

func newCaptureReporter() *captureReporter {
	return &captureReporter{ch: make(chan []domain.MatchResult, 1)}
}

func (c *captureReporter) SaveMatchResults(ctx context.Context, results []domain.MatchResult) error {
	c.ch <- results
	return nil
}

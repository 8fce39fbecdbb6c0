package room

import (
	"io"
	rand "math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinchelab/coinched/internal/bot"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/game"
	"github.com/coinchelab/coinched/internal/randutil"
	"github.com/coinchelab/coinched/internal/rules"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	clock := quartz.NewReal()
	hub := events.NewHub(testLogger(), clock)
	driver := bot.NewDriver(testLogger(), clock, randutil.New(1))
	var seed int64
	return NewManager(testLogger(), hub, driver, clock, func() *rand.Rand {
		seed++
		return randutil.New(seed)
	}, Defaults{})
}

func TestCreateSeatsHost(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "alice", r.Host)
	assert.Equal(t, "alice", r.Seats[0].Player)
	assert.Equal(t, StatusLobby, r.Status)
	assert.Equal(t, game.DefaultTargetScore, r.TargetScore)
}

func TestJoinFillsSeatsInOrder(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)

	_, err = m.Join(r.ID, "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", r.Seats[1].Player)

	three := 3
	_, err = m.Join(r.ID, "dave", &three)
	require.NoError(t, err)
	assert.Equal(t, "dave", r.Seats[3].Player)

	_, err = m.Join(r.ID, "carol", &three)
	kind, _ := game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind, "occupied seat is refused")

	_, err = m.Join(r.ID, "bob", nil)
	kind, _ = game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind, "double join is refused")
}

func TestJoinUnknownRoomNotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Join("room_missing", "bob", nil)
	kind, _ := game.KindOf(err)
	assert.Equal(t, game.KindNotFound, kind)
}

func TestStartPreconditions(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)

	// not full
	_, err = m.Start(r.ID, "alice")
	kind, _ := game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind)

	_, err = m.FillWithBots(r.ID, "alice")
	require.NoError(t, err)

	// full but the host is not ready
	_, err = m.Start(r.ID, "alice")
	kind, _ = game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind)

	_, err = m.ToggleReady(r.ID, "alice")
	require.NoError(t, err)

	// locked rooms cannot start
	require.NoError(t, m.SetLocked(r.ID, "alice", true))
	_, err = m.Start(r.ID, "alice")
	kind, _ = game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind)
	require.NoError(t, m.SetLocked(r.ID, "alice", false))

	// only the host starts
	_, err = m.Start(r.ID, "bot:east")
	kind, _ = game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind)

	g, err := m.Start(r.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, StatusInProgress, r.Status)
	assert.True(t, r.Locked, "rooms lock for the duration of the game")
	for _, s := range r.Seats {
		assert.False(t, s.Ready, "ready flags clear on start")
	}

	st := g.State()
	assert.Equal(t, game.PhaseBidding, st.Status)
	assert.Equal(t, 1, st.Round)

	// the registry resolves the game id
	byID, err := m.GameByID(g.ID())
	require.NoError(t, err)
	assert.Same(t, g, byID)

	// a started room cannot start twice
	_, err = m.Start(r.ID, "alice")
	kind, _ = game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind)
}

func TestFillWithBotsAutoReadies(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)

	_, err = m.FillWithBots(r.ID, "alice")
	require.NoError(t, err)

	botSeats := 0
	for i, s := range r.Seats {
		require.True(t, s.Occupied(), "seat %d must be filled", i)
		if s.Bot {
			botSeats++
			assert.True(t, s.Ready, "bots auto-ready")
		}
	}
	assert.Equal(t, rules.NumSeats-1, botSeats)

	_, err = m.FillWithBots(r.ID, "bob")
	kind, _ := game.KindOf(err)
	assert.Equal(t, game.KindForbidden, kind, "only the host adds bots")
}

func TestLeaveAndKick(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)
	_, err = m.Join(r.ID, "bob", nil)
	require.NoError(t, err)

	require.NoError(t, m.Leave(r.ID, "bob"))
	assert.False(t, r.Seats[1].Occupied())

	_, err = m.Join(r.ID, "bob", nil)
	require.NoError(t, err)
	require.Error(t, m.Kick(r.ID, "bob", 0), "non-host cannot kick")
	require.NoError(t, m.Kick(r.ID, "alice", 1))
	assert.False(t, r.Seats[1].Occupied())
}

func TestListFiltersAndPaginates(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 5; i++ {
		_, err := m.Create("alice", CreateOptions{})
		require.NoError(t, err)
	}
	_, err := m.Create("bob", CreateOptions{Visibility: VisibilityPrivate})
	require.NoError(t, err)

	all := m.List(ListFilter{})
	assert.Len(t, all, 6)

	private := m.List(ListFilter{Visibility: VisibilityPrivate})
	require.Len(t, private, 1)
	assert.Equal(t, "bob", private[0].Host)

	lobby := m.List(ListFilter{Status: StatusLobby})
	assert.Len(t, lobby, 6)

	page := m.List(ListFilter{Offset: 4, Limit: 4})
	assert.Len(t, page, 2)

	beyond := m.List(ListFilter{Offset: 100})
	assert.Empty(t, beyond)
}

func TestRoomEventsPublished(t *testing.T) {
	clock := quartz.NewReal()
	hub := events.NewHub(testLogger(), clock)
	driver := bot.NewDriver(testLogger(), clock, randutil.New(1))
	m := NewManager(testLogger(), hub, driver, clock, func() *rand.Rand { return randutil.New(9) }, Defaults{})

	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)

	evs := hub.Stream(r.ID).ListAfter("")
	require.NotEmpty(t, evs)
	assert.Equal(t, events.TypeRoomUpdated, evs[0].Type)

	_, err = m.Join(r.ID, "bob", nil)
	require.NoError(t, err)

	evs = hub.Stream(r.ID).ListAfter("")
	assert.Equal(t, events.TypeRoomPlayerJoined, evs[len(evs)-1].Type)
}

func TestCancelRunningGame(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Create("alice", CreateOptions{})
	require.NoError(t, err)
	_, err = m.FillWithBots(r.ID, "alice")
	require.NoError(t, err)
	_, err = m.ToggleReady(r.ID, "alice")
	require.NoError(t, err)

	g, err := m.Start(r.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, m.Cancel(r.ID, "alice", "host closed the table"))
	assert.Equal(t, game.PhaseCompleted, g.State().Status)
	assert.Equal(t, StatusCompleted, r.Status)
}

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/randutil"
	"github.com/coinchelab/coinched/internal/rules"
)

// runBidding has the seat on turn open at spades 80 and everyone else
// pass, resolving a contract.
func runBidding(t *testing.T, g *Game) {
	t.Helper()
	_, opener, _ := g.Turn()
	_, err := g.SubmitBid(req(opener), rules.KindSpades, 80)
	require.NoError(t, err)
	for i := 0; i < rules.NumSeats-1; i++ {
		_, p, _ := g.Turn()
		_, err := g.SubmitPass(req(p))
		require.NoError(t, err)
	}
	require.Equal(t, PhasePlaying, g.State().Status)
}

// runPlays drives card play until the round settles, checking the
// public projection along the way.
func runPlays(t *testing.T, g *Game) {
	t.Helper()
	lastVersion := g.Version()
	for plays := 0; plays < 32; plays++ {
		st := g.State()
		if st.Status != PhasePlaying {
			return
		}
		assert.Less(t, st.Containers.TrickHistoryCount, rules.TricksPerRound,
			"observers must never see eight completed tricks during play")

		res := playFirstLegal(t, g)
		assert.Greater(t, res.StateVersion, lastVersion, "versions strictly increase")
		lastVersion = res.StateVersion
	}
}

func TestFullRoundSettlesAndDealsNext(t *testing.T) {
	g, stream := newTestGame(t, 20)
	sub := stream.Subscribe(events.ScopePublic)
	defer sub.Close()
	require.NoError(t, g.StartRound())

	runBidding(t, g)
	runPlays(t, g)

	st := g.State()
	require.Equal(t, PhaseBidding, st.Status, "next round deals immediately when the game is not over")
	assert.Equal(t, 2, st.Round)
	assert.Equal(t, 1, st.Dealer, "dealer rotates between rounds")

	total := st.CumulativeScore["teamA"] + st.CumulativeScore["teamB"]
	assert.Greater(t, total, 0)
	assert.Zero(t, total%10, "awarded scores are rounded to tens")

	// the public log settles exactly one round and re-deals
	var completed []RoundCompletedPayload
	drainPublic(sub, func(ev events.Event) {
		if ev.Type == events.TypeRoundCompleted {
			completed = append(completed, ev.Payload.(RoundCompletedPayload))
		}
	})
	require.Len(t, completed, 1)
	result := completed[0].Result
	cardTotal := result.CardPoints[rules.TeamA] + result.CardPoints[rules.TeamB]
	assert.Equal(t, 162, cardTotal, "152 card points plus dix-de-der")
	assert.Equal(t, st.CumulativeScore["teamA"], completed[0].Cumulative[rules.TeamA])
	assert.Equal(t, st.CumulativeScore["teamB"], completed[0].Cumulative[rules.TeamB])
}

func TestSubscribersObserveVersionsInOrder(t *testing.T) {
	g, stream := newTestGame(t, 21)
	pub := stream.Subscribe(events.ScopePublic)
	defer pub.Close()
	priv := stream.Subscribe(events.PrivateScope("bob"))
	defer priv.Close()

	require.NoError(t, g.StartRound())
	runBidding(t, g)
	runPlays(t, g)

	check := func(name string, sub *events.Subscription) {
		var last uint64
		count := 0
		drainPublic(sub, func(ev events.Event) {
			require.GreaterOrEqual(t, ev.Version, last,
				"%s observed version %d after %d", name, ev.Version, last)
			last = ev.Version
			count++
		})
		assert.Greater(t, count, 10, "%s should have seen the whole round", name)
	}
	check("public", pub)
	check("private", priv)
}

func TestPrivateEventsOnlyReachTheirSeat(t *testing.T) {
	g, stream := newTestGame(t, 22)
	bobSub := stream.Subscribe(events.PrivateScope("bob"))
	defer bobSub.Close()
	pub := stream.Subscribe(events.ScopePublic)
	defer pub.Close()

	require.NoError(t, g.StartRound())
	runBidding(t, g)
	runPlays(t, g)

	drainPublic(pub, func(ev events.Event) {
		assert.False(t, ev.Type.Private(), "public scope received private event %s", ev.Type)
	})
	drainPublic(bobSub, func(ev events.Event) {
		if ev.Type.Private() {
			assert.Equal(t, "bob", ev.Recipient)
		}
	})
}

func TestGameCompletesWhenTargetCrossed(t *testing.T) {
	hub := events.NewHub(testLogger(), nil)
	var seats [rules.NumSeats]SeatInfo
	for i, p := range testPlayers {
		seats[i] = SeatInfo{Player: p}
	}
	stream := hub.Stream("game_target")
	g := New(Config{
		GameID:      "game_target",
		RoomID:      "room_test",
		Seats:       seats,
		TargetScore: 150,
		Stream:      stream,
		RNG:         randutil.New(23),
		Logger:      testLogger(),
	})
	require.NoError(t, g.StartRound())

	for round := 0; round < 50; round++ {
		if g.State().Status == PhaseCompleted {
			break
		}
		runBidding(t, g)
		runPlays(t, g)
	}

	st := g.State()
	require.Equal(t, PhaseCompleted, st.Status, "the game should settle within 50 rounds")
	require.NotNil(t, st.Winner)

	a, b := st.CumulativeScore["teamA"], st.CumulativeScore["teamB"]
	if *st.Winner == rules.TeamA {
		assert.Greater(t, a, b)
		assert.GreaterOrEqual(t, a, 150)
	} else {
		assert.Greater(t, b, a)
		assert.GreaterOrEqual(t, b, 150)
	}

	// replaying the full log reproduces the final cumulative score
	replayed, consistent := ReplayCumulativeScore(stream.ListAfter(""))
	assert.True(t, consistent)
	assert.Equal(t, a, replayed[rules.TeamA])
	assert.Equal(t, b, replayed[rules.TeamB])

	evs := stream.ListAfter("")
	assert.Equal(t, events.TypeGameCompleted, evs[len(evs)-1].Type)

	_, err := g.SubmitPass(req("bob"))
	kind, _ := KindOf(err)
	assert.Equal(t, KindForbidden, kind, "completed games accept no actions")
}

func TestStaleSubmitThenRetryScenario(t *testing.T) {
	g, _ := newTestGame(t, 24)
	require.NoError(t, g.StartRound())
	runBidding(t, g)

	seat, player, version := g.Turn()
	hand, err := g.HandFor(player)
	require.NoError(t, err)
	st := g.State()
	legal := rules.LegalPlays(hand.Cards, st.Containers.CurrentTrick, st.Contract.Kind, seat)

	// a stale expected version is rejected with the current one attached
	stale := Request{Player: player, ClientActionID: "retry-1", ExpectedVersion: version - 1}
	_, err = g.SubmitPlay(stale, legal[0])
	require.Error(t, err)
	gerr := err.(*Error)
	require.Equal(t, KindVersionConflict, gerr.Kind)
	assert.Equal(t, version, gerr.CurrentVersion)
	assert.Equal(t, version, g.Version(), "the game is unchanged")

	// retry at the right version succeeds
	fresh := Request{Player: player, ClientActionID: "retry-1", ExpectedVersion: gerr.CurrentVersion}
	first, err := g.SubmitPlay(fresh, legal[0])
	require.NoError(t, err)

	// replaying the same clientActionId returns the identical result
	again, err := g.SubmitPlay(fresh, legal[0])
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, first.StateVersion, g.Version())
}

func TestStateSinceReflectsLatestMutation(t *testing.T) {
	g, _ := newTestGame(t, 25)
	require.NoError(t, g.StartRound())
	before := g.Version()

	res, err := g.SubmitBid(req("bob"), rules.KindSpades, 80)
	require.NoError(t, err)

	st, changed := g.StateSince(before)
	assert.True(t, changed)
	assert.Equal(t, res.StateVersion, st.StateVersion)

	_, changed = g.StateSince(st.StateVersion)
	assert.False(t, changed)
}

func TestListEventsCursorSemantics(t *testing.T) {
	g, stream := newTestGame(t, 26)
	require.NoError(t, g.StartRound())
	_, err := g.SubmitBid(req("bob"), rules.KindSpades, 80)
	require.NoError(t, err)

	all := stream.ListAfter("")
	require.NotEmpty(t, all)

	tail := g.ListEvents(all[0].ID)
	require.Len(t, tail, len(all)-1)
	assert.Equal(t, all[1].ID, tail[0].ID)

	// an unknown cursor returns the whole log as a fresh baseline
	assert.Len(t, g.ListEvents("evt_doesnotexist"), len(all))
}

// drainPublic consumes every buffered event on a subscription.
func drainPublic(sub *events.Subscription, fn func(events.Event)) {
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			fn(ev)
		default:
			return
		}
	}
}

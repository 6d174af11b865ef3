package coordinator

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

type recorder struct {
	mu     sync.Mutex
	events []protocol.ServerEvent
}

func (r *recorder) Send(ev protocol.ServerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) take() []protocol.ServerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func sequentialIdentity() state.IdentityFunc {
	n := 0
	return func() (state.UserID, state.ColorValue) {
		n++
		return state.UserID(fmt.Sprintf("user-%d", n)), state.ColorValue(fmt.Sprintf("#00000%d", n%10))
	}
}

func connect(t *testing.T, c *Coordinator, conn Conn, name string) state.UserID {
	t.Helper()
	id, err := c.Connect(conn, name)
	require.NoError(t, err)
	return id
}

func newTestCoordinator() *Coordinator {
	return New(WithIdentity(sequentialIdentity()))
}

func stroke(claimed state.UserID, pts ...float64) state.Stroke {
	s := state.Stroke{UserID: claimed}
	for i := 0; i+1 < len(pts); i += 2 {
		s.Points = append(s.Points, state.Segment{Point: state.Point{X: pts[i], Y: pts[i+1]}, Color: state.Black, Width: 3})
	}
	return s
}

func TestConnectSendsInitAndAnnounces(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}

	idA := connect(t, c, a, "")
	require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: stroke("", 0, 0, 1, 1)}))
	a.take()

	idB := connect(t, c, b, "Bea")

	events := b.take()
	require.Len(t, events, 1)
	init, ok := events[0].(protocol.Init)
	require.True(t, ok)
	assert.Equal(t, idB, init.UserID)
	assert.Equal(t, state.ColorValue("#000002"), init.UserColor)
	assert.Equal(t, []state.User{
		{ID: idA, Color: "#000001"},
		{ID: idB, Color: "#000002", Name: "Bea"},
	}, init.Users)
	require.Len(t, init.DrawingHistory, 1)
	assert.Equal(t, idA, init.DrawingHistory[0].UserID)

	assert.Equal(t, []protocol.ServerEvent{
		protocol.UserConnected{User: state.User{ID: idB, Color: "#000002", Name: "Bea"}},
	}, a.take())
}

func TestDrawAndUndoScenario(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	connect(t, c, b, "")
	a.take()
	b.take()

	require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: stroke("A", 1, 1, 2, 2)}))

	want := stroke(idA, 1, 1, 2, 2)
	assert.Equal(t, []state.Stroke{want}, c.Snapshot())
	assert.Equal(t, []protocol.ServerEvent{protocol.Drawing{Stroke: want}}, b.take())
	assert.Empty(t, a.take(), "sender must not get its own stroke back")

	require.NoError(t, c.Handle(idA, protocol.Undo{}))
	assert.Empty(t, c.Snapshot())
	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []protocol.ServerEvent{protocol.UpdateHistory{History: []state.Stroke{}}}, r.take())
	}
}

func TestUndoOnEmptyHistoryIsSilent(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	connect(t, c, b, "")
	a.take()
	b.take()

	err := c.Handle(idA, protocol.Undo{})
	assert.ErrorIs(t, err, ErrEmptyHistory)
	assert.True(t, Expected(err))
	assert.Empty(t, a.take())
	assert.Empty(t, b.take())
}

func TestUndoRemovesOnlyTheLastStroke(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	idB := connect(t, c, b, "")

	require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: stroke("", 0, 0, 1, 0)}))
	require.NoError(t, c.Handle(idB, protocol.Draw{Stroke: stroke("", 0, 1, 1, 1)}))
	require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: stroke("", 0, 2, 1, 2)}))
	a.take()
	b.take()

	// Undo pops the global tail, whoever drew it.
	require.NoError(t, c.Handle(idB, protocol.Undo{}))
	expected := []state.Stroke{stroke(idA, 0, 0, 1, 0), stroke(idB, 0, 1, 1, 1)}
	assert.Equal(t, expected, c.Snapshot())
	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []protocol.ServerEvent{protocol.UpdateHistory{History: expected}}, r.take())
	}
}

func TestClearCanvasIsIdempotent(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	connect(t, c, b, "")
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: stroke("", 0, float64(i), 1, float64(i))}))
	}
	require.Equal(t, 5, c.Stats().Strokes)
	a.take()
	b.take()

	require.NoError(t, c.Handle(idA, protocol.ClearCanvas{}))
	require.NoError(t, c.Handle(idA, protocol.ClearCanvas{}))

	assert.Empty(t, c.Snapshot())
	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []protocol.ServerEvent{protocol.CanvasCleared{}, protocol.CanvasCleared{}}, r.take())
	}
}

func TestCursorMoveGoesToOthersWithUserColor(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	connect(t, c, b, "")
	a.take()
	b.take()

	require.NoError(t, c.Handle(idA, protocol.CursorMove{Position: state.Point{X: 5, Y: 6}}))
	assert.Empty(t, a.take())
	assert.Equal(t, []protocol.ServerEvent{protocol.UserCursorMove{Cursor: state.Cursor{
		UserID: idA, Position: state.Point{X: 5, Y: 6}, Color: "#000001",
	}}}, b.take())
}

func TestDisconnectScenario(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	connect(t, c, b, "")
	require.NoError(t, c.Handle(idA, protocol.CursorMove{Position: state.Point{X: 1, Y: 1}}))
	a.take()
	b.take()

	c.Disconnect(idA)

	for _, u := range c.Users() {
		assert.NotEqual(t, idA, u.ID)
	}
	assert.Equal(t, []protocol.ServerEvent{protocol.UserDisconnected{UserID: idA}}, b.take())
	assert.Empty(t, a.take(), "departed connection gets nothing")

	err := c.Handle(idA, protocol.Draw{Stroke: stroke("", 0, 0, 1, 1)})
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Empty(t, c.Snapshot())
	assert.Empty(t, b.take())

	c.Disconnect(idA)
	assert.Empty(t, b.take(), "second disconnect is a no-op")
	assert.Equal(t, Stats{Connections: 1}, c.Stats())
}

func TestMalformedAndDegenerateEventsAreDropped(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	connect(t, c, b, "")
	a.take()
	b.take()

	err := c.HandleMessage(idA, []byte(`{"event":"draw","data":{"points":"nope"}}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.False(t, Expected(err))

	err = c.Handle(idA, protocol.Draw{Stroke: stroke("", 4, 4)})
	assert.ErrorIs(t, err, ErrInvalidStroke)

	assert.Empty(t, c.Snapshot())
	assert.Empty(t, b.take())

	// The connection is still active afterwards.
	require.NoError(t, c.HandleMessage(idA, []byte(`{"event":"draw","data":{"points":[{"x":1,"y":1},{"x":2,"y":2,"color":"#ff0000","width":4}]}}`)))
	assert.Len(t, b.take(), 1)
}

func TestRedoIsAppendedAtTheTail(t *testing.T) {
	c := newTestCoordinator()
	a, b := &recorder{}, &recorder{}
	idA := connect(t, c, a, "")
	idB := connect(t, c, b, "")

	mine := stroke("", 0, 0, 1, 1)
	require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: mine}))
	require.NoError(t, c.Handle(idA, protocol.Undo{}))
	require.NoError(t, c.Handle(idB, protocol.Draw{Stroke: stroke("", 5, 5, 6, 6)}))
	require.NoError(t, c.Handle(idA, protocol.Draw{Stroke: mine}))

	history := c.Snapshot()
	require.Len(t, history, 2)
	assert.Equal(t, idB, history[0].UserID)
	assert.Equal(t, idA, history[1].UserID)
}

func TestConcurrentDrawsKeepArrivalOrderAndTrueIDs(t *testing.T) {
	c := New()
	const conns, perConn = 8, 25

	ids := make([]state.UserID, conns)
	for i := range ids {
		ids[i] = connect(t, c, &recorder{}, "")
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(n int, id state.UserID) {
			defer wg.Done()
			for j := 0; j < perConn; j++ {
				// Clients claim someone else's id; the coordinator must ignore it.
				s := stroke("spoofed", float64(n), float64(j), float64(n)+1, float64(j))
				assert.NoError(t, c.Handle(id, protocol.Draw{Stroke: s}))
			}
		}(i, id)
	}
	wg.Wait()

	history := c.Snapshot()
	require.Len(t, history, conns*perConn)

	// Per connection, strokes appear in the order they were sent, tagged with the sender.
	next := make(map[state.UserID]int)
	for _, s := range history {
		n := int(s.Points[0].X)
		require.Equal(t, ids[n], s.UserID)
		assert.Equal(t, float64(next[s.UserID]), s.Points[0].Y)
		next[s.UserID]++
	}
}

func TestHistoryIsConcatenationOfArrivals(t *testing.T) {
	c := newTestCoordinator()
	rng := rand.New(rand.NewSource(7))
	ids := []state.UserID{connect(t, c, &recorder{}, ""), connect(t, c, &recorder{}, ""), connect(t, c, &recorder{}, "")}

	var expected []state.Stroke
	for i := 0; i < 60; i++ {
		sender := ids[rng.Intn(len(ids))]
		s := stroke(ids[rng.Intn(len(ids))], float64(i), 0, float64(i), 1)
		require.NoError(t, c.Handle(sender, protocol.Draw{Stroke: s}))
		s.UserID = sender
		expected = append(expected, s)
	}
	assert.Equal(t, expected, c.Snapshot())
}

func TestDepartedIDIsNeverReissued(t *testing.T) {
	ids := []state.UserID{"u1", "u1", "u2"}
	c := New(WithIdentity(func() (state.UserID, state.ColorValue) {
		id := ids[0]
		ids = ids[1:]
		return id, state.Black
	}))

	first := connect(t, c, &recorder{}, "")
	c.Disconnect(first)

	second := connect(t, c, &recorder{}, "")
	assert.Equal(t, state.UserID("u1"), first)
	assert.Equal(t, state.UserID("u2"), second)
}

func TestConnectGivesUpOnExhaustedIdentity(t *testing.T) {
	c := New(WithIdentity(func() (state.UserID, state.ColorValue) {
		return "same", state.Black
	}))
	connect(t, c, &recorder{}, "")

	late := &recorder{}
	_, err := c.Connect(late, "")
	require.ErrorIs(t, err, ErrIdentityExhausted)
	assert.Empty(t, late.take(), "a refused connection gets no init")
	assert.Equal(t, 1, c.Stats().Connections)
}

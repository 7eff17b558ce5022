package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/beacon/internal/core"
)

func TestRoomsRelaySkipsSender(t *testing.T) {
	r := NewRooms()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Join("conv1", "a", a)
	r.Join("conv1", "b", b)
	r.Join("conv1", "c", c)

	res := r.Relay("conv1", "a", core.Frame(`{"type":"message-receive"}`))
	require.Equal(t, 2, res.SentTo)
	require.Empty(t, a.sent())
	require.Len(t, b.sent(), 1)
	require.Len(t, c.sent(), 1)
}

func TestRoomsRelayScopedToRoom(t *testing.T) {
	r := NewRooms()
	b, outsider := &fakeConn{}, &fakeConn{}
	r.Join("conv1", "a", &fakeConn{})
	r.Join("conv1", "b", b)
	r.Join("conv2", "x", outsider)

	r.Relay("conv1", "a", core.Frame("m"))
	require.Len(t, b.sent(), 1)
	require.Empty(t, outsider.sent())
}

func TestRoomsJoinIdempotent(t *testing.T) {
	r := NewRooms()
	a := &fakeConn{}
	r.Join("conv1", "a", a)
	r.Join("conv1", "a", a)
	require.Len(t, r.Members("conv1"), 1)
}

func TestRoomsLeaveUnknownRoomIsSafe(t *testing.T) {
	r := NewRooms()
	r.Leave("nope", "a")
	r.Join("conv1", "a", &fakeConn{})
	r.Leave("conv1", "b")
	require.Len(t, r.Members("conv1"), 1)
}

func TestRoomsNoReplayForLateJoiner(t *testing.T) {
	r := NewRooms()
	r.Join("conv1", "a", &fakeConn{})

	r.Relay("conv1", "a", core.Frame("early"))

	late := &fakeConn{}
	r.Join("conv1", "late", late)
	require.Empty(t, late.sent())
}

func TestRoomsLeaveAllRespectsConnIdentity(t *testing.T) {
	r := NewRooms()
	old := &fakeConn{}
	fresh := &fakeConn{}
	r.Join("conv1", "a", old)
	r.Join("conv2", "a", old)

	// a reconnects and re-joins conv1 before the old handle is cleaned up
	r.Join("conv1", "a", fresh)
	r.LeaveAll("a", old)

	require.Len(t, r.Members("conv1"), 1)
	require.Empty(t, r.Members("conv2"))
}

func TestRoomsRelayReportsDropped(t *testing.T) {
	r := NewRooms()
	r.Join("conv1", "a", &fakeConn{})
	r.Join("conv1", "slow", &fakeConn{fail: true})

	res := r.Relay("conv1", "a", core.Frame("m"))
	require.Equal(t, 0, res.SentTo)
	require.Len(t, res.Dropped, 1)
	require.EqualValues(t, "slow", res.Dropped[0])
}

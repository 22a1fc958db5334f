package room

import (
	"sync"
	"testing"
	"time"

	"chessroom/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestSession(clock *fakeClock) *Session {
	return NewSession("ROOMCODE1234", game.NewStandardEngine(), 10*time.Minute, clock.Now)
}

func seatBoth(t *testing.T, s *Session) {
	t.Helper()
	w, err := s.Join("client-white", "conn-w", "Alice")
	require.NoError(t, err)
	require.Equal(t, game.White, w.Color)
	b, err := s.Join("client-black", "conn-b", "Bob")
	require.NoError(t, err)
	require.Equal(t, game.Black, b.Color)
}

func playMoves(t *testing.T, s *Session, moves ...string) MoveOutcome {
	t.Helper()
	var out MoveOutcome
	for i, mv := range moves {
		color := game.White
		if i%2 == 1 {
			color = game.Black
		}
		var err error
		out, err = s.ApplyMove(color, mv, "")
		require.NoError(t, err, "move %d %s", i, mv)
	}
	return out
}

func TestSession_JoinAssignsWhiteThenBlackThenFull(t *testing.T) {
	s := newTestSession(newClock())

	first, err := s.Join("client-aaaa", "c1", "")
	require.NoError(t, err)
	assert.Equal(t, game.White, first.Color)
	assert.True(t, first.State.Players.White)
	assert.False(t, first.State.Players.Black)

	second, err := s.Join("client-bbbb", "c2", "")
	require.NoError(t, err)
	assert.Equal(t, game.Black, second.Color)
	assert.True(t, second.State.Players.Black)

	_, err = s.Join("client-cccc", "c3", "")
	assert.ErrorIs(t, err, ReasonRoomFull)
}

func TestSession_RejoinKeepsColor(t *testing.T) {
	clock := newClock()
	s := newTestSession(clock)
	seatBoth(t, s)

	color, ok := s.MarkDisconnected("conn-b")
	require.True(t, ok)
	assert.Equal(t, game.Black, color)
	assert.True(t, s.Snapshot(game.White).OpponentDisconnected)

	clock.Advance(5 * time.Minute)
	out, err := s.Join("client-black", "conn-b2", "")
	require.NoError(t, err)
	assert.Equal(t, game.Black, out.Color)
	assert.False(t, out.State.OpponentDisconnected)

	got, ok := s.ColorForConn("conn-b2")
	assert.True(t, ok)
	assert.Equal(t, game.Black, got)
	_, ok = s.ColorForConn("conn-b")
	assert.False(t, ok)

	conn, ok := s.ConnectedConn(game.Black)
	assert.True(t, ok)
	assert.Equal(t, "conn-b2", conn)
	assert.False(t, s.Snapshot(game.White).OpponentDisconnected)

	// name from the first join survives a rejoin without one
	s.mu.Lock()
	assert.Equal(t, "Bob", s.seats[game.Black].name)
	s.mu.Unlock()
}

func TestSession_ExpiredSeatIsReleased(t *testing.T) {
	clock := newClock()
	s := newTestSession(clock)
	seatBoth(t, s)

	_, ok := s.MarkDisconnected("conn-w")
	require.True(t, ok)

	clock.Advance(10 * time.Minute)
	assert.Empty(t, s.SweepExpiredSeats(clock.Now()), "exactly the grace period is not expired")

	clock.Advance(time.Millisecond)
	assert.Equal(t, []game.Color{game.White}, s.SweepExpiredSeats(clock.Now()))

	out, err := s.Join("client-newcomer", "conn-n", "")
	require.NoError(t, err)
	assert.Equal(t, game.White, out.Color)
}

func TestSession_JoinReleasesExpiredSeatsFirst(t *testing.T) {
	clock := newClock()
	s := newTestSession(clock)
	seatBoth(t, s)
	s.MarkDisconnected("conn-b")

	clock.Advance(11 * time.Minute)
	out, err := s.Join("client-late", "conn-l", "")
	require.NoError(t, err)
	assert.Equal(t, game.Black, out.Color)

	_, ok := s.ColorForClient("client-black")
	assert.False(t, ok)
}

func TestSession_ApplyMoveOrderOfChecks(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	_, err := s.ApplyMove(game.Black, "e7e5", "")
	assert.ErrorIs(t, err, ReasonOutOfTurn)

	_, err = s.ApplyMove(game.White, "e2e5", "")
	assert.ErrorIs(t, err, ReasonIllegalMove)

	_, err = s.ApplyMove(game.White, "e2", "")
	assert.ErrorIs(t, err, ReasonIllegalMove)

	out, err := s.ApplyMove(game.White, "e2e4", "")
	require.NoError(t, err)
	assert.Equal(t, "e4", out.Notation)
	assert.Equal(t, "e2", out.LastMove.From)
	assert.Equal(t, game.Black, out.State.Turn)
	assert.Len(t, out.State.History, 1)
	assert.Nil(t, out.GameOver)
	assert.Equal(t, StatusActive, out.State.Status)

	_, err = s.Resign(game.White)
	require.NoError(t, err)
	_, err = s.ApplyMove(game.White, "d2d4", "")
	assert.ErrorIs(t, err, ReasonGameOver, "game over is checked before turn")
}

func TestSession_RejectedMoveLeavesStateUntouched(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)
	playMoves(t, s, "e2e4")

	before := s.Snapshot("")
	_, err := s.ApplyMove(game.Black, "e7e4", "")
	require.Error(t, err)

	after := s.Snapshot("")
	assert.Equal(t, before.FEN, after.FEN)
	assert.Equal(t, before.History, after.History)
}

func TestSession_FoolsMate(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	out := playMoves(t, s, "f2f3", "e7e5", "g2g4", "d8h4")

	assert.Equal(t, "Qh4#", out.Notation)
	assert.True(t, out.Flags.Checkmate)
	assert.True(t, out.Flags.Check)
	assert.False(t, out.Flags.Capture)
	require.NotNil(t, out.GameOver)
	assert.Equal(t, ResultCheckmate, out.GameOver.Result.Type)
	assert.Equal(t, game.Black, out.GameOver.Result.Winner)
	assert.Equal(t, "Black wins by checkmate", out.GameOver.Result.Reason)
	assert.True(t, out.State.IsCheckmate)
	assert.Equal(t, StatusCheckmate, out.State.Status)
	assert.Equal(t, game.Black, out.State.Winner)

	_, err := s.ApplyMove(game.White, "a2a3", "")
	assert.ErrorIs(t, err, ReasonGameOver)
	_, err = s.Resign(game.White)
	assert.ErrorIs(t, err, ReasonGameOver)

	over, ok := s.GameOver()
	require.True(t, ok)
	assert.Equal(t, game.Black, over.Result.Winner)
}

func TestSession_PromotionFromPayloadOverridesMoveSuffix(t *testing.T) {
	s := newTestSession(newClock())
	board, err := game.NewBoardFromFEN("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	require.NoError(t, err)
	s.board = board

	out, err := s.ApplyMove(game.White, "e7e8q", "n")
	require.NoError(t, err)
	assert.Equal(t, "e8=N", out.Notation)
	assert.Equal(t, "n", out.LastMove.Promotion)
}

func TestSession_PromotionFromMoveSuffix(t *testing.T) {
	s := newTestSession(newClock())
	board, err := game.NewBoardFromFEN("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	require.NoError(t, err)
	s.board = board

	out, err := s.ApplyMove(game.White, "e7e8r", "")
	require.NoError(t, err)
	assert.Equal(t, "e8=R", out.Notation)
}

func TestSession_StalemateEndsInDraw(t *testing.T) {
	s := newTestSession(newClock())
	board, err := game.NewBoardFromFEN("7k/5K2/8/6Q1/8/8/8/8 w - - 0 1")
	require.NoError(t, err)
	s.board = board

	out, err := s.ApplyMove(game.White, "g5g6", "")
	require.NoError(t, err)
	assert.True(t, out.Flags.Draw)
	require.NotNil(t, out.GameOver)
	assert.Equal(t, ResultDraw, out.GameOver.Result.Type)
	assert.Equal(t, game.DrawStalemate, out.GameOver.Result.DrawReason)
	assert.Equal(t, "Draw by stalemate", out.GameOver.Result.Reason)
	assert.Empty(t, out.GameOver.Result.Winner)
	assert.True(t, out.State.IsDraw)
}

func TestSession_FiftyMoveRuleEndsGame(t *testing.T) {
	s := newTestSession(newClock())
	board, err := game.NewBoardFromFEN("4k3/8/8/8/8/8/4P3/R3K3 w - - 99 80")
	require.NoError(t, err)
	s.board = board

	out, err := s.ApplyMove(game.White, "a1a2", "")
	require.NoError(t, err)
	require.NotNil(t, out.GameOver)
	assert.Equal(t, ResultDraw, out.GameOver.Result.Type)
	assert.Equal(t, game.DrawFiftyMoveRule, out.GameOver.Result.DrawReason)
	assert.Equal(t, StatusDraw, out.State.Status)

	_, err = s.ApplyMove(game.Black, "e8d8", "")
	assert.ErrorIs(t, err, ReasonGameOver)
}

func TestSession_PromotionOnPlainMoveIsIgnored(t *testing.T) {
	s := newTestSession(newClock())

	out, err := s.ApplyMove(game.White, "e2e4q", "")
	require.NoError(t, err)
	assert.Equal(t, "e4", out.Notation)

	out, err = s.ApplyMove(game.Black, "e7e5", "q")
	require.NoError(t, err)
	assert.Equal(t, "e5", out.Notation)
	assert.Empty(t, out.LastMove.Promotion)
}

func TestSession_Resign(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	over, err := s.Resign(game.White)
	require.NoError(t, err)
	assert.Equal(t, ResultResigned, over.Result.Type)
	assert.Equal(t, game.Black, over.Result.Winner)
	assert.Equal(t, game.White, over.Result.By)
	assert.Equal(t, "White resigned", over.Result.Reason)
	assert.Equal(t, StatusResigned, over.State.Status)
}

func TestSession_RematchRequiresResult(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	assert.ErrorIs(t, s.RequestRematch(game.White), ReasonNoResult)
	_, err := s.AcceptRematch(game.Black)
	assert.ErrorIs(t, err, ReasonNoRematchOffer)
}

func TestSession_RematchAfterResignation(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)
	playMoves(t, s, "e2e4", "e7e5")

	_, err := s.Resign(game.White)
	require.NoError(t, err)
	require.NoError(t, s.RequestRematch(game.Black))

	_, err = s.AcceptRematch(game.Black)
	assert.ErrorIs(t, err, ReasonNoRematchOffer, "own request cannot be accepted")

	st, err := s.AcceptRematch(game.White)
	require.NoError(t, err)
	assert.Empty(t, st.History)
	assert.NotNil(t, st.History)
	assert.Equal(t, game.White, st.Turn)
	assert.Equal(t, startFEN, st.FEN)
	assert.Equal(t, StatusActive, st.Status)
	assert.Nil(t, st.LastMove)

	_, ok := s.GameOver()
	assert.False(t, ok)

	// request consumed
	_, err = s.AcceptRematch(game.White)
	assert.ErrorIs(t, err, ReasonNoRematchOffer)

	_, err = s.ApplyMove(game.White, "d2d4", "")
	assert.NoError(t, err)
}

func TestSession_AcceptConsumesBothRequests(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	_, err := s.Resign(game.Black)
	require.NoError(t, err)
	require.NoError(t, s.RequestRematch(game.White))
	require.NoError(t, s.RequestRematch(game.Black))

	_, err = s.AcceptRematch(game.Black)
	require.NoError(t, err)

	// both requests were consumed by the accept
	_, err = s.Resign(game.White)
	require.NoError(t, err)
	_, err = s.AcceptRematch(game.Black)
	assert.ErrorIs(t, err, ReasonNoRematchOffer)
}

func TestSession_HistoryTracksBoard(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)
	playMoves(t, s, "e2e4", "d7d5", "e4d5", "d8d5")

	st := s.Snapshot("")
	assert.Len(t, st.History, s.board.Ply())
	require.NotNil(t, st.LastMove)
	assert.Equal(t, "Qxd5", st.LastMove.SAN)
	assert.Equal(t, "p", st.History[2].Captured)
}

func TestSession_ActionsTouchLastActive(t *testing.T) {
	clock := newClock()
	s := newTestSession(clock)
	created := s.LastActive()

	clock.Advance(time.Minute)
	seatBoth(t, s)
	assert.True(t, s.LastActive().After(created))

	clock.Advance(time.Minute)
	_, err := s.ApplyMove(game.Black, "e7e5", "")
	require.Error(t, err)
	assert.True(t, clock.Now().After(s.LastActive()), "rejected moves do not count as activity")
}

func TestSession_SnapshotOpponentDisconnected(t *testing.T) {
	s := newTestSession(newClock())
	_, err := s.Join("client-white", "conn-w", "")
	require.NoError(t, err)

	assert.False(t, s.Snapshot(game.White).OpponentDisconnected, "empty seat is not a disconnect")

	_, err = s.Join("client-black", "conn-b", "")
	require.NoError(t, err)
	s.MarkDisconnected("conn-w")

	assert.True(t, s.Snapshot(game.Black).OpponentDisconnected)
	assert.False(t, s.Snapshot(game.White).OpponentDisconnected)
	assert.False(t, s.Snapshot("").OpponentDisconnected)
	assert.False(t, s.IsOpponentConnected(game.Black))
	assert.True(t, s.IsOpponentConnected(game.White))
}

func TestSession_Record(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	_, ok := s.Record()
	assert.False(t, ok)

	playMoves(t, s, "f2f3", "e7e5", "g2g4", "d8h4")
	m, ok := s.Record()
	require.True(t, ok)
	assert.Equal(t, "ROOMCODE1234", m.RoomCode)
	assert.Equal(t, "checkmate", m.ResultType)
	assert.Equal(t, "b", m.Winner)
	assert.Equal(t, 4, m.Plies)
	assert.Equal(t, "client-white", m.WhiteClient)
	assert.Equal(t, "Bob", m.BlackName)
	assert.Contains(t, m.PGN, "Qh4#")
}

func TestSession_ConcurrentMovesAreSerialized(t *testing.T) {
	s := newTestSession(newClock())
	seatBoth(t, s)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ApplyMove(game.White, "e2e4", ""); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Len(t, s.Snapshot("").History, 1)
}

package room

import (
	"sync"
	"time"

	"chessroom/internal/domain"
	"chessroom/internal/game"
)

type seat struct {
	clientID       string
	connID         string
	name           string
	connected      bool
	disconnectedAt time.Time
}

// Session is one private match: two seats, the board, move history, the
// terminal result and pending rematch requests. All methods are safe for
// concurrent use; each call runs to completion under the session mutex.
type Session struct {
	mu sync.Mutex

	code         string
	createdAt    time.Time
	lastActiveAt time.Time
	startedAt    time.Time
	grace        time.Duration
	now          func() time.Time

	engine  game.Engine
	board   game.Board
	history []game.MoveRecord
	seats   map[game.Color]*seat
	rematch map[game.Color]bool
	// result is set once a terminal position or resignation is observed and
	// cleared only by AcceptRematch.
	result *Result
}

func NewSession(code string, engine game.Engine, grace time.Duration, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Session{
		code:         code,
		createdAt:    t,
		lastActiveAt: t,
		startedAt:    t,
		grace:        grace,
		now:          now,
		engine:       engine,
		board:        engine.NewBoard(),
		history:      []game.MoveRecord{},
		seats:        map[game.Color]*seat{game.White: nil, game.Black: nil},
		rematch:      make(map[game.Color]bool),
	}
}

func (s *Session) Code() string { return s.code }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// Join seats clientID. A client that already owns a seat gets it back with the
// new connection id; otherwise the first free seat (white, then black) is
// taken. Expired seats are released first.
func (s *Session) Join(clientID, connID, name string) (JoinOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepSeatsLocked(now)

	if color, ok := s.colorForClientLocked(clientID); ok {
		st := s.seats[color]
		st.connID = connID
		st.connected = true
		st.disconnectedAt = time.Time{}
		if name != "" {
			st.name = name
		}
		s.lastActiveAt = now
		return JoinOutcome{Color: color, State: s.snapshotLocked(color, now)}, nil
	}

	for _, color := range game.Colors {
		if s.seats[color] != nil {
			continue
		}
		s.seats[color] = &seat{
			clientID:  clientID,
			connID:    connID,
			name:      name,
			connected: true,
		}
		s.lastActiveAt = now
		return JoinOutcome{Color: color, State: s.snapshotLocked(color, now)}, nil
	}

	return JoinOutcome{}, ReasonRoomFull
}

// ApplyMove plays a coordinate move ("e2e4", "e7e8q") for color. An explicit
// promotion overrides the one embedded in the move string.
func (s *Session) ApplyMove(color game.Color, move, promotion string) (MoveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return MoveOutcome{}, ReasonGameOver
	}
	if s.board.Turn() != color {
		return MoveOutcome{}, ReasonOutOfTurn
	}
	if len(move) != 4 && len(move) != 5 {
		return MoveOutcome{}, ReasonIllegalMove
	}
	if promotion == "" && len(move) == 5 {
		promotion = move[4:]
	}

	rec, err := s.board.Apply(move[:2], move[2:4], promotion)
	if err != nil {
		return MoveOutcome{}, ReasonIllegalMove
	}

	now := s.now()
	s.history = append(s.history, rec)
	s.result = s.naturalResultLocked()
	clear(s.rematch)
	s.lastActiveAt = now

	_, drawn := s.board.DrawReason()
	out := MoveOutcome{
		Notation: rec.SAN,
		LastMove: rec,
		Flags: MoveFlags{
			Check:     s.board.InCheck(),
			Checkmate: s.board.Checkmate(),
			Draw:      drawn,
			Capture:   rec.Captured != "",
		},
		State: s.snapshotLocked("", now),
	}
	if s.result != nil {
		out.GameOver = &GameOver{Result: *s.result, State: out.State}
	}
	return out, nil
}

func (s *Session) Resign(color game.Color) (GameOver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return GameOver{}, ReasonGameOver
	}

	now := s.now()
	s.result = &Result{
		Type:   ResultResigned,
		Winner: color.Opponent(),
		By:     color,
		Reason: color.Label() + " resigned",
	}
	clear(s.rematch)
	s.lastActiveAt = now

	return GameOver{Result: *s.result, State: s.snapshotLocked("", now)}, nil
}

// RequestRematch records color's wish to play again. Repeated requests are
// harmless.
func (s *Session) RequestRematch(color game.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return ReasonNoResult
	}
	s.rematch[color] = true
	s.lastActiveAt = s.now()
	return nil
}

// AcceptRematch starts a fresh game when the opponent of color has asked for
// one since the last result.
func (s *Session) AcceptRematch(color game.Color) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil || !s.rematch[color.Opponent()] {
		return State{}, ReasonNoRematchOffer
	}

	now := s.now()
	s.board = s.engine.NewBoard()
	s.history = []game.MoveRecord{}
	s.result = nil
	clear(s.rematch)
	s.startedAt = now
	s.lastActiveAt = now

	return s.snapshotLocked("", now), nil
}

// MarkDisconnected flags the seat bound to connID as disconnected. The seat is
// kept until the grace period runs out.
func (s *Session) MarkDisconnected(connID string) (game.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorForConnLocked(connID)
	if !ok {
		return "", false
	}

	now := s.now()
	st := s.seats[color]
	st.connected = false
	st.disconnectedAt = now
	s.lastActiveAt = now
	return color, true
}

// SweepExpiredSeats releases seats whose holder has been gone longer than the
// grace period and returns their colors.
func (s *Session) SweepExpiredSeats(now time.Time) []game.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepSeatsLocked(now)
}

func (s *Session) sweepSeatsLocked(now time.Time) []game.Color {
	var freed []game.Color
	for _, color := range game.Colors {
		st := s.seats[color]
		if st == nil || st.connected || st.disconnectedAt.IsZero() {
			continue
		}
		if now.Sub(st.disconnectedAt) > s.grace {
			s.seats[color] = nil
			freed = append(freed, color)
		}
	}
	return freed
}

// Snapshot renders the state for viewer; pass "" for a neutral view.
func (s *Session) Snapshot(viewer game.Color) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(viewer, s.now())
}

// GameOver returns the current result with a neutral snapshot, if any.
func (s *Session) GameOver() (GameOver, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return GameOver{}, false
	}
	return GameOver{Result: *s.result, State: s.snapshotLocked("", s.now())}, true
}

func (s *Session) ColorForConn(connID string) (game.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorForConnLocked(connID)
}

func (s *Session) ColorForClient(clientID string) (game.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorForClientLocked(clientID)
}

// ConnectedConn returns the live connection id seated at color.
func (s *Session) ConnectedConn(color game.Color) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.seats[color]
	if st == nil || !st.connected {
		return "", false
	}
	return st.connID, true
}

func (s *Session) IsOpponentConnected(color game.Color) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.seats[color.Opponent()]
	return st != nil && st.connected
}

// Record builds the archive row for the current result. ok is false while the
// game is still running.
func (s *Session) Record() (domain.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return domain.Match{}, false
	}

	m := domain.Match{
		RoomCode:   s.code,
		ResultType: string(s.result.Type),
		Reason:     s.result.Reason,
		PGN:        s.board.PGN(),
		Plies:      len(s.history),
		StartedAt:  s.startedAt,
		EndedAt:    s.lastActiveAt,
	}
	if s.result.Type != ResultDraw {
		m.Winner = string(s.result.Winner)
	}
	if st := s.seats[game.White]; st != nil {
		m.WhiteClient, m.WhiteName = st.clientID, st.name
	}
	if st := s.seats[game.Black]; st != nil {
		m.BlackClient, m.BlackName = st.clientID, st.name
	}
	return m, true
}

func (s *Session) colorForClientLocked(clientID string) (game.Color, bool) {
	for _, color := range game.Colors {
		if st := s.seats[color]; st != nil && st.clientID == clientID {
			return color, true
		}
	}
	return "", false
}

func (s *Session) colorForConnLocked(connID string) (game.Color, bool) {
	for _, color := range game.Colors {
		if st := s.seats[color]; st != nil && st.connID == connID {
			return color, true
		}
	}
	return "", false
}

func (s *Session) naturalResultLocked() *Result {
	if s.board.Checkmate() {
		winner := s.board.Turn().Opponent()
		return &Result{
			Type:   ResultCheckmate,
			Winner: winner,
			Reason: winner.Label() + " wins by checkmate",
		}
	}
	if reason, ok := s.board.DrawReason(); ok {
		return &Result{
			Type:       ResultDraw,
			DrawReason: reason,
			Reason:     reason.Text(),
		}
	}
	return nil
}

func (s *Session) snapshotLocked(viewer game.Color, now time.Time) State {
	st := State{
		RoomCode: s.code,
		FEN:      s.board.FEN(),
		PGN:      s.board.PGN(),
		Turn:     s.board.Turn(),
		IsCheck:  s.board.InCheck(),
		Status:   StatusActive,
		History:  append([]game.MoveRecord(nil), s.history...),
		Players: Players{
			White: s.seats[game.White] != nil,
			Black: s.seats[game.Black] != nil,
		},
		UpdatedAt: now.UnixMilli(),
	}
	if st.History == nil {
		st.History = []game.MoveRecord{}
	}
	if n := len(s.history); n > 0 {
		last := s.history[n-1]
		st.LastMove = &last
	}

	if s.result != nil {
		st.Status = s.result.Status()
		st.IsCheckmate = st.Status == StatusCheckmate
		st.IsDraw = st.Status == StatusDraw
		st.Winner = s.result.Winner
		st.DrawReason = s.result.DrawReason
	}

	if viewer.Valid() {
		opp := s.seats[viewer.Opponent()]
		st.OpponentDisconnected = opp != nil && !opp.connected
	}
	return st
}

package room

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"chessroom/internal/game"
	"chessroom/internal/logger"
)

const maxCodeAttempts = 32

var ErrCodeSpaceExhausted = errors.New("room: could not allocate a unique room code")

type Options struct {
	InviteBaseURL   string
	DisconnectGrace time.Duration
	IdleTimeout     time.Duration
	Engine          game.Engine
	Now             func() time.Time
	// NewCode overrides code generation; tests use it to force collisions.
	NewCode func() (string, error)
}

// Registry owns every live session and the connection-to-room index.
type Registry struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
	connRoom map[string]string

	sweeping atomic.Bool
}

func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewCode == nil {
		opts.NewCode = NewCode
	}
	if opts.Engine == nil {
		opts.Engine = game.NewStandardEngine()
	}
	if opts.DisconnectGrace <= 0 {
		opts.DisconnectGrace = 10 * time.Minute
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	return &Registry{
		opts:     opts,
		sessions: make(map[string]*Session),
		connRoom: make(map[string]string),
	}
}

// Create registers an empty session under a fresh code and returns the code
// with its invite link.
func (r *Registry) Create() (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := r.opts.NewCode()
		if err != nil {
			return "", "", err
		}
		if _, taken := r.sessions[code]; taken {
			continue
		}
		r.sessions[code] = NewSession(code, r.opts.Engine, r.opts.DisconnectGrace, r.opts.Now)
		return code, r.InviteURL(code), nil
	}
	return "", "", ErrCodeSpaceExhausted
}

func (r *Registry) InviteURL(code string) string {
	return InviteURL(r.opts.InviteBaseURL, code)
}

func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

// Join seats the client in room code and binds connID to that room. A seat the
// connection held in another room is marked disconnected and starts its grace
// period.
func (r *Registry) Join(code, connID, clientID, name string) (*Session, JoinOutcome, error) {
	s, ok := r.Get(code)
	if !ok {
		return nil, JoinOutcome{}, ReasonRoomNotFound
	}

	out, err := s.Join(clientID, connID, name)
	if err != nil {
		return nil, JoinOutcome{}, err
	}

	r.mu.Lock()
	// swept between lookup and join
	if r.sessions[code] != s {
		r.mu.Unlock()
		return nil, JoinOutcome{}, ReasonRoomNotFound
	}
	prev, bound := r.connRoom[connID]
	r.connRoom[connID] = code
	var left *Session
	if bound && prev != code {
		left = r.sessions[prev]
	}
	r.mu.Unlock()

	if left != nil {
		out.Left = left
		out.LeftColor, _ = left.MarkDisconnected(connID)
	}
	return s, out, nil
}

func (r *Registry) SessionForConn(connID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.connRoom[connID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[code]
	return s, ok
}

// Detach forgets connID and marks its seat disconnected. The returned color is
// empty when the connection was bound to a room but did not hold a seat.
func (r *Registry) Detach(connID string) (*Session, game.Color, bool) {
	r.mu.Lock()
	code, ok := r.connRoom[connID]
	delete(r.connRoom, connID)
	s := r.sessions[code]
	r.mu.Unlock()

	if !ok || s == nil {
		return nil, "", false
	}
	color, _ := s.MarkDisconnected(connID)
	return s, color, true
}

// Sweep frees expired seats and drops sessions idle for longer than the idle
// timeout. Overlapping calls return immediately. Returns the removed codes.
func (r *Registry) Sweep(now time.Time) []string {
	if !r.sweeping.CompareAndSwap(false, true) {
		return nil
	}
	defer r.sweeping.Store(false)

	r.mu.RLock()
	sessions := make(map[string]*Session, len(r.sessions))
	for code, s := range r.sessions {
		sessions[code] = s
	}
	r.mu.RUnlock()

	var idle []string
	for code, s := range sessions {
		if r.sweepOne(code, s, now) {
			idle = append(idle, code)
		}
	}
	if len(idle) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range idle {
		delete(r.sessions, code)
	}
	for connID, code := range r.connRoom {
		if _, live := r.sessions[code]; !live {
			delete(r.connRoom, connID)
		}
	}
	return idle
}

func (r *Registry) sweepOne(code string, s *Session, now time.Time) (expired bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("room sweep panicked", "room", code, "panic", rec)
			expired = false
		}
	}()

	if freed := s.SweepExpiredSeats(now); len(freed) > 0 {
		logger.Debug("released expired seats", "room", code, "colors", freed)
	}
	return now.Sub(s.LastActive()) > r.opts.IdleTimeout
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Connections returns how many connections are bound to a room.
func (r *Registry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connRoom)
}

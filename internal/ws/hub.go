package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"chessroom/internal/game"
	"chessroom/internal/limiter"
	"chessroom/internal/logger"
	"chessroom/internal/room"

	"github.com/google/uuid"
)

const (
	limiterMaxAge  = time.Minute
	archiveTimeout = 5 * time.Second
	eventBuffer    = 1024
)

type eventKind int

const (
	eventRegister eventKind = iota
	eventFrame
	eventUnregister
)

type event struct {
	kind   eventKind
	client *Client
	data   []byte
}

type HubConfig struct {
	MoveLimit     int
	MoveWindow    time.Duration
	SweepInterval time.Duration
	Archiver      Archiver
	Now           func() time.Time
	// Limiters are pruned alongside the move limiter on every sweep.
	Limiters []*limiter.SlidingWindow
}

// Hub dispatches every websocket event on a single goroutine. Frames from one
// connection are handled in arrival order and the pushes each handler emits
// are queued before the next event is read.
type Hub struct {
	registry *room.Registry
	moves    *limiter.SlidingWindow
	cfg      HubConfig

	// loop-owned
	clients map[string]*Client
	members map[string]map[string]*Client

	events chan event
	done   chan struct{}
}

func NewHub(registry *room.Registry, cfg HubConfig) *Hub {
	if cfg.MoveLimit <= 0 {
		cfg.MoveLimit = 10
	}
	if cfg.MoveWindow <= 0 {
		cfg.MoveWindow = time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Archiver == nil {
		cfg.Archiver = nopArchiver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Hub{
		registry: registry,
		moves:    limiter.NewSlidingWindowWithClock(cfg.Now),
		cfg:      cfg,
		clients:  make(map[string]*Client),
		members:  make(map[string]map[string]*Client),
		events:   make(chan event, eventBuffer),
		done:     make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled. Open connections are closed on
// return.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer func() {
		ticker.Stop()
		close(h.done)
		for _, c := range h.clients {
			h.drop(c)
			ConnectionsActive.Dec()
		}
		logger.Info("hub stopped")
	}()

	logger.Info("hub started", "sweep_interval", h.cfg.SweepInterval)
	for {
		select {
		case ev := <-h.events:
			h.process(ev)
		case <-ticker.C:
			h.sweep(h.cfg.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) enqueue(ev event) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) process(ev event) {
	switch ev.kind {
	case eventRegister:
		h.clients[ev.client.ID] = ev.client
		ConnectionsActive.Inc()
		logger.Debug("client connected", "conn", ev.client.ID)
	case eventFrame:
		if ev.client.closed {
			return
		}
		h.handleFrame(ev.client, ev.data)
	case eventUnregister:
		h.disconnect(ev.client)
	}
}

func (h *Hub) handleFrame(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		h.sendError(c, "Invalid message")
		return
	}
	EventsReceived.WithLabelValues(eventLabel(env.Type)).Inc()

	switch env.Type {
	case EventCreateRoom:
		h.handleCreateRoom(c, env.Payload)
	case EventJoinRoom:
		h.handleJoinRoom(c, env.Payload)
	case EventSyncRequest:
		h.handleSyncRequest(c, env.Payload)
	case EventMakeMove:
		h.handleMakeMove(c, env.Payload)
	case EventResign:
		h.handleResign(c, env.Payload)
	case EventRequestRematch:
		h.handleRequestRematch(c, env.Payload)
	case EventAcceptRematch:
		h.handleAcceptRematch(c, env.Payload)
	default:
		h.sendError(c, "Unknown event "+env.Type)
	}
}

// eventLabel keeps the metric label set closed over the known events.
func eventLabel(typ string) string {
	switch typ {
	case EventCreateRoom, EventJoinRoom, EventSyncRequest, EventMakeMove,
		EventResign, EventRequestRematch, EventAcceptRematch:
		return typ
	}
	return "unknown"
}

func (h *Hub) handleCreateRoom(c *Client, raw json.RawMessage) {
	var p CreateRoomPayload
	if err := decodePayload(raw, &p); err != nil {
		h.sendError(c, invalidPayload(EventCreateRoom))
		return
	}

	identity := h.bindIdentity(c, p.ClientIdentity)
	if name := strings.TrimSpace(p.Name); name != "" {
		c.name = name
	}

	code, invite, err := h.registry.Create()
	if err != nil {
		logger.Error("create room failed", "conn", c.ID, "error", err)
		h.sendError(c, "Unable to create room")
		return
	}
	RoomsActive.Set(float64(h.registry.Len()))
	logger.Info("room created", "room", code, "conn", c.ID)

	h.send(c, EventRoomCreated, RoomCreatedPayload{
		RoomCode:       code,
		InviteURL:      invite,
		ClientIdentity: identity,
	})
}

func (h *Hub) handleJoinRoom(c *Client, raw json.RawMessage) {
	var p JoinRoomPayload
	if err := decodePayload(raw, &p); err != nil {
		h.sendError(c, invalidPayload(EventJoinRoom))
		return
	}

	identity := h.bindIdentity(c, p.ClientIdentity)
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = c.name
	}

	s, out, err := h.registry.Join(p.RoomCode, c.ID, identity, name)
	if err != nil {
		h.sendError(c, reasonText(err))
		return
	}

	h.attach(c, p.RoomCode)
	logger.Info("player joined", "room", p.RoomCode, "conn", c.ID, "color", out.Color)

	if out.Left != nil && out.LeftColor != "" {
		logger.Info("player left for another room", "room", out.Left.Code(), "conn", c.ID, "color", out.LeftColor)
		if opp := h.seatedClient(out.Left, out.LeftColor.Opponent()); opp != nil {
			h.send(opp, EventOpponentConnection, OpponentConnectionPayload{Connected: false})
		}
	}

	h.send(c, EventRoomJoined, RoomJoinedPayload{
		State:          out.State,
		ColorAssigned:  out.Color,
		ClientIdentity: identity,
	})
	h.send(c, EventOpponentConnection, OpponentConnectionPayload{
		Connected: s.IsOpponentConnected(out.Color),
	})
	if opp := h.seatedClient(s, out.Color.Opponent()); opp != nil {
		h.send(opp, EventOpponentConnection, OpponentConnectionPayload{Connected: true})
	}
}

func (h *Hub) handleSyncRequest(c *Client, raw json.RawMessage) {
	var p RoomPayload
	if err := decodePayload(raw, &p); err != nil {
		h.sendError(c, invalidPayload(EventSyncRequest))
		return
	}

	s, ok := h.registry.Get(p.RoomCode)
	if !ok {
		h.sendError(c, room.ReasonRoomNotFound.Error())
		return
	}

	color, _ := h.seatColor(s, c)
	h.send(c, EventSyncState, StatePayload{State: s.Snapshot(color)})
}

func (h *Hub) handleMakeMove(c *Client, raw json.RawMessage) {
	var p MakeMovePayload
	if err := decodePayload(raw, &p); err != nil {
		MovesTotal.WithLabelValues("invalid").Inc()
		h.sendMoveRejected(c, "Invalid move payload")
		return
	}

	if !h.moves.Allow(c.ID, h.cfg.MoveLimit, h.cfg.MoveWindow) {
		MovesTotal.WithLabelValues("rate_limited").Inc()
		h.sendMoveRejected(c, room.ReasonRateLimited.Error())
		return
	}

	s, ok := h.registry.Get(p.RoomCode)
	if !ok {
		h.sendMoveRejected(c, room.ReasonRoomNotFound.Error())
		return
	}

	if c.clientID == "" && p.ClientIdentity != "" {
		c.clientID = p.ClientIdentity
	}
	color, ok := h.seatColor(s, c)
	if !ok {
		h.sendMoveRejected(c, room.ReasonNotSeated.Error())
		return
	}

	out, err := s.ApplyMove(color, p.Move, p.Promotion)
	if err != nil {
		MovesTotal.WithLabelValues("rejected").Inc()
		h.sendMoveRejected(c, reasonText(err))
		return
	}
	MovesTotal.WithLabelValues("accepted").Inc()

	h.broadcast(s.Code(), EventMoveAccepted, MoveAcceptedPayload{
		State:    out.State,
		Notation: out.Notation,
		LastMove: out.LastMove,
		Flags:    out.Flags,
	})
	if out.GameOver != nil {
		h.broadcast(s.Code(), EventGameOver, *out.GameOver)
		h.finish(s, out.GameOver.Result)
	}
}

func (h *Hub) handleResign(c *Client, raw json.RawMessage) {
	var p RoomPayload
	if err := decodePayload(raw, &p); err != nil {
		h.sendError(c, invalidPayload(EventResign))
		return
	}

	s, color, ok := h.seatedSession(c, p.RoomCode)
	if !ok {
		return
	}

	over, err := s.Resign(color)
	if err != nil {
		h.sendError(c, reasonText(err))
		return
	}

	h.broadcast(s.Code(), EventGameOver, over)
	h.finish(s, over.Result)
}

func (h *Hub) handleRequestRematch(c *Client, raw json.RawMessage) {
	var p RoomPayload
	if err := decodePayload(raw, &p); err != nil {
		h.sendError(c, invalidPayload(EventRequestRematch))
		return
	}

	s, color, ok := h.seatedSession(c, p.RoomCode)
	if !ok {
		return
	}

	if err := s.RequestRematch(color); err != nil {
		h.sendError(c, reasonText(err))
		return
	}
	h.broadcast(s.Code(), EventRematchRequested, RematchRequestedPayload{By: color})
}

func (h *Hub) handleAcceptRematch(c *Client, raw json.RawMessage) {
	var p RoomPayload
	if err := decodePayload(raw, &p); err != nil {
		h.sendError(c, invalidPayload(EventAcceptRematch))
		return
	}

	s, color, ok := h.seatedSession(c, p.RoomCode)
	if !ok {
		return
	}

	state, err := s.AcceptRematch(color)
	if err != nil {
		h.sendError(c, reasonText(err))
		return
	}
	logger.Info("rematch started", "room", s.Code())
	h.broadcast(s.Code(), EventRematchStarted, StatePayload{State: state})
}

func (h *Hub) disconnect(c *Client) {
	if c.closed {
		return
	}
	h.drop(c)
	ConnectionsActive.Dec()

	s, color, ok := h.registry.Detach(c.ID)
	if !ok || color == "" {
		logger.Debug("client disconnected", "conn", c.ID)
		return
	}
	logger.Info("player disconnected", "room", s.Code(), "conn", c.ID, "color", color)

	if opp := h.seatedClient(s, color.Opponent()); opp != nil {
		h.send(opp, EventOpponentConnection, OpponentConnectionPayload{Connected: false})
	}
}

// drop forgets c and closes its send queue, which ends the write pump.
func (h *Hub) drop(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	delete(h.clients, c.ID)
	h.detach(c)
	close(c.Send)
}

func (h *Hub) sweep(now time.Time) {
	removed := h.registry.Sweep(now)
	for _, code := range removed {
		for _, c := range h.members[code] {
			c.roomCode = ""
		}
		delete(h.members, code)
	}
	h.moves.Cleanup(limiterMaxAge)
	for _, l := range h.cfg.Limiters {
		l.Cleanup(limiterMaxAge)
	}
	RoomsActive.Set(float64(h.registry.Len()))

	if len(removed) > 0 {
		logger.Info("idle rooms removed", "count", len(removed))
	}
}

func (h *Hub) finish(s *room.Session, result room.Result) {
	GamesFinished.WithLabelValues(string(result.Type)).Inc()
	logger.Info("game over", "room", s.Code(), "result", result.Type, "reason", result.Reason)

	m, ok := s.Record()
	if !ok {
		return
	}
	archiver := h.cfg.Archiver
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := archiver.Archive(ctx, m); err != nil {
			logger.Error("archive match failed", "room", m.RoomCode, "error", err)
		}
	}()
}

// bindIdentity resolves the client identity for c: the one supplied, else the
// one already bound to the connection, else a fresh one.
func (h *Hub) bindIdentity(c *Client, provided string) string {
	switch {
	case provided != "":
		c.clientID = provided
	case c.clientID == "":
		c.clientID = uuid.NewString()
	}
	return c.clientID
}

func (h *Hub) seatColor(s *room.Session, c *Client) (game.Color, bool) {
	if color, ok := s.ColorForConn(c.ID); ok {
		return color, true
	}
	if c.clientID != "" {
		return s.ColorForClient(c.clientID)
	}
	return "", false
}

// seatedSession looks up the room and the caller's seat, reporting failures
// with error_message.
func (h *Hub) seatedSession(c *Client, code string) (*room.Session, game.Color, bool) {
	s, ok := h.registry.Get(code)
	if !ok {
		h.sendError(c, room.ReasonRoomNotFound.Error())
		return nil, "", false
	}
	color, ok := h.seatColor(s, c)
	if !ok {
		h.sendError(c, room.ReasonNotSeated.Error())
		return nil, "", false
	}
	return s, color, true
}

func (h *Hub) seatedClient(s *room.Session, color game.Color) *Client {
	connID, ok := s.ConnectedConn(color)
	if !ok {
		return nil
	}
	return h.clients[connID]
}

func (h *Hub) attach(c *Client, code string) {
	if c.roomCode != "" && c.roomCode != code {
		h.detach(c)
	}
	set, ok := h.members[code]
	if !ok {
		set = make(map[string]*Client)
		h.members[code] = set
	}
	set[c.ID] = c
	c.roomCode = code
}

func (h *Hub) detach(c *Client) {
	if c.roomCode == "" {
		return
	}
	if set, ok := h.members[c.roomCode]; ok {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(h.members, c.roomCode)
		}
	}
	c.roomCode = ""
}

func (h *Hub) broadcast(code, typ string, payload any) {
	msg, err := encode(typ, payload)
	if err != nil {
		logger.Error("encode failed", "event", typ, "error", err)
		return
	}
	for _, c := range h.members[code] {
		h.push(c, typ, msg)
	}
}

func (h *Hub) send(c *Client, typ string, payload any) {
	msg, err := encode(typ, payload)
	if err != nil {
		logger.Error("encode failed", "event", typ, "error", err)
		return
	}
	h.push(c, typ, msg)
}

func (h *Hub) push(c *Client, typ string, msg []byte) {
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
		FramesDropped.WithLabelValues("outbound").Inc()
		logger.Warn("send queue full, frame dropped", "conn", c.ID, "event", typ)
	}
}

func (h *Hub) sendError(c *Client, message string) {
	h.send(c, EventErrorMessage, ErrorPayload{Message: message})
}

func (h *Hub) sendMoveRejected(c *Client, reason string) {
	h.send(c, EventMoveRejected, MoveRejectedPayload{Reason: reason})
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(outbound{Type: typ, Payload: payload})
}

func reasonText(err error) string {
	var reason room.Reason
	if errors.As(err, &reason) {
		return reason.Error()
	}
	logger.Error("unexpected session error", "error", err)
	return "Internal error"
}

package room

import "chessroom/internal/game"

type Status string

const (
	StatusActive    Status = "active"
	StatusCheckmate Status = "checkmate"
	StatusDraw      Status = "draw"
	StatusResigned  Status = "resigned"
)

type ResultType string

const (
	ResultCheckmate ResultType = "checkmate"
	ResultDraw      ResultType = "draw"
	ResultResigned  ResultType = "resigned"
)

// Result is a terminal game outcome. Type selects which optional fields are
// meaningful: Winner for checkmate and resigned, By for resigned, DrawReason
// for draw.
type Result struct {
	Type       ResultType      `json:"type"`
	Winner     game.Color      `json:"winner,omitempty"`
	By         game.Color      `json:"by,omitempty"`
	DrawReason game.DrawReason `json:"drawReason,omitempty"`
	Reason     string          `json:"reason"`
}

func (r Result) Status() Status {
	switch r.Type {
	case ResultCheckmate:
		return StatusCheckmate
	case ResultDraw:
		return StatusDraw
	default:
		return StatusResigned
	}
}

type Players struct {
	White bool `json:"w"`
	Black bool `json:"b"`
}

// State is the full snapshot pushed to clients after every mutation.
type State struct {
	RoomCode             string            `json:"roomCode"`
	FEN                  string            `json:"fen"`
	PGN                  string            `json:"pgn"`
	Turn                 game.Color        `json:"turn"`
	IsCheck              bool              `json:"isCheck"`
	IsCheckmate          bool              `json:"isCheckmate"`
	IsDraw               bool              `json:"isDraw"`
	Status               Status            `json:"status"`
	Winner               game.Color        `json:"winner,omitempty"`
	DrawReason           game.DrawReason   `json:"drawReason,omitempty"`
	History              []game.MoveRecord `json:"history"`
	LastMove             *game.MoveRecord  `json:"lastMove,omitempty"`
	Players              Players           `json:"players"`
	OpponentDisconnected bool              `json:"opponentDisconnected"`
	UpdatedAt            int64             `json:"updatedAt"`
}

type MoveFlags struct {
	Check     bool `json:"check"`
	Checkmate bool `json:"checkmate"`
	Draw      bool `json:"draw"`
	Capture   bool `json:"capture"`
}

type JoinOutcome struct {
	Color game.Color
	State State

	// Left is the room the connection was bound to before this join, if it
	// was another one. LeftColor is the seat it held there, now marked
	// disconnected.
	Left      *Session
	LeftColor game.Color
}

type GameOver struct {
	Result Result `json:"result"`
	State  State  `json:"state"`
}

// MoveOutcome carries everything the dispatcher needs to emit move_accepted
// and, when the move ended the game, the following game_over.
type MoveOutcome struct {
	Notation string
	LastMove game.MoveRecord
	Flags    MoveFlags
	State    State
	GameOver *GameOver
}

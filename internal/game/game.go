package game

import "errors"

// Color is a side of the board: "w" or "b".
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

// Colors lists both sides in seat-assignment order.
var Colors = [2]Color{White, Black}

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Label() string {
	if c == White {
		return "White"
	}
	return "Black"
}

func (c Color) Valid() bool {
	return c == White || c == Black
}

type DrawReason string

const (
	DrawStalemate            DrawReason = "stalemate"
	DrawThreefoldRepetition  DrawReason = "threefold_repetition"
	DrawFiftyMoveRule        DrawReason = "fifty_move_rule"
	DrawInsufficientMaterial DrawReason = "insufficient_material"
	DrawAgreement            DrawReason = "agreement"
)

var drawReasonText = map[DrawReason]string{
	DrawStalemate:            "Draw by stalemate",
	DrawThreefoldRepetition:  "Draw by repetition",
	DrawFiftyMoveRule:        "Draw by 50-move rule",
	DrawInsufficientMaterial: "Draw by insufficient material",
	DrawAgreement:            "Draw",
}

func (d DrawReason) Text() string {
	if s, ok := drawReasonText[d]; ok {
		return s
	}
	return "Draw"
}

var ErrIllegalMove = errors.New("illegal move")

// MoveRecord describes an applied move in the shape pushed to clients.
type MoveRecord struct {
	SAN       string `json:"san"`
	From      string `json:"from"`
	To        string `json:"to"`
	Piece     string `json:"piece"`
	Color     Color  `json:"color"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// Board is the authoritative position of one game. Implementations are not
// safe for concurrent use; the owning session serializes access.
type Board interface {
	Turn() Color
	// Apply plays from->to (with optional promotion piece q|r|b|n) for the side
	// to move. It returns ErrIllegalMove when the engine rejects the move.
	Apply(from, to, promotion string) (MoveRecord, error)
	FEN() string
	PGN() string
	InCheck() bool
	Checkmate() bool
	// DrawReason reports whether the position is drawn and why, checking
	// stalemate, repetition, fifty-move rule, insufficient material, then
	// falling back to agreement.
	DrawReason() (DrawReason, bool)
	Ply() int
}

type Engine interface {
	NewBoard() Board
}

package ws

import (
	"strings"

	"chessroom/internal/game"
	"chessroom/internal/room"
)

// client → server
type CreateRoomPayload struct {
	Name           string `json:"name" validate:"omitempty,playername"`
	ClientIdentity string `json:"clientIdentity" validate:"omitempty,clientid"`
}

type JoinRoomPayload struct {
	RoomCode       string `json:"roomCode" validate:"required,roomcode"`
	ClientIdentity string `json:"clientIdentity" validate:"omitempty,clientid"`
	Name           string `json:"name" validate:"omitempty,playername"`
}

// RoomPayload is shared by sync_request, resign, request_rematch and
// accept_rematch.
type RoomPayload struct {
	RoomCode string `json:"roomCode" validate:"required,roomcode"`
}

type MakeMovePayload struct {
	RoomCode       string `json:"roomCode" validate:"required,roomcode"`
	Move           string `json:"move" validate:"required,uci"`
	Promotion      string `json:"promotion" validate:"omitempty,oneof=q r b n"`
	ClientIdentity string `json:"clientIdentity" validate:"omitempty,clientid"`
}

// normalize trims the identifiers before validation.
func (p *CreateRoomPayload) normalize() {
	p.ClientIdentity = strings.TrimSpace(p.ClientIdentity)
}

func (p *JoinRoomPayload) normalize() {
	p.RoomCode = strings.TrimSpace(p.RoomCode)
	p.ClientIdentity = strings.TrimSpace(p.ClientIdentity)
}

func (p *RoomPayload) normalize() {
	p.RoomCode = strings.TrimSpace(p.RoomCode)
}

func (p *MakeMovePayload) normalize() {
	p.RoomCode = strings.TrimSpace(p.RoomCode)
	p.ClientIdentity = strings.TrimSpace(p.ClientIdentity)
}

// server → client
type RoomCreatedPayload struct {
	RoomCode       string `json:"roomCode"`
	InviteURL      string `json:"inviteUrl"`
	ClientIdentity string `json:"clientIdentity"`
}

type RoomJoinedPayload struct {
	State          room.State `json:"state"`
	ColorAssigned  game.Color `json:"colorAssigned"`
	ClientIdentity string     `json:"clientIdentity"`
}

type OpponentConnectionPayload struct {
	Connected bool `json:"connected"`
}

type StatePayload struct {
	State room.State `json:"state"`
}

type MoveAcceptedPayload struct {
	State    room.State      `json:"state"`
	Notation string          `json:"notation"`
	LastMove game.MoveRecord `json:"lastMove"`
	Flags    room.MoveFlags  `json:"flags"`
}

type MoveRejectedPayload struct {
	Reason string `json:"reason"`
}

type RematchRequestedPayload struct {
	By game.Color `json:"by"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

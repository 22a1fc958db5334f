package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type player struct {
	name string
	conn *websocket.Conn
}

func (p *player) send(typ string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("%s marshal %s: %v", p.name, typ, err)
	}
	msg, _ := json.Marshal(frame{Type: typ, Payload: raw})
	if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Fatalf("%s write %s: %v", p.name, typ, err)
	}
}

// waitFor reads until a frame of the given type arrives, logging the rest.
func (p *player) waitFor(typ string, into any) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = p.conn.SetReadDeadline(deadline)
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			log.Fatalf("%s waiting for %s: %v", p.name, typ, err)
		}
		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			continue
		}
		if f.Type != typ {
			log.Printf("%s got %s", p.name, f.Type)
			continue
		}
		if into != nil {
			if err := json.Unmarshal(f.Payload, into); err != nil {
				log.Fatalf("%s decode %s: %v", p.name, typ, err)
			}
		}
		return
	}
	log.Fatalf("%s: timed out waiting for %s", p.name, typ)
}

func dial(name, url string) *player {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", name, err)
	}
	return &player{name: name, conn: conn}
}

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3001"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	addr := flag.String("url", fmt.Sprintf("ws://127.0.0.1:%s/ws", port), "websocket endpoint")
	flag.Parse()

	white := dial("white", *addr)
	defer white.conn.Close()
	black := dial("black", *addr)
	defer black.conn.Close()

	var created struct {
		RoomCode  string `json:"roomCode"`
		InviteURL string `json:"inviteUrl"`
	}
	white.send("create_room", map[string]string{"name": "smokeW"})
	white.waitFor("room_created", &created)
	log.Printf("room %s invite %s", created.RoomCode, created.InviteURL)

	var joined struct {
		ColorAssigned string `json:"colorAssigned"`
	}
	white.send("join_room", map[string]string{"roomCode": created.RoomCode})
	white.waitFor("room_joined", &joined)
	log.Printf("white seated as %s", joined.ColorAssigned)

	black.send("join_room", map[string]string{"roomCode": created.RoomCode, "name": "smokeB"})
	black.waitFor("room_joined", &joined)
	log.Printf("black seated as %s", joined.ColorAssigned)

	// fool's mate
	moves := []struct {
		p    *player
		move string
	}{
		{white, "f2f3"}, {black, "e7e5"}, {white, "g2g4"}, {black, "d8h4"},
	}
	for _, mv := range moves {
		mv.p.send("make_move", map[string]string{"roomCode": created.RoomCode, "move": mv.move})
		var accepted struct {
			Notation string `json:"notation"`
		}
		// both sides see every accepted move
		white.waitFor("move_accepted", &accepted)
		black.waitFor("move_accepted", nil)
		log.Printf("%s played %s", mv.p.name, accepted.Notation)
	}

	var over struct {
		Result struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"result"`
	}
	white.waitFor("game_over", &over)
	log.Printf("game over: %s (%s)", over.Result.Type, over.Result.Reason)

	white.send("request_rematch", map[string]string{"roomCode": created.RoomCode})
	black.waitFor("rematch_requested", nil)
	black.send("accept_rematch", map[string]string{"roomCode": created.RoomCode})
	white.waitFor("rematch_started", nil)

	log.Println("smoke test finished")
}

package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	msgTypeHeartbeat    = 1
	msgTypeJoinServer   = 2
	msgTypeCreateRoom   = 101
	msgTypeJoinRoom     = 102
	msgTypeSpectateRoom = 103
	msgTypeLeaveRoom    = 104
	msgTypeRoomList     = 106
	msgTypeStartGame    = 202
	msgTypeAddVote      = 203
	msgTypePlayCard     = 206
	msgTypeSortHand     = 207
	msgTypeEndTurn      = 209
)

var sendMutex sync.Mutex

// send formats and sends a message to the WebSocket server. The command
// loop and the heartbeat ticker both write, hence the mutex.
func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	sendMutex.Lock()
	defer sendMutex.Unlock()
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	// Keep the connection alive past the server's read deadline
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, msgTypeHeartbeat, map[string]string{}); err != nil {
					return
				}
			}
		}
	}()

	log.Println("Commands: name <n> | create <room> | join <room> | spectate <room> | leave <room> |")
	log.Println("          rooms | start <room> | vote <room> <candidate> | play <room> <card> <pile> |")
	log.Println("          sort <room> | end <room> [pass]")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "name":
				err = send(c, msgTypeJoinServer, map[string]string{"player_name": fields[1]})
			case "create":
				err = send(c, msgTypeCreateRoom, map[string]string{"room_name": fields[1]})
			case "join":
				err = send(c, msgTypeJoinRoom, map[string]string{"room_name": fields[1]})
			case "spectate":
				err = send(c, msgTypeSpectateRoom, map[string]string{"room_name": fields[1]})
			case "leave":
				err = send(c, msgTypeLeaveRoom, map[string]string{"room_name": fields[1]})
			case "rooms":
				err = send(c, msgTypeRoomList, map[string]string{})
			case "start":
				err = send(c, msgTypeStartGame, map[string]string{"room_name": fields[1]})
			case "vote":
				err = send(c, msgTypeAddVote, map[string]string{"room_name": fields[1], "candidate": fields[2]})
			case "play":
				card, _ := strconv.Atoi(fields[2])
				pile, _ := strconv.Atoi(fields[3])
				err = send(c, msgTypePlayCard, map[string]interface{}{
					"room_name": fields[1], "card": card, "pile_index": pile,
				})
			case "sort":
				err = send(c, msgTypeSortHand, map[string]string{"room_name": fields[1]})
			case "end":
				pass := len(fields) > 2 && fields[2] == "pass"
				err = send(c, msgTypeEndTurn, map[string]interface{}{"room_name": fields[1], "pass_turn": pass})
			default:
				log.Printf("Unknown command: %s", fields[0])
				continue
			}
			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}

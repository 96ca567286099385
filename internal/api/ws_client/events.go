// Command ws_client follows the auth event stream of a signed-in user.
//
//	QH_TOKEN=<token> go run ./internal/api/ws_client
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type event struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	At     string `json:"at"`
}

func main() {
	url := os.Getenv("QH_EVENTS_URL")
	if url == "" {
		url = "ws://localhost:8080/api/v1/auth/events"
	}

	token := os.Getenv("QH_TOKEN")
	if token == "" {
		log.Fatal("QH_TOKEN is required")
	}

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	messageQueue := make(chan []byte)

	go func() {
		defer close(messageQueue)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}

			messageQueue <- p
		}
	}()

	for message := range messageQueue {
		var ev event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("Received unreadable message: %s\n", message)
			continue
		}
		log.Printf("%s %s (%s) at %s\n", ev.Type, ev.Email, ev.UserID, ev.At)
	}
}

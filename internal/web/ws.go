package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is read-only and served on the local network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHandler streams every published snapshot to the client as JSON text
// frames until either side closes.
func wsHandler(b *Broadcaster, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		id, ch := b.Subscribe(4)
		defer b.Unsubscribe(id)

		// Drain client frames so close and ping control messages are handled.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Debug().Err(err).Msg("websocket read failed")
					}
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case snap, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(snap); err != nil {
					log.Debug().Err(err).Msg("websocket write failed")
					return
				}
			}
		}
	}
}

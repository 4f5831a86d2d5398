package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleReplay streams stored messages over a websocket in timestamp order.
// With speed > 0 messages are paced by their relative offsets divided by the
// speed factor (1 = real time); with speed absent or 0 they are sent as fast
// as the client reads.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	filters, err := FiltersFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	speed := 0.0
	if raw := r.URL.Query().Get("speed"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			http.Error(w, "speed must be a non-negative number", http.StatusBadRequest)
			return
		}
		speed = v
	}

	msgs, err := s.store.List(r.Context(), filters)
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(baseWriter(w), r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "replay aborted")

	s.metrics.IncReplayClients(1)
	defer s.metrics.IncReplayClients(-1)

	ctx := r.Context()
	var prevTS int64
	for i, msg := range msgs {
		if speed > 0 && i > 0 {
			delay := time.Duration(float64(msg.TimestampMS-prevTS)/speed) * time.Millisecond
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
		}
		prevTS = msg.TimestampMS

		if err := wsjson.Write(ctx, conn, msg); err != nil {
			return
		}
		s.metrics.IncMessagesStreamed(1)
	}

	conn.Close(websocket.StatusNormalClosure, "replay complete")
}

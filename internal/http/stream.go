package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go.ngs.io/skychart-api/internal/logging"
)

const streamWriteWait = 10 * time.Second

// StreamSky handles GET /v1/sky/stream. The request is validated with a first
// snapshot before upgrading, so bad parameters get a plain HTTP error. After
// the upgrade the current chart is pushed every stream interval until the
// client goes away. The time parameter is ignored; every frame is "now".
func (h *Handler) StreamSky(c *gin.Context) {
	req, err := parseChartRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req.Time = time.Time{}

	ctx := c.Request.Context()
	log := logging.FromContext(ctx, h.log)

	frame, err := h.skyChartUC.Snapshot(ctx, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		log.Warn(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()
	log.Info(ctx, "stream opened", logging.Duration("interval", h.streamInterval))

	// Read messages from the client so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn(ctx, "websocket read error", logging.Err(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	frames := 0
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug(ctx, "stream write failed", logging.Err(err))
			return
		}
		frames++

		select {
		case <-done:
			log.Info(ctx, "stream closed", logging.Int("frames", frames))
			return
		case <-ticker.C:
		}

		frame, err = h.skyChartUC.Snapshot(ctx, req)
		if err != nil {
			log.Error(ctx, "stream snapshot failed", logging.Err(err))
			msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "chart computation failed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
			return
		}
	}
}

package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/issdash/issdash/internal/metrics"
)

// writeGrace bounds how long a single SSE frame write may block before the
// subscriber is considered gone.
const writeGrace = 30 * time.Second

// conn wraps one live SSE subscriber. All writes go through writeFrame so
// deadline handling, flushing, and byte accounting stay in one place.
type conn struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	ip     string
	logger *slog.Logger

	frames int64
	bytes  int64
}

func newConn(w http.ResponseWriter, ip string, logger *slog.Logger) *conn {
	return &conn{
		w:      w,
		rc:     http.NewResponseController(w),
		ip:     ip,
		logger: logger,
	}
}

// writeFrame sends one raw SSE frame and flushes it to the client.
func (c *conn) writeFrame(frame string) error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeGrace)); err != nil {
		c.logger.Debug("could not set write deadline", "remote_ip", c.ip, "error", err)
	}

	n, err := io.WriteString(c.w, frame)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := c.rc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	c.frames++
	c.bytes += int64(n)
	metrics.AddStreamBytes(int64(n))
	return nil
}

// sendJSON sends v as an SSE "data:" message.
func (c *conn) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := c.writeFrame("data: " + string(data) + "\n\n"); err != nil {
		return err
	}
	metrics.IncStreamMessages()
	return nil
}

// sendKeepalive sends an SSE comment line to hold the connection open.
func (c *conn) sendKeepalive() error {
	return c.writeFrame(":\n\n")
}

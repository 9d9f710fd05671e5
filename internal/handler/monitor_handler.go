package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/comsockare/quizguard/internal/response"
	"github.com/comsockare/quizguard/internal/service"
)

// heartbeatInterval keeps idle SSE connections from being reaped by
// proxies between status changes.
const heartbeatInterval = 15 * time.Second

// MonitorHandler streams live student status to the admin dashboard over
// Server-Sent Events, fed by the same Redis channel the proctoring
// sessions publish on.
type MonitorHandler struct {
	proctorService *service.ProctorService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(proctorService *service.ProctorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		proctorService: proctorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorStudentSSE godoc
// GET /api/v1/admin/students/:id/monitor
// Streams the student's status snapshots: one event on attach, then one
// per change, with periodic heartbeats.
func (h *MonitorHandler) MonitorStudentSSE(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.proctorService.Snapshot(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	states, cancel, err := h.proctorService.Subscribe(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int("student_id", id).Msg("Monitor subscribe failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("state", snapshot)
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case state, open := <-states:
			if !open {
				return false
			}
			c.SSEvent("state", state)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		}
	})
}

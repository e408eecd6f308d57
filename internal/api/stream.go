package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mindwell-assessment-server/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is open on the REST surface; the stream matches it.
		return true
	},
}

// streamMessage is one frame on the report stream.
type streamMessage struct {
	Type          string                 `json:"type"`
	Report        *domain.IndividualData `json:"report,omitempty"`
	InsightsReady bool                   `json:"insightsReady"`
}

// streamWaitLimit caps how long a stream connection waits for insights
// before closing with the unenriched report state.
const streamWaitLimit = 3 * time.Minute

// handleStreamReport upgrades to WebSocket, sends the current report
// immediately, and sends it again once narrative insights are stored.
// If the insights are already present, the enriched report is the first
// and only frame.
func (s *Server) handleStreamReport(c *gin.Context) {
	id := c.Param("id")

	report, err := s.reports.GetBySubmissionID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		s.log.WithError(err).Error("Failed to load report for stream")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	ready, err := s.reports.InsightsReady(c.Request.Context(), id)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load insights status for stream")
	}

	// Subscribe before upgrading so an insight completing during the
	// handshake is not lost. Re-check readiness afterwards: generation
	// may have finished between the first check and the subscription.
	var updates <-chan *domain.IndividualData
	var cancel func()
	if !ready && s.insights != nil {
		updates, cancel = s.insights.Subscribe(id)
		defer cancel()

		if nowReady, err := s.reports.InsightsReady(c.Request.Context(), id); err == nil && nowReady {
			ready = true
			if enriched, err := s.reports.GetBySubmissionID(c.Request.Context(), id); err == nil {
				report = enriched
			}
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(streamMessage{
		Type:          "report",
		Report:        report,
		InsightsReady: ready,
	}); err != nil {
		return
	}

	if ready || updates == nil {
		return
	}

	select {
	case enriched, ok := <-updates:
		if !ok || enriched == nil {
			return
		}
		conn.WriteJSON(streamMessage{
			Type:          "insights",
			Report:        enriched,
			InsightsReady: true,
		})
	case <-time.After(streamWaitLimit):
		conn.WriteJSON(streamMessage{
			Type:          "timeout",
			InsightsReady: false,
		})
	case <-c.Request.Context().Done():
	}
}

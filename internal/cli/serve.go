package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/mission"
	"github.com/murtaza-nasir/maestro/internal/rag/ingest"
	"github.com/murtaza-nasir/maestro/internal/sse"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mission API over HTTP, including a live-event SSE stream",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		s := &server{app: a}

		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery())

		r.POST("/missions", s.createMission)
		r.POST("/missions/:id/start", s.startMission)
		r.POST("/missions/:id/stop", s.stopMission)
		r.POST("/missions/:id/resume", s.resumeMission)
		r.GET("/missions/:id", s.getMission)
		r.GET("/missions/:id/report", s.getReport)
		r.GET("/missions/:id/events", s.streamEvents)
		r.POST("/documents", s.uploadDocument)

		fmt.Printf("maestroctl serving on %s\n", addr)
		return r.Run(addr)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}

// server holds the gin handlers; a thin adapter over *mission.Controller
// and *ingest.Pipeline that does request parsing and response shaping only.
type server struct {
	app *app
}

type createMissionRequest struct {
	RequestText string `json:"request_text" binding:"required"`
	Owner       string `json:"owner"`
	ChatID      string `json:"chat_id"`
	UseWeb      bool   `json:"use_web"`
	DocGroupID  string `json:"doc_group_id"`
}

func (s *server) createMission(c *gin.Context) {
	var req createMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := s.app.controller.CreateMission(c.Request.Context(), mission.CreateRequest{
		RequestText: req.RequestText,
		Owner:       req.Owner,
		ChatID:      req.ChatID,
		Options: maestro.MissionOptions{
			UseWeb:          req.UseWeb,
			DocGroupID:      req.DocGroupID,
			AutoSaveSources: true,
		},
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *server) startMission(c *gin.Context) {
	if err := s.app.controller.Start(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *server) stopMission(c *gin.Context) {
	if err := s.app.controller.Stop(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *server) resumeMission(c *gin.Context) {
	if err := s.app.controller.Resume(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *server) getMission(c *gin.Context) {
	m, err := s.app.controller.GetMission(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *server) getReport(c *gin.Context) {
	draft, err := s.app.controller.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, draft)
}

// streamEvents subscribes to the mission's Hub and re-encodes each event as
// an SSE message until the client disconnects. gin's ResponseWriter
// implements http.Flusher, which sse.Encode uses to push each message
// immediately rather than buffering behind gin's own writer.
func (s *server) streamEvents(c *gin.Context) {
	missionID := c.Param("id")
	ch, subID := s.app.controller.Subscribe(missionID)
	defer s.app.controller.Unsubscribe(missionID, subID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev.Payload)
			if err != nil {
				continue
			}
			_ = sse.Encode(c.Writer, sse.Message{
				ID:    strconv.FormatUint(ev.Seq, 10),
				Event: string(ev.Type),
				Data:  payload,
			})
		}
	}
}

func (s *server) uploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := formatFromExtension(header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := s.app.ingest.Ingest(c.Request.Context(), ingest.IngestRequest{
		Owner:    c.PostForm("owner"),
		GroupID:  c.PostForm("group"),
		Filename: header.Filename,
		Format:   format,
		Raw:      raw,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/comsockare/quizguard/internal/middleware"
	"github.com/comsockare/quizguard/internal/proctor"
	"github.com/comsockare/quizguard/internal/service"
	ws "github.com/comsockare/quizguard/internal/websocket"
)

// freshLoginWindow is how soon after login a connection still counts as
// the first attach, which grants the fullscreen login grace.
const freshLoginWindow = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler owns the proctoring stream. Each connection gets a
// server-side proctor.Session; the browser only relays raw platform
// signals and renders the events pushed back.
type WSHandler struct {
	authService    *service.AuthService
	quizService    *service.QuizService
	proctorService *service.ProctorService
	studentService *service.StudentService
	maxViolations  int
	splitRatio     float64
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	authService *service.AuthService,
	quizService *service.QuizService,
	proctorService *service.ProctorService,
	studentService *service.StudentService,
	maxViolations int,
	splitRatio float64,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		authService:    authService,
		quizService:    quizService,
		proctorService: proctorService,
		studentService: studentService,
		maxViolations:  maxViolations,
		splitRatio:     splitRatio,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ProctorStream godoc
// WS /ws/v1/student/proctor
// Upgrades to WebSocket and runs the proctoring session for the duration
// of the connection.
func (h *WSHandler) ProctorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	studentID := claims.UserID

	// Single-device rule applies to the stream too.
	if err := h.authService.ValidateStudentSession(c.Request.Context(), studentID, claims.ID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session invalidated"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(rawConn)
	defer conn.Close()

	wsLog := h.log.With().Int("student_id", studentID).Logger()

	snapshot, err := h.proctorService.Snapshot(c.Request.Context(), studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Initial snapshot fetch failed")
		conn.WriteError("failed to load session state")
		return
	}

	var examInfo *proctor.ExamInfo
	exam, err := h.quizService.GetActiveExam(c.Request.Context())
	if err == nil {
		examInfo = &proctor.ExamInfo{
			ID:              exam.ID,
			DurationSeconds: exam.DurationMinutes * 60,
		}
	} else if !errors.Is(err, service.ErrNoActiveQuiz) {
		wsLog.Error().Err(err).Msg("Active exam fetch failed")
		conn.WriteError("failed to load quiz")
		return
	}

	sessionStart, err := h.authService.GetSessionStart(c.Request.Context(), studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Session start fetch failed")
	}
	fresh := !sessionStart.IsZero() && time.Since(sessionStart) < freshLoginWindow

	platform := newWSPlatform(conn)
	notifier := &wsNotifier{conn: conn}

	var sess *proctor.Session
	sess = proctor.NewSession(proctor.SessionParams{
		Store:    h.proctorService,
		Audit:    h.proctorService,
		Notifier: notifier,
		Platform: platform,
		Clock:    proctor.SystemClock(),
		Log:      wsLog,
		Config: proctor.Config{
			MaxViolations:    h.maxViolations,
			SplitScreenRatio: h.splitRatio,
		},
		Student:      snapshot,
		Exam:         examInfo,
		SessionStart: sessionStart,
		FreshLogin:   fresh,
		Events: proctor.SessionEvents{
			StateChanged: func(st proctor.StudentState) {
				conn.WriteEvent(ws.StateEvent{
					Event:            ws.EventState,
					Status:           string(st.Status),
					Violations:       st.Violations,
					RemainingSeconds: int(sess.Remaining().Seconds()),
				})
			},
			FullscreenWarning: func(deadline time.Time) {
				conn.WriteEvent(ws.WarningEvent{
					Event: ws.EventWarning, Source: ws.WarningFullscreen, Deadline: deadline.Unix(),
				})
			},
			NetworkWarning: func(deadline time.Time) {
				conn.WriteEvent(ws.WarningEvent{
					Event: ws.EventWarning, Source: ws.WarningNetwork, Deadline: deadline.Unix(),
				})
			},
			WarningCleared: func() {
				conn.WriteEvent(ws.SimpleEvent{Event: ws.EventWarningCleared})
			},
			Blocked: func() {
				conn.WriteEvent(ws.SimpleEvent{Event: ws.EventBlocked})
			},
			Unblocked: func() {
				conn.WriteEvent(ws.SimpleEvent{Event: ws.EventUnblocked})
			},
			Disqualified: func(reason string) {
				conn.WriteEvent(ws.DisqualifiedEvent{Event: ws.EventDisqualified, Reason: reason})
			},
			AutoSubmit: func() {
				h.submitAndReport(conn, wsLog, studentID)
			},
		},
	})
	defer sess.Close()

	sess.Start(c.Request.Context())

	// Initial state so the client can render before any change arrives.
	conn.WriteEvent(ws.StateEvent{
		Event:            ws.EventState,
		Status:           string(snapshot.Status),
		Violations:       snapshot.Violations,
		RemainingSeconds: int(sess.Remaining().Seconds()),
	})

	// Change feed: admin block/unblock and corrective writes land here and
	// are reconciled through the session.
	feedCtx, cancelFeed := context.WithCancel(context.Background())
	defer cancelFeed()

	states, cancelSub, err := h.proctorService.Subscribe(feedCtx, studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Status feed subscribe failed")
		conn.WriteError("failed to subscribe to status feed")
		return
	}
	defer cancelSub()

	go func() {
		for st := range states {
			sess.ApplySnapshot(feedCtx, st)
		}
	}()

	wsLog.Info().Msg("Student connected")
	h.readLoop(c, conn, wsLog, sess, platform, studentID, examInfo)
	wsLog.Info().Msg("Student disconnected")
}

// readLoop dispatches raw client signals into the session until the
// connection drops.
func (h *WSHandler) readLoop(
	c *gin.Context,
	conn *ws.Conn,
	wsLog zerolog.Logger,
	sess *proctor.Session,
	platform *wsPlatform,
	studentID int,
	examInfo *proctor.ExamInfo,
) {
	ctx := c.Request.Context()

	for {
		var msg ws.SignalEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Signal {
		case ws.SignalFullscreen:
			platform.setFullscreen(msg.InFullscreen)
			sess.HandleFullscreenChange(ctx)
		case ws.SignalConnectivity:
			platform.setOnline(msg.Online)
			sess.HandleConnectivity(ctx, msg.Online)
		case ws.SignalInput:
			switch msg.Kind {
			case ws.InputKey:
				sess.HandleKey(ctx, msg.Key)
			case ws.InputMouse:
				sess.HandleMouseButton(ctx, msg.Button)
			case ws.InputContextMenu:
				sess.HandleContextMenu(ctx)
			default:
				conn.WriteError("unknown input kind: " + string(msg.Kind))
			}
		case ws.SignalPointer:
			sess.HandlePointer(ctx, msg.Inside)
		case ws.SignalViewport:
			platform.setViewport(msg.WidthRatio, msg.HeightRatio)
			sess.HandleResize(ctx)
		case ws.SignalAnswer:
			h.handleAnswer(conn, studentID, examInfo, &msg)
		case ws.SignalSubmit:
			h.submitAndReport(conn, wsLog, studentID)
		case ws.SignalPing:
			conn.WriteEvent(ws.SimpleEvent{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("signal", string(msg.Signal)).Msg("Unknown signal")
			conn.WriteError("unknown signal: " + string(msg.Signal))
		}
	}
}

// handleAnswer autosaves one answer change.
func (h *WSHandler) handleAnswer(conn *ws.Conn, studentID int, examInfo *proctor.ExamInfo, msg *ws.SignalEnvelope) {
	if examInfo == nil {
		conn.WriteError("no quiz in progress")
		return
	}
	if msg.QuestionID == "" || msg.SelectedOption == "" {
		conn.WriteError("question_id and selected_option are required")
		return
	}
	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		conn.WriteError("invalid question_id format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.quizService.SaveAnswer(ctx, studentID, examInfo.ID, questionID, msg.SelectedOption); err != nil {
		h.log.Error().Err(err).Int("student_id", studentID).Msg("Autosave failed")
		conn.WriteError("save failed")
	}
}

// submitAndReport grades from the cached answers and pushes the result.
// Used by both the manual submit signal and the timer's auto-submit.
func (h *WSHandler) submitAndReport(conn *ws.Conn, wsLog zerolog.Logger, studentID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	student, err := h.studentService.Get(ctx, studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Student fetch for submit failed")
		conn.WriteError("submit failed")
		return
	}

	result, err := h.quizService.Submit(ctx, student, nil)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			conn.WriteError("quiz already submitted")
		case errors.Is(err, service.ErrQuizNotInProgress):
			conn.WriteError("no quiz in progress")
		default:
			wsLog.Error().Err(err).Msg("Submit failed")
			conn.WriteError("submit failed")
		}
		return
	}

	conn.WriteEvent(ws.GradedEvent{
		Event:          ws.EventGraded,
		Score:          result.Score,
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.TotalQuestions,
	})
}

// ─── proctor.Platform over the WebSocket ────────────────────────────

// wsPlatform mirrors the last client-reported platform state so the
// sensors can poll it server-side.
type wsPlatform struct {
	conn *ws.Conn

	mu         sync.Mutex
	fullscreen bool
	online     bool
	wRatio     float64
	hRatio     float64
}

func newWSPlatform(conn *ws.Conn) *wsPlatform {
	// Optimistic defaults until the first reports arrive: a connecting
	// client is online and has not resized below the split threshold.
	return &wsPlatform{conn: conn, online: true, wRatio: 1.0, hRatio: 1.0}
}

func (p *wsPlatform) setFullscreen(v bool) {
	p.mu.Lock()
	p.fullscreen = v
	p.mu.Unlock()
}

func (p *wsPlatform) setOnline(v bool) {
	p.mu.Lock()
	p.online = v
	p.mu.Unlock()
}

func (p *wsPlatform) setViewport(w, h float64) {
	p.mu.Lock()
	p.wRatio, p.hRatio = w, h
	p.mu.Unlock()
}

func (p *wsPlatform) IsFullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen
}

func (p *wsPlatform) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *wsPlatform) ViewportRatio() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wRatio, p.hRatio
}

// RequestFullscreen asks the client to re-enter fullscreen. The client
// confirms by reporting a fullscreen signal, so an accepted write is
// treated as success.
func (p *wsPlatform) RequestFullscreen() error {
	return p.conn.WriteEvent(ws.SimpleEvent{Event: ws.EventEnterFullscreen})
}

// ─── proctor.Notifier over the WebSocket ────────────────────────────

type wsNotifier struct {
	conn *ws.Conn
}

func (n *wsNotifier) Warn(msg string) {
	n.conn.WriteEvent(ws.NoticeEvent{Event: ws.EventNotice, Level: ws.NoticeWarn, Message: msg})
}

func (n *wsNotifier) Terminal(msg string) {
	n.conn.WriteEvent(ws.NoticeEvent{Event: ws.EventNotice, Level: ws.NoticeTerminal, Message: msg})
}

func (n *wsNotifier) Info(msg string) {
	n.conn.WriteEvent(ws.NoticeEvent{Event: ws.EventNotice, Level: ws.NoticeInfo, Message: msg})
}

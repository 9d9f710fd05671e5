package websocket

// ─── Signals (Client → Server) ──────────────────────────────────────
//
// The browser is a dumb relay: it reports raw platform signals and the
// server-side session decides what they mean.

type Signal string

const (
	SignalFullscreen   Signal = "fullscreen"
	SignalConnectivity Signal = "connectivity"
	SignalInput        Signal = "input"
	SignalPointer      Signal = "pointer"
	SignalViewport     Signal = "viewport"
	SignalAnswer       Signal = "answer"
	SignalSubmit       Signal = "submit"
	SignalPing         Signal = "ping"
)

// InputKind distinguishes the raw input report types.
type InputKind string

const (
	InputKey         InputKind = "key"
	InputMouse       InputKind = "mouse"
	InputContextMenu InputKind = "contextmenu"
)

// SignalEnvelope carries every client message. Unused fields stay at
// their zero values; Signal selects which ones matter.
type SignalEnvelope struct {
	Signal Signal `json:"signal"`

	// fullscreen
	InFullscreen bool `json:"in_fullscreen,omitempty"`
	// connectivity
	Online bool `json:"online,omitempty"`
	// input
	Kind   InputKind `json:"kind,omitempty"`
	Key    string    `json:"key,omitempty"`
	Button int       `json:"button,omitempty"`
	// pointer
	Inside bool `json:"inside,omitempty"`
	// viewport, as fractions of the physical screen dimensions
	WidthRatio  float64 `json:"width_ratio,omitempty"`
	HeightRatio float64 `json:"height_ratio,omitempty"`
	// answer
	QuestionID     string `json:"question_id,omitempty"`
	SelectedOption string `json:"selected_option,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState           Event = "state"
	EventWarning         Event = "warning"
	EventWarningCleared  Event = "warning_cleared"
	EventNotice          Event = "notice"
	EventBlocked         Event = "blocked"
	EventUnblocked       Event = "unblocked"
	EventDisqualified    Event = "disqualified"
	EventGraded          Event = "graded"
	EventEnterFullscreen Event = "enter_fullscreen"
	EventError           Event = "error"
	EventPong            Event = "pong"
)

// StateEvent delivers the reconciled authoritative snapshot.
type StateEvent struct {
	Event            Event  `json:"event"`
	Status           string `json:"status"`
	Violations       int    `json:"violations"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// WarningSource tags which sensor opened a grace countdown.
type WarningSource string

const (
	WarningFullscreen WarningSource = "fullscreen"
	WarningNetwork    WarningSource = "network"
)

// WarningEvent opens a countdown overlay on the client. Deadline is a
// Unix timestamp so the client can render the remaining seconds itself.
type WarningEvent struct {
	Event    Event         `json:"event"`
	Source   WarningSource `json:"source"`
	Deadline int64         `json:"deadline"`
}

// NoticeLevel mirrors the notifier severities.
type NoticeLevel string

const (
	NoticeWarn     NoticeLevel = "warn"
	NoticeTerminal NoticeLevel = "terminal"
	NoticeInfo     NoticeLevel = "info"
)

// NoticeEvent carries a user-visible notification.
type NoticeEvent struct {
	Event   Event       `json:"event"`
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// DisqualifiedEvent carries the terminal countdown-expiry reason.
type DisqualifiedEvent struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

// GradedEvent is sent after a successful submission (manual or auto).
type GradedEvent struct {
	Event          Event `json:"event"`
	Score          int   `json:"score"`
	CorrectCount   int   `json:"correct_count"`
	TotalQuestions int   `json:"total_questions"`
}

// SimpleEvent is for events that carry no payload.
type SimpleEvent struct {
	Event Event `json:"event"`
}

// ErrorResponse reports a failed signal back to the client.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

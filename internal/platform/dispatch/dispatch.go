// Package dispatch delivers escalation messages over the channels named in an
// escalation protocol, with per-channel senders, exponential retry, a
// dead-letter queue, and Echo HTTP handlers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Channels and Messages
// ---------------------------------------------------------------------------

// Channel is the delivery route for an escalation message.
type Channel string

const (
	ChannelEmail             Channel = "email"
	ChannelSMS               Channel = "sms"
	ChannelPhone             Channel = "phone"
	ChannelApp               Channel = "app"
	ChannelEmergencyServices Channel = "emergency_services"
)

// Message statuses.
const (
	StatusPending    = "pending"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
	StatusDeadLetter = "dead_letter"
)

// Message is a single outbound escalation delivery.
type Message struct {
	ID          string     `json:"id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	Channel     Channel    `json:"channel"`
	Recipient   string     `json:"recipient"`
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// ---------------------------------------------------------------------------
// Senders
// ---------------------------------------------------------------------------

// Sender delivers a message over one channel.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg *Message) error

func (f SenderFunc) Send(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// MockSender is a test double that records calls and optionally fails the
// first FailFirst attempts.
type MockSender struct {
	mu        sync.Mutex
	calls     []*Message
	FailFirst int
	FailError string
}

func (m *MockSender) Send(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msg)
	if len(m.calls) <= m.FailFirst {
		if m.FailError == "" {
			return errors.New("send failed")
		}
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of the recorded messages.
func (m *MockSender) Calls() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Retry Policy
// ---------------------------------------------------------------------------

// RetryPolicy controls delivery retries. Delay grows geometrically from
// BaseDelay by Multiplier per attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy is three attempts starting at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, Multiplier: 2}
}

// Backoff returns the delay before the given attempt (1-based). The first
// attempt has no delay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

// Dispatcher routes messages to per-channel senders, retries transient
// failures, and parks exhausted messages on a dead-letter queue.
type Dispatcher struct {
	policy  RetryPolicy
	logger  zerolog.Logger
	mu      sync.RWMutex
	senders map[Channel]Sender
	sent    map[string]*Message
	dead    []*Message
}

func NewDispatcher(policy RetryPolicy, logger zerolog.Logger) *Dispatcher {
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	return &Dispatcher{
		policy:  policy,
		logger:  logger,
		senders: make(map[Channel]Sender),
		sent:    make(map[string]*Message),
	}
}

// Register installs the sender for a channel, replacing any existing one.
func (d *Dispatcher) Register(ch Channel, s Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[ch] = s
}

// Dispatch delivers the message with retries. On exhaustion the message moves
// to the dead-letter queue and the last error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now().UTC()
	msg.Status = StatusPending

	d.mu.RLock()
	sender, ok := d.senders[msg.Channel]
	d.mu.RUnlock()
	if !ok {
		msg.Status = StatusDeadLetter
		msg.LastError = fmt.Sprintf("no sender registered for channel %q", msg.Channel)
		d.park(msg)
		return errors.New(msg.LastError)
	}

	var lastErr error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		if delay := d.policy.Backoff(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
			case <-time.After(delay):
			}
			if ctx.Err() != nil {
				break
			}
		}

		msg.Attempts = attempt
		lastErr = sender.Send(ctx, msg)
		if lastErr == nil {
			now := time.Now().UTC()
			msg.Status = StatusDelivered
			msg.DeliveredAt = &now
			msg.LastError = ""
			d.record(msg)
			return nil
		}
		msg.LastError = lastErr.Error()
		d.logger.Warn().
			Str("message_id", msg.ID).
			Str("channel", string(msg.Channel)).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("escalation delivery failed")
	}

	msg.Status = StatusDeadLetter
	d.park(msg)
	return lastErr
}

func (d *Dispatcher) record(msg *Message) {
	d.mu.Lock()
	d.sent[msg.ID] = msg
	d.mu.Unlock()
}

func (d *Dispatcher) park(msg *Message) {
	d.mu.Lock()
	d.sent[msg.ID] = msg
	d.dead = append(d.dead, msg)
	d.mu.Unlock()
}

// Get retrieves a dispatched message by ID.
func (d *Dispatcher) Get(id string) (*Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	msg, ok := d.sent[id]
	if !ok {
		return nil, fmt.Errorf("message %q not found", id)
	}
	return msg, nil
}

// DeadLetters returns a copy of the dead-letter queue.
func (d *Dispatcher) DeadLetters() []*Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Message, len(d.dead))
	copy(out, d.dead)
	return out
}

// Redrive retries a dead-lettered message. The message leaves the queue only
// on success.
func (d *Dispatcher) Redrive(ctx context.Context, id string) error {
	d.mu.Lock()
	var msg *Message
	idx := -1
	for i, m := range d.dead {
		if m.ID == id {
			msg, idx = m, i
			break
		}
	}
	d.mu.Unlock()
	if msg == nil {
		return fmt.Errorf("message %q is not in the dead-letter queue", id)
	}

	fresh := *msg
	fresh.Status = StatusPending
	fresh.Attempts = 0
	fresh.LastError = ""
	if err := d.Dispatch(ctx, &fresh); err != nil {
		return err
	}
	d.mu.Lock()
	if idx < len(d.dead) && d.dead[idx] == msg {
		d.dead = append(d.dead[:idx], d.dead[idx+1:]...)
	}
	d.sent[id] = &fresh
	d.mu.Unlock()
	return nil
}

// Stats returns message counts grouped by status.
func (d *Dispatcher) Stats() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	stats := make(map[string]int)
	for _, m := range d.sent {
		stats[m.Status]++
	}
	return stats
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// Handler exposes dispatch operations over HTTP via Echo.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(d *Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/dispatches", h.HandleDispatch)
	g.GET("/dispatches/stats", h.HandleStats)
	g.GET("/dispatches/dead-letters", h.HandleDeadLetters)
	g.GET("/dispatches/:id", h.HandleGet)
	g.POST("/dispatches/:id/redrive", h.HandleRedrive)
}

type dispatchRequest struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Severity  string    `json:"severity"`
}

func (h *Handler) HandleDispatch(c echo.Context) error {
	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	msg := &Message{
		SubjectID: req.SubjectID,
		Channel:   req.Channel,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
		Severity:  req.Severity,
	}
	// The caller gets the message back either way; a failed delivery is
	// visible through its status and dead-letter membership.
	_ = h.dispatcher.Dispatch(c.Request().Context(), msg)
	return c.JSON(http.StatusCreated, msg)
}

func (h *Handler) HandleGet(c echo.Context) error {
	msg, err := h.dispatcher.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *Handler) HandleDeadLetters(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dispatcher.DeadLetters())
}

func (h *Handler) HandleRedrive(c echo.Context) error {
	if err := h.dispatcher.Redrive(c.Request().Context(), c.Param("id")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	msg, _ := h.dispatcher.Get(c.Param("id"))
	return c.JSON(http.StatusOK, msg)
}

func (h *Handler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dispatcher.Stats())
}

package audit

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	ActorID   string    `json:"actor_id,omitempty"`
	EntryID   int64     `json:"entry_id,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Logger writes one JSON line per event, prefixed with "AUDIT: ".
type Logger struct {
	out *log.Logger
	now func() time.Time
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr)
}

func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		out: log.New(w, "", log.LstdFlags),
		now: time.Now,
	}
}

func (a *Logger) LogExpense(operation, actorID string, entryID int64, ownerID string) {
	a.log(Event{
		EventType: operation,
		ActorID:   actorID,
		EntryID:   entryID,
		OwnerID:   ownerID,
		Status:    "SUCCESS",
	})
}

func (a *Logger) LogAuth(operation, username, status string) {
	a.log(Event{
		EventType: operation,
		Status:    status,
		Details:   map[string]string{"username": username},
	})
}

func (a *Logger) LogError(operation, actorID string, err error) {
	a.log(Event{
		EventType: operation,
		ActorID:   actorID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}

// Package notify delivers user facing messages (toasts) produced by failed
// cart operations.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Error(msg string)
}

// LogNotifier writes every message to the log at warning level.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Error(msg string) {
	n.log.WithField("toast", "error").Warn(msg)
}

type Message struct {
	Level     string    `json:"level"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder keeps the most recent messages so a UI can poll and drain them.
type Recorder struct {
	mu       sync.RWMutex
	messages []Message
	limit    int
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, Message{Level: "error", Text: msg, CreatedAt: time.Now()})
	if over := len(r.messages) - r.limit; over > 0 {
		r.messages = append([]Message(nil), r.messages[over:]...)
	}
}

// Messages returns the recorded messages, oldest first.
func (r *Recorder) Messages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Message(nil), r.messages...)
}

// Texts is Messages reduced to the message texts.
func (r *Recorder) Texts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	texts := make([]string, len(r.messages))
	for i, m := range r.messages {
		texts[i] = m.Text
	}
	return texts
}

// Drain returns the recorded messages and forgets them.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.messages
	r.messages = nil
	if out == nil {
		out = []Message{}
	}
	return out
}

// Multi fans a message out to several notifiers.
type Multi []Notifier

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

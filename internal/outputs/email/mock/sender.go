package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/hmgdev/hmg-index/internal/outputs/email"
)

// Sender records delivered messages. Err fails every send; Reject fails only
// messages addressed to the listed recipients.
type Sender struct {
	Err    error
	Reject map[string]error

	mu   sync.Mutex
	sent []email.Message
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Err != nil {
		return s.Err
	}
	if err, ok := s.Reject[strings.ToLower(strings.TrimSpace(message.To))]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, message)
	return nil
}

// Sent returns a copy of the delivered messages in send order.
func (s *Sender) Sent() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.sent...)
}

// Recipients lists the To address of each delivered message.
func (s *Sender) Recipients() []string {
	sent := s.Sent()
	out := make([]string, 0, len(sent))
	for _, m := range sent {
		out = append(out, m.To)
	}
	return out
}

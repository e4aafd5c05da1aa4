// Package email is the outbound mail seam used by alert notifications.
package email

import "context"

// Message is an HTML mail with an optional plain-text alternative. To may
// hold several comma-separated addresses.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}

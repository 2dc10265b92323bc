package otp

import "context"

// Channel discriminates the out-of-band route a code travels on.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Sender delivers a generated code to the principal out of band.
// Implementations wrap an SMS gateway, a mail relay, or a push channel
// and route on the channel argument.
type Sender interface {
	Send(ctx context.Context, channel Channel, destination, code string) error
}

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(ctx context.Context, channel Channel, destination, code string) error

func (f SenderFunc) Send(ctx context.Context, channel Channel, destination, code string) error {
	return f(ctx, channel, destination, code)
}

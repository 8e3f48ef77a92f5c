package entity

import (
	"context"
)

// RawServer asynchronous raw link-layer socket as used by the listener
type RawServer interface {
	AsyncReceive() error
	AsyncSend(frame []byte) error
	Buffer() []byte
	Peer() LinkEndpoint
	Endpoint() LinkEndpoint
	Close() error
}

// ListenerState listener state exposed by the control servers
type ListenerState interface {
	GetStatistic() *Statistic
	Send(frame []byte) error
	Subscribe(ctx context.Context) <-chan []byte
}

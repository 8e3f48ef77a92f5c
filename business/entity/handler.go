package entity

import (
	"fmt"
	"strings"
)

// RawHandler receives completions of asynchronous raw socket operations.
// HandleReceive must re-arm the receive if it wants to keep listening.
type RawHandler interface {
	HandleReceive(err error, n int)
	HandleSend(err error, n int)
}

// RawHandlerFuncs adapts a pair of closures to RawHandler
type RawHandlerFuncs struct {
	Receive func(err error, n int)
	Send    func(err error, n int)
}

func (h RawHandlerFuncs) HandleReceive(err error, n int) {
	if h.Receive != nil {
		h.Receive(err, n)
	}
}

func (h RawHandlerFuncs) HandleSend(err error, n int) {
	if h.Send != nil {
		h.Send(err, n)
	}
}

// SendPolicy selects where AsyncSend addresses a frame
type SendPolicy string

const (
	// SendPolicyBound always sends to the bound endpoint
	SendPolicyBound SendPolicy = "bound"
	// SendPolicyDestination sends to the frame's destination hardware address
	SendPolicyDestination SendPolicy = "destination"
)

func ParseSendPolicy(s string) (SendPolicy, error) {
	p := SendPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return SendPolicyBound, nil
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

func (p SendPolicy) Validate() error {
	switch p {
	case SendPolicyBound, SendPolicyDestination:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownSendPolicy, string(p))
}

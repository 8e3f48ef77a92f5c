package entity

import (
	"errors"
	"fmt"
	"io"
	"net"
)

var (
	ErrInterfaceNotFound = errors.New("network interface not found")
	ErrOpenOrBind        = errors.New("failed to open or bind raw socket")
	ErrReceivePending    = errors.New("receive operation already pending")
	ErrServerClosed      = errors.New("raw server closed")
	ErrOperationAborted  = errors.New("operation aborted")
	ErrMessageTruncated  = errors.New("message truncated")
	ErrFrameTooShort     = errors.New("frame too short")
	ErrHandlerNotSet     = errors.New("completion handler is not set")
	ErrUnknownSendPolicy = errors.New("unknown send policy")
	ErrUnknownEtherType  = errors.New("unknown EtherType")
	ErrWrongHardwareAddr = errors.New("wrong hardware address")
	ErrReactorRunning    = errors.New("reactor is already running")
	ErrReactorStopped    = errors.New("reactor stopped")
	ErrServerNotSet      = errors.New("raw server is not set")
	ErrValidation        = errors.New("validation error")
)

// InterfaceNotFoundError a non-empty interface name did not resolve to an index
type InterfaceNotFoundError struct {
	Name string
	Err  error
}

func (e *InterfaceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network interface '%s' does not exist: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("network interface '%s' does not exist", e.Name)
}

func (e *InterfaceNotFoundError) Is(target error) bool {
	return target == ErrInterfaceNotFound
}

func (e *InterfaceNotFoundError) Unwrap() error {
	return e.Err
}

// OpenOrBindError the raw socket could not be created, bound or registered
type OpenOrBindError struct {
	Op       string
	Endpoint LinkEndpoint
	Err      error
}

func (e *OpenOrBindError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *OpenOrBindError) Is(target error) bool {
	return target == ErrOpenOrBind
}

func (e *OpenOrBindError) Unwrap() error {
	return e.Err
}

// IsMessageTruncated reports the soft "datagram larger than buffer" condition
func IsMessageTruncated(err error) bool {
	return errors.Is(err, ErrMessageTruncated)
}

func IsOperationAborted(err error) bool {
	return errors.Is(err, ErrOperationAborted)
}

func IsErrorInterruptingNetwork(err error) bool {
	if IsOperationAborted(err) || errors.Is(err, ErrServerClosed) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout() || errors.Is(opErr, net.ErrClosed)
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

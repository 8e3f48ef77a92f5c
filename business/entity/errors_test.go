package entity

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterfaceNotFoundError(t *testing.T) {
	err := error(&InterfaceNotFoundError{Name: "nope0"})
	require.ErrorIs(t, err, ErrInterfaceNotFound)
	require.Contains(t, err.Error(), "nope0")

	err = &InterfaceNotFoundError{Name: "nope0", Err: syscall.ENODEV}
	require.ErrorIs(t, err, ErrInterfaceNotFound)
	require.ErrorIs(t, err, syscall.ENODEV)

	var nf *InterfaceNotFoundError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &nf))
	require.Equal(t, "nope0", nf.Name)
}

func TestOpenOrBindError(t *testing.T) {
	err := error(&OpenOrBindError{Op: "open", Endpoint: NewLinkEndpoint(EtherTypeAll), Err: syscall.EPERM})
	require.ErrorIs(t, err, ErrOpenOrBind)
	require.ErrorIs(t, err, syscall.EPERM)
	require.NotErrorIs(t, err, ErrInterfaceNotFound)
	require.Contains(t, err.Error(), "open packet(ifindex=0")
}

func TestErrorClassification(t *testing.T) {
	require.True(t, IsMessageTruncated(fmt.Errorf("recv: %w", ErrMessageTruncated)))
	require.False(t, IsMessageTruncated(ErrOperationAborted))

	require.True(t, IsOperationAborted(ErrOperationAborted))
	require.True(t, IsErrorInterruptingNetwork(ErrOperationAborted))
	require.True(t, IsErrorInterruptingNetwork(ErrServerClosed))
	require.True(t, IsErrorInterruptingNetwork(io.EOF))
	require.True(t, IsErrorInterruptingNetwork(&net.OpError{Op: "read", Err: net.ErrClosed}))
	require.False(t, IsErrorInterruptingNetwork(syscall.ENETDOWN))
	require.False(t, IsErrorInterruptingNetwork(ErrMessageTruncated))
}

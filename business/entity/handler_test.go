package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSendPolicy(t *testing.T) {
	p, err := ParseSendPolicy("")
	require.NoError(t, err)
	require.Equal(t, SendPolicyBound, p)

	p, err = ParseSendPolicy(" Destination")
	require.NoError(t, err)
	require.Equal(t, SendPolicyDestination, p)

	_, err = ParseSendPolicy("flood")
	require.ErrorIs(t, err, ErrUnknownSendPolicy)
}

func TestRawHandlerFuncs(t *testing.T) {
	var received, sent int
	var h RawHandler = RawHandlerFuncs{
		Receive: func(_ error, n int) { received = n },
		Send:    func(_ error, n int) { sent = n },
	}

	h.HandleReceive(nil, 60)
	h.HandleSend(nil, 42)
	require.Equal(t, 60, received)
	require.Equal(t, 42, sent)

	// unset callbacks are ignored
	RawHandlerFuncs{}.HandleReceive(ErrOperationAborted, 0)
	RawHandlerFuncs{}.HandleSend(ErrOperationAborted, 0)
}

func TestDestination(t *testing.T) {
	frame := []byte{0x02, 0, 0, 0, 0, 0x09, 0x02, 0, 0, 0, 0, 0x01, 0x88, 0xb5}
	hw, err := Destination(frame)
	require.NoError(t, err)
	require.Equal(t, "02:00:00:00:00:09", hw.String())

	_, err = Destination(frame[:13])
	require.ErrorIs(t, err, ErrFrameTooShort)
}

func TestParseHexFrame(t *testing.T) {
	frame, err := ParseHexFrame("ff:ff:ff:ff:ff:ff 02:00:00:00:00:01 88b5")
	require.NoError(t, err)
	require.Len(t, frame, EthernetHeaderSize)
	require.Equal(t, byte(0xb5), frame[13])

	_, err = ParseHexFrame("zz")
	require.Error(t, err)
}

func TestCompressionType(t *testing.T) {
	for _, name := range []string{CompressionNameNone, CompressionNameLZ4, CompressionNameLZO, CompressionNameZSTD} {
		require.Equal(t, name, GetCompressionType(name).String())
	}
	require.Equal(t, CompressionNone, GetCompressionType("gzip"))
}

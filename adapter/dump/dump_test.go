package dump

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"

	"github.com/forest33/rawlink/pkg/logger"
)

func TestDump(t *testing.T) {
	name := filepath.Join(t.TempDir(), "frames.pcap")
	d, err := New(&Config{FileName: name, SnapLength: 32}, logger.NewNop())
	require.NoError(t, err)

	ts := time.Unix(1700000000, 0)
	short := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02, 0, 0, 0, 0, 0x01, 0x08, 0x06}
	long := make([]byte, 64)
	long[12], long[13] = 0x88, 0xb5

	require.NoError(t, d.Dump(short, len(short), ts))
	require.NoError(t, d.Dump(long, 1600, ts.Add(time.Millisecond)))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	require.ErrorIs(t, d.Dump(short, len(short), ts), os.ErrClosed)

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)
	require.Equal(t, layers.LinkTypeEthernet, r.LinkType())
	require.Equal(t, uint32(32), r.Snaplen())

	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	require.Equal(t, short, data)
	require.Equal(t, len(short), ci.Length)
	require.True(t, ci.Timestamp.Equal(ts))

	data, ci, err = r.ReadPacketData()
	require.NoError(t, err)
	require.Len(t, data, 32)
	require.Equal(t, 32, ci.CaptureLength)
	require.Equal(t, 1600, ci.Length)

	_, _, err = r.ReadPacketData()
	require.True(t, errors.Is(err, io.EOF))
}

// Package dump writes captured frames to a pcap file
package dump

import (
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"

	"github.com/forest33/rawlink/pkg/logger"
)

type Dumper struct {
	cfg  *Config
	log  *logger.Logger
	file *os.File
	buf  *bufio.Writer
	w    *pcapgo.Writer
	sync.Mutex
}

type Config struct {
	FileName   string
	SnapLength int
}

// New creates the pcap file, truncating an existing one.
func New(cfg *Config, log *logger.Logger) (*Dumper, error) {
	f, err := os.Create(cfg.FileName)
	if err != nil {
		return nil, errors.Wrap(err, "create pcap file")
	}

	buf := bufio.NewWriter(f)
	w := pcapgo.NewWriter(buf)
	if err := w.WriteFileHeader(uint32(cfg.SnapLength), layers.LinkTypeEthernet); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "write pcap header")
	}

	log.Info().Str("file", cfg.FileName).Int("snap_length", cfg.SnapLength).Msg("dumping frames")

	return &Dumper{
		cfg:  cfg,
		log:  log,
		file: f,
		buf:  buf,
		w:    w,
	}, nil
}

// Dump appends a frame. length is the original frame length, larger than
// len(data) for truncated frames.
func (d *Dumper) Dump(data []byte, length int, ts time.Time) error {
	if len(data) > d.cfg.SnapLength {
		data = data[:d.cfg.SnapLength]
	}
	if length < len(data) {
		length = len(data)
	}

	d.Lock()
	defer d.Unlock()

	if d.w == nil {
		return os.ErrClosed
	}

	return d.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        length,
	}, data)
}

func (d *Dumper) Close() error {
	d.Lock()
	defer d.Unlock()

	if d.w == nil {
		return nil
	}
	d.w = nil

	if err := d.buf.Flush(); err != nil {
		_ = d.file.Close()
		return errors.Wrap(err, "flush pcap file")
	}
	return d.file.Close()
}

package entity

import (
	"sync/atomic"
	"time"
)

// Statistic listener counters snapshot
type Statistic struct {
	InstanceID      string `mapstructure:"instance_id" json:"instance_id"`
	Interface       string `mapstructure:"interface" json:"interface"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint"`
	StartedAt       int64  `mapstructure:"started_at" json:"started_at"`
	ReceivedFrames  uint64 `mapstructure:"received_frames" json:"received_frames"`
	ReceivedBytes   uint64 `mapstructure:"received_bytes" json:"received_bytes"`
	TruncatedFrames uint64 `mapstructure:"truncated_frames" json:"truncated_frames"`
	ShortFrames     uint64 `mapstructure:"short_frames" json:"short_frames"`
	ReceiveErrors   uint64 `mapstructure:"receive_errors" json:"receive_errors"`
	SentFrames      uint64 `mapstructure:"sent_frames" json:"sent_frames"`
	SentBytes       uint64 `mapstructure:"sent_bytes" json:"sent_bytes"`
	SendErrors      uint64 `mapstructure:"send_errors" json:"send_errors"`
}

// Counters lock-free listener counters
type Counters struct {
	ReceivedFrames  atomic.Uint64
	ReceivedBytes   atomic.Uint64
	TruncatedFrames atomic.Uint64
	ShortFrames     atomic.Uint64
	ReceiveErrors   atomic.Uint64
	SentFrames      atomic.Uint64
	SentBytes       atomic.Uint64
	SendErrors      atomic.Uint64
}

func (c *Counters) Snapshot(instanceID, ifName, endpoint string, startedAt time.Time) *Statistic {
	return &Statistic{
		InstanceID:      instanceID,
		Interface:       ifName,
		Endpoint:        endpoint,
		StartedAt:       startedAt.Unix(),
		ReceivedFrames:  c.ReceivedFrames.Load(),
		ReceivedBytes:   c.ReceivedBytes.Load(),
		TruncatedFrames: c.TruncatedFrames.Load(),
		ShortFrames:     c.ShortFrames.Load(),
		ReceiveErrors:   c.ReceiveErrors.Load(),
		SentFrames:      c.SentFrames.Load(),
		SentBytes:       c.SentBytes.Load(),
		SendErrors:      c.SendErrors.Load(),
	}
}

type MetricsRecorder interface {
	FrameReceived(n int, truncated bool)
	FrameSent(n int)
	ReceiveError(err error)
	SendError(err error)
}

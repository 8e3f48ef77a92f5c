package entity

import (
	"encoding/hex"
	"net"
	"strings"
	"time"
)

type FrameDecoder interface {
	Decode(data []byte) (*FrameInfo, error)
}

type FrameDumper interface {
	Dump(data []byte, length int, ts time.Time) error
	Close() error
}

// FrameInfo decoded Ethernet frame summary
type FrameInfo struct {
	Src       net.HardwareAddr
	Dst       net.HardwareAddr
	EtherType uint16
	VLAN      []uint16
	Length    int
	Truncated bool
	ARP       *ARP
	IP        *IP
	TCP       *TCP
	UDP       *UDP
	ICMP      *ICMP
}

type ARP struct {
	Operation uint16
	SenderMAC net.HardwareAddr
	SenderIP  net.IP
	TargetIP  net.IP
}

type IP struct {
	Version  int
	Src      string
	Dst      string
	Protocol string
	Length   uint16
}

type TCP struct {
	Src    string
	Dst    string
	Seq    uint32
	Length int
}

type UDP struct {
	Src    string
	Dst    string
	Length uint16
}

type ICMP struct {
	Type   string
	Length int
}

// Destination returns the destination hardware address of an Ethernet frame.
func Destination(frame []byte) (net.HardwareAddr, error) {
	if len(frame) < EthernetHeaderSize {
		return nil, ErrFrameTooShort
	}
	return net.HardwareAddr(frame[:HardwareAddrLength]), nil
}

// ParseHexFrame decodes a frame written as hex digits, optionally separated by colons or spaces.
func ParseHexFrame(s string) ([]byte, error) {
	return hex.DecodeString(strings.NewReplacer(":", "", " ", "").Replace(s))
}

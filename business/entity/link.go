package entity

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
)

const (
	// AddressFamilyPacket AF_PACKET / PF_PACKET
	AddressFamilyPacket = 17
	// SocketTypeRaw SOCK_RAW
	SocketTypeRaw = 3
	// HardwareTypeEthernet ARPHRD_ETHER
	HardwareTypeEthernet = 1
	// HardwareAddrLength ETH_ALEN
	HardwareAddrLength = 6

	// SockaddrLinklayerSize size of struct sockaddr_ll
	SockaddrLinklayerSize = 20
	sockaddrAddrSize      = 8
)

// sockaddr_ll field offsets
const (
	offFamily   = 0
	offProtocol = 2
	offIfindex  = 4
	offHatype   = 8
	offPkttype  = 10
	offHalen    = 11
	offAddr     = 12
)

// Htons converts a short from host to network byte order.
func Htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}

// Ntohs converts a short from network to host byte order.
func Ntohs(v uint16) uint16 {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], v)
	return binary.BigEndian.Uint16(b[:])
}

// LinkProtocol raw link-layer protocol descriptor
type LinkProtocol struct {
	protocol uint16
	family   int
}

// NewLinkProtocol returns a packet family descriptor filtering on etherType.
func NewLinkProtocol(etherType uint16) LinkProtocol {
	return NewLinkProtocolFamily(etherType, AddressFamilyPacket)
}

// NewLinkProtocolFamily returns a descriptor with an explicit address family.
func NewLinkProtocolFamily(etherType uint16, family int) LinkProtocol {
	return LinkProtocol{
		protocol: Htons(etherType),
		family:   family,
	}
}

// Type returns the socket type
func (p LinkProtocol) Type() int {
	return SocketTypeRaw
}

// Protocol returns the EtherType filter in network byte order
func (p LinkProtocol) Protocol() uint16 {
	return p.protocol
}

// EtherType returns the EtherType filter in host byte order
func (p LinkProtocol) EtherType() uint16 {
	return Ntohs(p.protocol)
}

// Family returns the address family
func (p LinkProtocol) Family() int {
	return p.family
}

// LinkEndpoint raw capture binding target: interface index and EtherType
// filter, stored as a kernel sockaddr_ll.
type LinkEndpoint struct {
	raw      [SockaddrLinklayerSize]byte
	protocol LinkProtocol
}

// NewLinkEndpoint returns an endpoint bound to all interfaces.
func NewLinkEndpoint(etherType uint16) LinkEndpoint {
	return NewLinkEndpointIndex(0, etherType)
}

// NewLinkEndpointIndex returns an endpoint bound to the interface with index ifindex.
func NewLinkEndpointIndex(ifindex int, etherType uint16) LinkEndpoint {
	ep := LinkEndpoint{protocol: NewLinkProtocol(etherType)}
	binary.NativeEndian.PutUint16(ep.raw[offFamily:], AddressFamilyPacket)
	// protocol is already converted by NewLinkProtocol
	binary.NativeEndian.PutUint16(ep.raw[offProtocol:], ep.protocol.Protocol())
	binary.NativeEndian.PutUint32(ep.raw[offIfindex:], uint32(int32(ifindex)))
	binary.NativeEndian.PutUint16(ep.raw[offHatype:], HardwareTypeEthernet)
	return ep
}

// LinkEndpointFromRaw wraps an already formed sockaddr_ll.
func LinkEndpointFromRaw(raw [SockaddrLinklayerSize]byte) LinkEndpoint {
	ep := LinkEndpoint{raw: raw}
	ep.protocol = LinkProtocol{
		protocol: binary.NativeEndian.Uint16(raw[offProtocol:]),
		family:   int(binary.NativeEndian.Uint16(raw[offFamily:])),
	}
	return ep
}

func (e LinkEndpoint) Protocol() LinkProtocol {
	return e.protocol
}

func (e LinkEndpoint) Family() int {
	return int(binary.NativeEndian.Uint16(e.raw[offFamily:]))
}

func (e LinkEndpoint) Ifindex() int {
	return int(int32(binary.NativeEndian.Uint32(e.raw[offIfindex:])))
}

func (e LinkEndpoint) EtherType() uint16 {
	return Ntohs(binary.NativeEndian.Uint16(e.raw[offProtocol:]))
}

func (e LinkEndpoint) Hatype() uint16 {
	return binary.NativeEndian.Uint16(e.raw[offHatype:])
}

func (e LinkEndpoint) Pkttype() uint8 {
	return e.raw[offPkttype]
}

// HardwareAddr returns sll_addr truncated to sll_halen, nil if unset.
func (e LinkEndpoint) HardwareAddr() net.HardwareAddr {
	n := int(e.raw[offHalen])
	if n == 0 {
		return nil
	}
	if n > sockaddrAddrSize {
		n = sockaddrAddrSize
	}
	hw := make(net.HardwareAddr, n)
	copy(hw, e.raw[offAddr:offAddr+n])
	return hw
}

// WithHardwareAddr returns a copy of the endpoint addressed to hw.
func (e LinkEndpoint) WithHardwareAddr(hw net.HardwareAddr) (LinkEndpoint, error) {
	if len(hw) == 0 || len(hw) > sockaddrAddrSize {
		return e, ErrWrongHardwareAddr
	}
	for i := offAddr; i < SockaddrLinklayerSize; i++ {
		e.raw[i] = 0
	}
	e.raw[offHalen] = uint8(len(hw))
	copy(e.raw[offAddr:], hw)
	return e, nil
}

// RawBytes returns a copy of the underlying sockaddr_ll.
func (e LinkEndpoint) RawBytes() [SockaddrLinklayerSize]byte {
	return e.raw
}

// RawBytesMutable gives access to the underlying sockaddr_ll.
func (e *LinkEndpoint) RawBytesMutable() []byte {
	return e.raw[:]
}

func (e LinkEndpoint) Size() int {
	return SockaddrLinklayerSize
}

func (e LinkEndpoint) Capacity() int {
	return SockaddrLinklayerSize
}

// Resize does nothing, sockaddr_ll has a fixed size.
func (e *LinkEndpoint) Resize(int) {}

func (e LinkEndpoint) Equal(o LinkEndpoint) bool {
	return e.raw == o.raw
}

// Compare orders endpoints by their raw bytes.
func (e LinkEndpoint) Compare(o LinkEndpoint) int {
	return bytes.Compare(e.raw[:], o.raw[:])
}

func (e LinkEndpoint) Less(o LinkEndpoint) bool {
	return e.Compare(o) < 0
}

func (e LinkEndpoint) String() string {
	return fmt.Sprintf("packet(ifindex=%d,proto=0x%04x)", e.Ifindex(), e.EtherType())
}

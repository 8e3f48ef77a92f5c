//go:build linux

package rawsock

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/forest33/rawlink/business/entity"
)

// toSockaddr returns a new address on every call, the kernel representation
// is filled in place by the unix package.
func toSockaddr(ep entity.LinkEndpoint) *unix.SockaddrLinklayer {
	sa := &unix.SockaddrLinklayer{
		Protocol: ep.Protocol().Protocol(),
		Ifindex:  ep.Ifindex(),
		Hatype:   ep.Hatype(),
		Pkttype:  ep.Pkttype(),
	}
	if hw := ep.HardwareAddr(); hw != nil {
		sa.Halen = uint8(copy(sa.Addr[:], hw))
	}
	return sa
}

func fromSockaddr(sa *unix.SockaddrLinklayer) entity.LinkEndpoint {
	var raw [entity.SockaddrLinklayerSize]byte
	binary.NativeEndian.PutUint16(raw[0:], unix.AF_PACKET)
	binary.NativeEndian.PutUint16(raw[2:], sa.Protocol)
	binary.NativeEndian.PutUint32(raw[4:], uint32(int32(sa.Ifindex)))
	binary.NativeEndian.PutUint16(raw[8:], sa.Hatype)
	raw[10] = sa.Pkttype
	raw[11] = sa.Halen
	copy(raw[12:], sa.Addr[:])
	return entity.LinkEndpointFromRaw(raw)
}

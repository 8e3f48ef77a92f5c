package entity

import (
	"net"
)

// Interface network interface as seen by netlink
type Interface struct {
	Index        int
	Name         string
	MTU          int
	HardwareAddr net.HardwareAddr
	Flags        net.Flags
	OperState    string
	Up           bool
}

// Endpoint returns an endpoint bound to this interface.
func (i Interface) Endpoint(etherType uint16) LinkEndpoint {
	return NewLinkEndpointIndex(i.Index, etherType)
}

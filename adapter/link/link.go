// Package link resolves network interface names to kernel indexes and link-layer endpoints
package link

import (
	"net"
	"sort"

	"github.com/forest33/rawlink/business/entity"
)

// Index returns the kernel index of the named interface, 0 for an empty name.
func Index(name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	return indexByName(name)
}

// Endpoint returns a link-layer endpoint bound to the named interface, or to
// all interfaces for an empty name.
func Endpoint(name string, etherType uint16) (entity.LinkEndpoint, error) {
	idx, err := Index(name)
	if err != nil {
		return entity.LinkEndpoint{}, err
	}
	return entity.NewLinkEndpointIndex(idx, etherType), nil
}

// List returns all interfaces ordered by index.
func List() ([]*entity.Interface, error) {
	ifs, err := listInterfaces()
	if err != nil {
		return nil, err
	}
	sort.Slice(ifs, func(i, j int) bool {
		return ifs[i].Index < ifs[j].Index
	})
	return ifs, nil
}

func normalizeHardwareAddr(hw net.HardwareAddr) net.HardwareAddr {
	if len(hw) == 0 {
		return nil
	}
	for _, b := range hw {
		if b != 0 {
			cp := make(net.HardwareAddr, len(hw))
			copy(cp, hw)
			return cp
		}
	}
	return nil
}

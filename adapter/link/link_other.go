//go:build !linux

package link

import (
	"net"

	"github.com/pkg/errors"

	"github.com/forest33/rawlink/business/entity"
)

func indexByName(name string) (int, error) {
	ifc, err := net.InterfaceByName(name)
	if err != nil {
		return 0, &entity.InterfaceNotFoundError{Name: name, Err: err}
	}
	return ifc.Index, nil
}

func listInterfaces() ([]*entity.Interface, error) {
	ifcs, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "list interfaces")
	}
	ifs := make([]*entity.Interface, 0, len(ifcs))
	for _, ifc := range ifcs {
		ifs = append(ifs, &entity.Interface{
			Index:        ifc.Index,
			Name:         ifc.Name,
			MTU:          ifc.MTU,
			HardwareAddr: normalizeHardwareAddr(ifc.HardwareAddr),
			Flags:        ifc.Flags,
			Up:           ifc.Flags&net.FlagUp != 0,
		})
	}
	return ifs, nil
}

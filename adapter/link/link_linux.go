//go:build linux

package link

import (
	"errors"
	"net"

	pkgerrors "github.com/pkg/errors"
	"github.com/vishvananda/netlink"

	"github.com/forest33/rawlink/business/entity"
)

var (
	linkByName = netlink.LinkByName
	linkList   = netlink.LinkList
)

func indexByName(name string) (int, error) {
	l, err := linkByName(name)
	if err != nil {
		var nf netlink.LinkNotFoundError
		if errors.As(err, &nf) {
			return 0, &entity.InterfaceNotFoundError{Name: name}
		}
		return 0, &entity.InterfaceNotFoundError{Name: name, Err: err}
	}
	return l.Attrs().Index, nil
}

func listInterfaces() ([]*entity.Interface, error) {
	nlLinks, err := linkList()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "netlink list")
	}
	ifs := make([]*entity.Interface, 0, len(nlLinks))
	for _, nll := range nlLinks {
		ifs = append(ifs, fromNetlink(nll))
	}
	return ifs, nil
}

func fromNetlink(nll netlink.Link) *entity.Interface {
	attrs := nll.Attrs()
	return &entity.Interface{
		Index:        attrs.Index,
		Name:         attrs.Name,
		MTU:          attrs.MTU,
		HardwareAddr: normalizeHardwareAddr(attrs.HardwareAddr),
		Flags:        attrs.Flags,
		OperState:    attrs.OperState.String(),
		Up:           attrs.Flags&net.FlagUp != 0 && attrs.OperState != netlink.OperDown && attrs.OperState != netlink.OperNotPresent,
	}
}

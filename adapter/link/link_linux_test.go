//go:build linux

package link

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"

	"github.com/forest33/rawlink/business/entity"
)

func TestIndexMatchesKernel(t *testing.T) {
	ifcs, err := net.Interfaces()
	require.NoError(t, err)
	if len(ifcs) == 0 {
		t.Skip("no network interfaces")
	}

	for _, ifc := range ifcs {
		idx, err := Index(ifc.Name)
		require.NoError(t, err)
		require.Equal(t, ifc.Index, idx, ifc.Name)

		ep, err := Endpoint(ifc.Name, entity.EtherTypeIPv4)
		require.NoError(t, err)
		require.Equal(t, ifc.Index, ep.Ifindex())
		require.Equal(t, entity.EtherTypeIPv4, ep.EtherType())
	}
}

func TestEndpointAllInterfaces(t *testing.T) {
	ep, err := Endpoint("", entity.EtherTypeAll)
	require.NoError(t, err)
	require.Equal(t, 0, ep.Ifindex())
	require.Equal(t, entity.AddressFamilyPacket, ep.Family())
	require.True(t, ep.Equal(entity.NewLinkEndpoint(entity.EtherTypeAll)))
}

func TestEndpointNotFound(t *testing.T) {
	_, err := Endpoint("__does_not_exist__", entity.EtherTypeAll)
	require.Error(t, err)
	require.ErrorIs(t, err, entity.ErrInterfaceNotFound)

	var nf *entity.InterfaceNotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "__does_not_exist__", nf.Name)
	require.Contains(t, err.Error(), "'__does_not_exist__'")
}

func TestIndexNetlinkFailure(t *testing.T) {
	defer func(f func(string) (netlink.Link, error)) { linkByName = f }(linkByName)
	cause := errors.New("netlink socket closed")
	linkByName = func(string) (netlink.Link, error) {
		return nil, cause
	}

	_, err := Index("eth0")
	require.ErrorIs(t, err, entity.ErrInterfaceNotFound)
	require.ErrorIs(t, err, cause)
}

func TestList(t *testing.T) {
	defer func(f func() ([]netlink.Link, error)) { linkList = f }(linkList)
	linkList = func() ([]netlink.Link, error) {
		return []netlink.Link{
			&netlink.Device{LinkAttrs: netlink.LinkAttrs{
				Index:        2,
				Name:         "eth0",
				MTU:          1500,
				HardwareAddr: net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01},
				Flags:        net.FlagUp,
				OperState:    netlink.OperUp,
			}},
			&netlink.Device{LinkAttrs: netlink.LinkAttrs{
				Index:        1,
				Name:         "lo",
				MTU:          65536,
				HardwareAddr: net.HardwareAddr{0, 0, 0, 0, 0, 0},
				Flags:        net.FlagUp | net.FlagLoopback,
				OperState:    netlink.OperUnknown,
			}},
		}, nil
	}

	ifs, err := List()
	require.NoError(t, err)
	require.Len(t, ifs, 2)
	require.Equal(t, "lo", ifs[0].Name)
	require.Nil(t, ifs[0].HardwareAddr)
	require.True(t, ifs[0].Up)
	require.Equal(t, "eth0", ifs[1].Name)
	require.Equal(t, "02:00:00:00:00:01", ifs[1].HardwareAddr.String())
	require.Equal(t, "up", ifs[1].OperState)
}

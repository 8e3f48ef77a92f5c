package entity

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	EtherTypeAll            uint16 = 0x0003 // ETH_P_ALL
	EtherTypeIPv4           uint16 = 0x0800
	EtherTypeARP            uint16 = 0x0806
	EtherTypeVLAN           uint16 = 0x8100
	EtherTypeIPv6           uint16 = 0x86DD
	EtherTypePPPoEDiscovery uint16 = 0x8863
	EtherTypePPPoESession   uint16 = 0x8864
	EtherTypeLLDP           uint16 = 0x88CC
	EtherTypeLocal          uint16 = 0x88B5 // IEEE 802 local experimental
)

// EthernetHeaderSize destination + source + EtherType
const EthernetHeaderSize = 14

var etherTypeNames = map[string]uint16{
	"all":             EtherTypeAll,
	"ipv4":            EtherTypeIPv4,
	"arp":             EtherTypeARP,
	"vlan":            EtherTypeVLAN,
	"ipv6":            EtherTypeIPv6,
	"pppoe-discovery": EtherTypePPPoEDiscovery,
	"pppoe-session":   EtherTypePPPoESession,
	"lldp":            EtherTypeLLDP,
	"local":           EtherTypeLocal,
}

// ParseEtherType accepts a well known name or a number ("0x88b5", "2048").
func ParseEtherType(s string) (uint16, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return EtherTypeAll, nil
	}
	if v, ok := etherTypeNames[s]; ok {
		return v, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEtherType, s)
	}
	return uint16(v), nil
}

// EtherTypeName returns a well known name or the hex value.
func EtherTypeName(v uint16) string {
	for name, t := range etherTypeNames {
		if t == v {
			return name
		}
	}
	return fmt.Sprintf("0x%04x", v)
}

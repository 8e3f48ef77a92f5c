// Package packet decodes captured Ethernet frames for logging and the control API
package packet

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/forest33/rawlink/business/entity"
)

const (
	ipVersion4 = 4
	ipVersion6 = 6
)

type Decoder struct {
	cfg *Config
}

type Config struct {
	// Layers decode network and transport layers, only the Ethernet header otherwise
	Layers bool
}

func New(cfg *Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Decode summarizes an Ethernet frame. Layers that fail to decode are left
// empty, a frame is never rejected past its Ethernet header.
func (d *Decoder) Decode(data []byte) (*entity.FrameInfo, error) {
	if len(data) < entity.EthernetHeaderSize {
		return nil, entity.ErrFrameTooShort
	}

	if !d.cfg.Layers {
		return decodeHeader(data), nil
	}

	return decodeLayers(data), nil
}

func decodeHeader(data []byte) *entity.FrameInfo {
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return &entity.FrameInfo{Length: len(data)}
	}
	return &entity.FrameInfo{
		Dst:       cloneAddr(eth.DstMAC),
		Src:       cloneAddr(eth.SrcMAC),
		EtherType: uint16(eth.EthernetType),
		Length:    len(data),
	}
}

func decodeLayers(data []byte) *entity.FrameInfo {
	var (
		eth     layers.Ethernet
		dot1q   layers.Dot1Q
		arp     layers.ARP
		ip4     layers.IPv4
		ip6     layers.IPv6
		tcp     layers.TCP
		udp     layers.UDP
		icmp4   layers.ICMPv4
		icmp6   layers.ICMPv6
		payload gopacket.Payload
	)

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet,
		&eth, &dot1q, &arp, &ip4, &ip6, &tcp, &udp, &icmp4, &icmp6, &payload)
	parser.IgnoreUnsupported = true

	decodedLayers := make([]gopacket.LayerType, 0, 6)

	_ = parser.DecodeLayers(data, &decodedLayers)

	fi := &entity.FrameInfo{Length: len(data)}

	for _, typ := range decodedLayers {
		switch typ {
		case layers.LayerTypeEthernet:
			fi.Dst = cloneAddr(eth.DstMAC)
			fi.Src = cloneAddr(eth.SrcMAC)
			fi.EtherType = uint16(eth.EthernetType)
		case layers.LayerTypeDot1Q:
			fi.VLAN = append(fi.VLAN, dot1q.VLANIdentifier)
		case layers.LayerTypeARP:
			fi.ARP = &entity.ARP{
				Operation: arp.Operation,
				SenderMAC: cloneAddr(arp.SourceHwAddress),
				SenderIP:  net.IP(append([]byte(nil), arp.SourceProtAddress...)),
				TargetIP:  net.IP(append([]byte(nil), arp.DstProtAddress...)),
			}
		case layers.LayerTypeIPv4:
			fi.IP = &entity.IP{
				Version:  ipVersion4,
				Src:      ip4.SrcIP.String(),
				Dst:      ip4.DstIP.String(),
				Protocol: ip4.Protocol.String(),
				Length:   ip4.Length,
			}
		case layers.LayerTypeIPv6:
			fi.IP = &entity.IP{
				Version:  ipVersion6,
				Src:      ip6.SrcIP.String(),
				Dst:      ip6.DstIP.String(),
				Protocol: ip6.NextHeader.String(),
				Length:   ip6.Length,
			}
		case layers.LayerTypeTCP:
			fi.TCP = &entity.TCP{
				Src:    tcp.SrcPort.String(),
				Dst:    tcp.DstPort.String(),
				Seq:    tcp.Seq,
				Length: len(tcp.Payload),
			}
		case layers.LayerTypeUDP:
			fi.UDP = &entity.UDP{
				Src:    udp.SrcPort.String(),
				Dst:    udp.DstPort.String(),
				Length: udp.Length,
			}
		case layers.LayerTypeICMPv4:
			fi.ICMP = &entity.ICMP{
				Type:   icmp4.TypeCode.String(),
				Length: len(icmp4.Contents) + len(icmp4.Payload),
			}
		case layers.LayerTypeICMPv6:
			fi.ICMP = &entity.ICMP{
				Type:   icmp6.TypeCode.String(),
				Length: len(icmp6.Contents) + len(icmp6.Payload),
			}
		}
	}

	return fi
}

func cloneAddr(hw []byte) net.HardwareAddr {
	if len(hw) == 0 {
		return nil
	}
	return append(net.HardwareAddr(nil), hw...)
}

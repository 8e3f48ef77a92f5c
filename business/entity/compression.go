package entity

const (
	CompressionNameNone = "none"
	CompressionNameLZ4  = "lz4"
	CompressionNameLZO  = "lzo"
	CompressionNameZSTD = "zstd"
)

const (
	CompressionNone CompressionType = iota
	CompressionLZ4
	CompressionLZO
	CompressionZSTD
)

type CompressionType uint8

type CompressionLevel uint8

func GetCompressionType(name string) CompressionType {
	switch name {
	case CompressionNameLZ4:
		return CompressionLZ4
	case CompressionNameLZO:
		return CompressionLZO
	case CompressionNameZSTD:
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionLZ4:
		return CompressionNameLZ4
	case CompressionLZO:
		return CompressionNameLZO
	case CompressionZSTD:
		return CompressionNameZSTD
	default:
		return CompressionNameNone
	}
}

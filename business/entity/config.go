// Package entity provides entities for business logic.
package entity

import (
	"net"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	DefaultListenerConfigFileName = "rawlink.yaml"

	// interface names are limited by IFNAMSIZ
	maxInterfaceNameLength = 15
)

// ListenerConfig listener daemon configuration
type ListenerConfig struct {
	Logger   *LoggerConfig   `yaml:"Logger"`
	Runtime  *RuntimeConfig  `yaml:"Runtime"`
	Reactor  *ReactorConfig  `yaml:"Reactor"`
	Capture  *CaptureConfig  `yaml:"Capture"`
	Tracing  *TracingConfig  `yaml:"Tracing,omitempty"`
	Profiler *ProfilerConfig `yaml:"Profiler"`
	Rest     *RestConfig     `yaml:"Rest"`
	Grpc     *GrpcConfig     `yaml:"Grpc"`
}

// LoggerConfig logger settings
type LoggerConfig struct {
	Level             string `yaml:"level" default:"info"`
	TimeFieldFormat   string `yaml:"timeFieldFormat" default:"2006-01-02T15:04:05.000000"`
	PrettyPrint       *bool  `yaml:"prettyPrint" default:"false"`
	DisableSampling   *bool  `yaml:"disableSampling" default:"true"`
	RedirectStdLogger *bool  `yaml:"redirectStdLogger" default:"true"`
	ErrorStack        *bool  `yaml:"errorStack" default:"true"`
	ShowCaller        *bool  `yaml:"showCaller" default:"false"`
	FileName          string `yaml:"fileName,omitempty" default:""`
	FileMaxSize       int    `yaml:"fileMaxSize" default:"100"`
	FileMaxBackups    int    `yaml:"fileMaxBackups" default:"3"`
	FileMaxAge        int    `yaml:"fileMaxAge" default:"28"`
}

// RuntimeConfig runtime settings
type RuntimeConfig struct {
	GoMaxProcs int `yaml:"goMaxProcs" default:"0"`
}

// ReactorConfig completion dispatch settings
type ReactorConfig struct {
	Loops     int `yaml:"loops" default:"1"`
	QueueSize int `yaml:"queueSize" default:"1024"`
}

// CaptureConfig raw socket binding
type CaptureConfig struct {
	Interface         string `yaml:"interface" default:""`
	EtherType         string `yaml:"etherType" default:"all"`
	SendPolicy        string `yaml:"sendPolicy" default:"bound"`
	Promiscuous       *bool  `yaml:"promiscuous" default:"false"`
	FilterDestination string `yaml:"filterDestination,omitempty" default:""`
	DumpFile          string `yaml:"dumpFile,omitempty" default:""`
	SnapLength        int    `yaml:"snapLength" default:"1500"`
}

// TracingConfig tracing configuration
type TracingConfig struct {
	Reactor bool `yaml:"reactor,omitempty" default:"false"`
	Server  bool `yaml:"server,omitempty" default:"false"`
	Frames  bool `yaml:"frames,omitempty" default:"false"`
}

// ProfilerConfig pprof configuration
type ProfilerConfig struct {
	Enabled *bool  `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:"localhost"`
	Port    int    `yaml:"port" default:"8888"`
}

// RestConfig REST server configuration
type RestConfig struct {
	Enabled *bool  `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:""`
	Port    int    `yaml:"port" default:"8877"`
}

// GrpcConfig gRPC control server configuration
type GrpcConfig struct {
	Enabled          *bool  `yaml:"enabled" default:"false"`
	Host             string `yaml:"host" default:"localhost"`
	Port             int    `yaml:"port" default:"1977"`
	Compression      string `yaml:"compression" default:"none"`
	CompressionLevel int    `yaml:"compressionLevel,omitempty" default:"2"`
}

func (c *ListenerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Capture, validation.Required),
		validation.Field(&c.Reactor, validation.Required),
		validation.Field(&c.Grpc),
	)
}

func (c *CaptureConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interface, validation.Length(0, maxInterfaceNameLength)),
		validation.Field(&c.EtherType, validation.By(func(interface{}) error {
			_, err := ParseEtherType(c.EtherType)
			return err
		})),
		validation.Field(&c.SendPolicy, validation.By(func(interface{}) error {
			_, err := ParseSendPolicy(c.SendPolicy)
			return err
		})),
		validation.Field(&c.FilterDestination, is.MAC),
		validation.Field(&c.SnapLength, validation.Min(EthernetHeaderSize)),
	)
}

func (c *ReactorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Loops, validation.Min(1)),
		validation.Field(&c.QueueSize, validation.Min(1)),
	)
}

func (c *GrpcConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Compression, validation.In(
			CompressionNameNone, CompressionNameLZ4, CompressionNameLZO, CompressionNameZSTD)),
		validation.Field(&c.CompressionLevel, validation.Min(1), validation.Max(4)),
	)
}

// EtherTypeValue returns the parsed EtherType filter
func (c CaptureConfig) EtherTypeValue() uint16 {
	v, err := ParseEtherType(c.EtherType)
	if err != nil {
		return EtherTypeAll
	}
	return v
}

// SendPolicyValue returns the parsed send policy
func (c CaptureConfig) SendPolicyValue() SendPolicy {
	p, err := ParseSendPolicy(c.SendPolicy)
	if err != nil {
		return SendPolicyBound
	}
	return p
}

// FilterDestinationValue returns the destination filter address, nil if unset
func (c CaptureConfig) FilterDestinationValue() net.HardwareAddr {
	if c.FilterDestination == "" {
		return nil
	}
	hw, err := net.ParseMAC(c.FilterDestination)
	if err != nil {
		return nil
	}
	return hw
}

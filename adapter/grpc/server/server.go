package grpc_server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apiV1 "github.com/forest33/rawlink/api/v1"
	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
)

type Server struct {
	cfg        *Config
	log        *logger.Logger
	listener   ListenerUseCase
	compressor Compressor
	srv        *grpc.Server
}

type Config struct {
	Host             string
	Port             int
	Compression      entity.CompressionType
	CompressionLevel entity.CompressionLevel
}

type ListenerUseCase interface {
	GetStatistic() *entity.Statistic
	Send(frame []byte) error
	Subscribe(ctx context.Context) <-chan []byte
}

type Compressor interface {
	Compress(t entity.CompressionType, level entity.CompressionLevel, frame []byte) ([]byte, bool)
}

func New(cfg *Config, log *logger.Logger, listener ListenerUseCase, compressor Compressor) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log.Duplicate(log.With().Str("layer", "grpc").Logger()),
		listener:   listener,
		compressor: compressor,
		srv:        grpc.NewServer(),
	}

	reflection.Register(s.srv)
	apiV1.RegisterListenerServer(s.srv, s)

	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	lst, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return err
	}

	s.log.Info().
		Str("host", s.cfg.Host).
		Int("port", s.cfg.Port).
		Str("compression", s.cfg.Compression.String()).
		Msg("starting gRPC server")

	go func() {
		if err := s.Serve(lst); err != nil {
			s.log.Fatalf("failed to start gRPC server: %v", err)
		}
	}()

	return nil
}

func (s *Server) Serve(lst net.Listener) error {
	return s.srv.Serve(lst)
}

func (s *Server) Stop() {
	s.srv.GracefulStop()
}

func (s *Server) GetState(_ context.Context, _ *empty.Empty) (*structpb.Struct, error) {
	m := map[string]interface{}{}
	if err := mapstructure.Decode(s.listener.GetStatistic(), &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func (s *Server) Send(_ context.Context, req *wrapperspb.BytesValue) (*empty.Empty, error) {
	err := s.listener.Send(req.GetValue())
	if errors.Is(err, entity.ErrFrameTooShort) || errors.Is(err, entity.ErrWrongHardwareAddr) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	} else if errors.Is(err, entity.ErrServerClosed) || errors.Is(err, entity.ErrServerNotSet) {
		return nil, status.Error(codes.Unavailable, err.Error())
	} else if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &empty.Empty{}, nil
}

func (s *Server) Frames(_ *empty.Empty, stream apiV1.Listener_FramesServer) error {
	for frame := range s.listener.Subscribe(stream.Context()) {
		err := stream.Send(&wrapperspb.BytesValue{Value: s.encodeFrame(frame)})
		if err != nil && status.Code(err) != codes.Canceled {
			s.log.Error().Err(err).Msg("failed to send frame")
			return err
		} else if err != nil {
			return nil
		}
	}
	return nil
}

func (s *Server) encodeFrame(frame []byte) []byte {
	data, ok := s.compressor.Compress(s.cfg.Compression, s.cfg.CompressionLevel, frame)
	ct := entity.CompressionNone
	if ok {
		ct = s.cfg.Compression
	}
	out := make([]byte, 0, len(data)+1)
	out = append(out, byte(ct))
	return append(out, data...)
}

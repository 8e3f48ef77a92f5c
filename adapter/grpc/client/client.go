package grpc_client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apiV1 "github.com/forest33/rawlink/api/v1"
	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
)

const (
	requestTimeout = time.Minute
)

var ErrServerUnavailable = errors.New("listener gRPC server unavailable")

type Client struct {
	cfg          *Config
	log          *logger.Logger
	client       apiV1.ListenerClient
	decompressor Decompressor
	conn         *grpc.ClientConn
}

type Config struct {
	Host string
	Port int
}

type Decompressor interface {
	Decompress(t entity.CompressionType, data []byte) ([]byte, error)
}

func New(cfg *Config, log *logger.Logger, decompressor Decompressor, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:          cfg,
		log:          log,
		client:       apiV1.NewListenerClient(conn),
		decompressor: decompressor,
		conn:         conn,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) GetState(ctx context.Context) (*entity.Statistic, error) {
	ctx, cancel := c.getContext(ctx)
	defer cancel()

	st, err := c.client.GetState(ctx, &empty.Empty{})
	if status.Code(err) == codes.Unavailable {
		return nil, ErrServerUnavailable
	} else if err != nil {
		return nil, err
	}

	stat := &entity.Statistic{}
	if err := mapstructure.Decode(st.AsMap(), stat); err != nil {
		return nil, errors.Wrap(err, "decode statistic")
	}

	return stat, nil
}

func (c *Client) Send(ctx context.Context, frame []byte) error {
	ctx, cancel := c.getContext(ctx)
	defer cancel()

	_, err := c.client.Send(ctx, &wrapperspb.BytesValue{Value: frame})
	if status.Code(err) == codes.Unavailable {
		return ErrServerUnavailable
	} else if status.Code(err) == codes.InvalidArgument {
		return errors.Wrap(entity.ErrFrameTooShort, status.Convert(err).Message())
	}

	return err
}

// Frames streams received frames until ctx is done or the server goes away.
func (c *Client) Frames(ctx context.Context) (chan []byte, error) {
	resp, err := c.client.Frames(ctx, &empty.Empty{})
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte)

	go func() {
		defer close(ch)
		for {
			msg, err := resp.Recv()
			if err == io.EOF || status.Code(err) == codes.Canceled {
				return
			} else if err != nil {
				c.log.Error().Err(err).Msg("failed to receive frame")
				return
			}

			frame, err := c.decodeFrame(msg.GetValue())
			if err != nil {
				c.log.Error().Err(err).Msg("failed to decode frame")
				continue
			}

			select {
			case ch <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (c *Client) decodeFrame(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty frame message")
	}
	return c.decompressor.Decompress(entity.CompressionType(data[0]), data[1:])
}

func (c *Client) getContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}

package usecase

import (
	"sync"
	"time"

	"github.com/forest33/rawlink/business/entity"
)

type mockRawServer struct {
	buf      []byte
	receives int
	sent     [][]byte
	closed   bool
	sync.Mutex
}

func (m *mockRawServer) AsyncReceive() error {
	m.Lock()
	defer m.Unlock()
	if m.closed {
		return entity.ErrServerClosed
	}
	m.receives++
	return nil
}

func (m *mockRawServer) AsyncSend(frame []byte) error {
	m.Lock()
	defer m.Unlock()
	if m.closed {
		return entity.ErrServerClosed
	}
	if len(frame) < entity.EthernetHeaderSize {
		return entity.ErrFrameTooShort
	}
	m.sent = append(m.sent, frame)
	return nil
}

func (m *mockRawServer) Buffer() []byte {
	return m.buf
}

func (m *mockRawServer) Peer() entity.LinkEndpoint {
	return entity.LinkEndpoint{}
}

func (m *mockRawServer) Endpoint() entity.LinkEndpoint {
	return entity.NewLinkEndpointIndex(1, entity.EtherTypeAll)
}

func (m *mockRawServer) Close() error {
	m.Lock()
	defer m.Unlock()
	if m.closed {
		return entity.ErrServerClosed
	}
	m.closed = true
	return nil
}

func (m *mockRawServer) receiveCount() int {
	m.Lock()
	defer m.Unlock()
	return m.receives
}

type dumpedFrame struct {
	data   []byte
	length int
}

type mockDumper struct {
	frames []dumpedFrame
	closed bool
}

func (m *mockDumper) Dump(data []byte, length int, _ time.Time) error {
	m.frames = append(m.frames, dumpedFrame{data: append([]byte(nil), data...), length: length})
	return nil
}

func (m *mockDumper) Close() error {
	m.closed = true
	return nil
}

type mockDecoder struct {
	calls int
}

func (m *mockDecoder) Decode(data []byte) (*entity.FrameInfo, error) {
	m.calls++
	if len(data) < entity.EthernetHeaderSize {
		return nil, entity.ErrFrameTooShort
	}
	return &entity.FrameInfo{Dst: data[:6], Src: data[6:12], EtherType: uint16(data[12])<<8 | uint16(data[13]), Length: len(data)}, nil
}

type mockMetrics struct {
	received, sent, receiveErrors, sendErrors, truncated int
}

func (m *mockMetrics) FrameReceived(_ int, truncated bool) {
	m.received++
	if truncated {
		m.truncated++
	}
}

func (m *mockMetrics) FrameSent(int) {
	m.sent++
}

func (m *mockMetrics) ReceiveError(error) {
	m.receiveErrors++
}

func (m *mockMetrics) SendError(error) {
	m.sendErrors++
}

type mockDispatcher struct {
	err   error
	posts int
	sync.Mutex
}

func (m *mockDispatcher) Post(fn func()) error {
	m.Lock()
	m.posts++
	m.Unlock()
	if m.err != nil {
		return m.err
	}
	go fn()
	return nil
}

func (m *mockDispatcher) postCount() int {
	m.Lock()
	defer m.Unlock()
	return m.posts
}

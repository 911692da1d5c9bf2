package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// Memory is an in-process backend. Messages published before a subscriber
// attaches are buffered per channel.
type Memory struct {
	mu     sync.Mutex
	queues map[string]chan Message
	seq    int
	closed bool
}

const memoryQueueSize = 64

func NewMemory() *Memory {
	return &Memory{queues: make(map[string]chan Message)}
}

func (m *Memory) queue(channel string) (chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("mq closed")
	}
	q, ok := m.queues[channel]
	if !ok {
		q = make(chan Message, memoryQueueSize)
		m.queues[channel] = q
	}
	return q, nil
}

func (m *Memory) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	q, err := m.queue(channel)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.seq++
	id := strconv.Itoa(m.seq)
	m.mu.Unlock()

	select {
	case q <- Message{ID: id, Data: data, Attributes: attrs}:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	q, err := m.queue(channel)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			if err := handler(ctx, msg); err != nil {
				select {
				case q <- msg:
				default:
				}
			}
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

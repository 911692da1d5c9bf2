package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbh-bot/dbh/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

func TestMemory_PublishThenSubscribe(t *testing.T) {
	q := New(NewMemory())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	id, err := q.Publish(ctx, "dbh.flush", []byte(`{"tokens_cleared":1}`), map[string]string{"type": "flush"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got := make(chan Message, 1)
	err = q.Subscribe(ctx, "dbh.flush", func(_ context.Context, msg Message) error {
		got <- msg
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	msg := <-got
	require.Equal(t, id, msg.ID)
	require.Equal(t, "flush", msg.Attributes["type"])
	require.JSONEq(t, `{"tokens_cleared":1}`, string(msg.Data))
}

func TestMemory_HandlerErrorRequeues(t *testing.T) {
	q := New(NewMemory())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := q.Publish(ctx, "c", []byte("x"), nil)
	require.NoError(t, err)

	attempts := 0
	_ = q.Subscribe(ctx, "c", func(context.Context, Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("retry")
		}
		cancel()
		return nil
	})
	require.Equal(t, 3, attempts)
}

func TestMemory_ClosedRejectsPublish(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	_, err := m.Publish(context.Background(), "c", nil, nil)
	require.Error(t, err)
}

func TestTableToAttributes(t *testing.T) {
	require.Nil(t, tableToAttributes(nil))
	require.Equal(t, map[string]string{
		"a": "x",
		"b": "y",
		"c": "7",
	}, tableToAttributes(amqp.Table{"a": "x", "b": []byte("y"), "c": int32(7)}))
}

func TestDialRabbitMQ_RequiresURL(t *testing.T) {
	_, err := DialRabbitMQ(config.RabbitMQConfig{URL: "  "})
	require.Error(t, err)
}

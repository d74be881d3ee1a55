package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// LogNotifier writes events to the log. It backs the "log" driver.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n LogNotifier) Emit(_ context.Context, event string, payload any) error {
	loggerOrDiscard(n.Logger).WithFields(logrus.Fields{
		"event":   event,
		"payload": payload,
	}).Info("notification")
	return nil
}

// NATSNotifier publishes each event as JSON on <prefix>.<event>.
type NATSNotifier struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSNotifier(url string, prefix string, opts ...nats.Option) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSNotifier{conn: conn, prefix: prefix}, nil
}

func (n *NATSNotifier) Emit(ctx context.Context, event string, payload any) error {
	if n == nil || n.conn == nil {
		return errors.New("nil nats notifier")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(subject(n.prefix, event), data); err != nil {
		return err
	}
	return n.conn.FlushWithContext(ctx)
}

func (n *NATSNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// RedisNotifier publishes each event as JSON on the pub/sub channel
// <prefix>.<event>.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

func NewRedisNotifier(ctx context.Context, url string, prefix string) (*RedisNotifier, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisNotifier{client: client, prefix: prefix}, nil
}

func (n *RedisNotifier) Emit(ctx context.Context, event string, payload any) error {
	if n == nil || n.client == nil {
		return errors.New("nil redis notifier")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, subject(n.prefix, event), data).Err()
}

func (n *RedisNotifier) Close() error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Close()
}

func subject(prefix, event string) string {
	if prefix == "" {
		return event
	}
	return prefix + "." + event
}

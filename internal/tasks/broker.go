// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
)

// Embedded broker listen address. Matches the default broker URL so a
// single-binary deployment needs no configuration at all.
const (
	embeddedHost = "127.0.0.1"
	embeddedPort = 4222
)

// StreamConfig describes the JetStream stream backing the task queue.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
}

// DefaultStreamConfig returns the production stream shape: file-backed,
// 24 hour retention, and a duplicate window wide enough to absorb
// publish retries without re-running a task.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            StreamName,
		Subjects:        []string{SubjectWildcard},
		MaxAge:          24 * time.Hour,
		MaxBytes:        1 << 30,
		MaxMsgs:         100_000,
		DuplicateWindow: 10 * time.Minute,
	}
}

// Broker owns the task transport: the optional embedded server, the
// NATS connection used for stream provisioning, and the Watermill
// publisher and subscriber the rest of the package works with.
type Broker struct {
	cfg      config.TasksConfig
	embedded *EmbeddedServer
	nc       *natsgo.Conn
	pub      message.Publisher
	sub      message.Subscriber
	url      string
	log      zerolog.Logger
}

// NewBroker starts the embedded server when configured, connects,
// provisions the stream, and builds the publisher and subscriber.
func NewBroker(cfg config.TasksConfig, logger watermill.LoggerAdapter) (*Broker, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	b := &Broker{cfg: cfg, log: logging.WithComponent("tasks")}

	url := cfg.BrokerURL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(&ServerConfig{
			Host:              embeddedHost,
			Port:              embeddedPort,
			StoreDir:          cfg.StoreDir,
			JetStreamMaxMem:   cfg.MaxMemory,
			JetStreamMaxStore: cfg.MaxStore,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded broker: %w", err)
		}
		b.embedded = srv
		url = srv.ClientURL()
		b.log.Info().Str("url", url).Str("store_dir", cfg.StoreDir).Msg("Embedded task broker started")
	} else {
		b.log.Info().Str("url", url).Msg("Using external task broker")
	}
	b.url = url

	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		b.Close(context.Background())
		return nil, fmt.Errorf("connect to task broker: %w", err)
	}
	b.nc = nc

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stream, err := ensureStream(ctx, nc, DefaultStreamConfig())
	if err != nil {
		b.Close(context.Background())
		return nil, err
	}
	info := stream.CachedInfo()
	b.log.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("Task stream ready")

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions(logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: false,
			// Stream is provisioned above; auto-provision would try to
			// derive one stream per subject.
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		b.Close(context.Background())
		return nil, fmt.Errorf("create task publisher: %w", err)
	}
	b.pub = pub

	// Acks must outlive the hard time limit or the broker redelivers
	// tasks that are still running.
	ackWait := cfg.HardTimeLimit + time.Minute
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.WorkersCount,
		AckWaitTimeout:   ackWait,
		CloseTimeout:     cfg.RouterCloseTimeout,
		NatsOptions:      natsOptions(logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			AckAsync:      false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(cfg.MaxRetries),
				natsgo.MaxAckPending(cfg.WorkersCount * 2),
				natsgo.AckWait(ackWait),
				// Queued work must survive worker downtime, so new
				// durables start from the beginning of the stream.
				natsgo.DeliverAll(),
				natsgo.BindStream(StreamName),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		b.Close(context.Background())
		return nil, fmt.Errorf("create task subscriber: %w", err)
	}
	b.sub = sub

	return b, nil
}

// natsOptions builds the shared connection options with reconnection
// handling and connection-state logging.
func natsOptions(logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Task broker disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Task broker reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}
}

// ensureStream creates or updates the task stream.
func ensureStream(ctx context.Context, nc *natsgo.Conn, cfg StreamConfig) (jetstream.Stream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.Name,
		Subjects:    cfg.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxBytes:    cfg.MaxBytes,
		MaxMsgs:     cfg.MaxMsgs,
		Duplicates:  cfg.DuplicateWindow,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	if _, err := js.Stream(ctx, cfg.Name); err == nil {
		stream, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update task stream: %w", err)
		}
		return stream, nil
	}

	stream, err := js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create task stream: %w", err)
	}
	return stream, nil
}

// Publisher returns the task publisher.
func (b *Broker) Publisher() message.Publisher {
	return b.pub
}

// Subscriber returns the task subscriber.
func (b *Broker) Subscriber() message.Subscriber {
	return b.sub
}

// URL returns the broker address in use.
func (b *Broker) URL() string {
	return b.url
}

// IsRunning reports broker health: the embedded server when one is
// running, otherwise the client connection state.
func (b *Broker) IsRunning() bool {
	if b.embedded != nil {
		return b.embedded.IsRunning()
	}
	return b.nc != nil && b.nc.IsConnected()
}

// Close tears the transport down in dependency order: publisher and
// subscriber first, then the connection, then the embedded server.
// Safe to call on a partially constructed broker.
func (b *Broker) Close(ctx context.Context) {
	if b.pub != nil {
		if err := b.pub.Close(); err != nil {
			b.log.Warn().Err(err).Msg("Task publisher close reported error")
		}
		b.pub = nil
	}
	if b.sub != nil {
		if err := b.sub.Close(); err != nil {
			b.log.Warn().Err(err).Msg("Task subscriber close reported error")
		}
		b.sub = nil
	}
	if b.nc != nil {
		b.nc.Close()
		b.nc = nil
	}
	if b.embedded != nil {
		if err := b.embedded.Shutdown(ctx); err != nil {
			b.log.Warn().Err(err).Msg("Embedded broker shutdown interrupted")
		}
		b.embedded = nil
	}
}

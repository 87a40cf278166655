package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/google"

	"second-brain-client/internal/apiclient"
	"second-brain-client/internal/config"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/contract"
	"second-brain-client/internal/repository/implementation"
	"second-brain-client/internal/repository/memory"
	"second-brain-client/internal/service"
	"second-brain-client/internal/session"
	"second-brain-client/pkg/database"
	"second-brain-client/pkg/events"
	pktNats "second-brain-client/pkg/nats"
)

type Container struct {
	Config  *config.Config
	Logger  logger.ILogger
	Storage contract.StorageRepository
	API     *apiclient.Client

	Sessions      *session.Manager
	Notifications service.INotificationService
	Auth          service.IAuthService
	OAuth         service.IOAuthService
	Chat          service.IChatSessionService
	Memories      service.IMemoryService
	Documents     service.IDocumentService
	Uploads       service.IUploadService

	closers []func() error
}

// NewContainer wires the client. The chat store follows the session: it is
// re-scoped whenever the signed-in user changes.
func NewContainer(ctx context.Context, cfg *config.Config, log logger.ILogger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Storage = storage
	c.closers = append(c.closers, storage.Close)

	c.Sessions = session.NewManager(storage, log)

	client, err := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, c.Sessions, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.API = client

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64, BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(cfg.App.Debug, false),
	)

	var forwarder events.Publisher
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL, cfg.Events.Topic)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}
	c.Notifications = service.NewNotificationService(pubSub, cfg.Events.Topic, forwarder, log)
	c.closers = append(c.closers, c.Notifications.Close)

	c.Auth = service.NewAuthService(client, c.Sessions, cfg.Auth.GoogleClientId, log)
	c.OAuth = service.NewOAuthService(cfg.Auth.GoogleClientId, cfg.Auth.GoogleClientSecret, google.Endpoint, log)

	c.Chat = service.NewChatSessionService(ctx, c.Sessions.UserKey(), client, storage, c.Notifications, log)
	c.Memories = service.NewMemoryService(
		client,
		memory.NewListCache[entity.Memory](cfg.Storage.ListCacheTTL),
		c.Sessions.UserKey,
		c.Notifications,
		log,
	)
	c.Documents = service.NewDocumentService(
		client,
		memory.NewListCache[entity.DocumentChunk](cfg.Storage.ListCacheTTL),
		c.Sessions.UserKey,
		c.Notifications,
		log,
	)
	c.Uploads = service.NewUploadService(client, cfg.Upload.MaxBytes, cfg.Upload.ClearDelay, c.Notifications, log)

	c.Sessions.OnChange(func(s *session.Session) {
		c.Chat.SwitchUser(context.Background(), s.UserKey())
	})

	return c, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (contract.StorageRepository, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		return implementation.NewFileStorageRepository(cfg.Storage.Dir)
	case config.StorageDriverSQLite:
		db, err := database.NewSQLiteDB(cfg.Storage.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		return implementation.NewSQLiteStorageRepository(ctx, db)
	case config.StorageDriverRedis:
		opt, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return implementation.NewRedisStorageRepository(rdb), nil
	case config.StorageDriverPostgres:
		db, err := database.NewGormDBFromDSN(cfg.Storage.DatabaseDSN, cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		return implementation.NewGormStorageRepository(db)
	case config.StorageDriverMemory:
		return memory.NewStorageRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close releases everything in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

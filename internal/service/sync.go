package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ankon07/medvault-ai-sub000/common/database"
	commonmqtt "github.com/ankon07/medvault-ai-sub000/common/mqtt"
	commonredis "github.com/ankon07/medvault-ai-sub000/common/redis"
	"github.com/ankon07/medvault-ai-sub000/internal/config"
	"github.com/ankon07/medvault-ai-sub000/internal/coordinator"
	"github.com/ankon07/medvault-ai-sub000/internal/detector"
	"github.com/ankon07/medvault-ai-sub000/internal/ledger"
	"github.com/ankon07/medvault-ai-sub000/internal/localcache"
	"github.com/ankon07/medvault-ai-sub000/internal/models"
	"github.com/ankon07/medvault-ai-sub000/internal/notify"
	"github.com/ankon07/medvault-ai-sub000/internal/remote"
	"github.com/ankon07/medvault-ai-sub000/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SyncService wires the sync engine together
type SyncService struct {
	config      *config.Config
	db          *sql.DB
	cacheDB     *sql.DB
	redisClient *redis.Client
	mqttClient  *commonmqtt.Client
	logger      *zap.Logger

	cache       *localcache.Cache
	recordStore *remote.PostgresRecordStore
	takenStore  *remote.PostgresTakenEventStore
	inbox       *notify.StreamInbox
	coordinator *coordinator.Coordinator
	ledger      *ledger.Ledger
	detector    *detector.Detector
	scheduler   *detector.Scheduler
}

// NewSyncService connects to Postgres, Redis, the local cache and the optional MQTT broker
func NewSyncService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*SyncService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// 1. remote store
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	// 2. Redis (change feed, inbox, dedup state)
	redisClient, err := commonredis.Connect(ctx, &cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	// 3. local cache
	cacheDB, err := database.NewSQLiteDB(cfg.Cache.Path)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}
	cache, err := localcache.New(ctx, cacheDB, logger)
	if err != nil {
		db.Close()
		redisClient.Close()
		cacheDB.Close()
		return nil, err
	}

	s := &SyncService{
		config:      cfg,
		db:          db,
		cacheDB:     cacheDB,
		redisClient: redisClient,
		logger:      logger,
		cache:       cache,
	}

	// 4. repositories and remote stores
	feed := remote.NewRedisFeed(redisClient, cfg.Feed.ChannelPrefix, logger)
	recordsRepo := repository.NewRecordsRepository(db, logger)
	takenRepo := repository.NewTakenMedicationsRepository(db, logger)
	labTestsRepo := repository.NewLabTestsRepository(db, logger)
	familyRepo := repository.NewFamilyRepository(db, logger)

	s.recordStore = remote.NewPostgresRecordStore(recordsRepo, feed, logger)
	s.takenStore = remote.NewPostgresTakenEventStore(takenRepo, feed, logger)
	labTestStore := remote.NewPostgresLabTestStore(labTestsRepo, feed, logger)

	// 5. notification channels
	s.inbox = notify.NewStreamInbox(redisClient, cfg.Inbox.StreamPrefix, logger)
	channels := []notify.Notifier{s.inbox}
	if cfg.MQTT.Enabled {
		mqttClient, err := commonmqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.Stop()
			return nil, err
		}
		s.mqttClient = mqttClient
		channels = append(channels, notify.NewMQTTPublisher(mqttClient, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, logger))
	}
	if cfg.Push.Enabled {
		channels = append(channels, notify.NewPushClient(cfg.Push.URL, cfg.Push.AccessToken, cfg.Push.Timeout, cfg.Push.RetryCount, logger))
	}
	fanout := notify.NewFanout(logger, channels...)

	// 6. engine
	s.coordinator = coordinator.New(s.recordStore, s.takenStore, labTestStore, cache, logger)
	s.ledger = ledger.New(s.coordinator, s.takenStore, familyRepo, fanout, loc, logger)
	s.detector = detector.New(s.recordStore, s.takenStore, familyRepo, fanout, loc, logger)
	if cfg.Detector.Dedup {
		ttl := time.Duration(cfg.Detector.DedupTTL) * time.Second
		s.detector.SetDedup(detector.NewDedup(redisClient, cfg.Detector.DedupKeyPrefix, ttl, logger))
	}
	s.scheduler = detector.NewScheduler(s.detector, s.CurrentProfile, cfg.DetectorInterval(), logger)

	return s, nil
}

// CurrentProfile PROFILE_ID if set, otherwise the persisted signed-in profile
func (s *SyncService) CurrentProfile(ctx context.Context) (string, error) {
	if s.config.ProfileID != "" {
		return s.config.ProfileID, nil
	}
	return s.cache.CurrentProfile(ctx)
}

// SignIn persists profileID as the current user and binds the coordinator to it
func (s *SyncService) SignIn(ctx context.Context, profileID string) error {
	if profileID == "" {
		return models.ErrNotAuthenticated
	}
	if err := s.cache.SetCurrentProfile(ctx, profileID); err != nil {
		return err
	}
	return s.coordinator.SwitchProfile(ctx, profileID)
}

// SignOut releases all subscriptions and forgets the current user
func (s *SyncService) SignOut(ctx context.Context) error {
	s.coordinator.Teardown()
	return s.cache.ClearCurrentProfile(ctx)
}

// Start binds the current profile (if any) and runs the missed-dose loop until ctx is done
func (s *SyncService) Start(ctx context.Context) error {
	profileID, err := s.CurrentProfile(ctx)
	if err != nil {
		s.logger.Warn("Failed to resolve current profile", zap.Error(err))
	}

	s.logger.Info("Starting sync service",
		zap.String("profile_id", profileID),
		zap.Bool("mqtt_enabled", s.config.MQTT.Enabled),
		zap.Bool("mqtt_connected", s.mqttClient != nil && s.mqttClient.IsConnected()),
		zap.Bool("push_enabled", s.config.Push.Enabled),
		zap.Bool("detector_dedup", s.config.Detector.Dedup),
	)

	if profileID != "" {
		if err := s.coordinator.Activate(ctx, profileID); err != nil {
			s.logger.Error("Failed to activate profile",
				zap.String("profile_id", profileID),
				zap.Error(err),
			)
		}
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start missed-dose scheduler: %w", err)
	}
	return nil
}

// CheckOnce runs a single missed-dose pass for the current profile
func (s *SyncService) CheckOnce(ctx context.Context) (*detector.Result, error) {
	return s.scheduler.RunOnce(ctx)
}

// Stop releases subscriptions and closes every connection
func (s *SyncService) Stop() error {
	s.logger.Info("Stopping sync service")

	if s.coordinator != nil {
		s.coordinator.Teardown()
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := database.Close(s.db, s.cacheDB); err != nil {
		s.logger.Error("Failed to close databases", zap.Error(err))
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	return nil
}

// Coordinator live view of the active profile
func (s *SyncService) Coordinator() *coordinator.Coordinator { return s.coordinator }

// Ledger intake ledger
func (s *SyncService) Ledger() *ledger.Ledger { return s.ledger }

// Records remote record store
func (s *SyncService) Records() remote.RecordStore { return s.recordStore }

// Taken remote taken-event store
func (s *SyncService) Taken() remote.TakenEventStore { return s.takenStore }

// Inbox per-member notification inbox
func (s *SyncService) Inbox() *notify.StreamInbox { return s.inbox }

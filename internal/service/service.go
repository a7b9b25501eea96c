// Package service provides the main application service that integrates all components.
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/classgraph/internal/archive"
	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/internal/repository"
	"github.com/classgraph/internal/rpc"
	"github.com/classgraph/internal/scan"
	"github.com/classgraph/internal/scheduler"
	"github.com/classgraph/internal/scheduler/source"
	"github.com/classgraph/internal/storage"
	"github.com/classgraph/pkg/config"
	"github.com/classgraph/pkg/utils"
)

// Service is the main application service.
type Service struct {
	config    *config.Config
	logger    utils.Logger
	db        *repository.Repositories
	storage   storage.Storage
	scanner   *scan.Scanner
	scheduler *scheduler.Scheduler

	// sources holds all job sources
	sources []source.JobSource
	// aggregator aggregates multiple sources into a single channel
	aggregator *source.Aggregator

	// queryCache holds the query.Engine for recently completed jobs.
	queryCache *rpc.Cache
	// rpcServer serves structural queries over HTTP, reading from queryCache.
	rpcServer *rpc.Server

	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := s.initScanner(); err != nil {
		return fmt.Errorf("failed to initialize scanner: %w", err)
	}

	if err := s.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	if err := s.initRPC(); err != nil {
		return fmt.Errorf("failed to initialize query server: %w", err)
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	s.db = repository.NewRepositories(gormDB, s.config.Database.Type)
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the object storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// initScanner builds the classpath resolver and scan engine shared by every job.
func (s *Service) initScanner() error {
	s.logger.Info("Initializing scan engine...")

	registry := classpath.NewRegistry()
	pool := archive.NewPool(s.config.Scan.MaxWorker)

	openArchive := func(path, packageRootPrefix string) (classpath.ArchiveHandle, error) {
		return pool.Open(path, packageRootPrefix)
	}

	resolver := classpath.NewResolver(registry, openArchive, nil)
	spec := s.config.Scan.ToScanSpec()

	s.scanner = scan.NewScanner(spec, resolver, pool, scan.WithWorkers(s.config.Scan.MaxWorker))

	s.logger.Info("Scan engine initialized")
	return nil
}

// initScheduler initializes the scan job scheduler.
func (s *Service) initScheduler() error {
	s.logger.Info("Initializing scheduler...")

	if err := s.initSources(); err != nil {
		return fmt.Errorf("failed to initialize sources: %w", err)
	}

	s.queryCache = rpc.NewCache(s.config.RPC.CacheSize)

	processorConfig := &scheduler.ProcessorConfig{
		Config:     s.config,
		Scanner:    s.scanner,
		Storage:    s.storage,
		Repos:      s.db,
		QueryCache: s.queryCache,
		Logger:     s.logger,
	}
	processor := scheduler.NewDefaultJobProcessor(processorConfig)

	schedulerConfig := scheduler.FromConfig(&s.config.Scheduler)
	s.scheduler = scheduler.New(schedulerConfig, s.aggregator, processor, s.logger)

	s.logger.Info("Scheduler initialized")
	return nil
}

// initSources initializes job sources based on configuration.
func (s *Service) initSources() error {
	s.logger.Info("Initializing job sources...")

	var sourceConfigs []*source.SourceConfig
	for _, cfg := range s.config.Sources {
		if !cfg.Enabled {
			s.logger.Info("Source %s (%s) is disabled, skipping", cfg.Name, cfg.Type)
			continue
		}

		sourceConfigs = append(sourceConfigs, &source.SourceConfig{
			Type:    source.SourceType(cfg.Type),
			Name:    cfg.Name,
			Enabled: cfg.Enabled,
			Options: cfg.Options,
		})
	}

	if len(sourceConfigs) == 0 {
		s.logger.Info("No sources configured, using default database source")
		sourceConfigs = append(sourceConfigs, &source.SourceConfig{
			Type:    source.SourceTypeDB,
			Name:    "default-db",
			Enabled: true,
			Options: map[string]interface{}{
				"poll_interval": s.config.Scheduler.PollInterval,
				"batch_size":    s.config.Scheduler.TaskBatchSize,
			},
		})
	}

	sources, err := source.CreateSources(sourceConfigs)
	if err != nil {
		return err
	}

	for _, src := range sources {
		if dbSource, ok := src.(*source.DatabaseSource); ok {
			dbSource.SetRepository(s.db.Job)
			dbSource.SetLogger(s.logger)
		}
		if kafkaSource, ok := src.(*source.KafkaSource); ok {
			kafkaSource.SetLogger(s.logger)
		}
		if httpSource, ok := src.(*source.HTTPSource); ok {
			httpSource.SetLogger(s.logger)
		}
	}

	s.sources = sources

	s.aggregator = source.NewAggregator(sources, s.config.Scheduler.TaskBatchSize*2, s.logger)

	s.logger.Info("Initialized %d job sources", len(sources))
	for _, src := range sources {
		s.logger.Info("  - %s (%s)", src.Name(), src.Type())
	}

	return nil
}

// initRPC builds the HTTP query server, if enabled.
func (s *Service) initRPC() error {
	if !s.config.RPC.Enabled {
		s.logger.Info("Query server disabled")
		return nil
	}

	s.rpcServer = rpc.NewServer(s.config.RPC.Addr, s.queryCache, s.db, s.logger)
	return nil
}

// Start starts the service.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting service...")

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if s.rpcServer != nil {
		go func() {
			if err := s.rpcServer.Start(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("Query server stopped: %v", err)
			}
		}()
	}

	s.running = true
	s.logger.Info("Service started successfully")

	return nil
}

// Stop stops the service gracefully.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.rpcServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.rpcServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shut down query server: %v", err)
		}
		cancel()
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if s.aggregator != nil {
		if err := s.aggregator.Stop(); err != nil {
			s.logger.Error("Failed to stop aggregator: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	s.running = false
	s.logger.Info("Service stopped")

	return nil
}

// IsRunning returns whether the service is running.
func (s *Service) IsRunning() bool {
	return s.running
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Running: s.running,
	}

	if s.scheduler != nil {
		stats.Scheduler = s.scheduler.Stats()
	}

	return stats
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Running   bool                     `json:"running"`
	Scheduler scheduler.SchedulerStats `json:"scheduler"`
}

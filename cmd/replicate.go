// Package cmd wires configuration, the replication engine and the status server into the
// running maned-mirror process.
package cmd

import (
	"context"
	"sync"
	"time"

	httpserver "github.com/OliveiraNt/maned-mirror/internal/adapters/http"
	"github.com/OliveiraNt/maned-mirror/internal/application"
	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/infrastructure/kafka"
	"github.com/OliveiraNt/maned-mirror/internal/infrastructure/repository"
	"github.com/OliveiraNt/maned-mirror/internal/infrastructure/telemetry"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

const (
	probeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// FactoryFunc builds the broker client factory for a configuration.
type FactoryFunc func(config.FileConfig) domain.ClientFactory

// Supervisor runs one engine at a time and replaces it when the configuration changes.
type Supervisor struct {
	newFactory FactoryFunc
	instanceID string
	reload     chan config.FileConfig

	mu     sync.RWMutex
	cfg    config.FileConfig
	engine *application.Engine
}

// NewSupervisor creates a supervisor for cfg. Engines are built with newFactory.
func NewSupervisor(cfg config.FileConfig, instanceID string, newFactory FactoryFunc) *Supervisor {
	return &Supervisor{
		newFactory: newFactory,
		instanceID: instanceID,
		reload:     make(chan config.FileConfig, 1),
		cfg:        cfg,
	}
}

// Reload schedules a restart with cfg. Only the latest pending configuration is kept.
func (s *Supervisor) Reload(cfg config.FileConfig) {
	for {
		select {
		case s.reload <- cfg:
			return
		default:
		}
		select {
		case <-s.reload:
		default:
		}
	}
}

// Status reports the current engine status along with the configured brokers.
func (s *Supervisor) Status() domain.Status {
	s.mu.RLock()
	engine, cfg := s.engine, s.cfg
	s.mu.RUnlock()

	var st domain.Status
	if engine != nil {
		st = engine.Status()
	} else {
		st = domain.Status{InstanceID: s.instanceID, Phase: domain.PhaseIdle, ReplicatedTopics: []string{}}
	}
	st.SourceBrokers = cfg.Source.Brokers
	st.DestinationBrokers = cfg.Destination.Brokers
	return st
}

// Run keeps an engine running until ctx is done. A reload stops the current engine and starts
// a new one with the new configuration.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		s.mu.RLock()
		cfg := s.cfg
		s.mu.RUnlock()

		engine, err := application.NewEngine(s.newFactory(cfg), application.Options{
			SkipTopics:      cfg.SkipTopics,
			BatchCommitSize: cfg.BatchCommitSize,
			InstanceID:      s.instanceID,
		})
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.engine = engine
		s.mu.Unlock()

		go engine.Run(ctx)

		select {
		case <-ctx.Done():
			engine.Stop()
			<-engine.Stopped()
			return nil
		case <-engine.Stopped():
			return nil
		case next := <-s.reload:
			utils.Logger.Info("configuration changed, restarting engine")
			engine.Stop()
			<-engine.Stopped()
			if next.HTTP != cfg.HTTP || next.Telemetry != cfg.Telemetry {
				utils.Logger.Warn("http and telemetry changes require a process restart")
			}
			s.mu.Lock()
			s.cfg = next
			s.mu.Unlock()
		}
	}
}

// StartReplication mirrors the clusters configured in repo until ctx is done, serving the
// status API when an HTTP address is configured.
func StartReplication(ctx context.Context, repo *repository.ConfigRepository, instanceID string) error {
	cfg := repo.Current()
	log := utils.Logger.With("instance", instanceID)
	log.Info("starting replication",
		"source", cfg.Source.Brokers,
		"destination", cfg.Destination.Brokers,
		"group", cfg.GroupID,
		"source_auth", cfg.Source.GetAuthType(),
		"destination_auth", cfg.Destination.GetAuthType(),
	)
	probeClusters(ctx, cfg)

	shutdownTelemetry, err := telemetry.InitProvider(ctx, cfg.Telemetry, instanceID)
	if err != nil {
		log.Warn("telemetry export disabled", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				log.Warn("telemetry shutdown failed", "err", err)
			}
		}()
	}

	sup := NewSupervisor(cfg, instanceID, func(c config.FileConfig) domain.ClientFactory {
		return kafka.NewFactory(c)
	})

	if err := repo.Watch(sup.Reload); err != nil {
		log.Warn("config hot reload disabled", "path", repo.Path(), "err", err)
	}
	defer func() { _ = repo.Close() }()

	var server *httpserver.Server
	if cfg.HTTP.Addr != "" {
		server = httpserver.New(sup)
		go func() {
			if err := server.Run(cfg.HTTP.Addr); err != nil {
				log.Error("HTTP server terminated", "err", err)
			}
		}()
	}

	err = sup.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown failed", "err", err)
		}
	}
	log.Info("replication stopped")
	return err
}

// probeClusters logs whether each cluster answers a metadata request. Unreachable clusters
// are not fatal: the engine keeps retrying on its own.
func probeClusters(ctx context.Context, cfg config.FileConfig) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	for _, c := range []config.ClusterConfig{cfg.Source, cfg.Destination} {
		checkCertificate(c)
		admin, err := kafka.NewAdmin(c)
		if err != nil {
			utils.Logger.Warn("cannot build cluster client", "cluster", c.Name, "err", err)
			continue
		}
		if admin.IsHealthy(ctx) {
			utils.Logger.Info("cluster reachable", "cluster", c.Name)
		} else {
			utils.Logger.Warn("cluster unreachable", "cluster", c.Name, "brokers", c.Brokers)
		}
		admin.Close()
	}
}

// checkCertificate warns when the client certificate of c is close to expiry or unreadable.
func checkCertificate(c config.ClusterConfig) {
	info, err := c.GetCertificateInfo()
	if err != nil {
		utils.Logger.Warn("cannot read client certificate", "cluster", c.Name, "err", err)
		return
	}
	if info == nil {
		return
	}
	if info.Status == "valid" {
		utils.Logger.Debug("client certificate valid", "cluster", c.Name, "expires", info.NotAfter)
		return
	}
	utils.Logger.Warn("client certificate needs renewal",
		"cluster", c.Name,
		"status", info.Status,
		"days_to_expiry", info.DaysToExpiry,
	)
}

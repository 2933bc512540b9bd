package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"pagewatch/internal/config"
	"pagewatch/internal/fingerprint"
	"pagewatch/internal/history"
	"pagewatch/internal/monitor"
	"pagewatch/internal/redis"
	"pagewatch/internal/requester"
	"pagewatch/internal/state"
)

// openStore returns the state store selected by cfg. The returned function
// releases backend connections.
func openStore(ctx context.Context, cfg config.Settings) (state.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("url", cfg.Redis.URL).Msg("Connected to Redis")
		return state.NewRedisStore(client, cfg.Redis.Prefix), func() { client.Close() }, nil
	default:
		return state.NewFileStore(cfg.Storage.StateFile), func() {}, nil
	}
}

// newMonitor assembles a Monitor from cfg: store, history log, HTTP client and hasher.
func newMonitor(ctx context.Context, cfg config.Settings, opts ...monitor.Option) (*monitor.Monitor, func(), error) {
	hasher, err := fingerprint.NewHasher(fingerprint.Options{
		Algorithm: fingerprint.Algorithm(cfg.Monitor.Algorithm),
		Mode:      fingerprint.Mode(cfg.Monitor.Mode),
		Selector:  cfg.Monitor.Selector,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid fingerprint settings: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	client := requester.NewHTTPClient(requester.Options{
		Timeout:      cfg.Monitor.Timeout,
		UserAgents:   cfg.Monitor.UserAgents,
		MaxBodyBytes: cfg.Monitor.MaxBodyBytes,
	})

	m, err := monitor.New(ctx, store, history.NewLog(cfg.Storage.HistoryFile), client, hasher, opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return m, closeStore, nil
}

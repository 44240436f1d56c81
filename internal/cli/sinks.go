package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/gazette/internal/config"
	"github.com/aretw0/gazette/pkg/adapters/csv"
	"github.com/aretw0/gazette/pkg/adapters/file"
	"github.com/aretw0/gazette/pkg/adapters/jsonl"
	"github.com/aretw0/gazette/pkg/adapters/memory"
	"github.com/aretw0/gazette/pkg/adapters/redis"
	"github.com/aretw0/gazette/pkg/adapters/sqlite"
	"github.com/aretw0/gazette/pkg/audit"
	"github.com/aretw0/gazette/pkg/persistence/middleware"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/aretw0/gazette/pkg/session"
)

// Store is a session store opened for one invocation.
type Store struct {
	ports.SessionStore
	// Events is set when the store also keeps the live event stream.
	Events ports.EventSink
	// Locker is set when the store supports distributed locks.
	Locker ports.DistributedLocker

	closer io.Closer
}

// Close releases the store's connection, if any.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OpenStore opens the session store selected in cfg, wrapped with the
// configured masking and encryption.
func OpenStore(cfg config.StoreConfig) (*Store, error) {
	var s *Store
	switch cfg.Kind {
	case config.StoreFile:
		s = &Store{SessionStore: file.New(cfg.Dir)}
	case config.StoreMemory:
		s = &Store{SessionStore: memory.NewStore()}
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.RedisPrefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.RedisPrefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		rs := redis.New(cfg.RedisAddr, "", 0, opts...)
		s = &Store{
			SessionStore: rs,
			Events:       rs,
			Locker:       redis.NewLocker(rs.Client(), cfg.RedisPrefix+"lock:"),
			closer:       rs,
		}
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.SessionStore = middleware.Chain(s.SessionStore, mws...)
	return s, nil
}

// storeMiddleware masks before it seals.
func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskKeys) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		key, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store encryption key: %w", err)
		}
		enc.ActiveKey = key
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("store fallback key %d: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// Sinks is the set of log destinations opened for one invocation.
type Sinks struct {
	*audit.MultiSink
	Store   *Store
	Manager *session.Manager

	closers []io.Closer
}

// OpenSinks opens every configured destination. On failure the ones already
// opened are closed.
func OpenSinks(cfg config.Config, logger *slog.Logger) (_ *Sinks, err error) {
	s := &Sinks{MultiSink: &audit.MultiSink{}}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if cfg.Log.CSV != "" {
		c, err := csv.Open(cfg.Log.CSV)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, c)
		s.Rows = append(s.Rows, c)
	}
	if cfg.Log.JSONL != "" {
		j, err := jsonl.Open(cfg.Log.JSONL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, j)
		s.Events = append(s.Events, j)
	}
	if cfg.Log.SQLite != "" {
		db, err := sqlite.Open(cfg.Log.SQLite)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		s.Rows = append(s.Rows, db)
		s.Events = append(s.Events, db)
	}

	store, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	s.Store = store
	s.closers = append(s.closers, store)
	if store.Events != nil {
		s.Events = append(s.Events, store.Events)
	}

	opts := []session.Option{session.WithLogger(logger)}
	if store.Locker != nil {
		opts = append(opts, session.WithLocker(store.Locker))
	}
	s.Manager = session.NewManager(store, opts...)
	s.Details = append(s.Details, s.Manager)
	return s, nil
}

// Close closes every destination in reverse opening order.
func (s *Sinks) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

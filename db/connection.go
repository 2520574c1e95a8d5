// Package db manages pgx PostgreSQL connection pools and runs admitted
// read-only queries.
//
// Design decisions:
//   - Uses pgxpool for connection pooling (safe for concurrent access).
//   - One pool per database URL, kept by a Connector so repeated requests
//     naming the same database reuse it. The Connector never holds its
//     lock across a dial, so one unreachable host stalls only its own URL.
//   - SSH tunnel integration is handled transparently: if SSH is enabled,
//     we first establish the tunnel, then connect pgx to the local endpoint.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/ssh"
)

// DB wraps a pgx connection pool and optional SSH tunnel.
type DB struct {
	Pool   *pgxpool.Pool
	Tunnel *ssh.Tunnel

	cfg config.Database
	log *zap.Logger
}

// Connect establishes a PostgreSQL connection to url, optionally through
// an SSH tunnel.
func Connect(ctx context.Context, cfg config.Database, url string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	d := &DB{cfg: cfg, log: applog.Named("db")}

	// If SSH tunnel is requested, set it up first.
	if cfg.SSH.Enabled {
		cc := poolCfg.ConnConfig
		tunnel, err := ssh.NewTunnel(cfg.SSH, cc.Host, int(cc.Port))
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel: %w", err)
		}
		localAddr, err := tunnel.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel start: %w", err)
		}
		d.Tunnel = tunnel

		// Override connection target with local tunnel endpoint
		cc.Host = localAddr.Host
		cc.Port = uint16(localAddr.Port)
		cc.Fallbacks = nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("pgx connect: %w", err)
	}

	// Verify the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		d.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}

	d.Pool = pool
	d.log.Info("connected", zap.String("database", config.RedactURL(url)))
	return d, nil
}

// Close shuts down the pool and SSH tunnel.
func (d *DB) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Tunnel != nil {
		d.Tunnel.Stop()
	}
}

// defaultConnectTimeout bounds a connect when DB_QUERY_TIMEOUT is unset.
const defaultConnectTimeout = 30 * time.Second

// Connector hands out one DB per database URL. Connects to different
// URLs run independently; concurrent callers for the same URL share one
// connect.
type Connector struct {
	cfg     config.Database
	connect func(ctx context.Context, cfg config.Database, url string) (*DB, error)
	group   singleflight.Group

	mu  sync.Mutex
	dbs map[string]*DB
}

func NewConnector(cfg config.Database) *Connector {
	return &Connector{cfg: cfg, connect: Connect, dbs: make(map[string]*DB)}
}

// Get returns the DB for url, or for the configured DATABASE_URL when url
// is empty, connecting on first use. The connect is bounded by
// DB_QUERY_TIMEOUT; ctx only bounds how long this caller waits for it.
func (c *Connector) Get(ctx context.Context, url string) (*DB, error) {
	resolved, err := c.cfg.ResolveURL(url)
	if err != nil {
		return nil, err
	}
	if d, ok := c.lookup(resolved); ok {
		return d, nil
	}

	ch := c.group.DoChan(resolved, func() (any, error) {
		if d, ok := c.lookup(resolved); ok {
			return d, nil
		}

		timeout := c.cfg.QueryTimeout
		if timeout <= 0 {
			timeout = defaultConnectTimeout
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		d, err := c.connect(cctx, c.cfg, resolved)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.dbs[resolved]; ok {
			d.Close()
			return existing, nil
		}
		c.dbs[resolved] = d
		return d, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*DB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Connector) lookup(url string) (*DB, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.dbs[url]
	return d, ok
}

// Close closes every pool opened by the connector.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, d := range c.dbs {
		d.Close()
		delete(c.dbs, url)
	}
}

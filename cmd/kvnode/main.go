// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"code.hybscloud.com/kvnode/conn"
	"code.hybscloud.com/kvnode/handler"
	"code.hybscloud.com/kvnode/internal/config"
	"code.hybscloud.com/kvnode/internal/logging"
	"code.hybscloud.com/kvnode/internal/netio"
	"code.hybscloud.com/kvnode/internal/reactor"
	"code.hybscloud.com/kvnode/store"
)

func main() {
	cmd := &cli.Command{
		Name:  "kvnode",
		Usage: "non-blocking key-value store node",
		Flags: config.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := config.FromCommand(c)
			return run(ctx, cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kvnode: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.LogLevel, cfg.PrettyLog)

	repo := store.NewMemory(1)
	repo.CreateStore("default")
	h := handler.New(repo, store.NewErrorCodeMapper())

	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		s, err := newShard(i, h, logging.ShardLogger(logger, i), cfg.BufferCapacity)
		if err != nil {
			return fmt.Errorf("kvnode: starting shard %d: %w", i, err)
		}
		shards[i] = s
		go s.run()
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("kvnode: listen %s: %w", cfg.ListenAddr, err)
	}
	defer ln.Close()
	logger.Info().Str("addr", cfg.ListenAddr).Int("shards", cfg.Shards).Msg("listening")

	tln, ok := ln.(*net.TCPListener)
	if !ok {
		return fmt.Errorf("kvnode: listener is not TCP")
	}

	var next int
	for {
		tc, err := tln.AcceptTCP()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			logger.Warn().Err(err).Msg("accept failed")
			continue
		}
		fc, err := netio.FromTCPConn(tc)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to take raw ownership of accepted socket")
			continue
		}
		shards[next%len(shards)].incoming <- fc
		next++
	}
}

// shard is one reactor goroutine's worth of connections: every Connection
// it owns is driven exclusively from this goroutine, so no locking is
// needed between OnEvent calls.
type shard struct {
	id       int
	react    reactor.Reactor
	conns    map[int]*conn.Connection
	incoming chan *netio.FDConn
	logger   zerolog.Logger
	handler  *handler.Handler
	bufCap   int
}

func newShard(id int, h *handler.Handler, logger zerolog.Logger, bufCap int) (*shard, error) {
	r, err := reactor.New(256)
	if err != nil {
		return nil, err
	}
	return &shard{
		id:       id,
		react:    r,
		conns:    make(map[int]*conn.Connection),
		incoming: make(chan *netio.FDConn, 64),
		logger:   logger,
		handler:  h,
		bufCap:   bufCap,
	}, nil
}

func (s *shard) run() {
	for {
		s.drainIncoming()
		if err := s.react.Wait(s, 100); err != nil {
			s.logger.Warn().Err(err).Msg("reactor wait failed")
		}
	}
}

func (s *shard) drainIncoming() {
	for {
		select {
		case fc := <-s.incoming:
			s.register(fc)
		default:
			return
		}
	}
}

func (s *shard) register(fc *netio.FDConn) {
	id := shortuuid.New()
	connLogger := logging.NewConnLogger(s.logger)
	c := conn.New(id, fc, s.handler, connLogger, conn.WithBufferCapacity(s.bufCap))
	s.conns[fc.FD()] = c
	if err := s.react.Add(fc.FD(), true, false); err != nil {
		s.logger.Warn().Err(err).Str("conn", id).Msg("failed to register connection")
		_ = c.Close()
		delete(s.conns, fc.FD())
	}
}

// OnEvent implements reactor.Handler.
func (s *shard) OnEvent(ev reactor.Event) {
	c, ok := s.conns[ev.FD]
	if !ok {
		return
	}

	if ev.Err {
		s.forget(c, ev.FD)
		return
	}
	if ev.Readable && c.State() != conn.Closed {
		if err := c.OnReadable(); err != nil {
			s.logger.Debug().Err(err).Str("conn", c.ID()).Msg("connection ended on read")
		}
	}
	if ev.Writable && c.State() != conn.Closed {
		if err := c.OnWritable(); err != nil {
			s.logger.Debug().Err(err).Str("conn", c.ID()).Msg("connection ended on write")
		}
	}

	switch c.State() {
	case conn.Closed:
		s.forget(c, ev.FD)
	case conn.Reading:
		_ = s.react.Modify(ev.FD, true, false)
	case conn.Writing:
		_ = s.react.Modify(ev.FD, false, true)
	}
}

func (s *shard) forget(c *conn.Connection, fd int) {
	_ = s.react.Remove(fd)
	delete(s.conns, fd)
}

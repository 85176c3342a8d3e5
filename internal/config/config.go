// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config defines the CLI flags cmd/kvnode exposes, grounded on the
// example repo tzrikka/timpani's internal/thrippy/flags.go: one function
// returning a []cli.Flag, each flag sourced from both a command-line switch
// and an environment variable, consumed by a github.com/urfave/cli/v3
// Command.
package config

import (
	"github.com/urfave/cli/v3"
)

const (
	DefaultListenAddr     = ":11311"
	DefaultBufferCapacity = 64000
	DefaultShards         = 4
	DefaultLogLevel       = "info"

	envListenAddr     = "KVNODE_LISTEN_ADDR"
	envBufferCapacity = "KVNODE_BUFFER_CAPACITY"
	envShards         = "KVNODE_SHARDS"
	envLogLevel       = "KVNODE_LOG_LEVEL"
	envPrettyLog      = "KVNODE_PRETTY_LOG"

	FlagListenAddr     = "listen"
	FlagBufferCapacity = "buffer-capacity"
	FlagShards         = "shards"
	FlagLogLevel       = "log-level"
	FlagPrettyLog      = "pretty-log"
)

// Flags returns the flags cmd/kvnode's root command registers.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagListenAddr,
			Usage:   "address the server listens on",
			Value:   DefaultListenAddr,
			Sources: cli.EnvVars(envListenAddr),
		},
		&cli.IntFlag{
			Name:    FlagBufferCapacity,
			Usage:   "fixed per-connection read/write buffer capacity, in bytes",
			Value:   DefaultBufferCapacity,
			Sources: cli.EnvVars(envBufferCapacity),
		},
		&cli.IntFlag{
			Name:    FlagShards,
			Usage:   "number of independent reactor shards",
			Value:   DefaultShards,
			Sources: cli.EnvVars(envShards),
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Usage:   "zerolog level: debug, info, warn, error",
			Value:   DefaultLogLevel,
			Sources: cli.EnvVars(envLogLevel),
		},
		&cli.BoolFlag{
			Name:    FlagPrettyLog,
			Usage:   "human-readable console logging instead of JSON",
			Sources: cli.EnvVars(envPrettyLog),
		},
	}
}

// Config is the resolved set of values Flags produces, read once at
// startup from a *cli.Command by FromCommand.
type Config struct {
	ListenAddr     string
	BufferCapacity int
	Shards         int
	LogLevel       string
	PrettyLog      bool
}

// FromCommand extracts a Config from a *cli.Command whose Flags includes
// the ones Flags returns.
func FromCommand(cmd *cli.Command) Config {
	return Config{
		ListenAddr:     cmd.String(FlagListenAddr),
		BufferCapacity: int(cmd.Int(FlagBufferCapacity)),
		Shards:         int(cmd.Int(FlagShards)),
		LogLevel:       cmd.String(FlagLogLevel),
		PrettyLog:      cmd.Bool(FlagPrettyLog),
	}
}

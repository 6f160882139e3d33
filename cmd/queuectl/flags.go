package main

import (
	"github.com/urfave/cli/v2"
)

// globalFlags returns the connection flags shared by every command
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Redis host",
			EnvVars: []string{"QUEUE_REDIS_HOST"},
			Value:   "127.0.0.1",
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Redis port",
			EnvVars: []string{"QUEUE_REDIS_PORT"},
			Value:   6379,
		},
		&cli.IntFlag{
			Name:    "db",
			Usage:   "Redis database",
			EnvVars: []string{"QUEUE_REDIS_DB"},
			Value:   0,
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Redis password",
			EnvVars: []string{"QUEUE_REDIS_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "ns",
			Usage:   "Queue namespace (Redis key prefix)",
			EnvVars: []string{"QUEUE_NAMESPACE"},
			Value:   "rsmq",
		},
		&cli.BoolFlag{
			Name:    "realtime",
			Usage:   "Publish realtime notifications on send",
			EnvVars: []string{"QUEUE_REALTIME"},
		},
	}
}

// attributeFlags returns the queue attribute flags used by create and attrs
func attributeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "vt",
			Usage: "Visibility timeout of received messages",
		},
		&cli.DurationFlag{
			Name:  "delay",
			Usage: "Delay before new messages become visible",
		},
		&cli.IntFlag{
			Name:  "maxsize",
			Usage: "Max message size in bytes (1024-65536, -1 for unlimited)",
		},
	}
}

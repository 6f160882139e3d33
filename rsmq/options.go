package rsmq

import "go.uber.org/zap"

const defaultNamespace = "rsmq"

type Options struct {
	Namespace string
	Realtime  bool
	Logger    *zap.Logger
}

type Option func(*Options)

// WithNamespace sets the key prefix shared by every queue of the client.
func WithNamespace(ns string) Option {
	return func(o *Options) { o.Namespace = ns }
}

// WithRealtime publishes the queue length to {ns}:rt:{qname} on every send.
// The client must be a go-redis/v9 client that supports Subscribe to use
// Client.Subscribe.
func WithRealtime(enabled bool) Option {
	return func(o *Options) { o.Realtime = enabled }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

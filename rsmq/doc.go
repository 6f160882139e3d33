// Package rsmq provides a simple message queue built on Redis.
//
// The storage layout follows RSMQ so queues can be shared with other
// RSMQ clients:
// - Redis Set {ns}:QUEUES for the queue names
// - Redis Hash {ns}:{qname}:Q for queue attributes and message bodies
// - Redis ZSet {ns}:{qname} tracking when each message becomes visible
// - Redis PubSub {ns}:rt:{qname} (optional) for realtime notifications
//
// Receive and pop are Lua scripts so a message is claimed atomically.
// All timestamps are taken from the Redis server clock.
package rsmq

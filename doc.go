// Package queue wraps a Redis simple message queue behind a Handle bound
// to one queue at a time.
//
// Create binds the handle (creating the queue when needed); Send,
// ReceiveMessage, PopMessage, DeleteMessage, SetAttributes and Destroy
// then work on the bound queue. Queue storage, visibility timeouts and
// delivery are handled by the service, by default package rsmq.
package queue

// Package natsqueue implements the hydration job transport on NATS
// JetStream.
//
// Each queue name maps to the subject <stream>.<queue> inside one
// work-queue stream and is consumed through a durable pull consumer with
// explicit acks. A fetched message that is neither acked nor terminated is
// redelivered once its ack wait expires, which gives the same at-least-once
// contract as the SQLite queue's heartbeat reclaim. Heartbeat extends the
// ack wait of in-flight messages; Fail terminates a message so it is not
// redelivered.
package natsqueue

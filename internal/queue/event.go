// Package queue defines message payloads exchanged over the message broker
// and the background consumer that reacts to them.
package queue

// SyncQueueName is the durable queue that carries sync requests.
const SyncQueueName = "index.sync.requested"

// SyncRequestedEvent asks the background consumer to run one reconciliation
// pass against the vector index. It carries enough context for the run log
// without querying anything.
type SyncRequestedEvent struct {
	RequestedBy string `json:"requested_by"`
	Reason      string `json:"reason,omitempty"`
	RequestedAt string `json:"requested_at"`
}

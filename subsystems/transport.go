package subsystems

import (
	"io"
)

// TransportResult is the outcome of Transport.SendBatch.
type TransportResult struct {
	// Success is true if the collection endpoint accepted the batch. The rows in the batch are only
	// removed from the queue when this is true.
	Success bool
}

// Transport delivers serialized batches to the collection endpoint.
//
// SendBatch is only called from the client's dispatch goroutine, never concurrently, and may block
// for as long as the request takes. Implementations must apply their own timeout.
type Transport interface {
	io.Closer

	// SendBatch sends one batch document. payloadCount is the number of payloads it contains.
	SendBatch(data []byte, payloadCount int) TransportResult
}

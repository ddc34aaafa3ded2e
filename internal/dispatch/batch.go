package dispatch

import (
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/relaytics/analytics-go/payload"
)

// Fixed parts of the batch document: {"batch":[...],"sentAt":"..."}.
const (
	batchPrefix   = `{"batch":[`
	sentAtPrefix  = `],"sentAt":"`
	batchSuffix   = `"}`
	timestampSize = len("2006-01-02T15:04:05.000Z")
)

// batchOverhead is the encoded size of a batch document with no payloads, when sentAt is in UTC.
const batchOverhead = len(batchPrefix) + len(sentAtPrefix) + timestampSize + len(batchSuffix)

// encodeBatch builds the batch document. Each payload's stored JSON is embedded as-is.
//
// It panics if payloads is empty: the dispatcher never reads an empty batch, so an empty one here
// indicates a bug.
func encodeBatch(payloads []payload.Payload, sentAt time.Time) []byte {
	if len(payloads) == 0 {
		panic("attempted to encode an empty batch")
	}
	w := jwriter.NewWriter()
	obj := w.Object()
	arr := obj.Name("batch").Array()
	for _, p := range payloads {
		w.Raw(p.Data())
	}
	arr.End()
	obj.Name("sentAt").String(payload.FormatTimestamp(sentAt))
	obj.End()
	return w.Bytes()
}

// fitBatch returns the longest prefix of payloads whose encoded batch is no larger than maxBytes.
// The first payload is always included, since a single payload is already bounded by
// payload.MaxPayloadSize.
func fitBatch(payloads []payload.Payload, maxBytes int) []payload.Payload {
	if maxBytes <= 0 || len(payloads) == 0 {
		return payloads
	}
	size := batchOverhead + len(payloads[0].Data())
	n := 1
	for ; n < len(payloads); n++ {
		size += 1 + len(payloads[n].Data())
		if size > maxBytes {
			break
		}
	}
	return payloads[:n]
}

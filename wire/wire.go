// Package wire implements the network serialization of event.Batch, the
// payload every transmitter POSTs to the ingestion endpoint.
package wire

import (
	"github.com/segmentio/encoding/json"

	"github.com/hazyhaar/omnitrack/event"
)

// MarshalBatch serializes a Batch to its wire JSON representation.
func MarshalBatch(b *event.Batch) ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBatch parses a wire JSON payload into a Batch.
func UnmarshalBatch(data []byte) (*event.Batch, error) {
	var b event.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

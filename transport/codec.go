package transport

import (
	"encoding/json"

	"github.com/virtualvoting/hashgraph/event"
)

// frame is the JSON-encodable envelope for a sync response: a head
// hash plus its DAG slice, flattened to a list since a fixed-size byte
// array is not a valid JSON object key. Adapted from the teacher's
// JSONCodec pattern (marshal/unmarshal a versioned envelope) rather
// than reused verbatim, since the map-keyed DAGSlice needs flattening
// first.
type frame struct {
	Version uint16      `json:"version"`
	Head    event.Hash  `json:"head"`
	Entries []wireEntry `json:"entries"`
}

type wireEntry struct {
	Hash event.Hash `json:"hash"`
	Wire event.Wire `json:"wire"`
}

const wireVersion uint16 = 0

// encodeFrame serializes a head hash and DAG slice into wire bytes.
func encodeFrame(head event.Hash, slice DAGSlice) ([]byte, error) {
	f := frame{Version: wireVersion, Head: head, Entries: make([]wireEntry, 0, len(slice))}
	for h, w := range slice {
		f.Entries = append(f.Entries, wireEntry{Hash: h, Wire: w})
	}
	return json.Marshal(f)
}

// decodeFrame parses wire bytes back into a head hash and DAG slice.
func decodeFrame(data []byte) (event.Hash, DAGSlice, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return event.Hash{}, nil, err
	}
	slice := make(DAGSlice, len(f.Entries))
	for _, e := range f.Entries {
		slice[e.Hash] = e.Wire
	}
	return f.Head, slice, nil
}

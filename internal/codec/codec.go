// Package codec serializes normative values for storage or hand-off to a
// transport. A frame is a small binary header followed by a JSON envelope,
// optionally Snappy-compressed.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	merrors "github.com/masar/masar/internal/errors"
	"github.com/masar/masar/pkg/types"
)

// Frame layout: 4 bytes magic + 1 byte flags + 8 bytes type fingerprint + payload.
const headerSize = 13

var magic = [4]byte{'N', 'T', 'V', '1'}

const flagSnappy byte = 1

// Options controls encoding.
type Options struct {
	// Compress enables Snappy compression of the envelope.
	Compress bool

	// SnapshotID labels the frame; a random UUID is used when empty.
	SnapshotID string
}

// Envelope is the JSON body of a frame. Value holds only assigned fields.
type Envelope struct {
	TypeID     string         `json:"id"`
	SnapshotID string         `json:"snapshot_id"`
	Value      map[string]any `json:"value"`
}

// Encode serializes v into a frame.
func Encode(v *types.Value, opts Options) ([]byte, error) {
	snapshotID := opts.SnapshotID
	if snapshotID == "" {
		snapshotID = uuid.New().String()
	}

	body, err := json.Marshal(Envelope{
		TypeID:     v.Type().ID(),
		SnapshotID: snapshotID,
		Value:      v.ChangedMap(),
	})
	if err != nil {
		return nil, fmt.Errorf("codec: failed to encode envelope: %w", err)
	}

	var flags byte
	if opts.Compress {
		body = snappy.Encode(nil, body)
		flags |= flagSnappy
	}

	buf := make([]byte, headerSize+len(body))
	copy(buf[0:4], magic[:])
	buf[4] = flags
	binary.LittleEndian.PutUint64(buf[5:13], v.Type().Fingerprint())
	copy(buf[headerSize:], body)
	return buf, nil
}

// Decode parses a frame produced for type t and rebuilds the value. It fails
// with a construction error if the frame was encoded for a different type.
func Decode(t *types.Type, data []byte) (*types.Value, *Envelope, error) {
	if len(data) < headerSize || !bytes.Equal(data[0:4], magic[:]) {
		return nil, nil, errors.New("codec: not a value frame")
	}

	flags := data[4]
	fingerprint := binary.LittleEndian.Uint64(data[5:13])
	if fingerprint != t.Fingerprint() {
		return nil, nil, merrors.NewConstructionError(merrors.CodeTypeMismatch,
			"frame was encoded for a different type").
			WithDetails(map[string]interface{}{
				"expected": fmt.Sprintf("%016x", t.Fingerprint()),
				"actual":   fmt.Sprintf("%016x", fingerprint),
			})
	}

	body := data[headerSize:]
	if flags&flagSnappy != 0 {
		raw, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, nil, fmt.Errorf("codec: snappy decompress failed: %w", err)
		}
		body = raw
	}

	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("codec: failed to decode envelope: %w", err)
	}

	v, err := types.NewValue(t, env.Value)
	if err != nil {
		return nil, nil, err
	}
	return v, &env, nil
}

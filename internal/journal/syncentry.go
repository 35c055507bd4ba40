package journal

import (
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/codec"
	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the payload size above which content is compressed
// before encryption.
const compressThreshold = 1024

// maxContentSize bounds decompression of a single record.
const maxContentSize = 8 << 20

type compression uint8

const (
	compressionNone compression = 0
	compressionZstd compression = 1
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxContentSize))
)

// SyncEntry is the plaintext of one journal entry: what happened to which
// serialized task.
type SyncEntry struct {
	Action  Action
	Content string
}

type syncRecord struct {
	Action      string      `cbor:"1,keyasint"`
	Compression compression `cbor:"2,keyasint,omitempty"`
	Content     []byte      `cbor:"3,keyasint"`
}

// Marshal encodes the entry to deterministic CBOR, compressing large content.
func (e SyncEntry) Marshal() ([]byte, error) {
	if !e.Action.Valid() {
		return nil, fmt.Errorf("marshal sync entry: invalid action %v", e.Action)
	}

	rec := syncRecord{Action: e.Action.String(), Content: []byte(e.Content)}
	if len(rec.Content) > compressThreshold {
		rec.Content = zstdEncoder.EncodeAll(rec.Content, nil)
		rec.Compression = compressionZstd
	}
	return codec.Marshal(rec)
}

// UnmarshalSyncEntry is the inverse of SyncEntry.Marshal.
func UnmarshalSyncEntry(data []byte) (SyncEntry, error) {
	var rec syncRecord
	if err := codec.Unmarshal(data, &rec); err != nil {
		return SyncEntry{}, fmt.Errorf("decode sync entry: %w", err)
	}

	action, err := ParseAction(rec.Action)
	if err != nil {
		return SyncEntry{}, fmt.Errorf("decode sync entry: %w", err)
	}

	content := rec.Content
	switch rec.Compression {
	case compressionNone:
	case compressionZstd:
		content, err = zstdDecoder.DecodeAll(rec.Content, nil)
		if err != nil {
			return SyncEntry{}, fmt.Errorf("decompress sync entry: %w", err)
		}
	default:
		return SyncEntry{}, fmt.Errorf("decode sync entry: unknown compression %d", rec.Compression)
	}

	return SyncEntry{Action: action, Content: string(content)}, nil
}

package hypostasis

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"slices"

	"github.com/NiceneNerd/hypostasis/byml"
	"github.com/vmihailenco/msgpack/v5"
)

// CanonicalEncoding returns the byte form an object entry is identified by:
// msgpack with map keys in ascending order and every scalar written at its
// own width, so that an int32 and a uint32 of the same value differ. The
// result depends only on the entry's content.
func CanonicalEncoding(entry *byml.Map) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := encodeCanonical(enc, entry, 0)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EntryChecksum is the CRC-32 (IEEE) of the entry's canonical encoding.
func EntryChecksum(entry *byml.Map) (uint32, error) {
	data, err := CanonicalEncoding(entry)
	if err != nil {
		return 0, err
	}
	return crc32.ChecksumIEEE(data), nil
}

const maxCanonicalDepth = 512

func encodeCanonical(enc *msgpack.Encoder, v any, depth int) error {
	if depth > maxCanonicalDepth {
		return fmt.Errorf("entry nested deeper than %d", maxCanonicalDepth)
	}
	switch v := v.(type) {
	case nil:
		return enc.EncodeNil()
	case bool:
		return enc.EncodeBool(v)
	case int32:
		return enc.EncodeInt32(v)
	case uint32:
		return enc.EncodeUint32(v)
	case int64:
		return enc.EncodeInt64(v)
	case uint64:
		return enc.EncodeUint64(v)
	case float32:
		return enc.EncodeFloat32(v)
	case float64:
		return enc.EncodeFloat64(v)
	case string:
		return enc.EncodeString(v)
	case []any:
		if err := enc.EncodeArrayLen(len(v)); err != nil {
			return err
		}
		for _, item := range v {
			if err := encodeCanonical(enc, item, depth+1); err != nil {
				return err
			}
		}
		return nil
	case *byml.Map:
		keys := v.Keys()
		slices.Sort(keys)
		if err := enc.EncodeMapLen(len(keys)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			item, _ := v.Get(k)
			if err := encodeCanonical(enc, item, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

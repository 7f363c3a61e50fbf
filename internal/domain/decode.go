package domain

import (
	"bytes"
	"encoding/json"
)

// DecodeRecords turns caller input into records.
//
// Strings and byte slices are parsed as JSON. Any other value is marshalled.
// A JSON array yields one record per element; anything else yields a single
// record. Failures are reported as KindInvalidBody.
func DecodeRecords(data any) ([]Record, error) {
	var raw []byte
	switch v := data.(type) {
	case nil:
		return nil, NewError(KindInvalidBody, "no data")
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, NewError(KindInvalidBody, "marshal: %v", err)
		}
		raw = b
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, NewError(KindInvalidBody, "empty body")
	}
	if !json.Valid(raw) {
		return nil, NewError(KindInvalidBody, "invalid JSON")
	}

	if raw[0] != '[' {
		rec, err := compact(raw)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, NewError(KindInvalidBody, "decode array: %v", err)
	}
	records := make([]Record, 0, len(elems))
	for _, e := range elems {
		rec, err := compact(e)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func compact(raw []byte) (Record, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, NewError(KindInvalidBody, "compact: %v", err)
	}
	return Record(buf.Bytes()), nil
}

package domain

import (
	"bytes"
	"encoding/json"
)

// Record is one log entry, kept as compact JSON.
type Record = json.RawMessage

// Batch is an ordered group of records cut from the pending sequence.
// Once cut it is not modified.
type Batch struct {
	Records []Record
}

// NewBatch wraps records into a Batch.
func NewBatch(records []Record) Batch {
	return Batch{Records: records}
}

// Size returns the number of records in the batch.
func (b Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b Batch) Empty() bool {
	return len(b.Records) == 0
}

// Single returns true if the batch holds exactly one record.
func (b Batch) Single() bool {
	return len(b.Records) == 1
}

// Body returns the request payload: the bare record for a single-record
// batch, a JSON array otherwise.
func (b Batch) Body() []byte {
	if b.Single() {
		return b.Records[0]
	}
	var buf bytes.Buffer
	buf.Grow(b.bytes() + len(b.Records) + 2)
	buf.WriteByte('[')
	for i, r := range b.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(r)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func (b Batch) bytes() int {
	n := 0
	for _, r := range b.Records {
		n += len(r)
	}
	return n
}

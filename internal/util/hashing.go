package util

import (
	"crypto/sha256"
	"strconv"

	"github.com/go-sod/mixknn/pkg/record"
)

// HashRecord digests numeric and categorical attributes. Each value is
// length-prefixed so that distinct attribute lists never collide by
// concatenation.
func HashRecord(numeric []float64, categorical []string) [32]byte {
	buffer := GetBytesBuffer()
	defer PutBytesBuffer(buffer)
	buffer.WriteString(strconv.Itoa(len(numeric)))
	buffer.WriteByte('|')
	for i := range numeric {
		buffer.WriteString(strconv.FormatFloat(numeric[i], 'g', -1, 64))
		buffer.WriteByte(',')
	}
	buffer.WriteString(strconv.Itoa(len(categorical)))
	buffer.WriteByte('|')
	for i := range categorical {
		buffer.WriteString(strconv.Itoa(len(categorical[i])))
		buffer.WriteByte(':')
		buffer.WriteString(categorical[i])
	}
	return sha256.Sum256(buffer.Bytes())
}

// HashRecords digests ids and attributes of records in order.
func HashRecords(records []record.Record) [32]byte {
	h := sha256.New()
	for i := range records {
		id := records[i].ID()
		_, _ = h.Write([]byte(strconv.Itoa(len(id)) + ":" + id))
		sum := HashRecord(records[i].Numeric(), records[i].Categorical())
		_, _ = h.Write(sum[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

package assessment

import (
	"fmt"
	"time"
)

// VectorLength 是编码向量的固定长度，对应四个人格维度。
const VectorLength = 4

// Record is the logical assessment payload: the canonical four-letter label
// plus its bit encoding ([E,N,T,P] as 0/1).
type Record struct {
	RawLabel    string    `json:"rawLabel"`
	Encoded     []int     `json:"encodedVector"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Validate checks the record locally. A record that fails here must never
// reach the network.
func (r Record) Validate() error {
	if len(r.RawLabel) != VectorLength {
		return fmt.Errorf("raw label must be %d letters, got %q", VectorLength, r.RawLabel)
	}
	if len(r.Encoded) != VectorLength {
		return fmt.Errorf("encoded vector must have length %d, got %d", VectorLength, len(r.Encoded))
	}
	for i, v := range r.Encoded {
		if v != 0 && v != 1 {
			return fmt.Errorf("encoded vector element %d must be 0 or 1, got %d", i, v)
		}
	}
	return nil
}

// FromLabel derives a record from a four-letter type label, encoding each
// dimension the way the assessment flow does (E/N/T/P → 1).
func FromLabel(label string, submittedAt time.Time) (Record, error) {
	if len(label) != VectorLength {
		return Record{}, fmt.Errorf("type label must be %d letters, got %q", VectorLength, label)
	}

	upper := make([]byte, VectorLength)
	for i := 0; i < VectorLength; i++ {
		c := label[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}

	pairs := [VectorLength][2]byte{{'E', 'I'}, {'N', 'S'}, {'T', 'F'}, {'P', 'J'}}
	encoded := make([]int, VectorLength)
	for i, pair := range pairs {
		switch upper[i] {
		case pair[0]:
			encoded[i] = 1
		case pair[1]:
			encoded[i] = 0
		default:
			return Record{}, fmt.Errorf("position %d must be %c or %c, got %c", i+1, pair[0], pair[1], upper[i])
		}
	}

	return Record{RawLabel: string(upper), Encoded: encoded, SubmittedAt: submittedAt}, nil
}

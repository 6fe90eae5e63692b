package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// EncodingSize is the length of a face encoding vector.
const EncodingSize = 128

// DefaultFaceTolerance is the maximum distance accepted as a match.
const DefaultFaceTolerance = 0.6

// FaceData is a user's enrolled face encoding.
type FaceData struct {
	UserID    uuid.UUID `json:"user_id"`
	Encoding  []float64 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateEncoding checks the vector length and that every component is finite.
func ValidateEncoding(enc []float64) error {
	if len(enc) != EncodingSize {
		return fmt.Errorf("encoding must have %d components, got %d", EncodingSize, len(enc))
	}
	for i, v := range enc {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("encoding component %d is not finite", i)
		}
	}
	return nil
}

// Distance returns the Euclidean distance between two encodings.
func Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("encoding length mismatch: %d != %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Matches reports whether probe is within tolerance of the enrolled encoding.
func (f *FaceData) Matches(probe []float64, tolerance float64) bool {
	d, err := Distance(f.Encoding, probe)
	if err != nil {
		return false
	}
	return d <= tolerance
}

package logging

// ProgressSampler suppresses repetitive byte-count progress logs, emitting only
// when the transfer crosses a percentage bucket boundary.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits every bucketSize percent
// (default 25%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: 0}
}

// ShouldLog reports whether progress at written of total bytes should be logged.
// Unknown totals never emit.
func (s *ProgressSampler) ShouldLog(written, total int64) bool {
	if s == nil || total <= 0 || written < 0 {
		return false
	}
	percent := float64(written) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}

// Reset clears the sampler state before the next file.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = 0
}

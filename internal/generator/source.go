package generator

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Source produces random test data. It is safe for concurrent use.
type Source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource returns a Source seeded with seed, or with the clock when seed is 0.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// String returns n random characters from [A-Za-z0-9].
func (s *Source) String(n int) string {
	if n <= 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[s.rnd.Intn(len(alphanumeric))]
	}
	return string(b)
}

// Intn returns a random integer in [lo, hi]. It returns lo when hi < lo.
func (s *Source) Intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rnd.Intn(hi-lo+1)
}

// Value returns a value of a randomly chosen shape: a short string, a long
// string, a number, or a mixed string_number token.
func (s *Source) Value() string {
	switch s.Intn(0, 3) {
	case 0:
		return s.String(8)
	case 1:
		return s.String(100)
	case 2:
		return strconv.Itoa(s.Intn(1, 10000))
	default:
		return s.String(5) + "_" + strconv.Itoa(s.Intn(1, 1000))
	}
}

// Values returns n space-free values suitable for a list command.
func (s *Source) Values(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s.Value()
	}
	return out
}

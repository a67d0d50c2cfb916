// Package id generates identifiers for orders and backtest runs.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sequence hands out monotonically increasing numeric ids. Each owner keeps
// its own Sequence so ids are unique per owner and replays stay reproducible.
type Sequence struct {
	mu   sync.Mutex
	next uint64
}

// Next returns the next id, starting at 1.
func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// Last returns the most recently issued id (0 if none).
func (s *Sequence) Last() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// RunIDs produces ULID strings for labelling backtest runs in journals.
//
// ULIDs sort by creation time, which keeps run rows in the SQLite journal
// naturally ordered.
type RunIDs struct {
	mu   sync.Mutex
	mono io.Reader
	now  func() time.Time
}

// NewRunIDs seeds a monotonic ULID source from crypto/rand.
func NewRunIDs() *RunIDs {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewRunIDsFrom(seed, time.Now)
}

// NewRunIDsFrom builds a source with a fixed seed and clock, for tests.
func NewRunIDsFrom(seed int64, now func() time.Time) *RunIDs {
	return &RunIDs{
		mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
		now:  now,
	}
}

// New returns a new run id.
func (r *RunIDs) New() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(r.now().UTC()), r.mono)
	if err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}
	return id.String(), nil
}

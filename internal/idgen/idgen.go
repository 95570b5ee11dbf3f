// Package idgen issues time-sortable identifiers for exit transactions.
package idgen

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// New creates a generator seeded from crypto/rand.
func New() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewWithSource(rand.New(rand.NewSource(seed)), time.Now)
}

// NewWithSource creates a generator with explicit entropy and clock.
func NewWithSource(entropy io.Reader, now func() time.Time) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     now,
	}
}

// NewID returns the next ULID string. IDs created within the same millisecond still sort
// in creation order.
func (g *Generator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// Only reachable if the clock runs backwards past the epoch or entropy overflows.
		panic(err)
	}
	return id.String()
}

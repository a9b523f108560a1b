package shared

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ID prefixes per entity kind.
const (
	PrefixOpportunity  = "O"
	PrefixApplication  = "A"
	PrefixWithdrawal   = "W"
	PrefixRegistration = "REG"
	PrefixUser         = "U"
)

// IDGenerator issues prefix + zero-padded counter ids (O001, REG012).
// Counters are seeded from loaded ids so new ids never collide with them.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	last   int
}

// NewIDGenerator returns a generator for prefix starting at zero.
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Prefix returns the generator's prefix.
func (g *IDGenerator) Prefix() string {
	return g.prefix
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last++
	return fmt.Sprintf("%s%03d", g.prefix, g.last)
}

// Seed raises the counter to the largest numeric suffix among ids carrying
// this generator's prefix. Ids with other prefixes are ignored. The counter
// never moves backwards.
func (g *IDGenerator) Seed(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if n, ok := Suffix(g.prefix, id); ok && n > g.last {
			g.last = n
		}
	}
}

// Last returns the most recently issued or seeded counter value.
func (g *IDGenerator) Last() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Suffix extracts the numeric suffix of id when it starts with prefix
// (case-insensitive) followed only by digits.
func Suffix(prefix, id string) (int, bool) {
	id = strings.TrimSpace(id)
	if len(id) <= len(prefix) || !strings.EqualFold(id[:len(prefix)], prefix) {
		return 0, false
	}
	digits := id[len(prefix):]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

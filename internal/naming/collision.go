package naming

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutputClaimed is returned when two sources in one run map to the same
// output path (e.g. movie.avi and movie.mp4 both becoming movie.mkv).
var ErrOutputClaimed = errors.New("output path already claimed")

// Claims records which source owns each output path within a single run.
// The first source to claim a path wins; later claimants are refused rather
// than silently overwriting. All methods are goroutine-safe.
type Claims struct {
	mu     sync.Mutex
	owners map[string]string // output path → source path
}

// NewClaims creates an empty claim table.
func NewClaims() *Claims {
	return &Claims{owners: make(map[string]string)}
}

// Claim reserves output for source. Claiming the same pair twice is a no-op.
func (c *Claims) Claim(source, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if owner, ok := c.owners[output]; ok && owner != source {
		return fmt.Errorf("%w: %s", ErrOutputClaimed, output)
	}
	c.owners[output] = source
	return nil
}

// Owner returns the source that claimed output, if any.
func (c *Claims) Owner(output string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.owners[output]
	return s, ok
}

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChainIDGenerator mints the level identifiers that link an allocation
// lineage together. Injected into the controllers so id generation stays
// deterministic under test.
type ChainIDGenerator interface {
	NextID(prefix string) string
}

// TimestampIDGenerator is the production generator: millisecond timestamp
// plus a short random suffix. Collision avoidance at practical request
// rates, not cryptographic uniqueness.
type TimestampIDGenerator struct{}

func (TimestampIDGenerator) NextID(prefix string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}

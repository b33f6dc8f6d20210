package xid

import (
	"github.com/google/uuid"
)

// New returns a prefixed random identifier such as "cs-3f0c...".
func New(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		// entropy source failed; fall back to a time-based UUID
		id, err = uuid.NewUUID()
		if err != nil {
			panic(err)
		}
	}
	return prefix + "-" + id.String()
}

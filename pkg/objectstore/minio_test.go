package objectstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPresignEntryStillCovers(t *testing.T) {
	now := time.Now()
	entry := presignEntry{url: "u", expiresAt: now.Add(time.Hour)}

	// Fresh entry covers a request for the same window it was signed with.
	assert.True(t, entry.stillCovers(time.Hour, now))

	// Near its expiry the URL must not be served again.
	assert.False(t, entry.stillCovers(time.Hour, now.Add(45*time.Minute)))

	// A caller asking for a longer window than the remaining validity
	// supports forces a re-sign.
	assert.False(t, entry.stillCovers(4*time.Hour, now))

	// A caller asking for a short window can still use the entry.
	assert.True(t, entry.stillCovers(10*time.Minute, now.Add(50*time.Minute)))
}

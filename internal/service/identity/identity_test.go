package identity_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dinerozz/tracking-backend/internal/service/identity"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	f := identity.NewFingerprinter("salt")

	a := f.Fingerprint("1.2.3.4", "Mozilla/5.0")
	assert.Len(t, a, 64)
	assert.Equal(t, a, f.Fingerprint("1.2.3.4", "Mozilla/5.0"))
	assert.NotEqual(t, a, f.Fingerprint("1.2.3.5", "Mozilla/5.0"))
	assert.NotEqual(t, a, f.Fingerprint("1.2.3.4", "curl/8.0"))
	assert.NotContains(t, a, "1.2.3.4")

	other := identity.NewFingerprinter("pepper")
	assert.NotEqual(t, a, other.Fingerprint("1.2.3.4", "Mozilla/5.0"))
}

func TestFingerprintLongAndEmptySalt(t *testing.T) {
	t.Parallel()

	long := identity.NewFingerprinter(strings.Repeat("s", 200))
	assert.Len(t, long.Fingerprint("ip", "ua"), 64)

	empty := identity.NewFingerprinter("")
	assert.Len(t, empty.Fingerprint("ip", "ua"), 64)
}

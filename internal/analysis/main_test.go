package analysis

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/tphakala/pugmark/internal/testutil"
)

// DefaultTestTimeout bounds every wait on a run in this package.
const DefaultTestTimeout = testutil.DefaultTestTimeout

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, testutil.LeakOptions()...)
}

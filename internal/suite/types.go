package suite

import (
	"errors"
	"time"

	"github.com/jmylchreest/siccprobe/pkg/httpclient"
)

// Errors that end a run early or fail it as a whole.
var (
	// ErrServerUnavailable means the health gate failed; nothing else ran.
	ErrServerUnavailable = errors.New("server unavailable")
	// ErrNoToken means registration produced no session token.
	ErrNoToken = errors.New("registration did not yield a token")
	// ErrScenariosFailed is returned in strict mode when any scenario failed.
	ErrScenariosFailed = errors.New("one or more scenarios failed")
)

// InvalidToken is the bearer credential sent by the rejection scenario.
const InvalidToken = "invalid_token"

// rejectionStatuses are the statuses that count as refusing a request:
// anything from 401 up.
var rejectionStatuses = httpclient.MustParseStatusCodes("401-999")

var successStatuses = httpclient.Default2xxStatusCodes()

// Result is the outcome of one scenario.
type Result struct {
	Name    string
	Passed  bool
	Message string
	Elapsed time.Duration
}

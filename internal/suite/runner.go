// Package suite runs the SICC API smoke scenarios in a fixed order and
// reports each outcome.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/jmylchreest/siccprobe/internal/config"
	"github.com/jmylchreest/siccprobe/internal/console"
	"github.com/jmylchreest/siccprobe/internal/observability"
	"github.com/jmylchreest/siccprobe/internal/sicc"
)

// Options configures a Runner.
type Options struct {
	Client      *sicc.Client
	Printer     *console.Printer
	Logger      *slog.Logger
	Credentials config.CredentialsConfig
	Pagination  config.PaginationConfig
	Resources   config.ResourcesConfig

	// Extended adds the medication, catalogue, dashboard and logout scenarios.
	Extended bool
	// Strict turns any failed scenario into ErrScenariosFailed.
	Strict bool
	// TokenPreview is how many token characters the report shows.
	TokenPreview int

	// Now stamps the registration email. Defaults to time.Now.
	Now func() time.Time
}

// Runner executes the suite. It is single-use and not safe for concurrent use.
type Runner struct {
	client  *sicc.Client
	out     *console.Printer
	logger  *slog.Logger
	opts    Options
	runID   string
	results []Result
}

// New creates a runner.
func New(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	runID := ulid.Make().String()
	logger := observability.WithRunID(observability.WithComponent(opts.Logger, "suite"), runID)

	return &Runner{
		client: opts.Client,
		out:    opts.Printer,
		logger: logger,
		opts:   opts,
		runID:  runID,
	}
}

// RunID returns the unique identifier of this run.
func (r *Runner) RunID() string {
	return r.runID
}

// Results returns the recorded scenario outcomes in execution order.
func (r *Runner) Results() []Result {
	return r.results
}

// Run executes every scenario in order. It returns ErrServerUnavailable or
// ErrNoToken when the run is aborted, ErrScenariosFailed in strict mode when
// anything failed, and nil otherwise.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "suite starting", slog.String("base_url", r.client.BaseURL()))
	r.out.Banner("HTTP TEST SUITE - SICC API")

	if err := r.checkServer(ctx); err != nil {
		return err
	}
	defer r.PrintSummary()

	r.out.Section("SECURITY TESTS")
	r.testInvalidToken(ctx)
	r.testNoToken(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}

	r.out.Section("AUTHENTICATION TESTS")
	creds := r.credentials()
	token := r.testRegister(ctx, creds)
	if token == "" {
		r.out.Failure("Could not obtain a token from registration")
		return ErrNoToken
	}
	r.testLogin(ctx, creds)

	if err := ctx.Err(); err != nil {
		return err
	}

	r.out.Section("AUTHENTICATED TESTS")
	r.testCurrentUser(ctx, token)
	for _, l := range r.coreLists() {
		r.testList(ctx, token, l)
	}

	if r.opts.Extended {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.out.Section("EXTENDED TESTS")
		for _, l := range r.extendedLists() {
			r.testList(ctx, token, l)
		}
		r.testDashboard(ctx, token)
		r.testLogout(ctx, token)
	}

	r.out.Banner("TESTS COMPLETED")

	if r.opts.Strict && r.failed() > 0 {
		return fmt.Errorf("%w: %d of %d", ErrScenariosFailed, r.failed(), len(r.results))
	}
	return nil
}

// runScenario prints the scenario header, runs fn and records the result.
// fn prints its own progress and success lines; a returned error becomes
// the failure line.
func (r *Runner) runScenario(ctx context.Context, name string, fn func() error) bool {
	logger := observability.WithScenario(r.logger, name)
	r.out.Test(name)

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	result := Result{
		Name:    name,
		Passed:  err == nil,
		Elapsed: elapsed,
	}

	if err != nil {
		result.Message = err.Error()
		r.out.Failure("%s", err)
		observability.WithError(logger, err).WarnContext(ctx, "scenario failed", slog.Duration("elapsed", elapsed))
	} else {
		result.Message = "OK"
		logger.InfoContext(ctx, "scenario passed", slog.Duration("elapsed", elapsed))
	}

	r.results = append(r.results, result)
	return result.Passed
}

func (r *Runner) passed() int {
	return lo.CountBy(r.results, func(res Result) bool { return res.Passed })
}

func (r *Runner) failed() int {
	return len(r.results) - r.passed()
}

// PrintSummary prints the results table.
func (r *Runner) PrintSummary() {
	r.out.Plain("")
	r.out.Rule("=")
	r.out.Plain("Results (run %s)", r.runID)
	r.out.Rule("=")

	var totalTime time.Duration
	for _, res := range r.results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		totalTime += res.Elapsed
		r.out.Plain("[%s] %s (%.2fs)", status, res.Name, res.Elapsed.Seconds())
		if !res.Passed {
			r.out.Plain("       Error: %s", res.Message)
		}
	}

	r.out.Rule("-")
	r.out.Plain("Total: %d tests, %d passed, %d failed (%.2fs)",
		len(r.results), r.passed(), r.failed(), totalTime.Seconds())
}

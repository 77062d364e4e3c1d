package suite

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmylchreest/siccprobe/internal/sicc"
)

type listScenario struct {
	name string
	noun string
	path string
}

func (r *Runner) coreLists() []listScenario {
	res := r.opts.Resources
	return []listScenario{
		{name: "List patients", noun: "Patients", path: res.Patients},
		{name: "List consultations", noun: "Consultations", path: res.Consultations},
		{name: "List prescriptions", noun: "Prescriptions", path: res.Prescriptions},
		{name: "List healthcare professionals", noun: "Professionals", path: res.Professionals},
	}
}

func (r *Runner) extendedLists() []listScenario {
	res := r.opts.Resources
	return []listScenario{
		{name: "List medications", noun: "Medications", path: res.Medications},
		{name: "List pharmaceutical forms", noun: "Pharmaceutical forms", path: res.PharmaceuticalForm},
		{name: "List CIE-10 codes", noun: "CIE-10 codes", path: res.Cie10},
	}
}

func (r *Runner) credentials() sicc.RegisterRequest {
	c := r.opts.Credentials
	return sicc.RegisterRequest{
		Firstname: c.Firstname,
		Lastname:  c.Lastname,
		Email:     fmt.Sprintf("%s_%d@%s", c.EmailPrefix, r.opts.Now().Unix(), c.EmailDomain),
		Password:  c.Password,
	}
}

// checkServer is the health gate. Its failure aborts the run.
func (r *Runner) checkServer(ctx context.Context) error {
	var cause error
	ok := r.runScenario(ctx, "Check server availability", func() error {
		resp, err := r.client.Health(ctx)
		if err != nil {
			cause = err
			return fmt.Errorf("could not connect to server: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			cause = fmt.Errorf("health status %d", resp.StatusCode)
			return fmt.Errorf("server responded with status %d", resp.StatusCode)
		}
		r.out.Success("Server available at %s", r.client.BaseURL())
		return nil
	})
	if ok {
		return nil
	}

	r.out.Info("Make sure the SICC API is running at %s", r.client.BaseURL())
	r.out.Info("or start a local stand-in with: siccprobe mock")
	return fmt.Errorf("%w: %w", ErrServerUnavailable, cause)
}

func (r *Runner) testInvalidToken(ctx context.Context) {
	r.runScenario(ctx, "Invalid token is rejected", func() error {
		return r.expectRejected(ctx, InvalidToken, "invalid token")
	})
}

func (r *Runner) testNoToken(ctx context.Context) {
	r.runScenario(ctx, "Missing token is rejected", func() error {
		return r.expectRejected(ctx, "", "no token")
	})
}

func (r *Runner) expectRejected(ctx context.Context, token, label string) error {
	path := r.opts.Resources.Patients
	resp, err := r.client.Get(ctx, token, path)
	if err != nil {
		return requestFailed(err)
	}

	r.out.Info("GET %s (%s)", path, label)
	r.out.Info("Status: %d", resp.StatusCode)

	if !rejectionStatuses.Contains(resp.StatusCode) {
		return fmt.Errorf("should have been rejected but returned %d", resp.StatusCode)
	}
	r.out.Success("Correctly rejected (status %d)", resp.StatusCode)
	return nil
}

// testRegister returns the session token, or "" when none was obtained.
func (r *Runner) testRegister(ctx context.Context, creds sicc.RegisterRequest) string {
	var token string
	r.runScenario(ctx, "Register user", func() error {
		resp, err := r.client.Register(ctx, creds)
		if err != nil {
			return requestFailed(err)
		}
		token, err = r.expectSession(resp, "Registration", creds.Email)
		return err
	})
	return token
}

func (r *Runner) testLogin(ctx context.Context, creds sicc.RegisterRequest) {
	r.runScenario(ctx, "Log in", func() error {
		resp, err := r.client.Login(ctx, sicc.LoginRequest{Email: creds.Email, Password: creds.Password})
		if err != nil {
			return requestFailed(err)
		}
		_, err = r.expectSession(resp, "Login", creds.Email)
		return err
	})
}

// expectSession checks a register/login response and prints its details.
func (r *Runner) expectSession(resp *sicc.Response, action, email string) (string, error) {
	r.out.Info("%s %s", resp.Method, resp.Path)
	r.out.Info("Status: %d", resp.StatusCode)

	if !resp.OK() {
		return "", fmt.Errorf("%s failed: %s", action, orNA(resp.Text()))
	}

	token := resp.AuthToken()
	if token == "" {
		return "", fmt.Errorf("%s response carried no token", action)
	}

	var auth sicc.AuthResponse
	if err := resp.Decode(&auth); err == nil && auth.Email != "" {
		email = auth.Email
	}

	r.out.Success("%s successful", action)
	r.out.Detail("Email", email)
	r.out.Detail("Token", r.preview(token))
	return token, nil
}

func (r *Runner) testCurrentUser(ctx context.Context, token string) {
	r.runScenario(ctx, "Get current user", func() error {
		resp, err := r.client.CurrentUser(ctx, token)
		if err != nil {
			return requestFailed(err)
		}
		if err := r.expectOK(resp); err != nil {
			return err
		}

		var user sicc.User
		if err := resp.Decode(&user); err != nil {
			return err
		}

		r.out.Success("User retrieved")
		r.out.Detail("ID", orNA(user.ID))
		r.out.Detail("Email", orNA(user.Email))
		r.out.Detail("Name", fmt.Sprintf("%s %s", user.Firstname, user.Lastname))
		r.out.Detail("Role", orNA(user.Role))
		return nil
	})
}

func (r *Runner) testList(ctx context.Context, token string, l listScenario) {
	r.runScenario(ctx, l.name, func() error {
		resp, err := r.client.List(ctx, token, l.path, r.opts.Pagination.Page, r.opts.Pagination.Size)
		if err != nil {
			return requestFailed(err)
		}
		if err := r.expectOK(resp); err != nil {
			return err
		}

		body, err := resp.JSON()
		if err != nil {
			return err
		}
		summary, err := SummarizePage(body)
		if err != nil {
			return err
		}

		r.out.Success("%s retrieved", l.noun)
		for _, d := range summary.Details() {
			r.out.Detail(d[0], d[1])
		}
		return nil
	})
}

func (r *Runner) testDashboard(ctx context.Context, token string) {
	r.runScenario(ctx, "Stats dashboard", func() error {
		resp, err := r.client.Get(ctx, token, r.opts.Resources.Dashboard)
		if err != nil {
			return requestFailed(err)
		}
		if err := r.expectOK(resp); err != nil {
			return err
		}

		var stats map[string]any
		if err := resp.Decode(&stats); err != nil {
			return err
		}

		r.out.Success("Dashboard retrieved")
		r.out.Detail("Fields", len(stats))
		for _, key := range []string{"totalPatients", "totalConsultations", "totalPrescriptions"} {
			if v, ok := stats[key]; ok {
				r.out.Detail(key, v)
			}
		}
		return nil
	})
}

func (r *Runner) testLogout(ctx context.Context, token string) {
	r.runScenario(ctx, "Log out", func() error {
		resp, err := r.client.Logout(ctx, token)
		if err != nil {
			return requestFailed(err)
		}

		r.out.Info("%s %s", resp.Method, resp.Path)
		r.out.Info("Status: %d", resp.StatusCode)

		if !successStatuses.Contains(resp.StatusCode) {
			return fmt.Errorf("logout failed with status %d", resp.StatusCode)
		}
		r.out.Success("Logged out")
		return nil
	})
}

// expectOK prints the request and status lines and requires a 200.
func (r *Runner) expectOK(resp *sicc.Response) error {
	r.out.Info("%s %s", resp.Method, resp.Path)
	r.out.Info("Status: %d", resp.StatusCode)
	if !resp.OK() {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, orNA(resp.Text()))
	}
	return nil
}

func (r *Runner) preview(token string) string {
	n := r.opts.TokenPreview
	if n <= 0 || n > len(token) {
		n = len(token)
	}
	return token[:n] + "..."
}

func requestFailed(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return fmt.Errorf("request failed: %w", err)
}

func orNA(v any) string {
	if v == nil {
		return NotAvailable
	}
	s := fmt.Sprint(v)
	if s == "" {
		return NotAvailable
	}
	return s
}

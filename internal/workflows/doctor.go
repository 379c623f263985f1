package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/secrets"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// dependencyChecker is implemented by capabilities backed by external tools.
type dependencyChecker interface {
	CheckDependencies() error
}

// Doctor runs health checks on the repository and the local setup.
//
// The doctor workflow checks:
//   - The git binary can be found
//   - The cipher backend's tools can be found
//   - A decryption agent is running
//   - The box identity file is private, when that backend is selected
//   - Every plaintext next to an encrypted file is ignored by git
//   - No plaintext has changed since it was encrypted
func Doctor(ctx context.Context, env Env) (*DoctorResult, error) {
	checks := []func(context.Context, Env) CheckResult{
		checkGit,
		checkCipher,
		checkAgent,
		checkIdentityPermissions,
		checkIgnored,
		checkStale,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(ctx, env))
	}

	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     calculateDoctorSummary(results),
		Suggestions: suggestions,
	}, nil
}

func checkGit(ctx context.Context, env Env) CheckResult {
	result := CheckResult{Name: "Git", Status: CheckPass, Message: "git is available"}
	checker, ok := env.Repo.(dependencyChecker)
	if !ok {
		return result
	}
	if err := checker.CheckDependencies(); err != nil {
		result.Status = CheckError
		result.Message = err.Error()
		result.Suggestion = "Install git; history and ignore checks need it"
	}
	return result
}

func checkCipher(ctx context.Context, env Env) CheckResult {
	result := CheckResult{
		Name:    "Cipher backend",
		Status:  CheckPass,
		Message: fmt.Sprintf("%s backend is available", env.Cipher.Name()),
	}
	if err := env.Cipher.CheckDependencies(); err != nil {
		result.Status = CheckError
		result.Message = err.Error()
		result.Suggestion = "Install gpg, or run 'cloak keygen --configure' to use the built-in box backend"
	}
	return result
}

func checkAgent(ctx context.Context, env Env) CheckResult {
	if env.Cipher.AgentAvailable(ctx) {
		return CheckResult{Name: "Decryption agent", Status: CheckPass, Message: "decryption agent is running"}
	}
	suggestion := "Start your gpg agent with 'gpg-connect-agent /bye'"
	if env.Cipher.Name() == cipher.BackendBox {
		suggestion = "Run 'cloak keygen' to create an identity"
	}
	return CheckResult{
		Name:       "Decryption agent",
		Status:     CheckWarning,
		Message:    "no decryption agent; decrypt and log will refuse to run",
		Suggestion: suggestion,
	}
}

func checkIdentityPermissions(ctx context.Context, env Env) CheckResult {
	name := "Identity permissions"
	if env.Cipher.Name() != cipher.BackendBox {
		return CheckResult{Name: name, Status: CheckPass, Message: "not used by the " + env.Cipher.Name() + " backend"}
	}

	path := env.Settings.IdentityFile
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return CheckResult{Name: name, Status: CheckWarning, Message: "identity file not found at " + path,
			Suggestion: "Run 'cloak keygen' to create an identity"}
	}
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error(),
			Suggestion: "Check that the identity file is accessible"}
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return CheckResult{Name: name, Status: CheckWarning,
			Message:    fmt.Sprintf("identity file has permissions %04o", perm),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", path)}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "identity file is private"}
}

func checkIgnored(ctx context.Context, env Env) CheckResult {
	name := "Ignore rules"
	ciphertexts, err := secrets.CollectCiphertextFiles(env.Settings.RepoRoot)
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error(),
			Suggestion: "Check that the repository directory is accessible"}
	}

	var exposed []string
	for _, c := range ciphertexts {
		p, err := secrets.ToPlaintext(c)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		ignored, err := env.Repo.IsIgnored(ctx, p)
		if err != nil {
			return CheckResult{Name: name, Status: CheckWarning, Message: "could not check ignore rules: " + err.Error()}
		}
		if !ignored {
			exposed = append(exposed, p)
		}
	}

	if len(exposed) > 0 {
		return CheckResult{Name: name, Status: CheckError,
			Message:    fmt.Sprintf("%d plaintext file(s) are not ignored by git: %s", len(exposed), strings.Join(relativeTo(env.Settings.RepoRoot, exposed), ", ")),
			Suggestion: "Add the plaintext files to .gitignore"}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "all plaintext files are ignored by git"}
}

func checkStale(ctx context.Context, env Env) CheckResult {
	name := "Encrypted files"
	status, err := Status(ctx, env)
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error()}
	}
	if status.Summary.Stale > 0 {
		return CheckResult{Name: name, Status: CheckWarning,
			Message:    fmt.Sprintf("%d plaintext file(s) changed since they were encrypted", status.Summary.Stale),
			Suggestion: "Run 'cloak encrypt' before committing"}
	}
	return CheckResult{Name: name, Status: CheckPass,
		Message: fmt.Sprintf("%d encrypted file(s) up to date", len(status.Files))}
}

func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}

package installer

import (
	"fmt"
	"strings"
)

// ErrorContext provides detailed context and solutions for installation errors.
type ErrorContext struct {
	Tool      string
	Phase     string // "install", "validate"
	Error     error
	Reason    string
	Solutions []string
	DocsURL   string
}

// String formats the error context for display.
func (ec *ErrorContext) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "ERROR: %s\n", ec.Error)
	if ec.Reason != "" {
		fmt.Fprintf(&b, "REASON: %s\n", ec.Reason)
	}
	if len(ec.Solutions) > 0 {
		b.WriteString("SOLUTIONS:\n")
		for i, s := range ec.Solutions {
			fmt.Fprintf(&b, "  %d) %s\n", i+1, s)
		}
	}
	if ec.DocsURL != "" {
		fmt.Fprintf(&b, "DOCS: %s\n", ec.DocsURL)
	}
	return b.String()
}

// AnalyzeError creates an ErrorContext from a raw install error.
func AnalyzeError(t Tool, phase string, err error) *ErrorContext {
	if err == nil {
		return nil
	}

	ec := &ErrorContext{
		Tool:    t.Name,
		Phase:   phase,
		Error:   err,
		DocsURL: t.Docs,
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "executable file not found"):
		ec.Reason = fmt.Sprintf("%s toolchain is not installed", installerBinary(t.Kind))
		ec.Solutions = toolchainSolutions(t.Kind)

	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		ec.Reason = "Network request timeout - slow or unstable connection"
		ec.Solutions = []string{
			"Check your internet connection and retry",
			"Set GOPROXY=direct (go) or a closer mirror if the default proxy is blocked",
		}

	case strings.Contains(msg, "no such host") || strings.Contains(msg, "dial tcp"):
		ec.Reason = "Cannot reach the package registry"
		ec.Solutions = []string{
			"Check your internet connection and DNS settings",
			"Configure HTTPS_PROXY if you are behind a proxy",
		}

	case strings.Contains(msg, "permission denied"):
		ec.Reason = "Insufficient permissions for the install directory"
		ec.Solutions = []string{
			"Do not run the installer with sudo; go, cargo and pip --user install into your home",
			"Check ownership of ~/go/bin, ~/.cargo/bin and ~/.local/bin",
		}

	case strings.Contains(msg, "requires go") || strings.Contains(msg, "go.mod requires"):
		ec.Reason = "The tool needs a newer Go toolchain"
		ec.Solutions = []string{"Upgrade Go from https://go.dev/dl/ and retry"}

	case strings.Contains(msg, "externally-managed-environment"):
		ec.Reason = "System Python refuses user installs (PEP 668)"
		ec.Solutions = []string{
			fmt.Sprintf("pipx install %s", t.Package),
			"Or use a virtualenv and put its bin directory in PATH",
		}

	default:
		ec.Reason = "Unexpected installer failure"
		ec.Solutions = []string{"Run with --verbose to see the installer output"}
	}

	if t.Docs != "" {
		ec.Solutions = append(ec.Solutions, fmt.Sprintf("Install manually following %s", t.Docs))
	}
	return ec
}

func installerBinary(k Kind) string {
	switch k {
	case KindCargo:
		return "cargo"
	case KindPip:
		return "pip"
	default:
		return "go"
	}
}

func toolchainSolutions(k Kind) []string {
	switch k {
	case KindCargo:
		return []string{"Install Rust with rustup: https://rustup.rs"}
	case KindPip:
		return []string{"Install Python 3 and pip from your package manager (e.g. apt-get install python3-pip)"}
	default:
		return []string{"Install Go from https://go.dev/dl/"}
	}
}

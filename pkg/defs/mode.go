package defs

// VerificationMode selects how payment assertions are verified.
type VerificationMode string

// Supported verification modes.
const (
	// ModeLocal verifies assertions in-process via signature recovery.
	ModeLocal VerificationMode = "local"

	// ModeDelegated hands verification to a configured authority.
	ModeDelegated VerificationMode = "delegated"
)

// ParseVerificationModeStr parses a string into a VerificationMode (case-insensitive).
func ParseVerificationModeStr(mode string) (VerificationMode, error) {
	return parseEnumCaseInsensitive(mode, ModeLocal, ModeDelegated)
}

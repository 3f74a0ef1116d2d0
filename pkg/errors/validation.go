package errors

import (
	"net"
	"strings"
	"unicode"
)

// SplitPortRef splits a port reference of the form "entity:port".
//
// Both halves must be non-empty and the reference must contain exactly one
// separator. Whitespace around either half is not trimmed: declaration names
// are compared verbatim.
func SplitPortRef(ref string) (entity, port string, err error) {
	entity, port, ok := strings.Cut(ref, ":")
	if !ok {
		return "", "", New(ErrCodeInvalidPortRef, "port reference %q is missing ':'", ref)
	}
	if strings.Contains(port, ":") {
		return "", "", New(ErrCodeInvalidPortRef, "port reference %q has more than one ':'", ref)
	}
	if entity == "" || port == "" {
		return "", "", New(ErrCodeInvalidPortRef, "port reference %q has an empty entity or port", ref)
	}
	return entity, port, nil
}

// ValidateTarget validates a debugger target of the form "host:port".
//
// The target is what users type into the attach prompt; the scheme and the
// "/debugger" path are added by the client. Validation rules:
//   - Target cannot be empty
//   - No scheme, path, query or whitespace
//   - No control characters
//   - Port must be present
func ValidateTarget(target string) error {
	if target == "" {
		return New(ErrCodeInvalidTarget, "target cannot be empty")
	}

	for _, r := range target {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidTarget, "target contains invalid characters")
		}
	}

	if strings.Contains(target, "://") {
		return New(ErrCodeInvalidTarget, "target must not include a scheme: %q", target)
	}
	if strings.ContainsAny(target, "/?#") {
		return New(ErrCodeInvalidTarget, "target must not include a path: %q", target)
	}

	_, port, err := net.SplitHostPort(target)
	if err != nil {
		return Wrap(ErrCodeInvalidTarget, err, "target must be host:port")
	}
	if port == "" {
		return New(ErrCodeInvalidTarget, "target %q has no port", target)
	}
	return nil
}

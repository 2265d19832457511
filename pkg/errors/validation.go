package errors

import (
	"strings"
	"unicode"
)

// ValidateInputPath validates a point-list file path for safety.
// It rejects empty paths, control characters and null bytes.
//
// Absolute paths and parent references are allowed because the CLI reads
// local files chosen by the user; only obviously broken input is rejected.
func ValidateInputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "input path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateCachePrefix validates a cache key prefix.
// Prefixes end up in Redis keys and file names, so they must be short,
// printable and free of whitespace.
func ValidateCachePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if len(prefix) > 64 {
		return New(ErrCodeInvalidConfig, "cache prefix too long (max 64 characters)")
	}
	for _, r := range prefix {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "cache prefix contains whitespace or control characters")
		}
	}
	if strings.Contains(prefix, "..") {
		return New(ErrCodeInvalidConfig, "cache prefix cannot contain %q", "..")
	}
	return nil
}

// ValidateRedisAddr validates a host:port Redis address.
func ValidateRedisAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "redis address cannot be empty")
	}
	host, port, ok := strings.Cut(addr, ":")
	if !ok || port == "" {
		return New(ErrCodeInvalidConfig, "redis address must be host:port, got %q", addr)
	}
	if strings.ContainsAny(host, " /\\") {
		return New(ErrCodeInvalidConfig, "invalid redis host: %q", host)
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "invalid redis port: %q", port)
		}
	}
	return nil
}

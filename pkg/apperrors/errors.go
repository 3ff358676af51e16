// Package apperrors holds the error types shared by the upstream clients
// and the services built on them.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError means required credentials or settings are missing.
// It is always detected before any network call.
type ConfigurationError struct {
	Provider string
	Missing  []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s: not configured", e.Provider)
	}
	return fmt.Sprintf("%s: missing configuration: %s", e.Provider, strings.Join(e.Missing, ", "))
}

// UpstreamAuthError means token issuance failed.
type UpstreamAuthError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	return formatUpstream(e.Provider, "token issuance failed", e.StatusCode, e.Code, e.Message, e.Err)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// UpstreamQuoteError means a quote or history call failed.
type UpstreamQuoteError struct {
	Provider   string
	Operation  string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *UpstreamQuoteError) Error() string {
	op := "quote request failed"
	if e.Operation != "" {
		op = e.Operation + " failed"
	}
	return formatUpstream(e.Provider, op, e.StatusCode, e.Code, e.Message, e.Err)
}

func (e *UpstreamQuoteError) Unwrap() error { return e.Err }

// UpstreamNewsError means a news search call failed.
type UpstreamNewsError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *UpstreamNewsError) Error() string {
	return formatUpstream(e.Provider, "news search failed", e.StatusCode, e.Code, e.Message, e.Err)
}

func (e *UpstreamNewsError) Unwrap() error { return e.Err }

func formatUpstream(provider, what string, status int, code, msg string, err error) string {
	var b strings.Builder
	b.WriteString(provider)
	b.WriteString(": ")
	b.WriteString(what)
	if status != 0 {
		fmt.Fprintf(&b, " (status %d)", status)
	}
	if code != "" {
		fmt.Fprintf(&b, " [%s]", code)
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsUpstream reports whether err came from any upstream provider call.
func IsUpstream(err error) bool {
	var authErr *UpstreamAuthError
	var quoteErr *UpstreamQuoteError
	var newsErr *UpstreamNewsError
	return errors.As(err, &authErr) || errors.As(err, &quoteErr) || errors.As(err, &newsErr)
}

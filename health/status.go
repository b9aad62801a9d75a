// Package health tracks component health for the /api/health endpoint.
// Components (upstream client, dataset registry, water tables) report their
// status into a Monitor; the gateway aggregates them into one system status.
// Error messages are sanitized before exposure so upstream URLs and file
// paths never leak through the public API.
package health

import (
	"regexp"
	"time"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// Sanitization patterns applied to messages derived from errors.
var (
	urlRegex        = regexp.MustCompile(`[a-z][a-z0-9+.-]*://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is the health state of one component or the aggregated system.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // healthy, degraded, unhealthy
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"subStatuses,omitempty"`
}

// IsHealthy reports a healthy status.
func (s Status) IsHealthy() bool { return s.Status == "healthy" }

// IsDegraded reports a degraded status.
func (s Status) IsDegraded() bool { return s.Status == "degraded" }

// IsUnhealthy reports an unhealthy status.
func (s Status) IsUnhealthy() bool { return s.Status == "unhealthy" }

// NewHealthy creates a healthy status.
func NewHealthy(component, message string) Status {
	return Status{Component: component, Healthy: true, Status: "healthy",
		Message: message, Timestamp: time.Now()}
}

// NewDegraded creates a degraded status.
func NewDegraded(component, message string) Status {
	return Status{Component: component, Status: "degraded",
		Message: message, Timestamp: time.Now()}
}

// NewUnhealthy creates an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return Status{Component: component, Status: "unhealthy",
		Message: message, Timestamp: time.Now()}
}

// FromError converts an error into a component status with a sanitized
// message. A nil error is healthy; transient errors are degraded, since the
// component recovers on its own once upstream does; anything else is
// unhealthy.
func FromError(component string, err error) Status {
	if err == nil {
		return NewHealthy(component, "ok")
	}

	msg := Sanitize(err.Error())
	if errors.IsTransient(err) {
		return NewDegraded(component, msg)
	}
	return NewUnhealthy(component, msg)
}

// Sanitize strips URLs, file paths, addresses and credential fragments from
// a message before it can reach the public health endpoint.
func Sanitize(msg string) string {
	if msg == "" {
		return ""
	}

	// URLs first; they contain paths.
	msg = urlRegex.ReplaceAllString(msg, "[URL]")
	msg = unixPathRegex.ReplaceAllString(msg, "[PATH]")
	msg = ipAddrRegex.ReplaceAllString(msg, "[IP]")
	msg = portRegex.ReplaceAllString(msg, "[PORT]")
	msg = credentialRegex.ReplaceAllString(msg, "[REDACTED]")
	return msg
}

// Aggregate folds component statuses into one:
// any unhealthy makes the system unhealthy, otherwise any degraded makes it
// degraded, otherwise it is healthy.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "no components registered")
	}

	hasUnhealthy, hasDegraded := false, false
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			hasUnhealthy = true
		case sub.IsDegraded():
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewUnhealthy(component, "one or more components are unhealthy")
	case hasDegraded:
		status = NewDegraded(component, "one or more components are degraded")
	default:
		status = NewHealthy(component, "all components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)
	return status
}

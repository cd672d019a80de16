// Package sla holds the pure deadline arithmetic shared by the
// transition engine, the approval workflow and read-time "remaining"
// display. The stored breach flag on a ticket is a point-in-time
// evaluation taken only when a deadline decision is made; readers use
// these same functions against the live deadline fields instead.
package sla

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// IsLate reports whether now is strictly past the deadline.
func IsLate(deadline, now time.Time) bool {
	return now.After(deadline)
}

// Deadline offsets a start instant by a target expressed in minutes.
func Deadline(start time.Time, minutes int) time.Time {
	return start.Add(time.Duration(minutes) * time.Minute)
}

// ResponseDeadline computes the response target for a ticket created at
// the given instant, or nil when the policy carries no response target.
func ResponseDeadline(createdAt time.Time, policy *domain.SLAPolicy) *time.Time {
	if policy == nil || policy.ResponseMinutes <= 0 {
		return nil
	}
	d := Deadline(createdAt, policy.ResponseMinutes)
	return &d
}

// ResolutionDeadline computes the resolution target, or nil when the
// policy carries no resolution target.
func ResolutionDeadline(createdAt time.Time, policy *domain.SLAPolicy) *time.Time {
	if policy == nil || policy.ResolutionMinutes <= 0 {
		return nil
	}
	d := Deadline(createdAt, policy.ResolutionMinutes)
	return &d
}

// Remaining returns the time left until the deadline; negative once the
// deadline has passed.
func Remaining(deadline, now time.Time) time.Duration {
	return deadline.Sub(now)
}

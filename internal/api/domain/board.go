package domain

import "errors"

// Job submission review statuses.
const (
	SubmissionPending  = "pending_review"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission channels.
const (
	ChannelWeb = "web"
	ChannelSMS = "sms"
)

// Application triage statuses.
const (
	ApplicationPending   = "pending"
	ApplicationConnected = "connected"
	ApplicationPassed    = "passed"
)

var (
	// ErrSubmissionNotFound is returned when a job submission is absent.
	ErrSubmissionNotFound = errors.New("job submission not found")

	// ErrSubmissionNotApproved is returned when applying to a submission that
	// has not been approved.
	ErrSubmissionNotApproved = errors.New("job submission is not approved")

	// ErrAlreadyApplied is returned on a second application for the same
	// (submission, seeker) pair.
	ErrAlreadyApplied = errors.New("already applied to this job")

	// ErrApplicationNotFound is returned when an application is absent.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrProfileNotFound is returned when a seeker profile is absent.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrEmployerNotFound is returned when an employer record is absent.
	ErrEmployerNotFound = errors.New("employer not found")
)

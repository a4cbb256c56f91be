package dto

// CreateSubmissionRequest is an employer posting submitted over the web.
type CreateSubmissionRequest struct {
	Company     string   `json:"company" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	PayMin      *float64 `json:"pay_min"`
	PayMax      *float64 `json:"pay_max"`
	PayType     *string  `json:"pay_type"`
	Phone       string   `json:"phone" binding:"required"`
}

// SubmissionDTO is the web/admin view of a job submission.
type SubmissionDTO struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	City        *string  `json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`
	PayMin      *float64 `json:"pay_min,omitempty"`
	PayMax      *float64 `json:"pay_max,omitempty"`
	PayType     *string  `json:"pay_type,omitempty"`
	Channel     string   `json:"channel"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
}

// ApplyResponse reports the outcome of a job application.
type ApplyResponse struct {
	ApplicationID    string `json:"application_id"`
	IsFirstApplicant bool   `json:"is_first_applicant"`
}

// ApplicantDTO is the employer-facing view of one applicant.
type ApplicantDTO struct {
	ApplicationID string  `json:"application_id"`
	SeekerID      string  `json:"seeker_id"`
	FullName      string  `json:"full_name"`
	Phone         string  `json:"phone"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Bio           string  `json:"bio"`
	Status        string  `json:"status"`
	AppliedAt     string  `json:"applied_at"`
}

// UpsertProfileRequest creates or replaces the caller's seeker profile.
type UpsertProfileRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Bio      string  `json:"bio"`
}

// InboundMessageRequest is the SMS-provider webhook payload.
type InboundMessageRequest struct {
	Phone             string  `json:"phone" binding:"required"`
	Body              string  `json:"body" binding:"required"`
	ProviderMessageID string  `json:"provider_message_id" binding:"required"`
	Sender            *string `json:"sender"`
	Status            string  `json:"status"`
}

// InboundMessageDTO is the admin triage view of a recorded webhook message.
type InboundMessageDTO struct {
	ID                string  `json:"id"`
	Phone             string  `json:"phone"`
	Body              string  `json:"body"`
	ProviderMessageID string  `json:"provider_message_id"`
	Sender            *string `json:"sender,omitempty"`
	Status            string  `json:"status"`
	ReceivedAt        string  `json:"received_at"`
}

// ChatRequest is one turn of the seeker search conversation.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse carries the agent reply and any jobs it surfaced.
type ChatResponse struct {
	Reply string           `json:"reply"`
	Jobs  []map[string]any `json:"jobs,omitempty"`
}

package model

import (
	"time"

	"github.com/lib/pq"
)

// ScrapedJob is one external job listing tracked through the pipeline.
type ScrapedJob struct {
	ID          string  `db:"id"`
	ExternalID  string  `db:"external_id"`
	Source      string  `db:"source"`
	TypesenseID *string `db:"typesense_id"`

	Company     string     `db:"company"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	URL         string     `db:"url"`
	City        *string    `db:"city"`
	State       *string    `db:"state"`
	Lat         *float64   `db:"lat"`
	Lng         *float64   `db:"lng"`
	PayMin      *float64   `db:"pay_min"`
	PayMax      *float64   `db:"pay_max"`
	PayType     *string    `db:"pay_type"`
	Urgent      bool       `db:"urgent"`
	EasyApply   bool       `db:"easy_apply"`
	ONETCode    *string    `db:"onet_code"`
	PostedAt    *time.Time `db:"posted_at"`

	TransitScore     *int     `db:"transit_score"`
	TransitDistanceM *float64 `db:"transit_distance_m"`
	TransitBus       *bool    `db:"transit_bus"`
	TransitRail      *bool    `db:"transit_rail"`

	ShiftMorning   *bool   `db:"shift_morning"`
	ShiftAfternoon *bool   `db:"shift_afternoon"`
	ShiftEvening   *bool   `db:"shift_evening"`
	ShiftOvernight *bool   `db:"shift_overnight"`
	ShiftWeekend   *bool   `db:"shift_weekend"`
	ShiftSource    *string `db:"shift_source"`

	SecondChanceTier       *string        `db:"second_chance_tier"`
	SecondChanceScore      *float64       `db:"second_chance_score"`
	SecondChanceConfidence *float64       `db:"second_chance_confidence"`
	SecondChanceSignals    pq.StringArray `db:"second_chance_signals"`
	SecondChanceReasoning  *string        `db:"second_chance_reasoning"`

	Status        string     `db:"status"`
	ScrapedAt     time.Time  `db:"scraped_at"`
	EnrichedAt    *time.Time `db:"enriched_at"`
	IndexedAt     *time.Time `db:"indexed_at"`
	FailureReason *string    `db:"failure_reason"`
	FailureStage  *string    `db:"failure_stage"`
}

// Employer is a phone-keyed employer account.
type Employer struct {
	ID        string    `db:"id"`
	Phone     string    `db:"phone"`
	Name      string    `db:"name"`
	Company   string    `db:"company"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// JobSubmission is an employer posting awaiting or past admin review.
type JobSubmission struct {
	ID          string     `db:"id"`
	EmployerID  *string    `db:"employer_id"`
	Channel     string     `db:"channel"`
	Company     string     `db:"company"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	City        *string    `db:"city"`
	State       *string    `db:"state"`
	PayMin      *float64   `db:"pay_min"`
	PayMax      *float64   `db:"pay_max"`
	PayType     *string    `db:"pay_type"`
	Status      string     `db:"status"`
	ReviewedAt  *time.Time `db:"reviewed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Profile is a job seeker profile, one per authenticated user.
type Profile struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	FullName  string    `db:"full_name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	City      *string   `db:"city"`
	State     *string   `db:"state"`
	Bio       string    `db:"bio"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Application links a seeker to a job submission.
type Application struct {
	ID           string     `db:"id"`
	SubmissionID string     `db:"submission_id"`
	SeekerID     string     `db:"seeker_id"`
	Status       string     `db:"status"`
	ConnectedAt  *time.Time `db:"connected_at"`
	PassedAt     *time.Time `db:"passed_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// InboundMessage is a raw SMS-provider webhook payload kept for admin triage.
type InboundMessage struct {
	ID                string    `db:"id"`
	Phone             string    `db:"phone"`
	Body              string    `db:"body"`
	ProviderMessageID string    `db:"provider_message_id"`
	Sender            *string   `db:"sender"`
	Status            string    `db:"status"`
	ReceivedAt        time.Time `db:"received_at"`
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/lib/pq"
)

// CreateSubmission stores a new job submission with status "pending".
func (s *Storage) CreateSubmission(ctx context.Context, sub *model.JobSubmission) error {
	query := `
		INSERT INTO job_submissions (
			id, employer_id, channel, company, title, description,
			city, state, pay_min, pay_max, pay_type,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		sub.ID,
		sub.EmployerID,
		sub.Channel,
		sub.Company,
		sub.Title,
		sub.Description,
		sub.City,
		sub.State,
		sub.PayMin,
		sub.PayMax,
		sub.PayType,
		sub.Status,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetSubmissionByID fetches one submission.
func (s *Storage) GetSubmissionByID(ctx context.Context, id string) (*model.JobSubmission, error) {
	var sub model.JobSubmission
	query := `
		SELECT id, employer_id, channel, company, title, description,
		       city, state, pay_min, pay_max, pay_type,
		       status, reviewed_at, created_at, updated_at
		FROM job_submissions
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &sub, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &sub, nil
}

// ListSubmissions returns submissions for admin review, optionally filtered
// by status, newest first.
func (s *Storage) ListSubmissions(ctx context.Context, status string, limit int) ([]model.JobSubmission, error) {
	query := `
		SELECT id, employer_id, channel, company, title, description,
		       city, state, pay_min, pay_max, pay_type,
		       status, reviewed_at, created_at, updated_at
		FROM job_submissions
	`
	args := []interface{}{}
	argIdx := 1

	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, limit)

	var subs []model.JobSubmission
	err := s.db.SelectContext(ctx, &subs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return subs, nil
}

// ReviewSubmission sets a submission's review verdict. Re-reviewing with the
// same verdict is a no-op; rows already carrying the target status are
// matched so the update stays idempotent.
func (s *Storage) ReviewSubmission(ctx context.Context, id, status string, reviewedAt time.Time) error {
	query := `
		UPDATE job_submissions
		SET status = $2, reviewed_at = COALESCE(reviewed_at, $3), updated_at = $3
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, status, reviewedAt)
	if err != nil {
		return fmt.Errorf("failed to review submission: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrSubmissionNotFound
	}

	return nil
}

// CreateApplication inserts an application and reports whether it is the
// first one on its submission. The unique constraint on
// (submission_id, seeker_id) rejects repeat applies.
func (s *Storage) CreateApplication(ctx context.Context, app *model.Application) (bool, error) {
	query := `
		INSERT INTO applications (id, submission_id, seeker_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query, app.ID, app.SubmissionID, app.SeekerID, app.Status, app.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrAlreadyApplied
		}
		return false, fmt.Errorf("failed to create application: %w", err)
	}

	var count int
	err = s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applications WHERE submission_id = $1`, app.SubmissionID)
	if err != nil {
		return false, fmt.Errorf("failed to count applications: %w", err)
	}

	return count == 1, nil
}

// GetApplicationByID fetches one application.
func (s *Storage) GetApplicationByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	query := `
		SELECT id, submission_id, seeker_id, status, connected_at, passed_at, created_at
		FROM applications
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &app, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return &app, nil
}

// ListApplicationsBySubmission returns every applicant on a submission,
// oldest first so the first applicant stays first.
func (s *Storage) ListApplicationsBySubmission(ctx context.Context, submissionID string) ([]model.Application, error) {
	query := `
		SELECT id, submission_id, seeker_id, status, connected_at, passed_at, created_at
		FROM applications
		WHERE submission_id = $1
		ORDER BY created_at ASC
	`

	var apps []model.Application
	err := s.db.SelectContext(ctx, &apps, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

// MarkApplicationConnected records the employer's connect decision. Calling
// it again on a connected application changes nothing.
func (s *Storage) MarkApplicationConnected(ctx context.Context, id string, at time.Time) error {
	return s.markApplicationReviewed(ctx, id, domain.ApplicationConnected, "connected_at", at)
}

// MarkApplicationPassed records the employer's pass decision, idempotently.
func (s *Storage) MarkApplicationPassed(ctx context.Context, id string, at time.Time) error {
	return s.markApplicationReviewed(ctx, id, domain.ApplicationPassed, "passed_at", at)
}

func (s *Storage) markApplicationReviewed(ctx context.Context, id, status, tsColumn string, at time.Time) error {
	// tsColumn comes from the two callers above, never from input.
	query := fmt.Sprintf(`
		UPDATE applications
		SET status = $2, %s = COALESCE(%s, $3)
		WHERE id = $1
	`, tsColumn, tsColumn)

	result, err := s.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrApplicationNotFound
	}

	return nil
}

// UpsertProfile creates or updates the seeker profile keyed by user id.
func (s *Storage) UpsertProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (id, user_id, full_name, phone, email, city, state, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		p.ID,
		p.UserID,
		p.FullName,
		p.Phone,
		p.Email,
		p.City,
		p.State,
		p.Bio,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// GetProfileByUserID fetches the profile owned by an authenticated user.
func (s *Storage) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	query := `
		SELECT id, user_id, full_name, phone, email, city, state, bio, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	err := s.db.GetContext(ctx, &p, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// UpsertEmployerByPhone finds or creates the employer account behind an SMS
// sender, returning the stored row either way.
func (s *Storage) UpsertEmployerByPhone(ctx context.Context, e *model.Employer) (*model.Employer, error) {
	query := `
		INSERT INTO employers (id, phone, name, company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (phone) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), employers.name),
			company = COALESCE(NULLIF(EXCLUDED.company, ''), employers.company),
			updated_at = EXCLUDED.updated_at
		RETURNING id, phone, name, company, created_at, updated_at
	`

	var stored model.Employer
	err := s.db.GetContext(ctx, &stored, query, e.ID, e.Phone, e.Name, e.Company, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert employer: %w", err)
	}

	return &stored, nil
}

// GetEmployerByID fetches one employer account.
func (s *Storage) GetEmployerByID(ctx context.Context, id string) (*model.Employer, error) {
	var e model.Employer
	query := `SELECT id, phone, name, company, created_at, updated_at FROM employers WHERE id = $1`

	err := s.db.GetContext(ctx, &e, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmployerNotFound
		}
		return nil, fmt.Errorf("failed to get employer: %w", err)
	}

	return &e, nil
}

// InsertInboundMessage records a raw webhook message for admin triage.
func (s *Storage) InsertInboundMessage(ctx context.Context, m *model.InboundMessage) error {
	query := `
		INSERT INTO inbound_messages (id, phone, body, provider_message_id, sender, status, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query, m.ID, m.Phone, m.Body, m.ProviderMessageID, m.Sender, m.Status, m.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to insert inbound message: %w", err)
	}

	return nil
}

// ListInboundMessages returns recent webhook messages, newest first.
func (s *Storage) ListInboundMessages(ctx context.Context, limit int) ([]model.InboundMessage, error) {
	query := `
		SELECT id, phone, body, provider_message_id, sender, status, received_at
		FROM inbound_messages
		ORDER BY received_at DESC
		LIMIT $1
	`

	var msgs []model.InboundMessage
	err := s.db.SelectContext(ctx, &msgs, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbound messages: %w", err)
	}

	return msgs, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

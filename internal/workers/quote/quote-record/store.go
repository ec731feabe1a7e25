package quoterecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/models"

	"github.com/google/uuid"
)

// Store persists quote requests and their audit trail in Postgres.
type Store struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log, now: time.Now}
}

// Save inserts q keyed by its id. Saving the same id again is a no-op and
// reports created=false, so a retried submission never creates a second row.
func (s *Store) Save(ctx context.Context, q models.QuoteRequest) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM quote_requests WHERE id = $1)`, q.ID).Scan(&exists)
	if err != nil {
		return false, errors.NewDatabaseQueryFailedError("quote duplicate check", err)
	}
	if exists {
		s.logger.Info("quote already recorded", map[string]interface{}{"quoteId": q.ID})
		return false, nil
	}

	details, err := json.Marshal(q.DetailsPayload())
	if err != nil {
		return false, errors.NewDatabaseInsertFailedError(err)
	}

	submittedAt := q.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = s.now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quote_requests (
			id, session_id, insurance_type, first_name, last_name,
			email, phone, location, details, status, submitted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		q.ID,
		q.SessionID,
		string(q.InsuranceType),
		q.Contact.FirstName,
		q.Contact.LastName,
		q.Contact.Email,
		q.Contact.Phone,
		q.Contact.Location,
		details,
		string(models.QuoteReceived),
		submittedAt,
	)
	if err != nil {
		return false, errors.NewDatabaseInsertFailedError(err)
	}

	s.audit(ctx, q.ID, "quote_received", map[string]interface{}{
		"insuranceType": string(q.InsuranceType),
		"location":      q.Contact.Location,
	})

	s.logger.Info("quote recorded", map[string]interface{}{
		"quoteId":       q.ID,
		"insuranceType": string(q.InsuranceType),
	})
	return true, nil
}

// UpdateStatus moves a quote to in.Status. Empty CRMLeadID and zero
// ProcessKey leave the stored values untouched.
func (s *Store) UpdateStatus(ctx context.Context, in *Input) (time.Time, error) {
	updatedAt := s.now().UTC()

	var processKey sql.NullInt64
	if in.ProcessKey != 0 {
		processKey = sql.NullInt64{Int64: in.ProcessKey, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE quote_requests
		SET status = $2,
			crm_lead_id = COALESCE(NULLIF($3, ''), crm_lead_id),
			process_key = COALESCE($4, process_key),
			updated_at = $5
		WHERE id = $1`,
		in.QuoteID,
		string(in.Status),
		in.CRMLeadID,
		processKey,
		updatedAt,
	)
	if err != nil {
		return time.Time{}, errors.NewDatabaseQueryFailedError("quote status update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return time.Time{}, errors.NewQuoteNotFoundError(in.QuoteID)
	}

	payload := map[string]interface{}{"status": string(in.Status)}
	if in.CRMLeadID != "" {
		payload["crmLeadId"] = in.CRMLeadID
	}
	s.audit(ctx, in.QuoteID, "status_changed", payload)
	return updatedAt, nil
}

// audit is best effort; a failed audit insert is logged and swallowed.
func (s *Store) audit(ctx context.Context, entityID, action string, payload map[string]interface{}) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		payloadJSON = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(),
		"quote_request",
		entityID,
		action,
		payloadJSON,
		s.now().UTC(),
	)
	if err != nil {
		s.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":   err,
			"quoteId": entityID,
			"action":  action,
		})
	}
}

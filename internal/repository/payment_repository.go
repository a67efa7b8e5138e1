package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/parking"
)

// PaymentRepo provides data access to the payments and payment_sessions
// tables. Sessions keep their visit_id even after the visit is finished
// and the ongoing row removed, so there is deliberately no foreign key
// from payment_sessions to visits.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// SaveSession inserts a new payment session and populates its ID.
func (r *PaymentRepo) SaveSession(ctx context.Context, session *model.PaymentSession) error {
	const q = `INSERT INTO payment_sessions (visit_id, started_at, amount, status)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		session.VisitID, session.StartedAt.UTC(), session.Amount, string(session.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	session.ID = uint64(id)
	return nil
}

// FindSessionByID returns the session or sql.ErrNoRows.
func (r *PaymentRepo) FindSessionByID(ctx context.Context, id uint64) (*model.PaymentSession, error) {
	const q = `SELECT id, visit_id, started_at, amount, status, finished_at
	           FROM payment_sessions WHERE id = ?`
	session := &model.PaymentSession{}
	var status string
	var finishedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&session.ID, &session.VisitID, &session.StartedAt,
		&session.Amount, &status, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Status = model.SessionStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		session.FinishedAt = &t
	}
	return session, nil
}

// CompleteSession records the payment and marks the session COMPLETED
// in one transaction. The status flip is conditional on the session
// still being PENDING in storage, so two concurrent completions cannot
// both create a payment; the loser fails with
// parking.IllegalPaymentAttemptError.
func (r *PaymentRepo) CompleteSession(ctx context.Context, session *model.PaymentSession, madeAt time.Time) (*model.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	const flipQ = `UPDATE payment_sessions SET status = 'COMPLETED', finished_at = ?
	               WHERE id = ? AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, flipQ, madeAt.UTC(), session.ID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, &parking.IllegalPaymentAttemptError{
			Detail: "attempted to complete a payment session that is no longer PENDING",
		}
	}

	const insertQ = `INSERT INTO payments (visit_id, made_at, amount) VALUES (?, ?, ?)`
	res, err = tx.ExecContext(ctx, insertQ, session.VisitID, madeAt.UTC(), session.Amount)
	if err != nil {
		return nil, err
	}
	paymentID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &model.Payment{
		ID:      uint64(paymentID),
		VisitID: session.VisitID,
		MadeAt:  madeAt.UTC(),
		Amount:  session.Amount,
	}, nil
}

// CancelSession marks the session CANCELLED, conditional on it still
// being PENDING in storage.
func (r *PaymentRepo) CancelSession(ctx context.Context, session *model.PaymentSession, finishedAt time.Time) error {
	const q = `UPDATE payment_sessions SET status = 'CANCELLED', finished_at = ?
	           WHERE id = ? AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, q, finishedAt.UTC(), session.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return &parking.IllegalPaymentCancellationAttemptError{
			Detail: "attempted to cancel a payment session that is no longer PENDING",
		}
	}
	return nil
}

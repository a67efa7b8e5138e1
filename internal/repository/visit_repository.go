// Package repository implements the MySQL stores behind the service
// interfaces. All timestamps are stored and compared in UTC. Multi-step
// mutations run inside explicit transactions; the caller never sees a
// partially applied state change.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/parking"
)

// mysqlDuplicateEntry is the server error number for a unique-key
// violation.
const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// VisitRepo provides data access to the visits table. Ongoing and
// finished visits share the table, discriminated by visit_type. The
// nullable ongoing_ticket column duplicates the ticket code for ongoing
// rows only and carries a unique index, so at most one ongoing visit
// can exist per ticket code while finished visits may repeat codes.
type VisitRepo struct {
	db *sql.DB
}

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// CreateOngoing inserts a new ongoing visit. A unique-key violation on
// ongoing_ticket means the code is already attached to an ongoing
// visit and is translated to parking.InvalidTicketCodeError, covering
// the race two gates lose when presenting the same tag.
func (r *VisitRepo) CreateOngoing(ctx context.Context, ticketCode uint64, entryTime time.Time) (*model.Visit, error) {
	const q = `INSERT INTO visits (visit_type, entry_time, ticket_code, ongoing_ticket)
	           VALUES ('ONGOING', ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, entryTime.UTC(), ticketCode, ticketCode)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, &parking.InvalidTicketCodeError{
				Detail: fmt.Sprintf("the ticket code provided (%d) is already in use", ticketCode),
			}
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Visit{
		ID:         uint64(id),
		Type:       model.VisitOngoing,
		EntryTime:  entryTime.UTC(),
		TicketCode: ticketCode,
	}, nil
}

// ExistsOngoingByTicket reports whether an ongoing visit exists for the
// ticket code.
func (r *VisitRepo) ExistsOngoingByTicket(ctx context.Context, ticketCode uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM visits WHERE ongoing_ticket = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, ticketCode).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// FindOngoingByTicket loads the ongoing visit for the ticket code
// together with its payments. It returns sql.ErrNoRows when there is
// none.
func (r *VisitRepo) FindOngoingByTicket(ctx context.Context, ticketCode uint64) (*model.Visit, error) {
	const q = `SELECT id, entry_time, ticket_code FROM visits WHERE ongoing_ticket = ?`
	visit := &model.Visit{Type: model.VisitOngoing}
	err := r.db.QueryRowContext(ctx, q, ticketCode).
		Scan(&visit.ID, &visit.EntryTime, &visit.TicketCode)
	if err != nil {
		return nil, err
	}

	payments, err := r.paymentsForVisit(ctx, visit.ID)
	if err != nil {
		return nil, err
	}
	visit.Payments = payments
	return visit, nil
}

func (r *VisitRepo) paymentsForVisit(ctx context.Context, visitID uint64) ([]model.Payment, error) {
	const q = `SELECT id, visit_id, made_at, amount FROM payments WHERE visit_id = ? ORDER BY made_at`
	rows, err := r.db.QueryContext(ctx, q, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.VisitID, &p.MadeAt, &p.Amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// FinishOngoingVisit converts an ongoing visit into a finished one in a
// single transaction: insert the finished row preserving entry time and
// ticket code, re-parent the visit's payments to it, delete the ongoing
// row. If the ongoing row is already gone (a concurrent exit won), the
// transaction rolls back and nothing is applied.
func (r *VisitRepo) FinishOngoingVisit(ctx context.Context, visit *model.Visit, exitTime time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insertQ = `INSERT INTO visits (visit_type, entry_time, ticket_code, ongoing_ticket, exit_time)
	                 VALUES ('FINISHED', ?, ?, NULL, ?)`
	res, err := tx.ExecContext(ctx, insertQ, visit.EntryTime.UTC(), visit.TicketCode, exitTime.UTC())
	if err != nil {
		return err
	}
	finishedID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	const reparentQ = `UPDATE payments SET visit_id = ? WHERE visit_id = ?`
	if _, err := tx.ExecContext(ctx, reparentQ, finishedID, visit.ID); err != nil {
		return err
	}

	const deleteQ = `DELETE FROM visits WHERE id = ? AND visit_type = 'ONGOING'`
	res, err = tx.ExecContext(ctx, deleteQ, visit.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("visit %d is no longer ongoing", visit.ID)
	}

	return tx.Commit()
}

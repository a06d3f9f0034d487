package repository

import (
	"context"
	"database/sql"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payment_verifications (
			id VARCHAR(36) PRIMARY KEY,
			order_id VARCHAR(128) NOT NULL,
			payment_method VARCHAR(32) NOT NULL,
			amount NUMERIC(18,4) NOT NULL,
			trx_id VARCHAR(128),
			status VARCHAR(20) NOT NULL,
			error_code VARCHAR(64),
			error_message TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_verifications_order ON payment_verifications(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_verifications_trx ON payment_verifications(trx_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *VerificationRepository) InsertAttempt(ctx context.Context, rec *models.VerificationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_verifications
			(id, order_id, payment_method, amount, trx_id, status, error_code, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.OrderID, rec.PaymentMethod, rec.Amount, nullString(rec.TrxID), rec.Status,
		nullString(rec.ErrorCode), nullString(rec.ErrorMessage), rec.CreatedAt)
	return err
}

func (r *VerificationRepository) ListByOrderID(ctx context.Context, orderID string) ([]models.VerificationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, payment_method, amount, trx_id, status, error_code, error_message, created_at
		FROM payment_verifications WHERE order_id = $1
		ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanRecord(scanner interface {
	Scan(dest ...any) error
}) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	var trxID, errorCode, errorMessage sql.NullString

	if err := scanner.Scan(
		&rec.ID,
		&rec.OrderID,
		&rec.PaymentMethod,
		&rec.Amount,
		&trxID,
		&rec.Status,
		&errorCode,
		&errorMessage,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.TrxID = trxID.String
	rec.ErrorCode = errorCode.String
	rec.ErrorMessage = errorMessage.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

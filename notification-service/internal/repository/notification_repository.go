package repository

import (
	"context"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
)

const (
	emailNotFound = "Notification not found"
	smsNotFound   = "SMS notification not found"
)

const (
	emailColumns = `id, recipient_email, subject, message, created_at`
	smsColumns   = `id, phone_number, message, created_at`
)

// NotificationRepository stores sent email and SMS notifications. Rows are
// never updated once written.
type NotificationRepository struct {
	db store.DBTX
}

func NewNotificationRepository(db store.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) WithTx(tx store.DBTX) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) CreateEmail(ctx context.Context, n *models.EmailNotification) error {
	query := `INSERT INTO email_notifications (` + emailColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.RecipientEmail, n.Subject, n.Message, n.CreatedAt)
	return store.Classify(err, emailNotFound)
}

func (r *NotificationRepository) GetEmail(ctx context.Context, id string) (*models.EmailNotification, error) {
	query := `SELECT ` + emailColumns + ` FROM email_notifications WHERE id = $1`
	n, err := scanEmail(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, emailNotFound)
	}
	return n, nil
}

func (r *NotificationRepository) DeleteEmail(ctx context.Context, id string) (*models.EmailNotification, error) {
	query := `DELETE FROM email_notifications WHERE id = $1 RETURNING ` + emailColumns
	n, err := scanEmail(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, emailNotFound)
	}
	return n, nil
}

func (r *NotificationRepository) ListEmails(ctx context.Context) ([]*models.EmailNotification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+emailColumns+` FROM email_notifications ORDER BY created_at, id`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	defer rows.Close()

	out := []*models.EmailNotification{}
	for rows.Next() {
		n, err := scanEmail(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrPersistence, "", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return out, nil
}

func (r *NotificationRepository) CreateSMS(ctx context.Context, n *models.SMSNotification) error {
	query := `INSERT INTO sms_notifications (` + smsColumns + `) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.PhoneNumber, n.Message, n.CreatedAt)
	return store.Classify(err, smsNotFound)
}

func (r *NotificationRepository) GetSMS(ctx context.Context, id string) (*models.SMSNotification, error) {
	query := `SELECT ` + smsColumns + ` FROM sms_notifications WHERE id = $1`
	n, err := scanSMS(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, smsNotFound)
	}
	return n, nil
}

func (r *NotificationRepository) DeleteSMS(ctx context.Context, id string) (*models.SMSNotification, error) {
	query := `DELETE FROM sms_notifications WHERE id = $1 RETURNING ` + smsColumns
	n, err := scanSMS(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, smsNotFound)
	}
	return n, nil
}

func (r *NotificationRepository) ListSMS(ctx context.Context) ([]*models.SMSNotification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+smsColumns+` FROM sms_notifications ORDER BY created_at, id`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	defer rows.Close()

	out := []*models.SMSNotification{}
	for rows.Next() {
		n, err := scanSMS(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrPersistence, "", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row rowScanner) (*models.EmailNotification, error) {
	var n models.EmailNotification
	if err := row.Scan(&n.ID, &n.RecipientEmail, &n.Subject, &n.Message, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

func scanSMS(row rowScanner) (*models.SMSNotification, error) {
	var n models.SMSNotification
	if err := row.Scan(&n.ID, &n.PhoneNumber, &n.Message, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

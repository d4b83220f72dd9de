package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"gorm.io/gorm"
)

// ErrDuplicatePayment is returned when a payment for the same provider
// session already exists.
var ErrDuplicatePayment = errors.New("payment already recorded for session")

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

// CreatePayment inserts payment. The unique index on session_id is the only
// deduplication; a violation comes back as ErrDuplicatePayment.
func (r *gormPaymentRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	err := r.db.WithContext(ctx).Create(payment).Error
	if isUniqueViolation(err) {
		return ErrDuplicatePayment
	}
	return err
}

func (r *gormPaymentRepo) GetPaymentBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListPayments returns every payment, newest first.
func (r *gormPaymentRepo) ListPayments(ctx context.Context) ([]models.Payment, error) {
	payments := []models.Payment{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "sqlstate 23505")
}

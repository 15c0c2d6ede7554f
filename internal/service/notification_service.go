package service

import (
	"context"
	"encoding/json"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"

	"go.uber.org/zap"
)

// Notifier tells users about changes to their referral ledger.
type Notifier interface {
	NotifyReferralDecision(ctx context.Context, userID uint, approved bool, amount domain.Kobo) error
	NotifyReferralEarned(ctx context.Context, userID uint, amount domain.Kobo, orderID uint) error
	NotifyPayoutSent(ctx context.Context, userID uint, amount domain.Kobo, reference string) error
}

type NotificationService struct {
	log      *zap.Logger
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	fcm      *FCMService
}

func NewNotificationService(log *zap.Logger, repo *repository.NotificationRepository, userRepo *repository.UserRepository, fcm *FCMService) *NotificationService {
	return &NotificationService{log: log, repo: repo, userRepo: userRepo, fcm: fcm}
}

// Notify stores an in-app notification and pushes it when the user has a
// device token. Push failures are logged, not returned.
func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(ctx, &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		return err
	}
	s.sendPush(ctx, userID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) {
	if s.fcm == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	_ = s.fcm.SendToUser(ctx, u.FCMToken, notifType, title, body, data)
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return Error.Wrap(err)
	}
	if !ok {
		return ErrNotFound.New("notification %d", id)
	}
	return nil
}

func (s *NotificationService) NotifyReferralDecision(ctx context.Context, userID uint, approved bool, amount domain.Kobo) error {
	if approved {
		return s.Notify(ctx, userID, domain.NotifReferralApproved, "Referral approved",
			"₦"+amount.String()+" was added to your referral earnings", map[string]interface{}{"amount": int64(amount)})
	}
	return s.Notify(ctx, userID, domain.NotifReferralRejected, "Referral declined",
		"A referral of ₦"+amount.String()+" was not approved", map[string]interface{}{"amount": int64(amount)})
}

func (s *NotificationService) NotifyReferralEarned(ctx context.Context, userID uint, amount domain.Kobo, orderID uint) error {
	return s.Notify(ctx, userID, domain.NotifReferralEarned, "New referral",
		"Someone you referred placed an order. ₦"+amount.String()+" is awaiting approval",
		map[string]interface{}{"amount": int64(amount), "order_id": orderID})
}

func (s *NotificationService) NotifyPayoutSent(ctx context.Context, userID uint, amount domain.Kobo, reference string) error {
	return s.Notify(ctx, userID, domain.NotifPayoutSent, "Payout sent",
		"₦"+amount.String()+" is on its way to your bank account",
		map[string]interface{}{"amount": int64(amount), "reference": reference})
}

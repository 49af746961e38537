package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/servico/notifier/internal/notifications"
	"github.com/servico/notifier/pkg/db"
	"github.com/servico/notifier/pkg/db/models"
	"github.com/servico/notifier/pkg/enums"
	pkgerrors "github.com/servico/notifier/pkg/errors"
)

// RecipientRepository reads and clears push tokens on worker and customer
// profiles.
type RecipientRepository struct {
	base
}

func NewRecipientRepository(client *db.Client) *RecipientRepository {
	return &RecipientRepository{base: newBase(client)}
}

// Lookup returns the profile for id. A missing profile is a NOT_FOUND error.
func (r *RecipientRepository) Lookup(ctx context.Context, role enums.NotificationQueue, id string) (notifications.Profile, error) {
	switch role {
	case enums.QueueWorker:
		var row models.Worker
		if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
			return notifications.Profile{}, wrapLookup(err, "worker not found")
		}
		return notifications.Profile{ID: row.ID, Role: role, FCMToken: row.FCMToken}, nil
	case enums.QueueCustomer:
		var row models.Customer
		if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
			return notifications.Profile{}, wrapLookup(err, "customer not found")
		}
		return notifications.Profile{ID: row.ID, Role: role, FCMToken: row.FCMToken}, nil
	default:
		return notifications.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid recipient role %q", role))
	}
}

// ClearToken removes token from the profile when it is still the stored
// token. A rotated token, an already empty token or a missing profile is left
// alone and is not an error.
func (r *RecipientRepository) ClearToken(ctx context.Context, role enums.NotificationQueue, id, token string) error {
	model, err := profileModel(role)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	err = r.conn(ctx).
		Model(model).
		Where("id = ? AND fcm_token = ?", id, token).
		UpdateColumn("fcm_token", nil).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear push token")
	}
	return nil
}

// SetToken stores a push token on a profile. Token registration normally
// happens in the client apps; this exists for seeding and tooling.
func (r *RecipientRepository) SetToken(ctx context.Context, role enums.NotificationQueue, id, token string) error {
	model, err := profileModel(role)
	if err != nil {
		return err
	}
	res := r.conn(ctx).Model(model).Where("id = ?", id).UpdateColumn("fcm_token", token)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "set push token")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", role))
	}
	return nil
}

func profileModel(role enums.NotificationQueue) (any, error) {
	switch role {
	case enums.QueueWorker:
		return &models.Worker{}, nil
	case enums.QueueCustomer:
		return &models.Customer{}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid recipient role %q", role))
	}
}

func wrapLookup(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query failed")
}

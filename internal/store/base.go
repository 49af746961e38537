package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/servico/notifier/pkg/db"
)

// base provides the connection helpers shared by the repositories.
type base struct {
	client *db.Client
}

func newBase(client *db.Client) base {
	return base{client: client}
}

// conn returns the connection bound to ctx.
func (b base) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.client.DB()
	}
	return b.client.DB().WithContext(ctx)
}

func (b base) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return b.client.WithTx(ctx, fn)
}

package contracts

import (
	"context"

	"github.com/meysamhadeli/imgsync/sync_engine/models"
)

type ISyncEngine interface {
	Run(ctx context.Context, options models.SyncOptions) (*models.SyncReport, error)
	Watch(ctx context.Context, options models.SyncOptions, onRun func(report *models.SyncReport, err error)) error
}

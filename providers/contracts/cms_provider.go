package contracts

import (
	"context"

	"github.com/meysamhadeli/imgsync/providers/models"
)

type ICMSProvider interface {
	Name() string
	UploadImage(ctx context.Context, imagePath string) (string, error)
	CreateDocument(ctx context.Context, title string, imageID string) (*models.MutationResult, error)
}

package contracts

import "github.com/meysamhadeli/imgsync/image_scanner/models"

type IImageScanner interface {
	ScanImages(folder string) ([]models.ImageFile, error)
	HashImage(image models.ImageFile) (string, error)
	Algorithm() string
	ClearCache() error
	GetCacheStats() (map[string]interface{}, error)
}

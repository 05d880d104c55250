package contracts

import "github.com/meysamhadeli/imgsync/state_management/models"

type IStateManagement interface {
	Path() string
	Load() (models.Manifest, error)
	Save(manifest models.Manifest) error
	Reset() error
}

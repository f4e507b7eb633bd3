package repository

import (
	"errors"
	"fmt"

	"github.com/blaisecz/nap-planner/internal/domain"
	"gorm.io/gorm"
)

// translate maps gorm errors onto domain sentinels. The database is opened
// with TranslateError so unique violations arrive as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

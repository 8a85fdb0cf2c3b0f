package repository

import (
	"fmt"

	"github.com/okian/alsip/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	// ErrDuplicate marks an insert whose key already exists.
	ErrDuplicate = fmt.Errorf("%w: duplicate key", model.ErrPersistence)
)

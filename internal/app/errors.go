package service

import (
	"errors"
	"fmt"

	"github.com/okian/ranking/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidRecord  = fmt.Errorf("%w: score record", model.ErrInvalidInput)
	ErrInvalidRequest = fmt.Errorf("%w: request", model.ErrInvalidInput)
)

package service

import (
	"fmt"

	"github.com/lllypuk/rollcall/internal/domain/errs"
)

// ErrUnknownImageKind is returned when an upload names no known image slot.
var ErrUnknownImageKind = fmt.Errorf("unknown image kind: %w", errs.ErrInvalidInput)

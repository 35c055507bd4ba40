package client

import (
	"errors"

	"github.com/dmitrijs2005/taskjournal/internal/common"
)

var (
	ErrUnavailable           = common.ErrorUnavailable
	ErrUnauthorized          = common.ErrorUnauthorized
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/logging"
)

const internalMessage = "Something went wrong, please try again"

// internal logs err and hides it behind a generic InternalError.
func internal(ctx context.Context, log logging.Logger, op string, err error) error {
	log.Error(ctx, op+" failed", "error", err)
	return common.Wrap(common.ErrorInternal, internalMessage, err)
}

// public returns err unchanged when it already carries a caller-safe message.
func public(err error) (*common.Error, bool) {
	var ce *common.Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

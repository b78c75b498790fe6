package database

import (
	"errors"

	"wellness/utils"
)

// Store-level sentinels. Services translate them into classified errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("concurrent modification")
	ErrSlotTaken = errors.New("time range already taken")
)

// Classify converts a repository error into an AppError. Already classified errors pass through.
func Classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return utils.NewAppError(utils.KindNotFound, entity+" not found", nil)
	case errors.Is(err, ErrSlotTaken):
		return utils.NewAppError(utils.KindSlotUnavailable, "requested time is no longer available", nil)
	case errors.Is(err, ErrConflict):
		return utils.NewAppError(utils.KindConflict, entity+" was modified concurrently", err)
	}
	return err
}

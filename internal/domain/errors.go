package domain

import (
	"fmt"

	appErrors "planar/internal/errors"
)

func invalidPriorityError(priority string) error {
	return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("invalid priority: %q", priority), nil)
}

func invalidDateError(field, value string, err error) error {
	return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("invalid %s: %q", field, value), err)
}

func invalidIssueError(reason string) error {
	return appErrors.New(appErrors.CodeValidation, reason, nil)
}

func unsupportedMoveError(groupBy GroupBy) error {
	return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("issues cannot be moved between %s groups", groupBy), nil)
}

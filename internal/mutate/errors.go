package mutate

import (
	"errors"
	"fmt"

	"scenelinks/internal/model"
)

var ErrNoSelection = errors.New("no items selected")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

type NotPermittedError struct {
	Action string
	Role   model.Role
}

func (e NotPermittedError) Error() string {
	// Keep this generic; CLI/TUI can wrap with more specific phrasing.
	return fmt.Sprintf("%s not permitted for %s", e.Action, e.Role)
}

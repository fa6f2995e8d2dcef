package utils

import (
	"fmt"
	"strings"

	"github.com/arbor-dev/arbor/internal/errors"
)

const (
	maxTitleLen   = 300
	maxContentLen = 40000
)

// ThreadValidator enforces field-level constraints on thread input.
// Title is optional; content is required.
type ThreadValidator struct{}

func (v *ThreadValidator) Title(title string) error {
	if len(title) > maxTitleLen {
		return errors.Validation(fmt.Sprintf("Title exceeds %d characters", maxTitleLen))
	}
	return nil
}

func (v *ThreadValidator) Content(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.Validation("Content is required")
	}
	if len(content) > maxContentLen {
		return errors.Validation(fmt.Sprintf("Content exceeds %d characters", maxContentLen))
	}
	return nil
}

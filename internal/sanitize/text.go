package sanitize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/wizz/internal/failure"
)

// Limits bounds the free text a caller may submit.
type Limits struct {
	MaxGoalChars    int
	MaxContextChars int
}

// Goal validates a required goal and returns it trimmed.
func (l Limits) Goal(op, goal string) (string, error) {
	return required(op, "goal", goal, l.MaxGoalChars)
}

// Task validates a required task description and returns it trimmed.
// Tasks share the goal cap.
func (l Limits) Task(op, task string) (string, error) {
	return required(op, "task", task, l.MaxGoalChars)
}

// Context validates optional auxiliary text. It is returned unchanged
// except for surrounding whitespace.
func (l Limits) Context(op, context string) (string, error) {
	c := strings.TrimSpace(context)
	if err := capped(op, "context", c, l.MaxContextChars); err != nil {
		return "", err
	}
	return c, nil
}

func required(op, name, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", failure.Validation(op, "Missing: "+name)
	}
	if err := capped(op, name, v, max); err != nil {
		return "", err
	}
	return v, nil
}

// capped counts runes, not bytes; a zero max disables the check.
func capped(op, name, value string, max int) error {
	if max <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(value); n > max {
		return failure.Validation(op, fmt.Sprintf("%s too long: %d characters (max %d)", name, n, max))
	}
	return nil
}

package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskmagic/internal/service"
	"taskmagic/internal/tasklist"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the listed order; 0 if ID is set
	ID  string // server id
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskNumOutOfRange indicates a position past the end of the list.
	ErrTaskNumOutOfRange = errors.New("task number out of range")
)

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
//  1. No args → error: task reference required
//  2. First arg all digits → position as printed by `taskmagic list`
//  3. Otherwise → the task's server id
//  4. Any further arg → error: unexpected argument
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := args[0]
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}
	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ResolveTaskRef finds the referenced task in a loaded list.
func ResolveTaskRef(s *tasklist.Synchronizer, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		t, ok := s.Find(ref.ID)
		if !ok {
			return service.Task{}, fmt.Errorf("%w: %s", tasklist.ErrUnknownTask, ref.ID)
		}
		return t, nil
	}

	tasks := s.Tasks()
	if ref.Num < 1 || ref.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("%w: %d", ErrTaskNumOutOfRange, ref.Num)
	}
	return tasks[ref.Num-1], nil
}

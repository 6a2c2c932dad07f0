package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/logstreams/errors"
)

// directives a <worker> section may contain
var allowedWorkerChildren = []string{"source", "match", "filter", "label"}

// AssignWorkers resolves every <worker> directive under root: it validates the
// claimed worker ids, annotates the wrapped directives with their target
// workers, merges them back into root, and removes the wrappers. Elements
// outside any <worker> directive stay unannotated and run on every worker.
//
// The pass mutates root. It must run before plugins are configured.
func AssignWorkers(root *Element, sys SystemConfig) error {
	if err := sys.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "AssignWorkers", "validate system settings")
	}

	assigned := map[int]bool{}
	for _, w := range root.Elements("worker") {
		ids, err := parseWorkerIDs(w.Arg, sys.Workers)
		if err != nil {
			return errors.WrapInvalid(err, "Config", "AssignWorkers", "parse <worker> directive")
		}

		for _, child := range w.Children {
			if !isAllowedWorkerChild(child.Name) {
				return errors.WrapInvalid(
					fmt.Errorf("<worker> section cannot contain <%s> directive: %w",
						child.Name, errors.ErrInvalidWorkerChild),
					"Config", "AssignWorkers", "validate <worker> children")
			}
		}

		for _, id := range ids {
			if assigned[id] {
				return errors.WrapInvalid(
					fmt.Errorf("worker id %d is claimed by more than one <worker> directive: %w",
						id, errors.ErrDuplicateWorkerID),
					"Config", "AssignWorkers", "assign worker ids")
			}
			assigned[id] = true
		}

		for _, child := range w.Children {
			for _, id := range ids {
				child.SetTargetWorkerID(id)
			}
			root.AppendChild(child)
		}
	}

	root.RemoveChildren("worker")
	return nil
}

func isAllowedWorkerChild(name string) bool {
	for _, allowed := range allowedWorkerChildren {
		if name == allowed {
			return true
		}
	}
	return false
}

// parseWorkerIDs resolves a <worker> argument, either a single id "N" or an
// inclusive range "A-B", into the list of claimed worker ids.
func parseWorkerIDs(arg string, workers int) ([]int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("missing worker id on <worker> directive: %w", errors.ErrInvalidWorkerID)
	}

	if id, err := strconv.Atoi(arg); err == nil {
		if err := checkWorkerID(id, workers); err != nil {
			return nil, err
		}
		return []int{id}, nil
	}

	firstStr, lastStr, ok := strings.Cut(arg, "-")
	if !ok {
		return nil, fmt.Errorf("invalid worker id '%s' on <worker> directive: %w", arg, errors.ErrInvalidWorkerID)
	}
	first, err := strconv.Atoi(strings.TrimSpace(firstStr))
	if err != nil {
		return nil, fmt.Errorf("invalid worker id '%s' on <worker> directive: %w", arg, errors.ErrInvalidWorkerID)
	}
	last, err := strconv.Atoi(strings.TrimSpace(lastStr))
	if err != nil {
		return nil, fmt.Errorf("invalid worker id '%s' on <worker> directive: %w", arg, errors.ErrInvalidWorkerID)
	}
	if first > last {
		return nil, fmt.Errorf("first worker id %d is greater than last worker id %d: %w",
			first, last, errors.ErrInvalidWorkerID)
	}

	ids := make([]int, 0, last-first+1)
	for id := first; id <= last; id++ {
		if err := checkWorkerID(id, workers); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func checkWorkerID(id, workers int) error {
	if id < 0 || id >= workers {
		return fmt.Errorf("worker id %d is out of range, available worker ids are 0 to %d: %w",
			id, workers-1, errors.ErrInvalidWorkerID)
	}
	return nil
}

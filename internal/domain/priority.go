package domain

import "strings"

// Priority is the server's issue priority keyword.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// Priorities lists the priorities in board column order.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, PriorityNone}

// ParsePriority normalises a priority keyword. Blank maps to PriorityNone.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PriorityNone, nil
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate ensures the priority is a known keyword.
func (p Priority) Validate() error {
	for _, known := range Priorities {
		if p == known {
			return nil
		}
	}
	return invalidPriorityError(string(p))
}

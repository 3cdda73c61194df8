package model

import (
	"strconv"
	"strings"

	"captive-wifi-billing/internal/domain"
)

// Plan is a purchasable subscription plan. Duration is the human-readable
// subscription length shown to customers ("1 Day", "1 Week", "1 Month").
type Plan struct {
	ID          string
	Name        string
	Slug        string
	Price       int64 // KES
	Duration    string
	Description string
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name, slug string, price int64, duration, description string) (*Plan, error) {
	if id == "" || name == "" || slug == "" || price <= 0 || duration == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{ID: id, Name: name, Slug: slug, Price: price, Duration: duration, Description: description}, nil
}

// DurationDays converts the human-readable duration to days. The unit word
// decides the multiplier; an unrecognized unit counts the leading number as
// days. Returns 0 when no leading number is present.
func (p *Plan) DurationDays() int {
	return DurationDays(p.Duration)
}

// DurationDays parses strings like "1 Day", "2 Weeks" or "1 Month" to days.
func DurationDays(duration string) int {
	fields := strings.Fields(strings.TrimSpace(duration))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	if len(fields) == 1 {
		return n
	}
	switch strings.ToLower(strings.TrimSuffix(fields[1], "s")) {
	case "week":
		return n * 7
	case "month":
		return n * 30
	default:
		return n
	}
}

package tui

import (
	"strings"
	"time"
)

// Option configures a Model.
type Option func(*Model)

// WithNow overrides the clock used to pick today and the visible week.
func WithNow(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithWeekStart sets the first day of the displayed week.
func WithWeekStart(day time.Weekday) Option {
	return func(m *Model) {
		m.weekStartsOn = day
	}
}

// WithClipboard overrides how invite links are copied.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithProducts sets the subscription products offered on the family tab; the first one is purchased by default.
func WithProducts(ids []string) Option {
	return func(m *Model) {
		m.products = m.products[:0]
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				m.products = append(m.products, id)
			}
		}
	}
}

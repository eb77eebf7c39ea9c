// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/famboard/internal/state"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUnsupportedIntent reports an intent the store refuses in this configuration.
var ErrUnsupportedIntent = errors.New("unsupported intent")

// ErrUnavailable reports a missing backing store.
var ErrUnavailable = errors.New("store unavailable")

// stateSlices lists the top-level state keys a caller may select.
var stateSlices = []string{
	"session",
	"schedule",
	"assignments",
	"home",
	"sharing",
	"recipe",
	"shopping",
	"subscription",
	"debug",
}

// StateSlices returns every selectable state slice name in canonical order.
func StateSlices() []string {
	return append([]string(nil), stateSlices...)
}

// StateView is one state tree capture.
type StateView struct {
	Seq        uint64      `json:"seq"`
	StateHash  string      `json:"state_hash"`
	CapturedAt time.Time   `json:"captured_at"`
	State      state.State `json:"state"`
}

// SliceView is one top-level slice of a state capture.
type SliceView struct {
	Seq        uint64    `json:"seq"`
	StateHash  string    `json:"state_hash"`
	CapturedAt time.Time `json:"captured_at"`
	Slice      string    `json:"slice"`
	Value      any       `json:"value"`
}

// DispatchRequest carries one wire intent.
type DispatchRequest struct {
	Envelope state.Envelope
	// Settle waits for follow-up intents from effects before capturing state.
	Settle bool
}

// DispatchResult is the state captured after a dispatch.
type DispatchResult struct {
	Intent string    `json:"intent"`
	Seq    uint64    `json:"seq"`
	View   StateView `json:"view"`
}

// StoreService is what transports need from the store.
type StoreService interface {
	CaptureState(ctx context.Context) (StateView, error)
	CaptureSlice(ctx context.Context, slice string) (SliceView, error)
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
	Catalog() []state.CatalogEntry
}

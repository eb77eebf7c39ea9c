package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/state"
)

const (
	defaultSettleQuiet   = 75 * time.Millisecond
	defaultSettleTimeout = 3 * time.Second
)

// StoreAdapterConfig holds configuration for the store adapter.
type StoreAdapterConfig struct {
	// SettleQuiet is how long no snapshot may arrive before a settled dispatch returns.
	SettleQuiet time.Duration
	// SettleTimeout bounds the whole settle wait.
	SettleTimeout time.Duration
	Now           func() time.Time
}

// StoreAdapter maps transport contracts onto an app.Store.
type StoreAdapter struct {
	store *app.Store
	cfg   StoreAdapterConfig
}

var _ StoreService = (*StoreAdapter)(nil)

// NewStoreAdapter builds one common adapter over store.
func NewStoreAdapter(store *app.Store, cfg StoreAdapterConfig) *StoreAdapter {
	if cfg.SettleQuiet <= 0 {
		cfg.SettleQuiet = defaultSettleQuiet
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = defaultSettleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StoreAdapter{store: store, cfg: cfg}
}

// CaptureState returns the latest state tree with its sequence and content hash.
func (a *StoreAdapter) CaptureState(ctx context.Context) (StateView, error) {
	if a == nil || a.store == nil {
		return StateView{}, fmt.Errorf("store adapter is not configured: %w", ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return StateView{}, err
	}
	return a.capture()
}

// CaptureSlice returns one top-level slice of the latest state tree.
func (a *StoreAdapter) CaptureSlice(ctx context.Context, slice string) (SliceView, error) {
	slice = strings.ToLower(strings.TrimSpace(slice))
	if !slices.Contains(stateSlices, slice) {
		return SliceView{}, fmt.Errorf("%w: unknown state slice %q", ErrInvalidRequest, slice)
	}
	view, err := a.CaptureState(ctx)
	if err != nil {
		return SliceView{}, err
	}
	return SliceView{
		Seq:        view.Seq,
		StateHash:  view.StateHash,
		CapturedAt: view.CapturedAt,
		Slice:      slice,
		Value:      sliceOf(view.State, slice),
	}, nil
}

// Dispatch decodes one wire intent and feeds it to the store.
func (a *StoreAdapter) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if a == nil || a.store == nil {
		return DispatchResult{}, fmt.Errorf("store adapter is not configured: %w", ErrUnavailable)
	}
	intent, err := state.DecodeEnvelope(req.Envelope)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("dispatch: %w", errors.Join(ErrInvalidRequest, err))
	}
	if state.IsDebug(intent) && !a.store.DebugEnabled() {
		return DispatchResult{}, fmt.Errorf("dispatch %s: %w", intent.IntentName(), ErrUnsupportedIntent)
	}

	var notify chan struct{}
	if req.Settle {
		notify = make(chan struct{}, 1)
		unsubscribe := a.store.Subscribe(func(app.Snapshot) {
			select {
			case notify <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()
	}

	seq := a.store.DispatchSeq(intent)
	if req.Settle {
		a.settle(ctx, notify)
	}
	view, err := a.capture()
	if err != nil {
		return DispatchResult{}, err
	}
	return DispatchResult{Intent: intent.IntentName(), Seq: seq, View: view}, nil
}

// Catalog lists the intents this store accepts.
func (a *StoreAdapter) Catalog() []state.CatalogEntry {
	debug := a != nil && a.store != nil && a.store.DebugEnabled()
	return state.Catalog(debug)
}

// settle returns once no snapshot has arrived for SettleQuiet, or on timeout or cancellation.
func (a *StoreAdapter) settle(ctx context.Context, notify <-chan struct{}) {
	deadline := time.NewTimer(a.cfg.SettleTimeout)
	defer deadline.Stop()
	quiet := time.NewTimer(a.cfg.SettleQuiet)
	defer quiet.Stop()
	for {
		select {
		case <-notify:
			quiet.Reset(a.cfg.SettleQuiet)
		case <-quiet.C:
			return
		case <-deadline.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *StoreAdapter) capture() (StateView, error) {
	seq, current := a.store.Current()
	hash, err := computeStateHash(current)
	if err != nil {
		return StateView{}, err
	}
	return StateView{
		Seq:        seq,
		StateHash:  hash,
		CapturedAt: a.cfg.Now().UTC(),
		State:      current,
	}, nil
}

// computeStateHash hashes the JSON form of s; equal trees hash equal.
func computeStateHash(s state.State) (string, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode state hash payload: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func sliceOf(s state.State, slice string) any {
	switch slice {
	case "session":
		return s.Session
	case "schedule":
		return s.Schedule
	case "assignments":
		return s.Assignments
	case "home":
		return s.Home
	case "sharing":
		return s.Sharing
	case "recipe":
		return s.Recipe
	case "shopping":
		return s.Shopping
	case "subscription":
		return s.Subscription
	case "debug":
		return s.Debug
	}
	return nil
}

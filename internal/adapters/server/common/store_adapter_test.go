package common

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/state"
)

// effectsFunc adapts a function to app.Effects.
type effectsFunc func(ctx context.Context, tr app.Transition, dispatch app.Dispatcher)

// Handle runs the wrapped function.
func (f effectsFunc) Handle(ctx context.Context, tr app.Transition, dispatch app.Dispatcher) {
	f(ctx, tr, dispatch)
}

// shoppingLoader answers a shopping load after a short delay.
func shoppingLoader(delay time.Duration) app.Effects {
	return effectsFunc(func(_ context.Context, tr app.Transition, dispatch app.Dispatcher) {
		if _, ok := tr.Intent.(state.LoadShoppingList); !ok {
			return
		}
		time.Sleep(delay)
		dispatch(state.ShoppingListLoaded{Items: []domain.ShoppingItem{{ID: "s1", Name: "milk"}}})
	})
}

func newTestAdapter(t *testing.T, effects app.Effects, debug bool) (*StoreAdapter, *app.Store) {
	t.Helper()
	store := app.NewStore(state.New(), effects, app.StoreConfig{DebugEnabled: debug})
	t.Cleanup(store.Close)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	adapter := NewStoreAdapter(store, StoreAdapterConfig{
		SettleQuiet:   40 * time.Millisecond,
		SettleTimeout: 2 * time.Second,
		Now:           func() time.Time { return now },
	})
	return adapter, store
}

// TestStoreAdapterDispatchSettles verifies settled dispatches capture effect results.
func TestStoreAdapterDispatchSettles(t *testing.T) {
	adapter, _ := newTestAdapter(t, shoppingLoader(10*time.Millisecond), false)

	got, err := adapter.Dispatch(context.Background(), DispatchRequest{
		Envelope: state.Envelope{Type: "shopping.load"},
		Settle:   true,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got.Intent != "shopping.load" || got.Seq != 1 {
		t.Fatalf("unexpected dispatch result %#v", got)
	}
	if got.View.Seq != 2 || len(got.View.State.Shopping.Items) != 1 {
		t.Fatalf("expected settled view to include loaded items, got seq %d items %#v", got.View.Seq, got.View.State.Shopping.Items)
	}
	if got.View.StateHash == "" || !got.View.CapturedAt.Equal(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected capture metadata %#v", got.View)
	}
}

// TestStoreAdapterDispatchReportsOwnSeq verifies the result seq belongs to the caller's reduction
// even when effects dispatch follow-up intents straight away.
func TestStoreAdapterDispatchReportsOwnSeq(t *testing.T) {
	chatty := effectsFunc(func(_ context.Context, tr app.Transition, dispatch app.Dispatcher) {
		if _, ok := tr.Intent.(state.LoadShoppingList); !ok {
			return
		}
		for range 5 {
			dispatch(state.ShoppingListLoaded{})
		}
	})
	adapter, store := newTestAdapter(t, chatty, false)

	got, err := adapter.Dispatch(context.Background(), DispatchRequest{Envelope: state.Envelope{Type: "shopping.load"}})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got.Seq != 1 {
		t.Fatalf("expected seq 1 for the dispatched intent, got %d", got.Seq)
	}
	store.Wait()
	if store.Seq() != 6 {
		t.Fatalf("expected follow-up reductions to advance seq to 6, got %d", store.Seq())
	}
}

// TestStoreAdapterDispatchDecodesPayload verifies payload decoding and reduction.
func TestStoreAdapterDispatchDecodesPayload(t *testing.T) {
	adapter, store := newTestAdapter(t, nil, false)

	payload := json.RawMessage(`{"item":{"id":"s9","name":"bread"}}`)
	if _, err := adapter.Dispatch(context.Background(), DispatchRequest{
		Envelope: state.Envelope{Type: "shopping.add_item", Payload: payload},
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if item, ok := store.State().Shopping.Item("s9"); !ok || item.Name != "bread" {
		t.Fatalf("expected bread on the list, got %#v", store.State().Shopping.Items)
	}
}

// TestStoreAdapterDispatchErrors verifies invalid and unsupported intents fail closed.
func TestStoreAdapterDispatchErrors(t *testing.T) {
	adapter, store := newTestAdapter(t, nil, false)

	cases := []struct {
		name string
		env  state.Envelope
		want error
	}{
		{name: "unknown type", env: state.Envelope{Type: "nope"}, want: ErrInvalidRequest},
		{name: "unknown field", env: state.Envelope{Type: "shopping.toggle_item", Payload: json.RawMessage(`{"bogus":1}`)}, want: ErrInvalidRequest},
		{name: "debug disabled", env: state.Envelope{Type: "debug.clear_log"}, want: ErrUnsupportedIntent},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.Dispatch(context.Background(), DispatchRequest{Envelope: tt.env})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Dispatch() error = %v, want %v", err, tt.want)
			}
		})
	}
	if store.Seq() != 0 {
		t.Fatalf("rejected intents must not reach the store, seq = %d", store.Seq())
	}
}

// TestStoreAdapterCatalogFollowsDebugFlag verifies debug intents are listed only when enabled.
func TestStoreAdapterCatalogFollowsDebugFlag(t *testing.T) {
	plain, _ := newTestAdapter(t, nil, false)
	debug, _ := newTestAdapter(t, nil, true)

	hasDebug := func(entries []state.CatalogEntry) bool {
		for _, e := range entries {
			if e.Debug {
				return true
			}
		}
		return false
	}
	if hasDebug(plain.Catalog()) {
		t.Fatal("plain catalog lists debug intents")
	}
	if !hasDebug(debug.Catalog()) || len(debug.Catalog()) <= len(plain.Catalog()) {
		t.Fatal("debug catalog is missing debug intents")
	}
}

// TestStoreAdapterCaptureSlice verifies slice selection and hash stability.
func TestStoreAdapterCaptureSlice(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil, false)

	first, err := adapter.CaptureState(context.Background())
	if err != nil {
		t.Fatalf("CaptureState() error = %v", err)
	}
	second, err := adapter.CaptureState(context.Background())
	if err != nil {
		t.Fatalf("CaptureState() error = %v", err)
	}
	if first.StateHash != second.StateHash {
		t.Fatalf("hash changed without a dispatch: %q != %q", first.StateHash, second.StateHash)
	}

	view, err := adapter.CaptureSlice(context.Background(), " Session ")
	if err != nil {
		t.Fatalf("CaptureSlice() error = %v", err)
	}
	session, ok := view.Value.(state.Session)
	if !ok || session.Screen != state.ScreenLaunching {
		t.Fatalf("unexpected session slice %#v", view.Value)
	}
	if _, err := adapter.CaptureSlice(context.Background(), "kitchen"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("CaptureSlice(kitchen) error = %v, want ErrInvalidRequest", err)
	}
}

// TestStoreAdapterUnconfigured verifies a nil store reports ErrUnavailable.
func TestStoreAdapterUnconfigured(t *testing.T) {
	adapter := NewStoreAdapter(nil, StoreAdapterConfig{})
	if _, err := adapter.CaptureState(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("CaptureState() error = %v, want ErrUnavailable", err)
	}
	if _, err := adapter.Dispatch(context.Background(), DispatchRequest{Envelope: state.Envelope{Type: "shopping.load"}}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Dispatch() error = %v, want ErrUnavailable", err)
	}
}

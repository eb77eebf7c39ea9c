package app

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/state"
)

type effectsFunc func(context.Context, Transition, Dispatcher)

func (f effectsFunc) Handle(ctx context.Context, tr Transition, dispatch Dispatcher) {
	f(ctx, tr, dispatch)
}

func TestStoreDispatchIsSynchronous(t *testing.T) {
	store := NewStore(state.New(), nil, StoreConfig{})
	store.Dispatch(state.AuthCompleted{UserID: "u1", DisplayName: "Ana"})
	if got := store.State().Session; got.UserID != "u1" || got.Screen != state.ScreenLoading {
		t.Fatalf("unexpected session %#v", got)
	}
	if store.Seq() != 1 {
		t.Fatalf("expected seq 1, got %d", store.Seq())
	}
	if seq, current := store.Current(); seq != 1 || current.Session.UserID != "u1" {
		t.Fatalf("Current() = %d, %#v", seq, current.Session)
	}
}

func TestStoreDispatchSeqReturnsOwnReduction(t *testing.T) {
	effects := effectsFunc(func(_ context.Context, tr Transition, dispatch Dispatcher) {
		if _, ok := tr.Intent.(state.LoadShoppingList); ok {
			dispatch(state.ShoppingListLoaded{})
			dispatch(state.ShoppingListLoaded{})
		}
	})
	store := NewStore(state.New(), effects, StoreConfig{})
	t.Cleanup(store.Close)

	if got := store.DispatchSeq(state.LoadShoppingList{}); got != 1 {
		t.Fatalf("DispatchSeq() = %d, want 1", got)
	}
	store.Wait()
	if got := store.DispatchSeq(state.ClearCheckedItems{}); got != 4 {
		t.Fatalf("DispatchSeq() = %d, want 4", got)
	}
	if got := store.DispatchSeq(nil); got != 0 {
		t.Fatalf("DispatchSeq(nil) = %d, want 0", got)
	}
}

func TestStoreMatchesFold(t *testing.T) {
	monday := domain.NewDate(2026, time.March, 2)
	intents := []state.Intent{
		state.AuthCompleted{UserID: "u1"},
		state.GroupsLoaded{Groups: []domain.Group{{ID: "g1", Name: "Family", Members: []domain.Member{{UserID: "u1"}}}}},
		state.LoadWeekAssignments{WeekStart: monday},
		state.WeekAssignmentsLoaded{WeekStart: monday},
		state.AssignDriver{Index: 3, Slot: domain.SlotPickUp, UserID: "u1"},
		state.SearchRecipes{Query: "soup"},
	}
	store := NewStore(state.New(), nil, StoreConfig{})
	want := state.New()
	for _, intent := range intents {
		store.Dispatch(intent)
		want = state.Reduce(want, intent)
	}
	if !reflect.DeepEqual(store.State(), want) {
		t.Fatal("store state must equal the fold of the root reducer")
	}
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore(state.New(), nil, StoreConfig{})
	var (
		mu    sync.Mutex
		seqs  []uint64
		names []string
	)
	unsubscribe := store.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, s.Seq)
		names = append(names, s.Intent.IntentName())
	})
	store.Dispatch(state.CheckEntitlement{})
	store.Dispatch(state.EntitlementChecked{Premium: true})
	unsubscribe()
	unsubscribe()
	store.Dispatch(state.CheckEntitlement{})

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(seqs, []uint64{1, 2}) {
		t.Fatalf("unexpected sequence numbers %v", seqs)
	}
	if names[1] != "subscription.checked" {
		t.Fatalf("unexpected intents %v", names)
	}
}

func TestStoreRejectsDebugIntentsWhenDisabled(t *testing.T) {
	store := NewStore(state.New(), nil, StoreConfig{})
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnsupportedIntent) {
			t.Fatalf("expected ErrUnsupportedIntent panic, got %v", r)
		}
		if store.Seq() != 0 {
			t.Fatal("unsupported intent must not be reduced")
		}
	}()
	store.Dispatch(state.SetDebugLogging{Enabled: true})
}

func TestStoreAcceptsDebugIntentsWhenEnabled(t *testing.T) {
	store := NewStore(state.New(), nil, StoreConfig{DebugEnabled: true})
	store.Dispatch(state.SetDebugLogging{Enabled: true})
	store.Dispatch(state.LoadRecipes{})
	if got := store.State().Debug.Log; !reflect.DeepEqual(got, []string{"debug.set_logging", "recipe.load_all"}) {
		t.Fatalf("unexpected debug log %v", got)
	}
}

func TestStoreRunsChainedEffectsAndWaits(t *testing.T) {
	var (
		mu       sync.Mutex
		observed []string
	)
	effects := effectsFunc(func(_ context.Context, tr Transition, dispatch Dispatcher) {
		mu.Lock()
		observed = append(observed, tr.Intent.IntentName())
		mu.Unlock()
		switch tr.Intent.(type) {
		case state.CheckEntitlement:
			if !tr.After.Subscription.Checking || tr.Before.Subscription.Checking {
				t.Errorf("unexpected transition %#v -> %#v", tr.Before.Subscription, tr.After.Subscription)
			}
			time.Sleep(5 * time.Millisecond)
			dispatch(state.EntitlementChecked{Premium: true})
		case state.EntitlementChecked:
			dispatch(state.RestorePurchases{})
		}
	})
	store := NewStore(state.New(), effects, StoreConfig{})
	store.Dispatch(state.CheckEntitlement{})
	store.Wait()

	got := store.State().Subscription
	if !got.Premium || !got.Restoring {
		t.Fatalf("expected chained effects to finish, got %#v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 3 {
		t.Fatalf("expected 3 effect runs, got %v", observed)
	}
}

func TestStoreCloseCancelsEffects(t *testing.T) {
	started := make(chan struct{})
	effects := effectsFunc(func(ctx context.Context, tr Transition, dispatch Dispatcher) {
		if _, ok := tr.Intent.(state.CheckEntitlement); !ok {
			return
		}
		close(started)
		<-ctx.Done()
		dispatch(state.EntitlementCheckFailed{Failure: domain.Failure{Message: ctx.Err().Error()}})
	})
	store := NewStore(state.New(), effects, StoreConfig{})
	store.Dispatch(state.CheckEntitlement{})
	<-started
	store.Close()
	if got := store.State().Subscription; got.Checking || got.Error == "" {
		t.Fatalf("expected cancelled check to report failure, got %#v", got)
	}
}

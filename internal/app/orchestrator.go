package app

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/state"
)

// Logger is the structured logger the orchestrator writes to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	Locations    []domain.Location
	WeekStartsOn time.Weekday
}

// Orchestrator maps intents to capability calls and their results back to intents.
// It never touches state directly.
type Orchestrator struct {
	ports   Ports
	service *Service
	idGen   IDGenerator
	clock   Clock
	log     Logger
	cfg     OrchestratorConfig
	loads   singleflight.Group
}

// NewOrchestrator constructs a new value for this package.
func NewOrchestrator(ports Ports, idGen IDGenerator, clock Clock, logger Logger, cfg OrchestratorConfig) *Orchestrator {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = nopLogger{}
	}
	cfg.Locations = slices.Clone(cfg.Locations)
	return &Orchestrator{
		ports:   ports,
		service: NewService(ports.Repo, idGen, clock),
		idGen:   idGen,
		clock:   clock,
		log:     logger,
		cfg:     cfg,
	}
}

// Handle implements Effects.
func (o *Orchestrator) Handle(ctx context.Context, tr Transition, dispatch Dispatcher) {
	switch i := tr.Intent.(type) {
	case state.AuthCompleted:
		o.handleAuth(ctx, tr, dispatch)
	case state.InvitationAccepted:
		o.loadGroups(ctx, tr, dispatch)
	case state.JoinRequestResolved:
		if i.Approved {
			o.loadGroups(ctx, tr, dispatch)
		}

	case state.LoadWeekSchedule:
		o.loadSchedule(ctx, tr, dispatch)
	case state.SaveWeekSchedule:
		o.saveSchedule(ctx, tr, dispatch)

	case state.LoadWeekAssignments:
		o.loadAssignments(ctx, tr, dispatch)
	case state.SaveAssignment:
		o.saveAssignment(ctx, tr, i.Index, dispatch)
	case state.WeekAssignmentsLoaded, state.AssignmentSaved:
		o.deriveWarnings(tr, dispatch)

	case state.LoadHome:
		o.loadHome(ctx, tr, i.Today, dispatch)

	case state.CreateInvitation:
		o.createInvitation(ctx, tr, dispatch)
	case state.AcceptInvitation:
		o.acceptInvitation(ctx, tr, dispatch)
	case state.LoadJoinRequests:
		o.loadJoinRequests(ctx, tr, dispatch)
	case state.ApproveJoinRequest:
		o.resolveJoinRequest(ctx, tr, i.ParticipantID, true, dispatch)
	case state.RejectJoinRequest:
		o.resolveJoinRequest(ctx, tr, i.ParticipantID, false, dispatch)

	case state.ExtractRecipe:
		o.extractRecipe(ctx, tr, i.URL, dispatch)
	case state.SaveRecipe:
		o.saveRecipe(ctx, tr, dispatch)
	case state.LoadRecipes:
		o.loadRecipes(ctx, tr, dispatch)
	case state.DeleteRecipe:
		o.deleteRecipe(ctx, tr, i.ID, dispatch)
	case state.SubmitSubstitution, state.RequestAdditionalSubstitution:
		o.transform(ctx, tr, dispatch)
	case state.ApproveSubstitution:
		if tr.Before.Recipe.Substitution.Phase == state.PhasePreview && tr.After.Recipe.Persisted && tr.After.Recipe.Current != nil {
			dispatch(state.SaveRecipe{})
		}

	case state.LoadShoppingList:
		o.loadShopping(ctx, tr, dispatch)
	case state.AddShoppingItem, state.AddRecipeToShoppingList, state.ToggleShoppingItem:
		o.saveShopping(ctx, tr, dispatch)
	case state.RemoveShoppingItem, state.ClearCheckedItems:
		o.deleteShopping(ctx, tr, dispatch)

	case state.CheckEntitlement:
		o.checkEntitlement(ctx, tr, dispatch)
	case state.Purchase:
		o.purchase(ctx, tr, dispatch)
	case state.RestorePurchases:
		o.restore(ctx, tr, dispatch)

	case state.SeedDemoData:
		o.seedDemo(ctx, tr, dispatch)
	}
}

// call runs one capability call with debug and failure logging.
func (o *Orchestrator) call(ctx context.Context, intent state.Intent, op string, fn func(context.Context) error) error {
	o.log.Debug("capability call", "intent", intent.IntentName(), "op", op)
	err := fn(ctx)
	if err != nil {
		o.log.Warn("capability call failed", "intent", intent.IntentName(), "op", op, "cause", Classify(err), "err", err)
	}
	return err
}

// once collapses concurrent runs of fn that share key; only the leader dispatches results.
func (o *Orchestrator) once(key string, fn func()) {
	_, _, _ = o.loads.Do(key, func() (any, error) {
		fn()
		return nil, nil
	})
}

func (o *Orchestrator) handleAuth(ctx context.Context, tr Transition, dispatch Dispatcher) {
	session := tr.After.Session
	if !session.SignedIn() {
		return
	}
	err := o.call(ctx, tr.Intent, "ensure default group", func(ctx context.Context) error {
		_, err := o.service.EnsureDefaultGroup(ctx, session.UserID, session.DisplayName)
		return err
	})
	if err != nil {
		o.log.Info("first-run seeding skipped, retrying next launch", "user_id", session.UserID)
	}
	o.loadGroups(ctx, tr, dispatch)
}

func (o *Orchestrator) loadGroups(ctx context.Context, tr Transition, dispatch Dispatcher) {
	userID := tr.After.Session.UserID
	if userID == "" {
		return
	}
	o.once("groups|"+userID, func() {
		var groups []domain.Group
		err := o.call(ctx, tr.Intent, "load groups", func(ctx context.Context) error {
			if o.ports.Repo == nil {
				return ErrNotConfigured
			}
			var err error
			groups, err = o.ports.Repo.ListGroups(ctx, userID)
			return withCause(err, ErrStorage)
		})
		if err != nil {
			dispatch(state.GroupsLoadFailed{Failure: FailureFrom("load groups", err)})
			return
		}
		dispatch(state.GroupsLoaded{Groups: groups})
	})
}

func (o *Orchestrator) loadSchedule(ctx context.Context, tr Transition, dispatch Dispatcher) {
	sched := tr.After.Schedule
	if !sched.Loading || sched.Owner.IsZero() {
		return
	}
	owner, start := sched.Owner, sched.WeekStart
	o.once("schedule|"+owner.GroupID+"|"+owner.UserID+"|"+start.String(), func() {
		var entries []domain.DayScheduleEntry
		err := o.call(ctx, tr.Intent, "load schedule", func(ctx context.Context) error {
			if o.ports.Repo == nil {
				return ErrNotConfigured
			}
			var err error
			entries, err = o.ports.Repo.ListScheduleEntries(ctx, owner, start, start.AddDays(domain.DaysPerWeek-1))
			return withCause(err, ErrStorage)
		})
		if err != nil {
			dispatch(state.WeekScheduleLoadFailed{WeekStart: start, Failure: FailureFrom("load schedule", err)})
			return
		}
		dispatch(state.WeekScheduleLoaded{WeekStart: start, Entries: entries})
	})
}

func (o *Orchestrator) saveSchedule(ctx context.Context, tr Transition, dispatch Dispatcher) {
	if tr.Before.Schedule.Saving || !tr.After.Schedule.Saving {
		return
	}
	entries := slices.Clone(tr.After.Schedule.Entries)
	err := o.call(ctx, tr.Intent, "save schedule", func(ctx context.Context) error {
		if o.ports.Repo == nil {
			return ErrNotConfigured
		}
		return withCause(o.ports.Repo.SaveScheduleEntries(ctx, entries), ErrStorage)
	})
	if err != nil {
		dispatch(state.WeekScheduleSaveFailed{Failure: FailureFrom("save schedule", err)})
		return
	}
	dispatch(state.WeekScheduleSaved{})
}

func (o *Orchestrator) loadAssignments(ctx context.Context, tr Transition, dispatch Dispatcher) {
	plan := tr.After.Assignments
	if !plan.Loading || plan.GroupID == "" {
		return
	}
	groupID, start := plan.GroupID, plan.WeekStart
	o.once("assignments|"+groupID+"|"+start.String(), func() {
		var days []domain.DayAssignment
		err := o.call(ctx, tr.Intent, "load assignments", func(ctx context.Context) error {
			if o.ports.Repo == nil {
				return ErrNotConfigured
			}
			var err error
			days, err = o.ports.Repo.ListAssignments(ctx, groupID, start, start.AddDays(domain.DaysPerWeek-1))
			return withCause(err, ErrStorage)
		})
		if err != nil {
			dispatch(state.WeekAssignmentsLoadFailed{WeekStart: start, Failure: FailureFrom("load assignments", err)})
			return
		}
		dispatch(state.WeekAssignmentsLoaded{WeekStart: start, Assignments: days})
	})
}

func (o *Orchestrator) saveAssignment(ctx context.Context, tr Transition, index int, dispatch Dispatcher) {
	plan := tr.After.Assignments
	if tr.Before.Assignments.Saving || !plan.Saving || plan.SavingIndex != index {
		return
	}
	day := plan.Days[index]
	var saved domain.DayAssignment
	err := o.call(ctx, tr.Intent, "save assignment", func(ctx context.Context) error {
		if o.ports.Repo == nil {
			return ErrNotConfigured
		}
		var err error
		saved, err = o.ports.Repo.SaveAssignment(ctx, day)
		return withCause(err, ErrStorage)
	})
	if err != nil {
		dispatch(state.AssignmentSaveFailed{Failure: FailureFrom("save assignment", err)})
		return
	}
	dispatch(state.AssignmentSaved{Assignment: saved})
}

func (o *Orchestrator) deriveWarnings(tr Transition, dispatch Dispatcher) {
	days := tr.After.Assignments.Days
	if len(days) != domain.DaysPerWeek {
		return
	}
	today := tr.After.Home.Today
	if today.IsZero() {
		today = domain.DateOf(o.clock())
	}
	dispatch(state.WarningsDerived{Warnings: domain.DeriveWarnings(days, tr.After.DisplayNames(), today)})
}

func (o *Orchestrator) loadHome(ctx context.Context, tr Transition, today domain.Date, dispatch Dispatcher) {
	if today.IsZero() {
		return
	}
	if tr.After.Session.SelectedGroupID == "" {
		dispatch(state.WarningsDerived{})
	} else {
		dispatch(state.LoadWeekAssignments{WeekStart: today.StartOfWeek(o.cfg.WeekStartsOn)})
	}

	if len(o.cfg.Locations) == 0 {
		dispatch(state.WeatherLoaded{})
		return
	}
	o.once("weather|"+today.String(), func() {
		var forecasts []domain.Weather
		err := o.call(ctx, tr.Intent, "load weather", func(ctx context.Context) error {
			if o.ports.Weather == nil {
				return ErrNotConfigured
			}
			var err error
			forecasts, err = o.ports.Weather.Fetch(ctx, o.cfg.Locations, today)
			return withCause(err, ErrFetchFailed)
		})
		if err != nil {
			dispatch(state.WeatherLoadFailed{Failure: FailureFrom("load weather", err)})
			return
		}
		dispatch(state.WeatherLoaded{Forecasts: forecasts})
	})
}

func (o *Orchestrator) createInvitation(ctx context.Context, tr Transition, dispatch Dispatcher) {
	if tr.Before.Sharing.Invite.Status == state.InviteCreating || tr.After.Sharing.Invite.Status != state.InviteCreating {
		return
	}
	groupID, userID := tr.After.Session.SelectedGroupID, tr.After.Session.UserID
	var url string
	err := o.call(ctx, tr.Intent, "create invitation", func(ctx context.Context) error {
		if o.ports.Sharing == nil {
			return ErrNotConfigured
		}
		if groupID == "" {
			return ErrNoGroup
		}
		var err error
		url, err = o.ports.Sharing.CreateInvitation(ctx, groupID, userID)
		return withCause(err, ErrSharing)
	})
	if err != nil {
		dispatch(state.InvitationCreateFailed{Failure: FailureFrom("create invitation", err)})
		return
	}
	dispatch(state.InvitationCreated{URL: url})
}

func (o *Orchestrator) acceptInvitation(ctx context.Context, tr Transition, dispatch Dispatcher) {
	accept := tr.After.Sharing.Accept
	if tr.Before.Sharing.Accept.Status != state.AcceptPending || accept.Status != state.AcceptAccepting {
		return
	}
	session := tr.After.Session
	var group domain.Group
	err := o.call(ctx, tr.Intent, "accept invitation", func(ctx context.Context) error {
		if o.ports.Sharing == nil {
			return ErrNotConfigured
		}
		if !session.SignedIn() {
			return ErrNotSignedIn
		}
		var err error
		group, err = o.ports.Sharing.AcceptInvitation(ctx, accept.Token, session.UserID, session.DisplayName)
		return withCause(err, ErrSharing)
	})
	if err != nil {
		dispatch(state.InvitationAcceptFailed{Failure: FailureFrom("accept invitation", err)})
		return
	}
	dispatch(state.InvitationAccepted{Group: group})
}

func (o *Orchestrator) loadJoinRequests(ctx context.Context, tr Transition, dispatch Dispatcher) {
	groupID := tr.After.Session.SelectedGroupID
	o.once("join-requests|"+groupID, func() {
		var requests []domain.JoinRequest
		err := o.call(ctx, tr.Intent, "load join requests", func(ctx context.Context) error {
			if o.ports.Sharing == nil {
				return ErrNotConfigured
			}
			if groupID == "" {
				return ErrNoGroup
			}
			var err error
			requests, err = o.ports.Sharing.ListJoinRequests(ctx, groupID)
			return withCause(err, ErrSharing)
		})
		if err != nil {
			dispatch(state.JoinRequestsLoadFailed{Failure: FailureFrom("load join requests", err)})
			return
		}
		dispatch(state.JoinRequestsLoaded{Requests: requests})
	})
}

func (o *Orchestrator) resolveJoinRequest(ctx context.Context, tr Transition, participantID string, approve bool, dispatch Dispatcher) {
	if tr.Before.Sharing.Processing != "" || tr.After.Sharing.Processing != participantID {
		return
	}
	groupID := tr.After.Session.SelectedGroupID
	op := "reject join request"
	if approve {
		op = "approve join request"
	}
	err := o.call(ctx, tr.Intent, op, func(ctx context.Context) error {
		if o.ports.Sharing == nil {
			return ErrNotConfigured
		}
		if approve {
			return withCause(o.ports.Sharing.ApproveJoinRequest(ctx, groupID, participantID), ErrSharing)
		}
		return withCause(o.ports.Sharing.RejectJoinRequest(ctx, groupID, participantID), ErrSharing)
	})
	if err != nil {
		dispatch(state.JoinRequestFailed{ParticipantID: participantID, Failure: FailureFrom(op, err)})
		return
	}
	dispatch(state.JoinRequestResolved{ParticipantID: participantID, Approved: approve})
}

func (o *Orchestrator) extractRecipe(ctx context.Context, tr Transition, rawURL string, dispatch Dispatcher) {
	if tr.Before.Recipe.Extracting || !tr.After.Recipe.Extracting {
		return
	}
	url := strings.TrimSpace(rawURL)
	var recipe domain.Recipe
	err := o.call(ctx, tr.Intent, "extract recipe", func(ctx context.Context) error {
		if o.ports.Extractor == nil {
			return ErrNotConfigured
		}
		var err error
		recipe, err = o.ports.Extractor.Extract(ctx, url)
		return withCause(err, ErrExtractionFailed)
	})
	if err != nil {
		dispatch(state.RecipeExtractionFailed{Failure: FailureFrom("extract recipe", err)})
		return
	}
	if recipe.ID == "" {
		recipe.ID = o.idGen()
	}
	if recipe.SourceURL == "" {
		recipe.SourceURL = url
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = o.clock().UTC()
	}
	dispatch(state.RecipeLoaded{Recipe: recipe})
}

func (o *Orchestrator) saveRecipe(ctx context.Context, tr Transition, dispatch Dispatcher) {
	rs := tr.After.Recipe
	if tr.Before.Recipe.Saving || !rs.Saving || rs.Current == nil {
		return
	}
	groupID := tr.After.Session.SelectedGroupID
	recipe := rs.Current.Clone()
	err := o.call(ctx, tr.Intent, "save recipe", func(ctx context.Context) error {
		if o.ports.Repo == nil {
			return ErrNotConfigured
		}
		if groupID == "" {
			return ErrNoGroup
		}
		return withCause(o.ports.Repo.SaveRecipe(ctx, groupID, recipe), ErrStorage)
	})
	if err != nil {
		dispatch(state.RecipeSaveFailed{Failure: FailureFrom("save recipe", err)})
		return
	}
	dispatch(state.RecipeSaved{Recipe: recipe})
}

func (o *Orchestrator) loadRecipes(ctx context.Context, tr Transition, dispatch Dispatcher) {
	groupID := tr.After.Session.SelectedGroupID
	o.once("recipes|"+groupID, func() {
		var (
			recipes    []domain.Recipe
			categories []domain.Category
		)
		err := o.call(ctx, tr.Intent, "load recipes", func(ctx context.Context) error {
			if o.ports.Repo == nil {
				return ErrNotConfigured
			}
			if groupID == "" {
				return ErrNoGroup
			}
			var err error
			if recipes, err = o.ports.Repo.ListRecipes(ctx, groupID); err != nil {
				return withCause(err, ErrStorage)
			}
			categories, err = o.ports.Repo.ListCategories(ctx, groupID)
			return withCause(err, ErrStorage)
		})
		if err != nil {
			dispatch(state.RecipesLoadFailed{Failure: FailureFrom("load recipes", err)})
			return
		}
		dispatch(state.RecipesLoaded{Recipes: recipes, Categories: categories})
	})
}

func (o *Orchestrator) deleteRecipe(ctx context.Context, tr Transition, id string, dispatch Dispatcher) {
	if tr.Before.Recipe.Deleting != "" || tr.After.Recipe.Deleting != id {
		return
	}
	groupID := tr.After.Session.SelectedGroupID
	err := o.call(ctx, tr.Intent, "delete recipe", func(ctx context.Context) error {
		if o.ports.Repo == nil {
			return ErrNotConfigured
		}
		return withCause(o.ports.Repo.DeleteRecipe(ctx, groupID, id), ErrStorage)
	})
	if err != nil {
		dispatch(state.RecipeDeleteFailed{Failure: FailureFrom("delete recipe", err)})
		return
	}
	dispatch(state.RecipeDeleted{ID: id})
}

func (o *Orchestrator) transform(ctx context.Context, tr Transition, dispatch Dispatcher) {
	sub := tr.After.Recipe.Substitution
	if tr.Before.Recipe.Substitution.Phase == state.PhaseProcessing || sub.Phase != state.PhaseProcessing || sub.Snapshot == nil {
		return
	}
	base := sub.Snapshot.Clone()
	var candidate domain.Recipe
	err := o.call(ctx, tr.Intent, "transform recipe", func(ctx context.Context) error {
		if o.ports.Transformer == nil {
			return ErrNotConfigured
		}
		var err error
		candidate, err = o.ports.Transformer.Transform(ctx, sub.Target, sub.Prompt, base)
		return withCause(err, ErrTransformFailed)
	})
	if err != nil {
		dispatch(state.SubstitutionFailed{Failure: FailureFrom("substitute", err)})
		return
	}
	dispatch(state.SubstitutionPreviewReady{Candidate: candidate})
}

func (o *Orchestrator) loadShopping(ctx context.Context, tr Transition, dispatch Dispatcher) {
	groupID := tr.After.Session.SelectedGroupID
	o.once("shopping|"+groupID, func() {
		var items []domain.ShoppingItem
		err := o.call(ctx, tr.Intent, "load shopping list", func(ctx context.Context) error {
			if o.ports.Repo == nil {
				return ErrNotConfigured
			}
			if groupID == "" {
				return ErrNoGroup
			}
			var err error
			items, err = o.ports.Repo.ListShoppingItems(ctx, groupID)
			return withCause(err, ErrStorage)
		})
		if err != nil {
			dispatch(state.ShoppingListFailed{Failure: FailureFrom("load shopping list", err)})
			return
		}
		dispatch(state.ShoppingListLoaded{Items: items})
	})
}

// saveShopping persists items that were added or changed by the reduction.
func (o *Orchestrator) saveShopping(ctx context.Context, tr Transition, dispatch Dispatcher) {
	changed := make([]domain.ShoppingItem, 0)
	for _, item := range tr.After.Shopping.Items {
		if prev, ok := tr.Before.Shopping.Item(item.ID); !ok || prev != item {
			changed = append(changed, item)
		}
	}
	if len(changed) == 0 {
		return
	}
	groupID := tr.After.Session.SelectedGroupID
	o.syncShopping(ctx, tr, dispatch, "save shopping items", func(ctx context.Context) error {
		return o.ports.Repo.SaveShoppingItems(ctx, groupID, changed)
	})
}

// deleteShopping removes items that the reduction dropped.
func (o *Orchestrator) deleteShopping(ctx context.Context, tr Transition, dispatch Dispatcher) {
	removed := make([]string, 0)
	for _, item := range tr.Before.Shopping.Items {
		if _, ok := tr.After.Shopping.Item(item.ID); !ok {
			removed = append(removed, item.ID)
		}
	}
	if len(removed) == 0 {
		return
	}
	groupID := tr.After.Session.SelectedGroupID
	o.syncShopping(ctx, tr, dispatch, "delete shopping items", func(ctx context.Context) error {
		return o.ports.Repo.DeleteShoppingItems(ctx, groupID, removed)
	})
}

func (o *Orchestrator) syncShopping(ctx context.Context, tr Transition, dispatch Dispatcher, op string, fn func(context.Context) error) {
	groupID := tr.After.Session.SelectedGroupID
	err := o.call(ctx, tr.Intent, op, func(ctx context.Context) error {
		if o.ports.Repo == nil {
			return ErrNotConfigured
		}
		if groupID == "" {
			return ErrNoGroup
		}
		return withCause(fn(ctx), ErrStorage)
	})
	if err != nil {
		dispatch(state.ShoppingSyncFailed{Failure: FailureFrom("sync shopping list", err)})
		return
	}
	dispatch(state.ShoppingListSynced{})
}

func (o *Orchestrator) checkEntitlement(ctx context.Context, tr Transition, dispatch Dispatcher) {
	userID := tr.After.Session.UserID
	o.once("entitlement|"+userID, func() {
		var premium bool
		err := o.call(ctx, tr.Intent, "check entitlement", func(ctx context.Context) error {
			if o.ports.Entitlements == nil {
				return ErrNotConfigured
			}
			if userID == "" {
				return ErrNotSignedIn
			}
			var err error
			premium, err = o.ports.Entitlements.IsPremium(ctx, userID)
			return withCause(err, ErrEntitlement)
		})
		if err != nil {
			dispatch(state.EntitlementCheckFailed{Failure: FailureFrom("check subscription", err)})
			return
		}
		dispatch(state.EntitlementChecked{Premium: premium})
	})
}

func (o *Orchestrator) purchase(ctx context.Context, tr Transition, dispatch Dispatcher) {
	product := tr.After.Subscription.Purchasing
	if tr.Before.Subscription.Purchasing != "" || product == "" {
		return
	}
	userID := tr.After.Session.UserID
	err := o.call(ctx, tr.Intent, "purchase", func(ctx context.Context) error {
		if o.ports.Entitlements == nil {
			return ErrNotConfigured
		}
		if userID == "" {
			return ErrNotSignedIn
		}
		return withCause(o.ports.Entitlements.Purchase(ctx, userID, product), ErrEntitlement)
	})
	if err != nil {
		dispatch(state.PurchaseFailed{Failure: FailureFrom("purchase", err)})
		return
	}
	dispatch(state.PurchaseCompleted{ProductID: product})
}

func (o *Orchestrator) restore(ctx context.Context, tr Transition, dispatch Dispatcher) {
	if tr.Before.Subscription.Restoring || !tr.After.Subscription.Restoring {
		return
	}
	userID := tr.After.Session.UserID
	var premium bool
	err := o.call(ctx, tr.Intent, "restore purchases", func(ctx context.Context) error {
		if o.ports.Entitlements == nil {
			return ErrNotConfigured
		}
		if userID == "" {
			return ErrNotSignedIn
		}
		var err error
		premium, err = o.ports.Entitlements.Restore(ctx, userID)
		return withCause(err, ErrEntitlement)
	})
	if err != nil {
		dispatch(state.RestoreFailed{Failure: FailureFrom("restore purchases", err)})
		return
	}
	dispatch(state.PurchasesRestored{Premium: premium})
}

func (o *Orchestrator) seedDemo(ctx context.Context, tr Transition, dispatch Dispatcher) {
	if tr.Before.Debug.Seeding || !tr.After.Debug.Seeding {
		return
	}
	session := tr.After.Session
	weekStart := domain.DateOf(o.clock()).StartOfWeek(o.cfg.WeekStartsOn)
	err := o.call(ctx, tr.Intent, "seed demo data", func(ctx context.Context) error {
		return o.service.SeedDemoData(ctx, session.SelectedGroupID, session.UserID, weekStart)
	})
	if err != nil {
		dispatch(state.DemoDataSeedFailed{Failure: FailureFrom("seed demo data", err)})
		return
	}
	dispatch(state.DemoDataSeeded{})
	dispatch(state.LoadRecipes{})
	dispatch(state.LoadShoppingList{})
}

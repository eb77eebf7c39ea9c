package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/state"
)

var (
	testNow    = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	testMonday = domain.NewDate(2026, time.March, 2)
)

type harness struct {
	store *Store
	repo  *fakeRepo
	log   *recordingLogger

	mu      sync.Mutex
	intents []state.Intent
}

func newHarness(t *testing.T, ports Ports, cfg OrchestratorConfig, storeCfg StoreConfig) *harness {
	t.Helper()
	repo, _ := ports.Repo.(*fakeRepo)
	h := &harness{repo: repo, log: &recordingLogger{}}
	var (
		idMu sync.Mutex
		n    int
	)
	idGen := func() string {
		idMu.Lock()
		defer idMu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	if cfg.WeekStartsOn == time.Sunday {
		cfg.WeekStartsOn = time.Monday
	}
	orch := NewOrchestrator(ports, idGen, func() time.Time { return testNow }, h.log, cfg)
	h.store = NewStore(state.New(), orch, storeCfg)
	h.store.Subscribe(func(s Snapshot) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.intents = append(h.intents, s.Intent)
	})
	t.Cleanup(h.store.Close)
	return h
}

func (h *harness) do(intents ...state.Intent) state.State {
	for _, intent := range intents {
		h.store.Dispatch(intent)
		h.store.Wait()
	}
	return h.store.State()
}

func (h *harness) failure(name string) (domain.Failure, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, intent := range h.intents {
		if intent.IntentName() == name {
			return state.FailureOf(intent)
		}
	}
	return domain.Failure{}, false
}

func (h *harness) countIntent(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, intent := range h.intents {
		if intent.IntentName() == name {
			n++
		}
	}
	return n
}

func familyRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.groups["g1"] = domain.Group{ID: "g1", Name: "Family", Members: []domain.Member{
		{UserID: "u1", DisplayName: "Ana", Role: domain.RoleOwner},
		{UserID: "u2", DisplayName: "Ben", Role: domain.RoleMember},
	}}
	return repo
}

func signIn(t *testing.T, h *harness) state.State {
	t.Helper()
	s := h.do(state.AuthCompleted{UserID: "u1", DisplayName: "Ana"})
	if s.Session.Screen != state.ScreenMain {
		t.Fatalf("expected main screen, got %#v", s.Session)
	}
	return s
}

func TestAuthSeedsDefaultGroupAndLoadsGroups(t *testing.T) {
	repo := newFakeRepo()
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	s := h.do(state.AuthCompleted{UserID: "u1", DisplayName: "Ana"})
	if s.Session.Screen != state.ScreenMain || len(s.Session.Groups) != 1 {
		t.Fatalf("unexpected session %#v", s.Session)
	}
	g := s.Session.Groups[0]
	if g.Name != "Ana's family" || s.Session.SelectedGroupID != g.ID || !g.HasMember("u1") {
		t.Fatalf("unexpected group %#v", g)
	}

	h.do(state.SignedOut{}, state.AuthCompleted{UserID: "u1", DisplayName: "Ana"})
	if repo.count("CreateGroup") != 1 {
		t.Fatalf("expected seeding to run once, got %d", repo.count("CreateGroup"))
	}
}

func TestAuthSeedFailureIsSwallowed(t *testing.T) {
	repo := newFakeRepo()
	repo.createGroupErr = errors.New("disk full")
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	s := h.do(state.AuthCompleted{UserID: "u1"})
	if s.Session.Screen != state.ScreenOnboarding || s.Session.Error != "" {
		t.Fatalf("expected onboarding without an error, got %#v", s.Session)
	}
	if !h.log.has("info", "first-run seeding skipped, retrying next launch") || !h.log.has("warn", "capability call failed") {
		t.Fatalf("expected seeding failure to be logged, got %#v", h.log.entries)
	}
}

func TestGroupsLoadFailureSurfaces(t *testing.T) {
	repo := newFakeRepo()
	repo.listGroupsErr = errors.New("database is locked")
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	s := h.do(state.AuthCompleted{UserID: "u1"})
	if !strings.HasPrefix(s.Session.Error, "load groups failed") {
		t.Fatalf("unexpected session error %q", s.Session.Error)
	}
	f, ok := h.failure("session.groups_load_failed")
	if !ok || f.Cause != domain.CauseStorage {
		t.Fatalf("unexpected failure %#v", f)
	}
	if h.countIntent("session.groups_load_failed") != 1 {
		t.Fatal("expected exactly one error intent")
	}
}

func TestLoadHomeDerivesWarningsAndWeather(t *testing.T) {
	repo := familyRepo()
	for i := range 2 {
		day := domain.NewDayAssignment(testMonday.AddDays(i), "g1")
		if i == 0 {
			day = day.WithAssignee(domain.SlotDropOff, "u1").WithConfirmed(domain.SlotDropOff)
			day = day.WithAssignee(domain.SlotPickUp, "u1").WithConfirmed(domain.SlotPickUp)
		} else {
			day = day.WithAssignee(domain.SlotDropOff, "u2")
		}
		repo.assignments[day.ID] = day
	}
	school := domain.Location{Name: "School", Latitude: 52.5, Longitude: 13.4}
	weather := fakeWeather{forecasts: []domain.Weather{{Location: school, Code: 61, Summary: "rain"}}}
	h := newHarness(t, Ports{Repo: repo, Weather: weather}, OrchestratorConfig{Locations: []domain.Location{school}}, StoreConfig{})
	signIn(t, h)

	s := h.do(state.LoadHome{Today: domain.DateOf(testNow)})
	if s.Home.Loading || s.Home.WeatherLoading {
		t.Fatalf("expected home to finish loading, got %#v", s.Home)
	}
	if s.Assignments.WeekStart != testMonday || len(s.Assignments.Days) != 7 {
		t.Fatalf("unexpected assignments %#v", s.Assignments)
	}
	if len(s.Home.Warnings) != 12 {
		t.Fatalf("expected 12 warnings, got %d", len(s.Home.Warnings))
	}
	last := s.Home.Warnings[len(s.Home.Warnings)-1]
	if last.Severity != domain.SeverityUnconfirmed || last.Assignee != "Ben" || last.DayLabel != "Tuesday" {
		t.Fatalf("unexpected last warning %#v", last)
	}
	if s.Home.Warnings[0].Severity != domain.SeverityNoAssignee {
		t.Fatalf("expected no-assignee warnings first, got %#v", s.Home.Warnings[0])
	}
	if len(s.Home.Forecasts) != 1 || s.Home.Forecasts[0].Summary != "rain" {
		t.Fatalf("unexpected forecasts %#v", s.Home.Forecasts)
	}
}

func TestWeatherFailureIsRecoverable(t *testing.T) {
	repo := familyRepo()
	weather := fakeWeather{err: errors.New("dial tcp: connection refused")}
	h := newHarness(t, Ports{Repo: repo, Weather: weather}, OrchestratorConfig{Locations: []domain.Location{{Name: "Home"}}}, StoreConfig{})
	signIn(t, h)
	s := h.do(state.LoadHome{Today: domain.DateOf(testNow)})
	if s.Home.WeatherLoading || s.Home.WeatherError == "" || s.Home.Loading {
		t.Fatalf("unexpected home %#v", s.Home)
	}
	if f, _ := h.failure("home.weather_load_failed"); f.Cause != domain.CauseNetwork {
		t.Fatalf("expected network cause, got %#v", f)
	}
}

func TestSaveAssignmentRederivesWarnings(t *testing.T) {
	repo := familyRepo()
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)
	s := h.do(
		state.LoadHome{Today: domain.DateOf(testNow)},
		state.AssignDriver{Index: 2, Slot: domain.SlotDropOff, UserID: "u2"},
		state.ConfirmAssignment{Index: 2, Slot: domain.SlotDropOff},
		state.SaveAssignment{Index: 2},
	)
	if s.Assignments.Saving || repo.count("SaveAssignment") != 1 {
		t.Fatalf("unexpected assignments %#v", s.Assignments)
	}
	if len(s.Home.Warnings) != 13 {
		t.Fatalf("expected 13 warnings after confirming one slot, got %d", len(s.Home.Warnings))
	}
}

func TestScheduleLoadAndSave(t *testing.T) {
	repo := familyRepo()
	stored := domain.NewScheduleEntry(testMonday.AddDays(1), domain.Owner{GroupID: "g1", UserID: "u1"})
	stored.DropOff = domain.AvailabilityOK
	repo.schedule[stored.ID] = stored
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)

	ng := domain.AvailabilityNG
	s := h.do(state.LoadWeekSchedule{WeekStart: testMonday})
	if s.Schedule.Loading || s.Schedule.Entries[1].DropOff != domain.AvailabilityOK {
		t.Fatalf("unexpected schedule %#v", s.Schedule)
	}
	s = h.do(state.UpdateEntry{Index: 4, PickUp: &ng}, state.SaveWeekSchedule{})
	if s.Schedule.Saving || s.Schedule.Dirty || repo.count("SaveScheduleEntries") != 1 {
		t.Fatalf("unexpected schedule %#v", s.Schedule)
	}
	if len(repo.schedule) != 7 {
		t.Fatalf("expected full week persisted, got %d", len(repo.schedule))
	}
}

func TestExtractWithoutExtractorReportsNotConfigured(t *testing.T) {
	h := newHarness(t, Ports{Repo: familyRepo()}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)
	s := h.do(state.ExtractRecipe{URL: "https://example.com/soup"})
	if s.Recipe.Extracting || !strings.Contains(s.Recipe.Error, "not configured") {
		t.Fatalf("unexpected recipe state %#v", s.Recipe)
	}
	if f, _ := h.failure("recipe.extraction_failed"); f.Cause != domain.CauseNotConfigured {
		t.Fatalf("expected not_configured cause, got %#v", f)
	}
}

func TestSubstitutionApproveResavesPersistedRecipe(t *testing.T) {
	repo := familyRepo()
	extracted := domain.Recipe{
		Title:              "Porridge",
		IngredientSections: []domain.IngredientSection{{Items: []domain.Ingredient{{Name: "milk", Amount: "500 ml"}, {Name: "oats"}}}},
		StepSections:       []domain.StepSection{{Steps: []domain.Step{{Number: 1, Instruction: "Simmer."}}}},
	}
	transformer := &fakeTransformer{rewrite: func(r domain.Recipe) domain.Recipe {
		r.Title = "ignored"
		r.IngredientSections[0].Items[0].Name = "oat milk"
		return r
	}}
	h := newHarness(t, Ports{Repo: repo, Extractor: fakeExtractor{recipe: extracted}, Transformer: transformer}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)

	s := h.do(state.ExtractRecipe{URL: " https://example.com/porridge "})
	if s.Recipe.Current == nil || s.Recipe.Current.ID == "" || s.Recipe.Current.SourceURL != "https://example.com/porridge" {
		t.Fatalf("unexpected extracted recipe %#v", s.Recipe.Current)
	}
	s = h.do(state.SaveRecipe{})
	if !s.Recipe.Persisted {
		t.Fatal("expected persisted recipe")
	}
	s = h.do(state.OpenSubstitution{Target: domain.IngredientTarget(0, 0)}, state.SubmitSubstitution{Prompt: "dairy free"})
	if s.Recipe.Substitution.Phase != state.PhasePreview {
		t.Fatalf("expected preview, got %#v", s.Recipe.Substitution)
	}
	s = h.do(state.ApproveSubstitution{})

	if repo.count("SaveRecipe") != 2 {
		t.Fatalf("expected approve to re-save, got %d saves", repo.count("SaveRecipe"))
	}
	saved := repo.recipes[s.Recipe.Current.ID]
	if saved.Title != "Porridge" || saved.IngredientSections[0].Items[0].Name != "oat milk" || !saved.IngredientSections[0].Items[0].Modified {
		t.Fatalf("unexpected saved recipe %#v", saved)
	}
	if len(transformer.prompts) != 1 || transformer.prompts[0] != "dairy free" {
		t.Fatalf("unexpected prompts %v", transformer.prompts)
	}
}

func TestSubstitutionFailureReturnsToInput(t *testing.T) {
	transformer := &fakeTransformer{err: errors.New("rate limited")}
	h := newHarness(t, Ports{Repo: familyRepo(), Transformer: transformer}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)
	s := h.do(
		state.RecipeLoaded{Recipe: domain.Recipe{ID: "r1", Title: "Soup", IngredientSections: []domain.IngredientSection{{Items: []domain.Ingredient{{Name: "leek"}}}}}},
		state.OpenSubstitution{Target: domain.IngredientTarget(0, 0)},
		state.SubmitSubstitution{Prompt: "swap"},
	)
	if s.Recipe.Substitution.Phase != state.PhaseInput || s.Recipe.Substitution.Error == "" {
		t.Fatalf("unexpected workflow %#v", s.Recipe.Substitution)
	}
	if f, _ := h.failure("substitution.failed"); f.Cause != domain.CauseTransform {
		t.Fatalf("expected transform cause, got %#v", f)
	}
}

func TestShoppingMutationsPersist(t *testing.T) {
	repo := familyRepo()
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)

	h.do(state.AddShoppingItem{Item: domain.ShoppingItem{ID: "s1", Name: "eggs"}})
	if _, ok := repo.shoppingItem("s1"); !ok {
		t.Fatal("expected added item persisted")
	}
	h.do(state.ToggleShoppingItem{ID: "s1"})
	if item, _ := repo.shoppingItem("s1"); !item.Checked {
		t.Fatal("expected toggled item persisted")
	}
	s := h.do(state.ClearCheckedItems{})
	if _, ok := repo.shoppingItem("s1"); ok {
		t.Fatal("expected cleared item deleted")
	}
	if s.Shopping.Pending != 0 || len(s.Shopping.Items) != 0 {
		t.Fatalf("unexpected shopping %#v", s.Shopping)
	}
	h.do(state.RemoveShoppingItem{ID: "missing"})
	if h.countIntent("shopping.synced") != 3 {
		t.Fatalf("expected one sync per mutation, got %d", h.countIntent("shopping.synced"))
	}
}

func TestShoppingSyncFailureReleasesPending(t *testing.T) {
	repo := familyRepo()
	repo.saveShoppingErr = errors.New("disk full")
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)

	s := h.do(state.AddShoppingItem{Item: domain.ShoppingItem{ID: "s1", Name: "eggs"}})
	if s.Shopping.Pending != 0 || s.Shopping.Error == "" {
		t.Fatalf("expected failed sync to release pending with an error, got %#v", s.Shopping)
	}
	if h.countIntent("shopping.sync_failed") != 1 || h.countIntent("shopping.failed") != 0 {
		t.Fatal("expected the write failure reported as a sync failure")
	}
	if len(s.Shopping.Items) != 1 {
		t.Fatalf("expected optimistic item kept, got %#v", s.Shopping.Items)
	}
}

func TestJoinRequestApprovalReloadsGroups(t *testing.T) {
	repo := familyRepo()
	sharing := &fakeSharing{repo: repo, failFor: "p2", requests: []domain.JoinRequest{
		{ParticipantID: "p1", GroupID: "g1", Status: domain.JoinRequestPending},
		{ParticipantID: "p2", GroupID: "g1", Status: domain.JoinRequestPending},
	}}
	h := newHarness(t, Ports{Repo: repo, Sharing: sharing}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)
	before := repo.count("ListGroups")

	s := h.do(state.LoadJoinRequests{}, state.ApproveJoinRequest{ParticipantID: "p1"})
	if s.Sharing.JoinRequests[0].Status != domain.JoinRequestApproved || s.Sharing.Processing != "" {
		t.Fatalf("unexpected sharing %#v", s.Sharing)
	}
	if repo.count("ListGroups") != before+1 {
		t.Fatal("expected approval to reload groups")
	}
	s = h.do(state.RejectJoinRequest{ParticipantID: "p2"})
	if s.Sharing.Processing != "" || s.Sharing.Error == "" || s.Sharing.JoinRequests[1].Status != domain.JoinRequestPending {
		t.Fatalf("unexpected sharing %#v", s.Sharing)
	}
	if f, _ := h.failure("sharing.join_request_failed"); f.Cause != domain.CauseSharing {
		t.Fatalf("expected sharing cause, got %#v", f)
	}
}

func TestInvitationFlows(t *testing.T) {
	repo := familyRepo()
	h := newHarness(t, Ports{Repo: repo, Sharing: &fakeSharing{repo: repo}}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)

	s := h.do(state.CreateInvitation{})
	if s.Sharing.Invite.Status != state.InviteSuccess || s.Sharing.Invite.URL != "https://famboard.test/join/g1" {
		t.Fatalf("unexpected invite %#v", s.Sharing.Invite)
	}
	s = h.do(state.ReceiveInvitation{Token: "bad"}, state.AcceptInvitation{})
	if s.Sharing.Accept.Status != state.AcceptError {
		t.Fatalf("expected rejected token, got %#v", s.Sharing.Accept)
	}
	s = h.do(state.ReceiveInvitation{Token: "good"}, state.AcceptInvitation{})
	if s.Sharing.Accept.Status != state.AcceptSuccess || len(s.Session.Groups) != 2 {
		t.Fatalf("unexpected state %#v %#v", s.Sharing.Accept, s.Session.Groups)
	}
}

func TestEntitlements(t *testing.T) {
	ent := &fakeEntitlements{premium: map[string]bool{}}
	h := newHarness(t, Ports{Repo: familyRepo(), Entitlements: ent}, OrchestratorConfig{}, StoreConfig{})
	signIn(t, h)
	s := h.do(state.CheckEntitlement{})
	if s.Subscription.Premium || !s.Subscription.Checked {
		t.Fatalf("unexpected subscription %#v", s.Subscription)
	}
	s = h.do(state.Purchase{ProductID: "famboard.premium"}, state.RestorePurchases{})
	if !s.Subscription.Premium || s.Subscription.Restoring || len(ent.purchases) != 1 {
		t.Fatalf("unexpected subscription %#v", s.Subscription)
	}
}

func TestSeedDemoData(t *testing.T) {
	repo := familyRepo()
	h := newHarness(t, Ports{Repo: repo}, OrchestratorConfig{}, StoreConfig{DebugEnabled: true})
	signIn(t, h)
	s := h.do(state.SeedDemoData{})
	if !s.Debug.Seeded || s.Debug.Seeding {
		t.Fatalf("unexpected debug %#v", s.Debug)
	}
	if len(s.Recipe.Recipes) != 1 || len(s.Recipe.Categories) != 1 || len(s.Shopping.Items) != 2 {
		t.Fatalf("expected reloaded demo data, got %d recipes and %d items", len(s.Recipe.Recipes), len(s.Shopping.Items))
	}
	s = h.do(state.LoadWeekAssignments{WeekStart: testMonday})
	if s.Assignments.Days[0].DropOffUserID != "u1" || !s.Assignments.Days[0].DropOffConfirmed {
		t.Fatalf("unexpected seeded assignment %#v", s.Assignments.Days[0])
	}
}

func TestClassifyAndFailureFrom(t *testing.T) {
	cases := []struct {
		err  error
		want domain.FailureCause
	}{
		{ErrNotConfigured, domain.CauseNotConfigured},
		{fmt.Errorf("wrap: %w", ErrFetchFailed), domain.CauseNetwork},
		{withCause(errors.New("locked"), ErrStorage), domain.CauseStorage},
		{withCause(ErrNotConfigured, ErrStorage), domain.CauseNotConfigured},
		{domain.ErrInvalidTitle, domain.CauseInvalid},
		{errors.New("mystery"), domain.CauseUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	f := FailureFrom("load groups", ErrNotConfigured)
	if f.Cause != domain.CauseNotConfigured || !strings.HasPrefix(f.Message, "load groups is not available") {
		t.Fatalf("unexpected failure %#v", f)
	}
}

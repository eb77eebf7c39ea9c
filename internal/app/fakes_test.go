package app

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/hylla/famboard/internal/domain"
)

type fakeRepo struct {
	mu          sync.Mutex
	groups      map[string]domain.Group
	schedule    map[string]domain.DayScheduleEntry
	assignments map[string]domain.DayAssignment
	recipes     map[string]domain.Recipe
	categories  map[string]domain.Category
	shopping    map[string]domain.ShoppingItem
	calls       map[string]int

	createGroupErr  error
	listGroupsErr   error
	saveRecipeErr   error
	saveShoppingErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		groups:      map[string]domain.Group{},
		schedule:    map[string]domain.DayScheduleEntry{},
		assignments: map[string]domain.DayAssignment{},
		recipes:     map[string]domain.Recipe{},
		categories:  map[string]domain.Category{},
		shopping:    map[string]domain.ShoppingItem{},
		calls:       map[string]int{},
	}
}

func (f *fakeRepo) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRepo) ListGroups(_ context.Context, userID string) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListGroups"]++
	if f.listGroupsErr != nil {
		return nil, f.listGroupsErr
	}
	out := make([]domain.Group, 0)
	for _, g := range f.groups {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateGroup(_ context.Context, g domain.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateGroup"]++
	if f.createGroupErr != nil {
		return f.createGroupErr
	}
	f.groups[g.ID] = g
	return nil
}

func (f *fakeRepo) ListScheduleEntries(_ context.Context, owner domain.Owner, from, to domain.Date) ([]domain.DayScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DayScheduleEntry, 0)
	for _, e := range f.schedule {
		if e.RecordOwner() == owner && !e.Date.Before(from) && !to.Before(e.Date) {
			out = append(out, e)
		}
	}
	domain.SortByDate(out)
	return out, nil
}

func (f *fakeRepo) SaveScheduleEntries(_ context.Context, entries []domain.DayScheduleEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SaveScheduleEntries"]++
	for _, e := range entries {
		f.schedule[e.ID] = e
	}
	return nil
}

func (f *fakeRepo) ListAssignments(_ context.Context, groupID string, from, to domain.Date) ([]domain.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListAssignments"]++
	out := make([]domain.DayAssignment, 0)
	for _, a := range f.assignments {
		if a.GroupID == groupID && !a.Date.Before(from) && !to.Before(a.Date) {
			out = append(out, a)
		}
	}
	domain.SortByDate(out)
	return out, nil
}

func (f *fakeRepo) SaveAssignment(_ context.Context, a domain.DayAssignment) (domain.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SaveAssignment"]++
	f.assignments[a.ID] = a
	return a, nil
}

func (f *fakeRepo) ListRecipes(_ context.Context, _ string) ([]domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Recipe, 0, len(f.recipes))
	for _, r := range f.recipes {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Recipe) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *fakeRepo) SaveRecipe(_ context.Context, _ string, r domain.Recipe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SaveRecipe"]++
	if f.saveRecipeErr != nil {
		return f.saveRecipeErr
	}
	f.recipes[r.ID] = r.Clone()
	return nil
}

func (f *fakeRepo) DeleteRecipe(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRepo) ListCategories(_ context.Context, _ string) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) SaveCategory(_ context.Context, _ string, c domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[c.ID] = c
	return nil
}

func (f *fakeRepo) ListShoppingItems(_ context.Context, _ string) ([]domain.ShoppingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ShoppingItem, 0, len(f.shopping))
	for _, item := range f.shopping {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeRepo) SaveShoppingItems(_ context.Context, _ string, items []domain.ShoppingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveShoppingErr != nil {
		return f.saveShoppingErr
	}
	for _, item := range items {
		f.shopping[item.ID] = item
	}
	return nil
}

func (f *fakeRepo) DeleteShoppingItems(_ context.Context, _ string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.shopping, id)
	}
	return nil
}

func (f *fakeRepo) shoppingItem(id string) (domain.ShoppingItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.shopping[id]
	return item, ok
}

type fakeExtractor struct {
	recipe domain.Recipe
	err    error
}

func (f fakeExtractor) Extract(context.Context, string) (domain.Recipe, error) {
	return f.recipe, f.err
}

type fakeTransformer struct {
	mu      sync.Mutex
	prompts []string
	rewrite func(domain.Recipe) domain.Recipe
	err     error
}

func (f *fakeTransformer) Transform(_ context.Context, _ domain.SubstitutionTarget, prompt string, r domain.Recipe) (domain.Recipe, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return domain.Recipe{}, f.err
	}
	return f.rewrite(r.Clone()), nil
}

type fakeWeather struct {
	forecasts []domain.Weather
	err       error
}

func (f fakeWeather) Fetch(context.Context, []domain.Location, domain.Date) ([]domain.Weather, error) {
	return f.forecasts, f.err
}

type fakeSharing struct {
	mu       sync.Mutex
	repo     *fakeRepo
	requests []domain.JoinRequest
	failFor  string
}

func (f *fakeSharing) CreateInvitation(_ context.Context, groupID, _ string) (string, error) {
	return "https://famboard.test/join/" + groupID, nil
}

func (f *fakeSharing) AcceptInvitation(_ context.Context, token, userID, displayName string) (domain.Group, error) {
	if token != "good" {
		return domain.Group{}, ErrInvalidInvitation
	}
	g := domain.Group{ID: "g-invited", Name: "Carpool", Members: []domain.Member{{UserID: userID, DisplayName: displayName, Role: domain.RoleMember}}}
	if err := f.repo.CreateGroup(context.Background(), g); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (f *fakeSharing) ListJoinRequests(context.Context, string) ([]domain.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests), nil
}

func (f *fakeSharing) ApproveJoinRequest(_ context.Context, _ string, participantID string) error {
	if participantID == f.failFor {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeSharing) RejectJoinRequest(_ context.Context, _ string, participantID string) error {
	if participantID == f.failFor {
		return errors.New("boom")
	}
	return nil
}

type fakeEntitlements struct {
	mu        sync.Mutex
	premium   map[string]bool
	purchases []string
}

func (f *fakeEntitlements) IsPremium(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.premium[userID], nil
}

func (f *fakeEntitlements) Purchase(_ context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases = append(f.purchases, productID)
	f.premium[userID] = true
	return nil
}

func (f *fakeEntitlements) Restore(ctx context.Context, userID string) (bool, error) {
	return f.IsPremium(ctx, userID)
}

type logEntry struct {
	level   string
	msg     string
	keyvals []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

func (l *recordingLogger) Debug(msg string, keyvals ...any) { l.add("debug", msg, keyvals) }
func (l *recordingLogger) Info(msg string, keyvals ...any)  { l.add("info", msg, keyvals) }
func (l *recordingLogger) Warn(msg string, keyvals ...any)  { l.add("warn", msg, keyvals) }
func (l *recordingLogger) Error(msg string, keyvals ...any) { l.add("error", msg, keyvals) }

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

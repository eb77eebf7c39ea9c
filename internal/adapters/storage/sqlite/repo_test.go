package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
)

var testNow = time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "famboard.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	repo.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func createTestGroup(t *testing.T, repo *Repository, id, ownerID string) domain.Group {
	t.Helper()
	group, err := domain.NewGroup(id, "Family "+id, ownerID, "Owner "+ownerID, testNow)
	if err != nil {
		t.Fatalf("NewGroup() error = %v", err)
	}
	if err := repo.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	return group
}

func TestRepository_GroupsAndMembers(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	createTestGroup(t, repo, "g2", "u2")

	groups, err := repo.ListGroups(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 1 || groups[0].ID != "g1" || !groups[0].CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected groups %#v", groups)
	}
	if len(groups[0].Members) != 1 || groups[0].Members[0].Role != domain.RoleOwner || groups[0].Members[0].DisplayName != "Owner u1" {
		t.Fatalf("unexpected members %#v", groups[0].Members)
	}
	if err := repo.CreateGroup(ctx, groups[0]); err == nil {
		t.Fatal("expected duplicate group insert to fail")
	}
	if _, err := repo.GetGroup(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_ScheduleRoundTripAndRange(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	owner := domain.Owner{GroupID: "g1", UserID: "u1"}
	monday := domain.NewDate(2026, time.March, 2)

	week := domain.ReconcileScheduleWeek(monday, owner, nil)
	week[0].DropOff = domain.AvailabilityOK
	week[3].PickUp = domain.AvailabilityNG
	next := domain.NewScheduleEntry(monday.AddDays(7), owner)
	if err := repo.SaveScheduleEntries(ctx, append(week, next)); err != nil {
		t.Fatalf("SaveScheduleEntries() error = %v", err)
	}
	week[0].DropOff = domain.AvailabilityNG
	if err := repo.SaveScheduleEntries(ctx, week[:1]); err != nil {
		t.Fatalf("SaveScheduleEntries() update error = %v", err)
	}

	loaded, err := repo.ListScheduleEntries(ctx, owner, monday, monday.AddDays(6))
	if err != nil {
		t.Fatalf("ListScheduleEntries() error = %v", err)
	}
	if len(loaded) != 7 {
		t.Fatalf("expected 7 entries in range, got %d", len(loaded))
	}
	if loaded[0] != week[0] || loaded[3].PickUp != domain.AvailabilityNG {
		t.Fatalf("unexpected entries %#v", loaded)
	}
	other, err := repo.ListScheduleEntries(ctx, domain.Owner{GroupID: "g1", UserID: "u2"}, monday, monday.AddDays(6))
	if err != nil || len(other) != 0 {
		t.Fatalf("expected no entries for another member, got %#v (%v)", other, err)
	}
}

func TestRepository_AssignmentsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	day := domain.NewDayAssignment(domain.NewDate(2026, time.March, 3), "g1").WithAssignee(domain.SlotDropOff, "u1")

	saved, err := repo.SaveAssignment(ctx, day)
	if err != nil {
		t.Fatalf("SaveAssignment() error = %v", err)
	}
	if saved != day {
		t.Fatalf("expected stored row to match, got %#v", saved)
	}
	saved, err = repo.SaveAssignment(ctx, day.WithConfirmed(domain.SlotDropOff).WithAssignee(domain.SlotPickUp, "u2"))
	if err != nil {
		t.Fatalf("SaveAssignment() update error = %v", err)
	}
	if !saved.DropOffConfirmed || saved.PickUpUserID != "u2" || saved.PickUpConfirmed {
		t.Fatalf("unexpected update %#v", saved)
	}

	days, err := repo.ListAssignments(ctx, "g1", domain.NewDate(2026, time.March, 2), domain.NewDate(2026, time.March, 8))
	if err != nil {
		t.Fatalf("ListAssignments() error = %v", err)
	}
	if len(days) != 1 || days[0] != saved {
		t.Fatalf("unexpected assignments %#v", days)
	}
}

func TestRepository_RecipesCategoriesAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	recipe, err := domain.NewRecipe(domain.RecipeInput{
		ID:        "r1",
		Title:     "Pancakes",
		SourceURL: "https://example.com/pancakes",
		IngredientSections: []domain.IngredientSection{{
			Title: "Batter",
			Items: []domain.Ingredient{{Name: "flour", Amount: "200 g"}, {Name: "milk"}},
		}},
		StepSections: []domain.StepSection{{Steps: []domain.Step{{Instruction: "Whisk."}, {Instruction: "Fry."}}}},
	}, testNow)
	if err != nil {
		t.Fatalf("NewRecipe() error = %v", err)
	}
	if err := repo.SaveRecipe(ctx, "g1", recipe); err != nil {
		t.Fatalf("SaveRecipe() error = %v", err)
	}
	recipe.Title = "Fluffy pancakes"
	recipe.IngredientSections[0].Items[1].Name = "oat milk"
	recipe.IngredientSections[0].Items[1].Modified = true
	if err := repo.SaveRecipe(ctx, "g1", recipe); err != nil {
		t.Fatalf("SaveRecipe() update error = %v", err)
	}
	if err := repo.SaveCategory(ctx, "g1", domain.Category{ID: "c1", Name: "Breakfast", RecipeIDs: []string{"r1"}}); err != nil {
		t.Fatalf("SaveCategory() error = %v", err)
	}

	recipes, err := repo.ListRecipes(ctx, "g1")
	if err != nil {
		t.Fatalf("ListRecipes() error = %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(recipes))
	}
	got := recipes[0]
	if got.Title != "Fluffy pancakes" || got.SourceURL != recipe.SourceURL || !got.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected recipe %#v", got)
	}
	if item := got.IngredientSections[0].Items[1]; item.Name != "oat milk" || !item.Modified {
		t.Fatalf("unexpected ingredient %#v", item)
	}
	if got.StepSections[0].Steps[1].Number != 2 {
		t.Fatalf("expected step numbers to survive, got %#v", got.StepSections[0].Steps)
	}

	if err := repo.DeleteRecipe(ctx, "g1", "r1"); err != nil {
		t.Fatalf("DeleteRecipe() error = %v", err)
	}
	if err := repo.DeleteRecipe(ctx, "g1", "r1"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	categories, err := repo.ListCategories(ctx, "g1")
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 1 || len(categories[0].RecipeIDs) != 0 {
		t.Fatalf("expected deleted recipe dropped from categories, got %#v", categories)
	}
}

func TestRepository_ShoppingItems(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	items := []domain.ShoppingItem{{ID: "s2", Name: "eggs"}, {ID: "s1", Name: "bread", Amount: "1"}}
	if err := repo.SaveShoppingItems(ctx, "g1", items); err != nil {
		t.Fatalf("SaveShoppingItems() error = %v", err)
	}
	items[0].Checked = true
	if err := repo.SaveShoppingItems(ctx, "g1", items[:1]); err != nil {
		t.Fatalf("SaveShoppingItems() update error = %v", err)
	}

	loaded, err := repo.ListShoppingItems(ctx, "g1")
	if err != nil {
		t.Fatalf("ListShoppingItems() error = %v", err)
	}
	if len(loaded) != 2 || loaded[0] != items[0] || loaded[1] != items[1] {
		t.Fatalf("expected insertion order with updates, got %#v", loaded)
	}
	if err := repo.DeleteShoppingItems(ctx, "g1", []string{"s2", "missing"}); err != nil {
		t.Fatalf("DeleteShoppingItems() error = %v", err)
	}
	loaded, _ = repo.ListShoppingItems(ctx, "g1")
	if len(loaded) != 1 || loaded[0].ID != "s1" {
		t.Fatalf("unexpected items after delete %#v", loaded)
	}
}

func TestSharing_InvitationsAndJoinRequests(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	sharing := NewSharing(repo, "https://famboard.test/join/")
	sharing.token = func() string { return "tok-1" }

	if _, err := sharing.CreateInvitation(ctx, "g1", "stranger"); !errors.Is(err, app.ErrSharing) {
		t.Fatalf("expected non-members to be refused, got %v", err)
	}
	link, err := sharing.CreateInvitation(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}
	if link != "https://famboard.test/join/tok-1" {
		t.Fatalf("unexpected link %q", link)
	}

	group, err := sharing.AcceptInvitation(ctx, link, "u2", "Ben")
	if err != nil {
		t.Fatalf("AcceptInvitation() error = %v", err)
	}
	if !group.HasMember("u2") || len(group.Members) != 2 {
		t.Fatalf("unexpected group %#v", group)
	}
	if _, err := sharing.AcceptInvitation(ctx, "nope", "u3", ""); !errors.Is(err, app.ErrInvalidInvitation) {
		t.Fatalf("expected ErrInvalidInvitation, got %v", err)
	}

	if _, err := sharing.RequestJoin(ctx, "tok-1", "p1", "Pia"); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	if _, err := sharing.RequestJoin(ctx, "tok-1", "p2", "Per"); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	if err := sharing.ApproveJoinRequest(ctx, "g1", "p1"); err != nil {
		t.Fatalf("ApproveJoinRequest() error = %v", err)
	}
	if err := sharing.RejectJoinRequest(ctx, "g1", "p2"); err != nil {
		t.Fatalf("RejectJoinRequest() error = %v", err)
	}
	if err := sharing.ApproveJoinRequest(ctx, "g1", "p2"); !errors.Is(err, app.ErrSharing) {
		t.Fatalf("expected resolved requests to be final, got %v", err)
	}

	requests, err := sharing.ListJoinRequests(ctx, "g1")
	if err != nil {
		t.Fatalf("ListJoinRequests() error = %v", err)
	}
	if len(requests) != 2 || requests[0].Status != domain.JoinRequestApproved || requests[1].Status != domain.JoinRequestRejected {
		t.Fatalf("unexpected requests %#v", requests)
	}
	groups, _ := repo.ListGroups(ctx, "p1")
	if len(groups) != 1 || groups[0].DisplayNames()["p1"] != "Pia" {
		t.Fatalf("expected approved participant to become a member, got %#v", groups)
	}

	if err := sharing.RevokeInvitation(ctx, link); err != nil {
		t.Fatalf("RevokeInvitation() error = %v", err)
	}
	if _, err := sharing.AcceptInvitation(ctx, "tok-1", "u9", ""); !errors.Is(err, app.ErrInvalidInvitation) {
		t.Fatalf("expected revoked token to be refused, got %v", err)
	}
}

func TestSharing_RequiresBaseURL(t *testing.T) {
	repo := openTestRepo(t)
	createTestGroup(t, repo, "g1", "u1")
	if _, err := NewSharing(repo, " ").CreateInvitation(context.Background(), "g1", "u1"); !errors.Is(err, app.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestEntitlements_PurchaseAndRestore(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	ent := NewEntitlements(repo, []string{" famboard.premium ", "famboard.premium"})

	premium, err := ent.IsPremium(ctx, "u1")
	if err != nil || premium {
		t.Fatalf("expected no entitlement yet, got %v (%v)", premium, err)
	}
	if err := ent.Purchase(ctx, "u1", "famboard.gold"); !errors.Is(err, app.ErrEntitlement) {
		t.Fatalf("expected unknown product error, got %v", err)
	}
	for range 2 {
		if err := ent.Purchase(ctx, "u1", "famboard.premium"); err != nil {
			t.Fatalf("Purchase() error = %v", err)
		}
	}
	restored, err := ent.Restore(ctx, "u1")
	if err != nil || !restored {
		t.Fatalf("expected restore to find the purchase, got %v (%v)", restored, err)
	}
}

func TestOpenInMemoryAndReopen(t *testing.T) {
	mem, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	if err := mem.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	_ = mem.Close()

	path := filepath.Join(t.TempDir(), "nested", "famboard.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = first.Close()
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	_ = second.Close()
	if _, err := Open("  "); err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected path error, got %v", err)
	}
}

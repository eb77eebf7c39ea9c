package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Envelope is the wire form of an intent.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CatalogEntry describes one dispatchable intent.
type CatalogEntry struct {
	Name  string `json:"name"`
	Debug bool   `json:"debug,omitempty"`
}

type catalogItem struct {
	entry  CatalogEntry
	decode func(json.RawMessage) (Intent, error)
}

func entry[T Intent]() catalogItem {
	var zero T
	return catalogItem{
		entry: CatalogEntry{Name: zero.IntentName(), Debug: IsDebug(zero)},
		decode: func(raw json.RawMessage) (Intent, error) {
			var v T
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
				return v, nil
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", zero.IntentName(), err)
			}
			return v, nil
		},
	}
}

var catalog = buildCatalog(
	entry[AuthCompleted](),
	entry[SignedOut](),
	entry[GroupsLoaded](),
	entry[GroupsLoadFailed](),
	entry[SelectGroup](),

	entry[LoadWeekSchedule](),
	entry[WeekScheduleLoaded](),
	entry[WeekScheduleLoadFailed](),
	entry[UpdateEntry](),
	entry[SaveWeekSchedule](),
	entry[WeekScheduleSaved](),
	entry[WeekScheduleSaveFailed](),

	entry[LoadWeekAssignments](),
	entry[WeekAssignmentsLoaded](),
	entry[WeekAssignmentsLoadFailed](),
	entry[AssignDriver](),
	entry[ConfirmAssignment](),
	entry[SaveAssignment](),
	entry[AssignmentSaved](),
	entry[AssignmentSaveFailed](),

	entry[LoadHome](),
	entry[WarningsDerived](),
	entry[WeatherLoaded](),
	entry[WeatherLoadFailed](),

	entry[CreateInvitation](),
	entry[InvitationCreated](),
	entry[InvitationCreateFailed](),
	entry[ResetInvitation](),
	entry[ReceiveInvitation](),
	entry[AcceptInvitation](),
	entry[InvitationAccepted](),
	entry[InvitationAcceptFailed](),
	entry[DismissInvitation](),
	entry[LoadJoinRequests](),
	entry[JoinRequestsLoaded](),
	entry[JoinRequestsLoadFailed](),
	entry[ApproveJoinRequest](),
	entry[RejectJoinRequest](),
	entry[JoinRequestResolved](),
	entry[JoinRequestFailed](),

	entry[ExtractRecipe](),
	entry[RecipeLoaded](),
	entry[RecipeExtractionFailed](),
	entry[SaveRecipe](),
	entry[RecipeSaved](),
	entry[RecipeSaveFailed](),
	entry[LoadRecipes](),
	entry[RecipesLoaded](),
	entry[RecipesLoadFailed](),
	entry[SelectRecipe](),
	entry[DeleteRecipe](),
	entry[RecipeDeleted](),
	entry[RecipeDeleteFailed](),
	entry[SearchRecipes](),
	entry[SelectCategory](),

	entry[OpenSubstitution](),
	entry[SubmitSubstitution](),
	entry[SubstitutionPreviewReady](),
	entry[SubstitutionFailed](),
	entry[ApproveSubstitution](),
	entry[RejectSubstitution](),
	entry[RequestAdditionalSubstitution](),
	entry[CloseSubstitution](),

	entry[LoadShoppingList](),
	entry[ShoppingListLoaded](),
	entry[ShoppingListFailed](),
	entry[AddShoppingItem](),
	entry[AddRecipeToShoppingList](),
	entry[ToggleShoppingItem](),
	entry[RemoveShoppingItem](),
	entry[ClearCheckedItems](),
	entry[ShoppingListSynced](),
	entry[ShoppingSyncFailed](),

	entry[CheckEntitlement](),
	entry[EntitlementChecked](),
	entry[EntitlementCheckFailed](),
	entry[Purchase](),
	entry[PurchaseCompleted](),
	entry[PurchaseFailed](),
	entry[RestorePurchases](),
	entry[PurchasesRestored](),
	entry[RestoreFailed](),

	entry[SetDebugLogging](),
	entry[ClearDebugLog](),
	entry[SeedDemoData](),
	entry[DemoDataSeeded](),
	entry[DemoDataSeedFailed](),
)

func buildCatalog(items ...catalogItem) map[string]catalogItem {
	out := make(map[string]catalogItem, len(items))
	for _, item := range items {
		if _, dup := out[item.entry.Name]; dup {
			panic("duplicate intent name " + item.entry.Name)
		}
		out[item.entry.Name] = item
	}
	return out
}

// Catalog lists every intent sorted by name; debug intents are omitted unless includeDebug.
func Catalog(includeDebug bool) []CatalogEntry {
	out := make([]CatalogEntry, 0, len(catalog))
	for _, item := range catalog {
		if item.entry.Debug && !includeDebug {
			continue
		}
		out = append(out, item.entry)
	}
	slices.SortFunc(out, func(a, b CatalogEntry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// DecodeEnvelope resolves env to a concrete intent.
func DecodeEnvelope(env Envelope) (Intent, error) {
	name := strings.TrimSpace(env.Type)
	item, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
	}
	return item.decode(env.Payload)
}

// Decode parses a JSON envelope into an intent.
func Decode(data []byte) (Intent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode intent envelope: %w", err)
	}
	return DecodeEnvelope(env)
}

// Encode renders intent as a JSON envelope.
func Encode(intent Intent) ([]byte, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnknownIntent)
	}
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", intent.IntentName(), err)
	}
	return json.Marshal(Envelope{Type: intent.IntentName(), Payload: payload})
}

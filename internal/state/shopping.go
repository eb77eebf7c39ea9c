package state

import (
	"slices"
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// ShoppingState is the group's shared shopping list.
type ShoppingState struct {
	Items   []domain.ShoppingItem `json:"items"`
	Loading bool                  `json:"loading"`
	Pending int                   `json:"pending"`
	Error   string                `json:"error,omitempty"`
}

// LoadShoppingList loads the group's list.
type LoadShoppingList struct{}

// ShoppingListLoaded delivers the stored list.
type ShoppingListLoaded struct {
	Items []domain.ShoppingItem `json:"items"`
}

// ShoppingListFailed reports a failed load.
type ShoppingListFailed struct {
	Failure domain.Failure `json:"failure"`
}

// ShoppingSyncFailed reports that one mutation could not be persisted.
type ShoppingSyncFailed struct {
	Failure domain.Failure `json:"failure"`
}

// AddShoppingItem appends one item.
type AddShoppingItem struct {
	Item domain.ShoppingItem `json:"item"`
}

// AddRecipeToShoppingList appends a recipe's ingredients.
type AddRecipeToShoppingList struct {
	Items []domain.ShoppingItem `json:"items"`
}

// ToggleShoppingItem flips an item's checked flag.
type ToggleShoppingItem struct {
	ID string `json:"id"`
}

// RemoveShoppingItem drops one item.
type RemoveShoppingItem struct {
	ID string `json:"id"`
}

// ClearCheckedItems drops every checked item.
type ClearCheckedItems struct{}

// ShoppingListSynced reports that one mutation was persisted.
type ShoppingListSynced struct{}

func (LoadShoppingList) IntentName() string        { return "shopping.load" }
func (ShoppingListLoaded) IntentName() string      { return "shopping.loaded" }
func (ShoppingListFailed) IntentName() string      { return "shopping.failed" }
func (AddShoppingItem) IntentName() string         { return "shopping.add_item" }
func (AddRecipeToShoppingList) IntentName() string { return "shopping.add_recipe" }
func (ToggleShoppingItem) IntentName() string      { return "shopping.toggle_item" }
func (RemoveShoppingItem) IntentName() string      { return "shopping.remove_item" }
func (ClearCheckedItems) IntentName() string       { return "shopping.clear_checked" }
func (ShoppingListSynced) IntentName() string      { return "shopping.synced" }
func (ShoppingSyncFailed) IntentName() string      { return "shopping.sync_failed" }

func (LoadShoppingList) shoppingIntent()        {}
func (ShoppingListLoaded) shoppingIntent()      {}
func (ShoppingListFailed) shoppingIntent()      {}
func (AddShoppingItem) shoppingIntent()         {}
func (AddRecipeToShoppingList) shoppingIntent() {}
func (ToggleShoppingItem) shoppingIntent()      {}
func (RemoveShoppingItem) shoppingIntent()      {}
func (ClearCheckedItems) shoppingIntent()       {}
func (ShoppingListSynced) shoppingIntent()      {}
func (ShoppingSyncFailed) shoppingIntent()      {}

func (i ShoppingListFailed) failure() domain.Failure { return i.Failure }
func (i ShoppingSyncFailed) failure() domain.Failure { return i.Failure }

// Item returns the item with id.
func (s ShoppingState) Item(id string) (domain.ShoppingItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.ShoppingItem{}, false
}

// ReduceShopping applies a shopping intent. Pending counts mutations awaiting persistence.
func ReduceShopping(s ShoppingState, intent ShoppingIntent) ShoppingState {
	switch i := intent.(type) {
	case LoadShoppingList:
		s.Loading = true
		s.Error = ""
		return s
	case ShoppingListLoaded:
		s.Items = slices.Clone(i.Items)
		s.Loading = false
		return s
	case ShoppingListFailed:
		if !s.Loading {
			return s
		}
		s.Loading = false
		s.Error = i.Failure.Message
		return s
	case AddShoppingItem:
		items, added := appendItems(s.Items, []domain.ShoppingItem{i.Item})
		if added == 0 {
			return s
		}
		s.Items = items
		s.Pending++
		return s
	case AddRecipeToShoppingList:
		items, added := appendItems(s.Items, i.Items)
		if added == 0 {
			return s
		}
		s.Items = items
		s.Pending++
		return s
	case ToggleShoppingItem:
		idx := slices.IndexFunc(s.Items, func(item domain.ShoppingItem) bool { return item.ID == i.ID })
		if idx < 0 {
			return s
		}
		item := s.Items[idx]
		item.Checked = !item.Checked
		s.Items = replaceAt(s.Items, idx, item)
		s.Pending++
		return s
	case RemoveShoppingItem:
		if _, ok := s.Item(i.ID); !ok {
			return s
		}
		s.Items = slices.DeleteFunc(slices.Clone(s.Items), func(item domain.ShoppingItem) bool { return item.ID == i.ID })
		s.Pending++
		return s
	case ClearCheckedItems:
		if !slices.ContainsFunc(s.Items, func(item domain.ShoppingItem) bool { return item.Checked }) {
			return s
		}
		s.Items = slices.DeleteFunc(slices.Clone(s.Items), func(item domain.ShoppingItem) bool { return item.Checked })
		s.Pending++
		return s
	case ShoppingListSynced:
		if s.Pending > 0 {
			s.Pending--
		}
		return s
	case ShoppingSyncFailed:
		if s.Pending > 0 {
			s.Pending--
		}
		s.Error = i.Failure.Message
		return s
	}
	return s
}

// appendItems adds valid items whose ids are not yet on the list.
func appendItems(items, add []domain.ShoppingItem) ([]domain.ShoppingItem, int) {
	out := slices.Clone(items)
	added := 0
	for _, item := range add {
		item.ID = strings.TrimSpace(item.ID)
		item.Name = strings.TrimSpace(item.Name)
		if item.ID == "" || item.Name == "" {
			continue
		}
		if slices.ContainsFunc(out, func(existing domain.ShoppingItem) bool { return existing.ID == item.ID }) {
			continue
		}
		out = append(out, item)
		added++
	}
	return out, added
}

package domain

import "strings"

// ShoppingItem is one entry on the shared shopping list.
type ShoppingItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount,omitempty"`
	Checked  bool   `json:"checked"`
	RecipeID string `json:"recipe_id,omitempty"`
}

// NewShoppingItem validates a free-standing item.
func NewShoppingItem(id, name, amount string) (ShoppingItem, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return ShoppingItem{}, ErrInvalidID
	}
	if name == "" {
		return ShoppingItem{}, ErrInvalidName
	}
	return ShoppingItem{ID: id, Name: name, Amount: strings.TrimSpace(amount)}, nil
}

// ShoppingItemsFromRecipe lists every ingredient of r as an unchecked item, ids drawn from newID.
func ShoppingItemsFromRecipe(r Recipe, newID func() string) []ShoppingItem {
	out := make([]ShoppingItem, 0)
	for _, section := range r.IngredientSections {
		for _, item := range section.Items {
			out = append(out, ShoppingItem{
				ID:       newID(),
				Name:     item.Name,
				Amount:   item.Amount,
				RecipeID: r.ID,
			})
		}
	}
	return out
}

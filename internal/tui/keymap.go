package tui

import (
	"slices"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	nextTab    key.Binding
	prevTab    key.Binding
	nextGroup  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	back       key.Binding
	submit     key.Binding

	prevWeek     key.Binding
	nextWeek     key.Binding
	cycleDriver  key.Binding
	confirmSlot  key.Binding
	availability key.Binding
	saveDay      key.Binding
	saveSchedule key.Binding

	search      key.Binding
	category    key.Binding
	extract     key.Binding
	openRecipe  key.Binding
	saveRecipe  key.Binding
	toShopping  key.Binding
	deleteItem  key.Binding
	substitute  key.Binding
	approveSub  key.Binding
	rejectSub   key.Binding
	anotherSub  key.Binding
	newItem     key.Binding
	toggleItem  key.Binding
	clearItems  key.Binding
	invite      key.Binding
	copyInvite  key.Binding
	acceptToken key.Binding
	approveJoin key.Binding
	rejectJoin  key.Binding
	purchase    key.Binding
	restore     key.Binding
	debugLog    key.Binding
	seedDemo    key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		nextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous tab")),
		nextGroup:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "switch group")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "slot left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "slot right")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),

		prevWeek:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous week")),
		nextWeek:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
		cycleDriver:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "assign driver")),
		confirmSlot:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "confirm")),
		availability: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "my availability")),
		saveDay:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save day")),
		saveSchedule: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save my week")),

		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		category:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "next category")),
		extract:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "import url")),
		openRecipe:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		saveRecipe:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save recipe")),
		toShopping:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add to shopping")),
		deleteItem:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		substitute:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "substitute")),
		approveSub:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "apply change")),
		rejectSub:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "discard change")),
		anotherSub:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "ask again")),
		newItem:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new item")),
		toggleItem:  key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space", "check")),
		clearItems:  key.NewBinding(key.WithKeys("C", "shift+c"), key.WithHelp("C", "clear checked")),
		invite:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		copyInvite:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		acceptToken: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "join with token")),
		approveJoin: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve request")),
		rejectJoin:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reject request")),
		purchase:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "subscribe")),
		restore:     key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "restore purchases")),
		debugLog:    key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "debug logging")),
		seedDemo:    key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "seed demo data")),
	}
}

// tabHelp adapts the bindings relevant to one tab to help.KeyMap.
type tabHelp struct {
	short []key.Binding
	full  [][]key.Binding
}

// ShortHelp handles short help.
func (h tabHelp) ShortHelp() []key.Binding { return h.short }

// FullHelp handles full help.
func (h tabHelp) FullHelp() [][]key.Binding { return h.full }

// helpFor returns the bindings shown for tab.
func (k keyMap) helpFor(t tab, recipeOpen, debug bool) tabHelp {
	global := []key.Binding{k.nextTab, k.prevTab, k.nextGroup, k.reload, k.toggleHelp, k.quit}
	var local []key.Binding
	switch t {
	case tabWeek:
		local = []key.Binding{k.moveUp, k.moveDown, k.moveLeft, k.moveRight, k.cycleDriver, k.confirmSlot, k.saveDay, k.availability, k.saveSchedule, k.prevWeek, k.nextWeek}
	case tabRecipes:
		if recipeOpen {
			local = []key.Binding{k.moveUp, k.moveDown, k.substitute, k.approveSub, k.rejectSub, k.anotherSub, k.saveRecipe, k.toShopping, k.back}
		} else {
			local = []key.Binding{k.moveUp, k.moveDown, k.openRecipe, k.search, k.category, k.extract, k.deleteItem}
		}
	case tabShopping:
		local = []key.Binding{k.moveUp, k.moveDown, k.newItem, k.toggleItem, k.deleteItem, k.clearItems}
	case tabFamily:
		local = []key.Binding{k.moveUp, k.moveDown, k.invite, k.copyInvite, k.acceptToken, k.approveJoin, k.rejectJoin, k.purchase, k.restore}
		if debug {
			local = append(local, k.debugLog, k.seedDemo)
		}
	}
	short := append(slices.Clone(local), k.nextTab, k.quit)
	if len(short) > 8 {
		short = append(slices.Clone(local[:6]), k.toggleHelp, k.quit)
	}
	return tabHelp{short: short, full: [][]key.Binding{local, global}}
}


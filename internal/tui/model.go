package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/state"
)

// Store is the slice of the app store the TUI reads and dispatches to.
type Store interface {
	Dispatch(state.Intent)
	State() state.State
	Seq() uint64
	DebugEnabled() bool
	Subscribe(func(app.Snapshot)) func()
}

// tab identifies one top-level screen of the main view.
type tab int

// tab values in display order.
const (
	tabHome tab = iota
	tabWeek
	tabRecipes
	tabShopping
	tabFamily
	tabCount
)

// label returns the tab title.
func (t tab) label() string {
	switch t {
	case tabHome:
		return "Home"
	case tabWeek:
		return "Week"
	case tabRecipes:
		return "Recipes"
	case tabShopping:
		return "Shopping"
	case tabFamily:
		return "Family"
	default:
		return ""
	}
}

// inputMode identifies what the text input is collecting.
type inputMode int

// inputMode values.
const (
	modeNone inputMode = iota
	modeSearch
	modeExtract
	modeShoppingAdd
	modeSubstitution
	modeAnotherSubstitution
	modeAcceptToken
)

// snapshotMsg carries one read of the store.
type snapshotMsg struct {
	seq   uint64
	state state.State
}

// storeChangedMsg is delivered when the store reduced an intent this model did not dispatch.
type storeChangedMsg struct {
	snap snapshotMsg
}

// statusMsg carries the outcome of a local side effect such as copying a link.
type statusMsg struct {
	status string
	err    error
}

// Model renders the store state and turns key presses into intents.
type Model struct {
	store       Store
	changes     <-chan struct{}
	unsubscribe func()

	ready  bool
	width  int
	height int
	status string

	help help.Model
	keys keyMap
	md   *markdownRenderer

	seq         uint64
	state       state.State
	loadedGroup string

	now          func() time.Time
	newID        func() string
	copyText     func(string) error
	weekStartsOn time.Weekday
	weekStart    domain.Date
	products     []string

	tab   tab
	mode  inputMode
	input textinput.Model

	dayCursor     int
	slotCursor    int
	recipeCursor  int
	recipeOpen    bool
	targetCursor  int
	itemCursor    int
	requestCursor int
}

// NewModel subscribes to store; call Close once the program exits.
func NewModel(store Store, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	input := textinput.New()
	input.CharLimit = 512
	m := Model{
		store:        store,
		status:       "loading...",
		help:         h,
		keys:         newKeyMap(),
		md:           &markdownRenderer{},
		now:          time.Now,
		newID:        uuid.NewString,
		copyText:     clipboard.WriteAll,
		weekStartsOn: time.Monday,
		input:        input,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	changes := make(chan struct{}, 1)
	m.unsubscribe = store.Subscribe(func(app.Snapshot) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m.changes = changes
	m.weekStart = m.today().StartOfWeek(m.weekStartsOn)
	return m
}

// Close stops observing the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.readSnapshot(), m.waitForChange())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		return m.applySnapshot(msg)

	case storeChangedMsg:
		out, cmd := m.applySnapshot(msg.snap)
		return out, tea.Batch(cmd, out.waitForChange())

	case statusMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else {
			m.status = msg.status
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	default:
		return m, nil
	}
}

func (m Model) today() domain.Date {
	return domain.DateOf(m.now())
}

func (m Model) readSnapshot() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		seq := store.Seq()
		return snapshotMsg{seq: seq, state: store.State()}
	}
}

// waitForChange blocks until the store signals and then reads it.
func (m Model) waitForChange() tea.Cmd {
	store, changes := m.store, m.changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		<-changes
		seq := store.Seq()
		return storeChangedMsg{snap: snapshotMsg{seq: seq, state: store.State()}}
	}
}

// dispatch sends intents in order and reads the store afterwards.
func (m Model) dispatch(intents ...state.Intent) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		for _, intent := range intents {
			store.Dispatch(intent)
		}
		seq := store.Seq()
		return snapshotMsg{seq: seq, state: store.State()}
	}
}

// applySnapshot keeps the newest state and loads the group's data the first time it becomes active.
func (m Model) applySnapshot(msg snapshotMsg) (Model, tea.Cmd) {
	if m.ready && msg.seq < m.seq {
		return m, nil
	}
	m.ready = true
	m.seq = msg.seq
	m.state = msg.state
	if m.status == "loading..." {
		m.status = ""
	}
	m.clampCursors()

	session := m.state.Session
	if session.Screen != state.ScreenMain || session.SelectedGroupID == "" || session.SelectedGroupID == m.loadedGroup {
		return m, nil
	}
	m.loadedGroup = session.SelectedGroupID
	return m, m.refresh()
}

// refresh reloads every tab for the current week.
func (m *Model) refresh() tea.Cmd {
	today := m.today()
	m.weekStart = today.StartOfWeek(m.weekStartsOn)
	return m.dispatch(
		state.LoadHome{Today: today},
		state.LoadWeekSchedule{WeekStart: m.weekStart},
		state.LoadRecipes{},
		state.LoadShoppingList{},
		state.LoadJoinRequests{},
		state.CheckEntitlement{},
	)
}

func (m *Model) clampCursors() {
	m.dayCursor = clamp(m.dayCursor, 0, domain.DaysPerWeek-1)
	m.slotCursor = clamp(m.slotCursor, 0, len(domain.Slots)-1)
	m.recipeCursor = clamp(m.recipeCursor, 0, len(m.visibleRecipes())-1)
	m.itemCursor = clamp(m.itemCursor, 0, len(m.state.Shopping.Items)-1)
	m.requestCursor = clamp(m.requestCursor, 0, len(m.state.Sharing.JoinRequests)-1)
	if cur := m.state.Recipe.Current; cur != nil {
		m.targetCursor = clamp(m.targetCursor, 0, len(substitutionTargets(*cur))-1)
	} else {
		m.targetCursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.state.Session.Screen {
	case state.ScreenMain:
	case state.ScreenOnboarding:
		if key.Matches(msg, m.keys.acceptToken) {
			return m, m.startInput(modeAcceptToken, "invitation: ", "paste the link you were sent")
		}
		return m, nil
	default:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.nextTab):
		m.tab = (m.tab + 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.prevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.loadedGroup = m.state.Session.SelectedGroupID
		m.status = "reloading"
		return m, m.refresh()
	case key.Matches(msg, m.keys.nextGroup):
		return m.cycleGroup()
	}

	switch m.tab {
	case tabWeek:
		return m.handleWeekKey(msg)
	case tabRecipes:
		if m.recipeOpen {
			return m.handleRecipeDetailKey(msg)
		}
		return m.handleRecipeListKey(msg)
	case tabShopping:
		return m.handleShoppingKey(msg)
	case tabFamily:
		return m.handleFamilyKey(msg)
	default:
		return m, nil
	}
}

func (m Model) cycleGroup() (tea.Model, tea.Cmd) {
	groups := m.state.Session.Groups
	if len(groups) < 2 {
		return m, nil
	}
	idx := slices.IndexFunc(groups, func(g domain.Group) bool { return g.ID == m.state.Session.SelectedGroupID })
	next := groups[(idx+1)%len(groups)]
	m.status = "switched to " + next.Name
	return m, m.dispatch(state.SelectGroup{GroupID: next.ID})
}

func (m Model) handleWeekKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	slot := domain.Slots[m.slotCursor]
	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.dayCursor = clamp(m.dayCursor-1, 0, domain.DaysPerWeek-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.dayCursor = clamp(m.dayCursor+1, 0, domain.DaysPerWeek-1)
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		m.slotCursor = clamp(m.slotCursor-1, 0, len(domain.Slots)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.slotCursor = clamp(m.slotCursor+1, 0, len(domain.Slots)-1)
		return m, nil
	case key.Matches(msg, m.keys.prevWeek):
		return m.loadWeek(m.weekStart.AddDays(-domain.DaysPerWeek))
	case key.Matches(msg, m.keys.nextWeek):
		return m.loadWeek(m.weekStart.AddDays(domain.DaysPerWeek))
	case key.Matches(msg, m.keys.cycleDriver):
		days := m.state.Assignments.Days
		if m.dayCursor >= len(days) {
			return m, nil
		}
		group, _ := m.state.Session.SelectedGroup()
		next := nextDriver(group.Members, days[m.dayCursor].Assignee(slot))
		return m, m.dispatch(state.AssignDriver{Index: m.dayCursor, Slot: slot, UserID: next})
	case key.Matches(msg, m.keys.confirmSlot):
		if m.dayCursor >= len(m.state.Assignments.Days) {
			return m, nil
		}
		return m, m.dispatch(state.ConfirmAssignment{Index: m.dayCursor, Slot: slot})
	case key.Matches(msg, m.keys.saveDay):
		if m.dayCursor >= len(m.state.Assignments.Days) {
			return m, nil
		}
		return m, m.dispatch(state.SaveAssignment{Index: m.dayCursor})
	case key.Matches(msg, m.keys.availability):
		entries := m.state.Schedule.Entries
		if m.dayCursor >= len(entries) {
			return m, nil
		}
		entry := entries[m.dayCursor]
		update := state.UpdateEntry{Index: m.dayCursor}
		if slot == domain.SlotDropOff {
			next := nextAvailability(entry.DropOff)
			update.DropOff = &next
		} else {
			next := nextAvailability(entry.PickUp)
			update.PickUp = &next
		}
		return m, m.dispatch(update)
	case key.Matches(msg, m.keys.saveSchedule):
		if !m.state.Schedule.Dirty {
			m.status = "no schedule changes"
			return m, nil
		}
		return m, m.dispatch(state.SaveWeekSchedule{})
	default:
		return m, nil
	}
}

func (m Model) loadWeek(start domain.Date) (tea.Model, tea.Cmd) {
	m.weekStart = start
	return m, m.dispatch(state.LoadWeekSchedule{WeekStart: start}, state.LoadWeekAssignments{WeekStart: start})
}

func (m Model) handleRecipeListKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	recipes := m.visibleRecipes()
	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.recipeCursor = clamp(m.recipeCursor-1, 0, len(recipes)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.recipeCursor = clamp(m.recipeCursor+1, 0, len(recipes)-1)
		return m, nil
	case key.Matches(msg, m.keys.openRecipe):
		if len(recipes) == 0 {
			return m, nil
		}
		m.recipeOpen = true
		m.targetCursor = 0
		return m, m.dispatch(state.SelectRecipe{ID: recipes[m.recipeCursor].ID})
	case key.Matches(msg, m.keys.search):
		cmd := m.startInput(modeSearch, "search: ", "title, ingredient or step")
		m.input.SetValue(m.state.Recipe.Query)
		return m, cmd
	case key.Matches(msg, m.keys.category):
		m.recipeCursor = 0
		return m, m.dispatch(state.SelectCategory{CategoryID: nextCategory(m.state.Recipe.Categories, m.state.Recipe.SelectedCategory)})
	case key.Matches(msg, m.keys.extract):
		return m, m.startInput(modeExtract, "url: ", "https://")
	case key.Matches(msg, m.keys.deleteItem):
		if len(recipes) == 0 {
			return m, nil
		}
		return m, m.dispatch(state.DeleteRecipe{ID: recipes[m.recipeCursor].ID})
	default:
		return m, nil
	}
}

func (m Model) handleRecipeDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	rs := m.state.Recipe
	sub := rs.Substitution
	if key.Matches(msg, m.keys.back) {
		if sub.IsOpen() {
			return m, m.dispatch(state.CloseSubstitution{})
		}
		m.recipeOpen = false
		return m, nil
	}
	if rs.Current == nil {
		return m, nil
	}
	targets := substitutionTargets(*rs.Current)

	if sub.Phase == state.PhasePreview {
		switch {
		case key.Matches(msg, m.keys.approveSub):
			return m, m.dispatch(state.ApproveSubstitution{})
		case key.Matches(msg, m.keys.rejectSub):
			return m, m.dispatch(state.RejectSubstitution{})
		case key.Matches(msg, m.keys.anotherSub):
			return m, m.startInput(modeAnotherSubstitution, "also: ", "what else should change")
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.targetCursor = clamp(m.targetCursor-1, 0, len(targets)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.targetCursor = clamp(m.targetCursor+1, 0, len(targets)-1)
		return m, nil
	case key.Matches(msg, m.keys.substitute):
		if len(targets) == 0 || sub.Phase == state.PhaseProcessing {
			return m, nil
		}
		return m, m.startInput(modeSubstitution, "change: ", "e.g. make it dairy-free")
	case key.Matches(msg, m.keys.saveRecipe):
		return m, m.dispatch(state.SaveRecipe{})
	case key.Matches(msg, m.keys.toShopping):
		items := domain.ShoppingItemsFromRecipe(*rs.Current, m.newID)
		if len(items) == 0 {
			return m, nil
		}
		m.status = fmt.Sprintf("added %d items to the shopping list", len(items))
		return m, m.dispatch(state.AddRecipeToShoppingList{Items: items})
	default:
		return m, nil
	}
}

func (m Model) handleShoppingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := m.state.Shopping.Items
	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.itemCursor = clamp(m.itemCursor-1, 0, len(items)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.itemCursor = clamp(m.itemCursor+1, 0, len(items)-1)
		return m, nil
	case key.Matches(msg, m.keys.newItem):
		return m, m.startInput(modeShoppingAdd, "item: ", "name, amount")
	case key.Matches(msg, m.keys.toggleItem):
		if len(items) == 0 {
			return m, nil
		}
		return m, m.dispatch(state.ToggleShoppingItem{ID: items[m.itemCursor].ID})
	case key.Matches(msg, m.keys.deleteItem):
		if len(items) == 0 {
			return m, nil
		}
		return m, m.dispatch(state.RemoveShoppingItem{ID: items[m.itemCursor].ID})
	case key.Matches(msg, m.keys.clearItems):
		return m, m.dispatch(state.ClearCheckedItems{})
	default:
		return m, nil
	}
}

func (m Model) handleFamilyKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	sharing := m.state.Sharing
	requests := sharing.JoinRequests
	if m.store.DebugEnabled() {
		switch {
		case key.Matches(msg, m.keys.debugLog):
			return m, m.dispatch(state.SetDebugLogging{Enabled: !m.state.Debug.Enabled})
		case key.Matches(msg, m.keys.seedDemo):
			return m, m.dispatch(state.SeedDemoData{})
		}
	}
	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.requestCursor = clamp(m.requestCursor-1, 0, len(requests)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.requestCursor = clamp(m.requestCursor+1, 0, len(requests)-1)
		return m, nil
	case key.Matches(msg, m.keys.invite):
		return m, m.dispatch(state.CreateInvitation{})
	case key.Matches(msg, m.keys.copyInvite):
		link := sharing.Invite.URL
		if sharing.Invite.Status != state.InviteSuccess || link == "" {
			m.status = "create an invitation first"
			return m, nil
		}
		copyText := m.copyText
		return m, func() tea.Msg {
			if err := copyText(link); err != nil {
				return statusMsg{err: fmt.Errorf("copy invite link: %w", err)}
			}
			return statusMsg{status: "invite link copied"}
		}
	case key.Matches(msg, m.keys.acceptToken):
		return m, m.startInput(modeAcceptToken, "invitation: ", "paste the link you were sent")
	case key.Matches(msg, m.keys.approveJoin), key.Matches(msg, m.keys.rejectJoin):
		if len(requests) == 0 || sharing.Processing != "" {
			return m, nil
		}
		req := requests[m.requestCursor]
		if req.Status != domain.JoinRequestPending {
			return m, nil
		}
		if key.Matches(msg, m.keys.approveJoin) {
			return m, m.dispatch(state.ApproveJoinRequest{ParticipantID: req.ParticipantID})
		}
		return m, m.dispatch(state.RejectJoinRequest{ParticipantID: req.ParticipantID})
	case key.Matches(msg, m.keys.purchase):
		if len(m.products) == 0 || m.state.Subscription.Premium {
			return m, nil
		}
		return m, m.dispatch(state.Purchase{ProductID: m.products[0]})
	case key.Matches(msg, m.keys.restore):
		return m, m.dispatch(state.RestorePurchases{})
	default:
		return m, nil
	}
}

func (m *Model) startInput(mode inputMode, prompt, placeholder string) tea.Cmd {
	m.mode = mode
	m.input.Reset()
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetWidth(max(20, m.width-len(prompt)-4))
	return m.input.Focus()
}

func (m Model) handleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.mode = modeNone
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.submit):
		mode := m.mode
		value := strings.TrimSpace(m.input.Value())
		m.mode = modeNone
		m.input.Blur()
		return m.submitInput(mode, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case modeSearch:
		m.recipeCursor = 0
		return m, m.dispatch(state.SearchRecipes{Query: value})
	case modeExtract:
		if value == "" {
			return m, nil
		}
		m.recipeOpen = true
		m.targetCursor = 0
		return m, m.dispatch(state.ExtractRecipe{URL: value})
	case modeShoppingAdd:
		name, amount, _ := strings.Cut(value, ",")
		item, err := domain.NewShoppingItem(m.newID(), name, strings.TrimSpace(amount))
		if err != nil {
			m.status = "error: " + err.Error()
			return m, nil
		}
		return m, m.dispatch(state.AddShoppingItem{Item: item})
	case modeSubstitution:
		cur := m.state.Recipe.Current
		if cur == nil {
			return m, nil
		}
		targets := substitutionTargets(*cur)
		if m.targetCursor >= len(targets) {
			return m, nil
		}
		return m, m.dispatch(
			state.OpenSubstitution{Target: targets[m.targetCursor].target},
			state.SubmitSubstitution{Prompt: value},
		)
	case modeAnotherSubstitution:
		return m, m.dispatch(state.RequestAdditionalSubstitution{Prompt: value})
	case modeAcceptToken:
		if value == "" {
			return m, nil
		}
		return m, m.dispatch(state.ReceiveInvitation{Token: value}, state.AcceptInvitation{})
	default:
		return m, nil
	}
}

// visibleRecipes lists the library filtered by the active query and category.
func (m Model) visibleRecipes() []domain.Recipe {
	rs := m.state.Recipe
	if rs.Query == "" {
		if rs.SelectedCategory == "" {
			return rs.Recipes
		}
		membership := domain.MembershipOf(rs.Categories)
		out := make([]domain.Recipe, 0, len(rs.Recipes))
		for _, r := range rs.Recipes {
			if membership.Contains(rs.SelectedCategory, r.ID) {
				out = append(out, r)
			}
		}
		return out
	}
	byID := make(map[string]domain.Recipe, len(rs.Recipes))
	for _, r := range rs.Recipes {
		byID[r.ID] = r
	}
	out := make([]domain.Recipe, 0, len(rs.Matches))
	for _, match := range rs.Matches {
		if r, ok := byID[match.RecipeID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// targetRow is one ingredient or step that can be substituted.
type targetRow struct {
	target domain.SubstitutionTarget
	label  string
}

func substitutionTargets(r domain.Recipe) []targetRow {
	out := make([]targetRow, 0)
	for si, section := range r.IngredientSections {
		for ii, item := range section.Items {
			label := item.Name
			if item.Amount != "" {
				label += " (" + item.Amount + ")"
			}
			out = append(out, targetRow{target: domain.IngredientTarget(si, ii), label: label})
		}
	}
	for si, section := range r.StepSections {
		for _, step := range section.Steps {
			out = append(out, targetRow{
				target: domain.StepTarget(si, step.Number),
				label:  fmt.Sprintf("step %d: %s", step.Number, step.Instruction),
			})
		}
	}
	return out
}

// nextDriver cycles unassigned, then every member in group order.
func nextDriver(members []domain.Member, current string) string {
	if len(members) == 0 {
		return ""
	}
	if current == "" {
		return members[0].UserID
	}
	idx := slices.IndexFunc(members, func(mem domain.Member) bool { return mem.UserID == current })
	if idx < 0 || idx == len(members)-1 {
		return ""
	}
	return members[idx+1].UserID
}

func nextAvailability(a domain.Availability) domain.Availability {
	switch domain.NormalizeAvailability(a) {
	case domain.AvailabilityNotSet:
		return domain.AvailabilityOK
	case domain.AvailabilityOK:
		return domain.AvailabilityNG
	default:
		return domain.AvailabilityNotSet
	}
}

func nextCategory(categories []domain.Category, current string) string {
	if len(categories) == 0 {
		return ""
	}
	if current == "" {
		return categories[0].ID
	}
	idx := slices.IndexFunc(categories, func(c domain.Category) bool { return c.ID == current })
	if idx < 0 || idx == len(categories)-1 {
		return ""
	}
	return categories[idx+1].ID
}

// clamp returns v limited to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

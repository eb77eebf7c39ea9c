package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/state"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	alertColor  = lipgloss.Color("203")
	notice      = lipgloss.Color("214")
	okColor     = lipgloss.Color("42")
	selectColor = lipgloss.Color("212")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	statusStyle   = lipgloss.NewStyle().Foreground(dimColor)
	errorStyle    = lipgloss.NewStyle().Foreground(alertColor)
	selectedStyle = lipgloss.NewStyle().Foreground(selectColor).Bold(true)
)

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	if !m.ready {
		return "loading..."
	}
	session := m.state.Session
	switch session.Screen {
	case state.ScreenMain:
	case state.ScreenSignedOut:
		return m.frame(titleStyle.Render("famboard") + "\n\nSigned out.\nPress q to quit.")
	case state.ScreenOnboarding:
		return m.frame(m.renderOnboarding())
	default:
		lines := []string{titleStyle.Render("famboard"), "", "loading family groups..."}
		if session.Error != "" {
			lines = append(lines, errorStyle.Render(session.Error))
		}
		return m.frame(strings.Join(lines, "\n"))
	}

	group, _ := session.SelectedGroup()
	header := titleStyle.Render("famboard") + "  " + group.Name
	if session.DisplayName != "" {
		header += statusStyle.Render("  signed in as " + session.DisplayName)
	}
	if m.state.Subscription.Premium {
		header += statusStyle.Render("  premium")
	}

	var body string
	switch m.tab {
	case tabHome:
		body = m.renderHome()
	case tabWeek:
		body = m.renderWeek()
	case tabRecipes:
		if m.recipeOpen {
			body = m.renderRecipeDetail()
		} else {
			body = m.renderRecipeList()
		}
	case tabShopping:
		body = m.renderShopping()
	case tabFamily:
		body = m.renderFamily()
	}
	return m.frame(header + "\n" + m.renderTabs() + "\n\n" + body)
}

// frame appends the input line, status and help footer and fits content to the window.
func (m Model) frame(content string) string {
	if m.mode != modeNone {
		content += "\n\n" + m.input.View()
	}
	if strings.TrimSpace(m.status) != "" {
		content += "\n\n" + statusStyle.Render(m.status)
	}
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys.helpFor(m.tab, m.recipeOpen, m.store.DebugEnabled())))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	return content + "\n" + helpLine
}

func (m Model) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(dimColor)
	parts := make([]string, 0, tabCount)
	for t := tabHome; t < tabCount; t++ {
		label := t.label()
		if t == tabHome && len(m.state.Home.Warnings) > 0 {
			label += fmt.Sprintf(" (%d)", len(m.state.Home.Warnings))
		}
		if t == tabFamily && pendingRequests(m.state.Sharing.JoinRequests) > 0 {
			label += fmt.Sprintf(" (%d)", pendingRequests(m.state.Sharing.JoinRequests))
		}
		if t == m.tab {
			parts = append(parts, active.Render(label))
		} else {
			parts = append(parts, inactive.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderOnboarding() string {
	lines := []string{
		titleStyle.Render("famboard"),
		"",
		"You are not part of a family group yet.",
		"Press t to join with an invitation link.",
	}
	accept := m.state.Sharing.Accept
	switch accept.Status {
	case state.AcceptAccepting:
		lines = append(lines, "", mutedStyle.Render("joining..."))
	case state.AcceptError:
		lines = append(lines, "", errorStyle.Render(accept.Error))
	}
	if err := m.state.Session.Error; err != "" {
		lines = append(lines, "", errorStyle.Render(err))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHome() string {
	home := m.state.Home
	lines := []string{sectionStyle.Render("Today " + dayHeading(home.Today))}
	if home.Loading {
		lines = append(lines, mutedStyle.Render("checking this week..."))
	}
	if home.Error != "" {
		lines = append(lines, errorStyle.Render(home.Error))
	}
	if len(home.Warnings) == 0 && !home.Loading {
		lines = append(lines, lipgloss.NewStyle().Foreground(okColor).Render("every drive is covered"))
	}
	for _, w := range home.Warnings {
		style := lipgloss.NewStyle().Foreground(notice)
		if w.Severity == domain.SeverityNoAssignee {
			style = errorStyle
		}
		lines = append(lines, style.Render("! "+w.Message()))
	}

	lines = append(lines, "", sectionStyle.Render("Weather"))
	switch {
	case home.WeatherLoading:
		lines = append(lines, mutedStyle.Render("loading forecast..."))
	case home.WeatherError != "":
		lines = append(lines, errorStyle.Render(home.WeatherError))
	case len(home.Forecasts) == 0:
		lines = append(lines, mutedStyle.Render("no locations configured"))
	}
	for _, f := range home.Forecasts {
		lines = append(lines, fmt.Sprintf("%-14s %-16s %5.1f° / %5.1f°  %3d%% rain",
			truncate(f.Location.Name, 14), f.Summary, f.TempMaxC, f.TempMinC, f.PrecipitationChance))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderWeek() string {
	as := m.state.Assignments
	sched := m.state.Schedule
	lines := []string{sectionStyle.Render("Week of " + m.weekStart.String())}
	switch {
	case as.Loading || sched.Loading:
		lines = append(lines, mutedStyle.Render("loading..."))
	case as.Saving:
		lines = append(lines, mutedStyle.Render("saving..."))
	}
	for _, msg := range []string{as.Error, sched.Error} {
		if msg != "" {
			lines = append(lines, errorStyle.Render(msg))
		}
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %-20s %s", "day", "drop-off", "pick-up", "me")))

	names := m.state.DisplayNames()
	today := m.today()
	for i := 0; i < domain.DaysPerWeek; i++ {
		date := m.weekStart.AddDays(i)
		var day *domain.DayAssignment
		if i < len(as.Days) {
			day = &as.Days[i]
			date = day.Date
		}
		cells := make([]string, 0, len(domain.Slots))
		for si, slot := range domain.Slots {
			text := "-"
			var style lipgloss.Style
			if day != nil {
				text, style = slotCell(day.SlotStatus(slot, names))
			} else {
				style = mutedStyle
			}
			text = fmt.Sprintf("%-20s", truncate(text, 20))
			if i == m.dayCursor && si == m.slotCursor {
				style = selectedStyle
			}
			cells = append(cells, style.Render(text))
		}
		mine := "-"
		if i < len(sched.Entries) {
			e := sched.Entries[i]
			mine = availabilityLabel(e.DropOff) + " / " + availabilityLabel(e.PickUp)
		}
		cursor := "  "
		if i == m.dayCursor {
			cursor = "› "
		}
		label := fmt.Sprintf("%-12s", date.Time().Format("Mon 01-02"))
		if date.Compare(today) == 0 {
			label = lipgloss.NewStyle().Bold(true).Render(label)
		}
		lines = append(lines, cursor+label+" "+strings.Join(cells, " ")+" "+mine)
	}
	if sched.Dirty {
		lines = append(lines, "", mutedStyle.Render("unsaved availability changes, press w to save"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRecipeList() string {
	rs := m.state.Recipe
	heading := "Recipes"
	if rs.Query != "" {
		heading += fmt.Sprintf("  matching %q", rs.Query)
	}
	lines := []string{sectionStyle.Render(heading)}
	if len(rs.Categories) > 0 {
		parts := []string{categoryLabel("all", rs.SelectedCategory == "")}
		for _, c := range rs.Categories {
			label := c.Name
			if n, ok := rs.CategoryCounts[c.ID]; ok && rs.Query != "" {
				label += fmt.Sprintf(" (%d)", n)
			}
			parts = append(parts, categoryLabel(label, c.ID == rs.SelectedCategory))
		}
		lines = append(lines, strings.Join(parts, "  "))
	}
	if rs.Loading {
		lines = append(lines, mutedStyle.Render("loading..."))
	}
	if rs.Extracting {
		lines = append(lines, mutedStyle.Render("importing recipe..."))
	}
	if rs.Error != "" {
		lines = append(lines, errorStyle.Render(rs.Error))
	}
	recipes := m.visibleRecipes()
	if len(recipes) == 0 && !rs.Loading {
		lines = append(lines, mutedStyle.Render("no recipes yet, press e to import one from a url"))
	}
	for i, r := range recipes {
		line := r.Title
		if rs.Deleting == r.ID {
			line += "  deleting..."
		}
		if i == m.recipeCursor {
			lines = append(lines, selectedStyle.Render("› "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRecipeDetail() string {
	rs := m.state.Recipe
	if rs.Current == nil {
		switch {
		case rs.Extracting:
			return mutedStyle.Render("importing recipe...")
		case rs.Error != "":
			return errorStyle.Render(rs.Error) + "\n\n" + mutedStyle.Render("press esc to go back")
		default:
			return mutedStyle.Render("no recipe selected")
		}
	}

	recipe := *rs.Current
	sub := rs.Substitution
	lines := make([]string, 0)
	saved := "unsaved"
	switch {
	case rs.Saving:
		saved = "saving..."
	case rs.Persisted:
		saved = "saved"
	}
	lines = append(lines, sectionStyle.Render(recipe.Title)+"  "+statusStyle.Render(saved))
	if rs.Error != "" {
		lines = append(lines, errorStyle.Render(rs.Error))
	}
	switch sub.Phase {
	case state.PhaseProcessing:
		lines = append(lines, mutedStyle.Render("asking for a substitution..."))
	case state.PhasePreview:
		lines = append(lines, lipgloss.NewStyle().Foreground(notice).Render("previewing change: y apply, n discard, m ask again"))
		if sub.Preview != nil {
			recipe = *sub.Preview
		}
	}
	if sub.Error != "" {
		lines = append(lines, errorStyle.Render(sub.Error))
	}

	targets := substitutionTargets(*rs.Current)
	start, end := window(len(targets), m.targetCursor, 8)
	for i := start; i < end; i++ {
		label := truncate(targets[i].label, max(20, m.width-6))
		if i == m.targetCursor {
			lines = append(lines, selectedStyle.Render("› "+label))
		} else {
			lines = append(lines, mutedStyle.Render("  "+label))
		}
	}
	lines = append(lines, "", m.md.render(recipe.Markdown(), max(24, m.width-4)))
	return strings.Join(lines, "\n")
}

func (m Model) renderShopping() string {
	shop := m.state.Shopping
	checked := 0
	for _, item := range shop.Items {
		if item.Checked {
			checked++
		}
	}
	lines := []string{sectionStyle.Render(fmt.Sprintf("Shopping list  %d/%d checked", checked, len(shop.Items)))}
	if shop.Loading {
		lines = append(lines, mutedStyle.Render("loading..."))
	}
	if shop.Pending > 0 {
		lines = append(lines, mutedStyle.Render("syncing..."))
	}
	if shop.Error != "" {
		lines = append(lines, errorStyle.Render(shop.Error))
	}
	if len(shop.Items) == 0 && !shop.Loading {
		lines = append(lines, mutedStyle.Render("nothing to buy, press n to add an item"))
	}
	for i, item := range shop.Items {
		box := "[ ]"
		if item.Checked {
			box = "[x]"
		}
		line := box + " " + item.Name
		if item.Amount != "" {
			line += "  " + item.Amount
		}
		switch {
		case i == m.itemCursor:
			lines = append(lines, selectedStyle.Render("› "+line))
		case item.Checked:
			lines = append(lines, mutedStyle.Render("  "+line))
		default:
			lines = append(lines, "  "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFamily() string {
	sharing := m.state.Sharing
	group, _ := m.state.Session.SelectedGroup()
	lines := []string{sectionStyle.Render("Members")}
	for _, mem := range group.Members {
		line := "  " + mem.DisplayName
		if mem.Role == domain.RoleOwner {
			line += mutedStyle.Render("  owner")
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", sectionStyle.Render("Invitation"))
	switch sharing.Invite.Status {
	case state.InviteCreating:
		lines = append(lines, mutedStyle.Render("creating link..."))
	case state.InviteSuccess:
		lines = append(lines, sharing.Invite.URL, mutedStyle.Render("press y to copy"))
	case state.InviteError:
		lines = append(lines, errorStyle.Render(sharing.Invite.Error))
	default:
		lines = append(lines, mutedStyle.Render("press i to create an invitation link"))
	}
	switch sharing.Accept.Status {
	case state.AcceptAccepting:
		lines = append(lines, mutedStyle.Render("joining..."))
	case state.AcceptSuccess:
		if sharing.Accept.Group != nil {
			lines = append(lines, lipgloss.NewStyle().Foreground(okColor).Render("joined "+sharing.Accept.Group.Name))
		}
	case state.AcceptError:
		lines = append(lines, errorStyle.Render(sharing.Accept.Error))
	}

	lines = append(lines, "", sectionStyle.Render("Join requests"))
	if sharing.RequestsLoading {
		lines = append(lines, mutedStyle.Render("loading..."))
	}
	if sharing.Error != "" {
		lines = append(lines, errorStyle.Render(sharing.Error))
	}
	if len(sharing.JoinRequests) == 0 && !sharing.RequestsLoading {
		lines = append(lines, mutedStyle.Render("none"))
	}
	for i, req := range sharing.JoinRequests {
		line := fmt.Sprintf("%s  %s", req.DisplayName, req.Status)
		if sharing.Processing == req.ParticipantID {
			line += "  ..."
		}
		if i == m.requestCursor {
			lines = append(lines, selectedStyle.Render("› "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}

	sub := m.state.Subscription
	lines = append(lines, "", sectionStyle.Render("Subscription"))
	switch {
	case sub.Checking || sub.Restoring:
		lines = append(lines, mutedStyle.Render("checking..."))
	case sub.Purchasing != "":
		lines = append(lines, mutedStyle.Render("purchasing "+sub.Purchasing+"..."))
	case sub.Premium:
		lines = append(lines, lipgloss.NewStyle().Foreground(okColor).Render("premium"))
	case len(m.products) > 0:
		lines = append(lines, "free plan", mutedStyle.Render("press p to subscribe to "+m.products[0]))
	default:
		lines = append(lines, "free plan")
	}
	if sub.Error != "" {
		lines = append(lines, errorStyle.Render(sub.Error))
	}

	if m.store.DebugEnabled() {
		dbg := m.state.Debug
		lines = append(lines, "", sectionStyle.Render("Debug"))
		logging := "off"
		if dbg.Enabled {
			logging = "on"
		}
		lines = append(lines, mutedStyle.Render("intent log "+logging))
		switch {
		case dbg.Seeding:
			lines = append(lines, mutedStyle.Render("seeding demo data..."))
		case dbg.Seeded:
			lines = append(lines, mutedStyle.Render("demo data seeded"))
		}
		if dbg.Error != "" {
			lines = append(lines, errorStyle.Render(dbg.Error))
		}
		start := max(0, len(dbg.Log)-5)
		for _, entry := range dbg.Log[start:] {
			lines = append(lines, statusStyle.Render("  "+entry))
		}
	}
	return strings.Join(lines, "\n")
}

func slotCell(status domain.SlotStatus) (string, lipgloss.Style) {
	switch status.Kind {
	case domain.SlotConfirmed:
		return status.Name + " ✓", lipgloss.NewStyle().Foreground(okColor)
	case domain.SlotUnconfirmed:
		return status.Name + " ?", lipgloss.NewStyle().Foreground(notice)
	default:
		return "unassigned", errorStyle
	}
}

func availabilityLabel(a domain.Availability) string {
	switch domain.NormalizeAvailability(a) {
	case domain.AvailabilityOK:
		return "ok"
	case domain.AvailabilityNG:
		return "ng"
	default:
		return "-"
	}
}

func categoryLabel(label string, active bool) string {
	if active {
		return lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("[" + label + "]")
	}
	return mutedStyle.Render(label)
}

func dayHeading(d domain.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format("Monday, Jan 2")
}

func pendingRequests(requests []domain.JoinRequest) int {
	n := 0
	for _, r := range requests {
		if r.Status == domain.JoinRequestPending {
			n++
		}
	}
	return n
}

// window returns the [start, end) range of size at most height that keeps cursor visible.
func window(total, cursor, height int) (int, int) {
	if total <= height {
		return 0, total
	}
	start := clamp(cursor-height/2, 0, total-height)
	return start, start + height
}

// fitLines trims or pads content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

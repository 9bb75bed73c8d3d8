// Package tui implements the `cons tui` browser: a note list fed by
// dual-channel search, with a detail pane for the selected note.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsonlyattack/cons/internal/app"
	"github.com/mattsonlyattack/cons/internal/search"
	"github.com/mattsonlyattack/cons/internal/store"
)

type mode int

const (
	modeBrowsing mode = iota
	modeSearching
)

// noteItem adapts store.Note to list.Item.
type noteItem struct {
	note *store.Note
	tags []string
}

func (i noteItem) Title() string {
	content := i.note.Content
	if len(content) > 60 {
		content = content[:60] + "..."
	}
	return content
}

func (i noteItem) Description() string {
	if len(i.tags) == 0 {
		return fmt.Sprintf("#%d  %s", i.note.ID, i.note.CreatedAt.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("#%d  %s  [%s]", i.note.ID, i.note.CreatedAt.Format("2006-01-02 15:04"), strings.Join(i.tags, ", "))
}

func (i noteItem) FilterValue() string { return i.note.Content }

// Model is the root bubbletea model for the browser.
type Model struct {
	svc    *app.Services
	list   list.Model
	input  textinput.Model
	detail viewport.Model
	styles Styles
	mode   mode
	width  int
	height int
	err    error
}

// New builds the browser model, pre-loading the most recent notes.
func New(svc *app.Services) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Notes"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "search query..."
	ti.Prompt = "/ "

	vp := viewport.New(0, 0)
	vp.SetContent("Select a note to view its detail.")

	m := Model{
		svc:    svc,
		list:   l,
		input:  ti,
		detail: vp,
		styles: DefaultStyles(),
		mode:   modeBrowsing,
	}
	m.loadRecent()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) loadRecent() {
	notes, err := m.svc.Store.ListNotes(50)
	if err != nil {
		m.err = err
		return
	}
	m.setItems(notes)
}

func (m *Model) setItems(notes []*store.Note) {
	items := make([]list.Item, 0, len(notes))
	for _, n := range notes {
		tags := []string{}
		if assignments, err := m.svc.Store.TagsForNote(n.ID); err == nil {
			for _, a := range assignments {
				tags = append(tags, a.TagName)
			}
		}
		items = append(items, noteItem{note: n, tags: tags})
	}
	m.list.SetItems(items)
	m.updateDetail()
}

func (m *Model) runSearch(query string) {
	results, _, err := m.svc.Engine.Search(search.Options{
		Query: query,
		Limit: 50,
		Weights: search.Weights{
			FTS:   m.svc.Config.Search.FTSWeight,
			Graph: m.svc.Config.Search.GraphWeight,
		},
	})
	if err != nil {
		m.err = err
		return
	}
	notes := make([]*store.Note, 0, len(results))
	for _, r := range results {
		note, err := m.svc.Store.GetNote(r.NoteID)
		if err != nil {
			continue
		}
		notes = append(notes, note)
	}
	m.setItems(notes)
}

func (m *Model) updateDetail() {
	item, ok := m.list.SelectedItem().(noteItem)
	if !ok {
		m.detail.SetContent("No note selected.")
		return
	}
	content := item.note.Content
	if item.note.ContentEnhanced != nil {
		content = *item.note.ContentEnhanced
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Note #%d\n\n%s", item.note.ID, content)
	if len(item.tags) > 0 {
		fmt.Fprintf(&b, "\n\ntags: %s", strings.Join(item.tags, ", "))
	}
	m.detail.SetContent(b.String())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listHeight := m.height - 3
		m.list.SetSize(m.width/2, listHeight)
		m.detail.Width = m.width / 2
		m.detail.Height = listHeight
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeSearching {
			switch msg.String() {
			case "enter":
				m.mode = modeBrowsing
				m.input.Blur()
				m.runSearch(m.input.Value())
				return m, nil
			case "esc":
				m.mode = modeBrowsing
				m.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.mode = modeSearching
			m.input.Focus()
			return m, textinput.Blink
		case "r":
			m.loadRecent()
			return m, nil
		}

		var cmd tea.Cmd
		prevIndex := m.list.Index()
		m.list, cmd = m.list.Update(msg)
		if m.list.Index() != prevIndex {
			m.updateDetail()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("error: %v", m.err)) + "\n" + m.styles.Help.Render("press q to quit")
	}

	left := m.list.View()
	right := m.styles.Content.Render(m.detail.View())

	var bar string
	if m.mode == modeSearching {
		bar = m.input.View()
	} else {
		bar = m.styles.Help.Render("/ search   r reload   ↑/↓ navigate   q quit")
	}

	cols := joinHorizontal(left, right)
	return cols + "\n" + bar
}

func joinHorizontal(left, right string) string {
	leftLines := strings.Split(left, "\n")
	rightLines := strings.Split(right, "\n")
	n := len(leftLines)
	if len(rightLines) > n {
		n = len(rightLines)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		var l, r string
		if i < len(leftLines) {
			l = leftLines[i]
		}
		if i < len(rightLines) {
			r = rightLines[i]
		}
		b.WriteString(l)
		b.WriteString("  ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}

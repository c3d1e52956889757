package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the dashboard bindings. It satisfies help.KeyMap.
type KeyMap struct {
	Search     key.Binding
	Leave      key.Binding
	OnlyActive key.Binding
	Sort       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	View       key.Binding
	Refresh    key.Binding
	Copy       key.Binding
	Export     key.Binding
	Report     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Leave:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
		OnlyActive: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "only active")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		PrevPage:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		View:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "table/cards")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Export:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Report:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "report")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.OnlyActive, k.Sort, k.PrevPage, k.NextPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Leave, k.OnlyActive, k.Sort},
		{k.PrevPage, k.NextPage, k.View},
		{k.Refresh, k.Copy, k.Export, k.Report},
		{k.Help, k.Quit},
	}
}

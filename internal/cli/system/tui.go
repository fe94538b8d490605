package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// automatic backup on startup, after a successful load
	ctx.PerformAutomaticBackup()

	m := tui.NewModel(ctx.Store, ctx.Loc, ctx.Config.Holidays.YearsAhead)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	}
	return err
}

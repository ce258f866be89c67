package screens

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/api"
)

const defaultMutationTimeout = 15 * time.Second

// MutationDoneMsg reports a finished mutation. The root model turns a
// failure into a banner or a forced login; the issuing screen may also
// observe it through Update.
type MutationDoneMsg struct {
	Op       string
	ClientID string
	Err      error
}

func (d *Deps) mutate(doc api.Document, vars map[string]any) tea.Cmd {
	timeout := d.MutationTimeout
	if timeout <= 0 {
		timeout = defaultMutationTimeout
	}
	backend := d.Backend
	logger := d.logger()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := backend.Mutate(ctx, doc, vars)
		if err != nil {
			logger.Warn("screens: mutation failed", "op", doc.Name, "error", err)
		}
		return MutationDoneMsg{Op: doc.Name, ClientID: res.ClientID, Err: err}
	}
}

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/asheshgoplani/caloriesburner/internal/workout"
)

// ProgramSender is the part of *tea.Program the publisher needs.
type ProgramSender interface {
	Send(msg tea.Msg)
}

var _ ProgramSender = (*tea.Program)(nil)

// NewPublisher forwards controller updates into the bubbletea loop, which
// owns the displayed snapshot. Send blocks until the loop receives the
// message, so each update is handed off from its own goroutine.
func NewPublisher(p ProgramSender) workout.Publisher {
	return workout.PublisherFunc(func(u workout.Update) {
		go p.Send(snapshotMsg(u))
	})
}

package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
)

// terminalNotifier prints notifications as colored lines; there is no
// OS notification daemon to talk to from the console.
type terminalNotifier struct{}

func (terminalNotifier) Notify(title, body string) error {
	_, err := fmt.Fprintln(os.Stdout, color.Magenta.Render(fmt.Sprintf("** %s: %s **", title, body)))
	return err
}

// terminalFocus treats the terminal as never focused, so every incoming
// message off the open conversation gets surfaced.
type terminalFocus struct{}

func (terminalFocus) Focused() bool { return false }

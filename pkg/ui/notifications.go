package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// SendFunc delivers a desktop notification
type SendFunc func(title, message string) error

// Notifier prints run milestones and optionally raises a desktop
// notification, which helps on runs that last hours
type Notifier struct {
	send SendFunc
}

// NewNotifier creates a Notifier. With desktop set, notifications are also
// sent through the platform's notification tool when one is known.
func NewNotifier(desktop bool) *Notifier {
	n := &Notifier{}
	if desktop {
		n.send = platformSender(runtime.GOOS)
	}
	return n
}

// NewNotifierWithSender creates a Notifier using send for desktop delivery
func NewNotifierWithSender(send SendFunc) *Notifier {
	return &Notifier{send: send}
}

func platformSender(goos string) SendFunc {
	switch goos {
	case "windows":
		return func(title, message string) error {
			script := fmt.Sprintf(`[reflection.assembly]::loadwithpartialname('System.Windows.Forms') | Out-Null;`+
				`$n = New-Object System.Windows.Forms.NotifyIcon;`+
				`$n.Icon = [System.Drawing.SystemIcons]::Information;`+
				`$n.Visible = $true;`+
				`$n.ShowBalloonTip(10000, '%s', '%s', 'Info')`, quotePS(title), quotePS(message))
			return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
		}
	case "linux":
		return func(title, message string) error {
			return exec.Command("notify-send", title, message).Run()
		}
	case "darwin":
		return func(title, message string) error {
			script := fmt.Sprintf(`display notification %q with title %q`, message, title)
			return exec.Command("osascript", "-e", script).Run()
		}
	default:
		return nil
	}
}

// quotePS escapes a value for a single-quoted PowerShell string
func quotePS(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}

// Success reports a finished run
func (n *Notifier) Success(title, message string) {
	fmt.Fprintf(Output(), "\n%s: %s\n", Green(title), message)
	n.deliver(title, message)
}

// Failure reports a failed run
func (n *Notifier) Failure(title, message string) {
	fmt.Fprintf(Output(), "\n%s: %s\n", Red(title), Red(message))
	n.deliver(title, message)
}

func (n *Notifier) deliver(title, message string) {
	if n.send == nil {
		return
	}
	// delivery is best effort
	_ = n.send(title, message)
}

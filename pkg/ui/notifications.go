package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"pixgallery/pkg/config"
	"pixgallery/pkg/gallery"
)

const appName = "pixgallery"

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name", appName, title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptQuote(message), appleScriptQuote(title))
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%s").Show($toast)
	`, xmlEscape(title), xmlEscape(message), appName)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// DesktopSender returns the sender for the current platform, or nil
func DesktopSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notifier prints gallery notifications to a writer and optionally
// mirrors them to the desktop. It implements gallery.Notifier.
type Notifier struct {
	out     io.Writer
	sender  NotificationSender
	enabled bool
}

// NewNotifier builds a Notifier from the notifications config section
func NewNotifier(cfg config.NotificationConfig, out io.Writer) *Notifier {
	n := &Notifier{out: out, enabled: cfg.Enabled && cfg.Type != "none"}
	if cfg.Type == "desktop" {
		n.sender = DesktopSender()
	}
	return n
}

// SetSender replaces the desktop sender
func (n *Notifier) SetSender(s NotificationSender) {
	n.sender = s
}

// Notify implements gallery.Notifier
func (n *Notifier) Notify(note gallery.Notification) {
	if !n.enabled {
		return
	}

	switch note.Level {
	case gallery.LevelSuccess:
		fmt.Fprintf(n.out, "%s %s\n", Green("✓"), Green(note.Message))
	case gallery.LevelFailure:
		fmt.Fprintf(n.out, "%s %s\n", Red("✗"), Red(note.Message))
	default:
		fmt.Fprintf(n.out, "%s %s\n", Cyan("ℹ"), Yellow(note.Message))
	}

	if n.sender != nil {
		// desktop delivery is best effort
		_ = n.sender.Send(appName, note.Message)
	}
}

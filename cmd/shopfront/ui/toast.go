package ui

// ToastLevel classifies a transient status message.
type ToastLevel int

const (
	ToastNone ToastLevel = iota
	ToastInfo
	ToastSuccess
	ToastWarning
	ToastError
)

// Toast is a one-line transient status shown in the footer. Errors stay on
// screen until the next action; everything else is advisory.
type Toast struct {
	Level   ToastLevel
	Message string
}

// InfoToast returns an informational toast.
func InfoToast(msg string) Toast { return Toast{Level: ToastInfo, Message: msg} }

// SuccessToast returns a success toast.
func SuccessToast(msg string) Toast { return Toast{Level: ToastSuccess, Message: msg} }

// WarningToast returns a warning toast.
func WarningToast(msg string) Toast { return Toast{Level: ToastWarning, Message: msg} }

// ErrorToast returns an error toast.
func ErrorToast(msg string) Toast { return Toast{Level: ToastError, Message: msg} }

// Empty reports whether there is nothing to show.
func (t Toast) Empty() bool {
	return t.Level == ToastNone || t.Message == ""
}

// Render styles the toast for the footer line.
func (t Toast) Render(styles Styles) string {
	if t.Empty() {
		return ""
	}
	switch t.Level {
	case ToastSuccess:
		return styles.Success.Render("✓ " + t.Message)
	case ToastWarning:
		return styles.Warning.Render("! " + t.Message)
	case ToastError:
		return styles.Error.Render("✗ " + t.Message)
	default:
		return styles.Info.Render(t.Message)
	}
}

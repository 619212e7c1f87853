package gate

// Action is the verb half of a permission.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionPay    Action = "pay"
)

// ReadOnly reports whether the action never mutates state.
func (a Action) ReadOnly() bool {
	switch a {
	case ActionView, ActionList, ActionExport:
		return true
	}
	return false
}

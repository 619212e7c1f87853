package policy

import "github.com/diewo77/go-bistro/gate"

// Resource names used in "resource:action" permissions.
const (
	ResourceDish      = "dish"
	ResourceItem      = "item"
	ResourceInventory = "inventory"
	ResourceOrder     = "order"
	ResourceFinance   = "finance"
	ResourceDashboard = "dashboard"
	ResourceStaff     = "staff"
	ResourceVendor    = "vendor"
	ResourcePurchase  = "purchase"
	ResourceCustomer  = "customer"
	ResourceFeedback  = "feedback"
	ResourceUser      = "user"
	ResourceProfile   = "profile"
)

// BusinessResources are the resources a manager controls entirely.
var BusinessResources = []string{
	ResourceDish,
	ResourceItem,
	ResourceInventory,
	ResourceOrder,
	ResourceFinance,
	ResourceDashboard,
	ResourceStaff,
	ResourceVendor,
	ResourcePurchase,
	ResourceCustomer,
	ResourceFeedback,
}

// AdminResources are only reachable through an explicit grant or *:*.
var AdminResources = []string{ResourceUser, ResourceProfile}

// ResourceActions lists the actions that make sense for each resource.
var ResourceActions = map[string][]gate.Action{
	ResourceDish:      {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate, gate.ActionDelete, gate.ActionExport},
	ResourceItem:      {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate},
	ResourceInventory: {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate},
	ResourceOrder:     {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate, gate.ActionPay},
	ResourceFinance:   {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate},
	ResourceDashboard: {gate.ActionView},
	ResourceStaff:     {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate, gate.ActionDelete},
	ResourceVendor:    {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate, gate.ActionDelete},
	ResourcePurchase:  {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate},
	ResourceCustomer:  {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate, gate.ActionDelete},
	ResourceFeedback:  {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate},
	ResourceUser:      {gate.ActionList, gate.ActionView, gate.ActionUpdate},
	ResourceProfile:   {gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate, gate.ActionDelete},
}

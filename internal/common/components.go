package common

const (
	ComponentSupervisor  = "supervisor"
	ComponentLogSource   = "log-source"
	ComponentDecoder     = "decoder"
	ComponentReconciler  = "reconciler"
	ComponentStore       = "store"
	ComponentMaintenance = "maintenance"
	ComponentNotifier    = "notifier"
	ComponentRewards     = "rewards"
	ComponentAPI         = "api"
)

var AllComponents = map[string]struct{}{
	ComponentSupervisor:  {},
	ComponentLogSource:   {},
	ComponentDecoder:     {},
	ComponentReconciler:  {},
	ComponentStore:       {},
	ComponentMaintenance: {},
	ComponentNotifier:    {},
	ComponentRewards:     {},
	ComponentAPI:         {},
}

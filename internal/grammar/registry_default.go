package grammar

// NewDefaultRegistry builds a Registry pre-loaded with the built-in grammar
// rules covering every IntentKind in spec.md §3. Registration errors here
// would indicate a programmer error in the built-in rule table (duplicate
// name at an equal-or-lower priority), so they panic rather than propagate:
// this function is only ever called at process start with a fixed,
// known-good table.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	all := make([]Rule, 0, 96)
	all = append(all, actionRules()...)
	all = append(all, assertionRules()...)
	all = append(all, queryRules()...)
	for _, rule := range all {
		if err := reg.RegisterRule(rule); err != nil {
			panic(err)
		}
	}
	return reg
}

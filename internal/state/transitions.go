package state

// validTransitions contains the permitted transitions between stored steps.
// Selecting a package restarts the dialogue from any step.
var validTransitions = map[Step][]Step{
	StepIdle: {
		StepAwaitingUsername,
	},
	StepAwaitingUsername: {
		StepAwaitingUsername,
		StepAwaitingPayment,
	},
	StepAwaitingPayment: {
		StepAwaitingUsername,
	},
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
func IsTransitionAllowed(from, to Step) bool {
	if to == StepIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, step := range allowed {
		if step == to {
			return true
		}
	}

	return false
}

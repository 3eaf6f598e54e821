package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Step
		to       Step
		expected bool
	}{
		{name: "idle to awaiting username", from: StepIdle, to: StepAwaitingUsername, expected: true},
		{name: "awaiting username to awaiting payment", from: StepAwaitingUsername, to: StepAwaitingPayment, expected: true},
		{name: "awaiting payment reselects package", from: StepAwaitingPayment, to: StepAwaitingUsername, expected: true},
		{name: "awaiting payment to idle", from: StepAwaitingPayment, to: StepIdle, expected: true},
		{name: "idle to awaiting payment invalid", from: StepIdle, to: StepAwaitingPayment, expected: false},
		{name: "awaiting payment to awaiting payment invalid", from: StepAwaitingPayment, to: StepAwaitingPayment, expected: false},
		{name: "unknown step invalid", from: Step("unknown"), to: StepAwaitingUsername, expected: false},
		{name: "any step to idle", from: Step("whatever"), to: StepIdle, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

package models

import "testing"

func TestParticipantActive(t *testing.T) {
	cases := []struct {
		status string
		active bool
	}{
		{ParticipantPending, true},
		{ParticipantApproved, true},
		{ParticipantRejected, false},
	}
	for _, tc := range cases {
		p := Participant{Status: tc.status}
		if p.Active() != tc.active {
			t.Errorf("Active() for %s: expected %v", tc.status, tc.active)
		}
	}
}

func TestParticipantTerminal(t *testing.T) {
	cases := []struct {
		status   string
		terminal bool
	}{
		{ParticipantPending, false},
		{ParticipantApproved, true},
		{ParticipantRejected, true},
	}
	for _, tc := range cases {
		p := Participant{Status: tc.status}
		if p.Terminal() != tc.terminal {
			t.Errorf("Terminal() for %s: expected %v", tc.status, tc.terminal)
		}
	}
}

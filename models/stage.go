// ABOUTME: Deal pipeline stages and the transition table between them
// ABOUTME: Strict policy enforces the table; permissive allows any declared stage
package models

import (
	"errors"
	"fmt"
	"strings"
)

type Stage string

const (
	StageLead       Stage = "Lead"
	StageQualified  Stage = "Qualified"
	StageProposal   Stage = "Proposal"
	StageClosedWon  Stage = "Closed Won"
	StageClosedLost Stage = "Closed Lost"
)

// Stages is the pipeline in display order.
var Stages = []Stage{StageLead, StageQualified, StageProposal, StageClosedWon, StageClosedLost}

// FunnelStages are the stages that feed conversion rates.
var FunnelStages = []Stage{StageLead, StageQualified, StageProposal, StageClosedWon}

var ErrInvalidTransition = errors.New("invalid stage transition")

var transitions = map[Stage][]Stage{
	StageLead:       {StageQualified, StageClosedLost},
	StageQualified:  {StageLead, StageProposal, StageClosedLost},
	StageProposal:   {StageQualified, StageClosedWon, StageClosedLost},
	StageClosedWon:  {},
	StageClosedLost: {StageLead},
}

func (s Stage) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Closed reports whether the deal has left the active pipeline.
func (s Stage) Closed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// ParseStage matches a stage name case-insensitively.
func ParseStage(s string) (Stage, error) {
	for _, stage := range Stages {
		if strings.EqualFold(string(stage), strings.TrimSpace(s)) {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// AllowedTransitions returns the stages reachable from s under the strict table.
func AllowedTransitions(s Stage) []Stage {
	next := transitions[s]
	out := make([]Stage, len(next))
	copy(out, next)
	return out
}

func (s Stage) CanTransitionTo(to Stage) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type TransitionPolicy int

const (
	PolicyStrict TransitionPolicy = iota
	PolicyPermissive
)

func ParseTransitionPolicy(s string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "permissive":
		return PolicyPermissive, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown stage policy %q", s)
	}
}

func (p TransitionPolicy) String() string {
	if p == PolicyPermissive {
		return "permissive"
	}
	return "strict"
}

// Check returns nil when a deal may move from one stage to another.
// Moving to the current stage is always allowed.
func (p TransitionPolicy) Check(from, to Stage) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, to)
	}
	if from == to {
		return nil
	}
	if p == PolicyPermissive {
		return nil
	}
	if !from.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, from)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

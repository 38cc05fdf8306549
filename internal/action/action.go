// Package action encodes worker commands: single timed actions, atomically
// sent sequences of them, and per-worker plans.
package action

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultDurationSec is used when a token has no leading duration.
const DefaultDurationSec = 0.5

// Target is one axis assignment of an action, e.g. a-20.
type Target struct {
	Axis  byte
	Value int
}

// Action is a single worker command token. Execution time is bounded.
//
// Human readable format:
//
//	<dur: int> <special: char>* (<target: char><value: int>)+
//
// Examples: "500a29", "300t0a11", "1!t0" (! reports sensor data).
type Action struct {
	raw     string
	durSec  float64
	flags   string
	targets []Target
}

var (
	durationRe = regexp.MustCompile(`^([0-9]+)`)
	bodyRe     = regexp.MustCompile(`^([^a-zA-Z0-9-]*)((?:[a-zA-Z]-?[0-9]+)*)$`)
	targetRe   = regexp.MustCompile(`([a-zA-Z])(-?[0-9]+)`)
)

// ParseAction wraps a raw command token. A token without a leading integer gets the
// default duration instead of failing.
func ParseAction(token string) Action {
	a := Action{raw: token, durSec: DefaultDurationSec}
	rest := token
	if m := durationRe.FindStringSubmatch(token); m != nil {
		if ms, err := strconv.Atoi(m[1]); err == nil {
			a.durSec = float64(ms) * 1e-3
		}
		rest = token[len(m[1]):]
	}
	if m := bodyRe.FindStringSubmatch(rest); m != nil {
		a.flags = m[1]
		for _, tm := range targetRe.FindAllStringSubmatch(m[2], -1) {
			v, _ := strconv.Atoi(tm[2])
			a.targets = append(a.targets, Target{Axis: tm[1][0], Value: v})
		}
	}
	return a
}

// Token returns the raw command token.
func (a Action) Token() string {
	return a.raw
}

// DurationSec returns the execution time of the action.
func (a Action) DurationSec() float64 {
	return a.durSec
}

// Flags returns the special characters between duration and targets.
func (a Action) Flags() string {
	return a.flags
}

// Targets returns the axis assignments of the action, if the token is well formed.
func (a Action) Targets() []Target {
	return a.targets
}

func (a Action) String() string {
	return a.raw
}

// ParseSeq splits a comma separated command string into actions.
// Empty tokens are dropped.
func ParseSeq(s string) []Action {
	var out []Action
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, ParseAction(tok))
	}
	return out
}

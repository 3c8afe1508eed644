// Package versionreq classifies declared dependency ranges and checks installed
// versions against them.
package versionreq

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/acheong08/pkgdrift/pkg/models"
)

// Kind of a declared range.
type Kind string

const (
	KindSemver    Kind = "semver"
	KindWorkspace Kind = "workspace" // workspace:<range>
	KindAlias     Kind = "alias"     // npm:<name>@<range>
	KindUnchecked Kind = "unchecked" // tags, URLs, file:, git and friends
)

// Protocols whose ranges never describe a registry version.
var uncheckedPrefixes = []string{
	"file:", "link:", "portal:", "patch:", "exec:",
	"git:", "git+", "github:", "gitlab:", "bitbucket:",
	"http:", "https:",
}

// Requirement is a parsed range.
type Requirement struct {
	Raw        string
	Kind       Kind
	Target     string // aliased package name for KindAlias
	constraint *semver.Constraints
}

// Parse classifies raw. It never fails: anything that is not a semver
// constraint becomes KindUnchecked or keeps its protocol kind without a constraint.
func Parse(raw string) Requirement {
	req := Requirement{Raw: raw, Kind: KindSemver}
	rest := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(rest, "workspace:"):
		req.Kind = KindWorkspace
		rest = strings.TrimPrefix(rest, "workspace:")
		// "workspace:^" and "workspace:~" pin to the member's own version.
		if rest == "^" || rest == "~" {
			return req
		}
	case strings.HasPrefix(rest, "npm:"):
		req.Kind = KindAlias
		rest = strings.TrimPrefix(rest, "npm:")
		at := strings.LastIndex(rest, "@")
		if at <= 0 {
			req.Target = rest
			rest = "*"
		} else {
			req.Target = rest[:at]
			rest = rest[at+1:]
		}
	default:
		for _, p := range uncheckedPrefixes {
			if strings.HasPrefix(rest, p) {
				req.Kind = KindUnchecked
				return req
			}
		}
		// user/repo shorthand
		if strings.Contains(rest, "/") {
			req.Kind = KindUnchecked
			return req
		}
	}

	if rest == "" || rest == "latest" {
		rest = "*"
	}

	c, err := semver.NewConstraint(rest)
	if err != nil {
		if req.Kind == KindSemver {
			req.Kind = KindUnchecked
		}
		return req
	}
	req.constraint = c
	return req
}

// Checkable reports whether Check can give a definitive answer.
func (r Requirement) Checkable() bool {
	return r.constraint != nil
}

// Check tests an installed version against the requirement.
func (r Requirement) Check(version string) models.RangeStatus {
	if r.constraint == nil {
		return models.RangeUnchecked
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return models.RangeUnchecked
	}
	if r.constraint.Check(v) {
		return models.RangeSatisfied
	}
	return models.RangeUnsatisfied
}

// Status parses raw and checks version against it in one step.
func Status(raw, version string) models.RangeStatus {
	return Parse(raw).Check(version)
}

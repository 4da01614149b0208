package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Validate checks the configuration as a whole and reports every problem at
// once. Errors are joined and wrapped in ErrInvalidInput. Warnings are always
// returned; unless IgnoreWarnings is set they also produce an error wrapping
// ErrWarning when there is no other error.
func (c *Config) Validate() (warnings []string, err error) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if len(c.Routes) == 0 {
		fail("no routes specified")
	}

	roads := make(map[[2]int]bool, len(c.Roads))
	for _, r := range c.Roads {
		key := [2]int{r.From, r.To}
		if roads[key] {
			fail("road rate %d - %d specified twice", r.From, r.To)
		}
		roads[key] = true
		if len(r.Rate) == 0 {
			fail("road %d - %d: rate missing", r.From, r.To)
		}
		checkPositive(fail, fmt.Sprintf("road %d - %d rate", r.From, r.To), r.Rate)
	}

	routeIDs := make(map[int]bool, len(c.Routes))
	onRoute := make(map[int]bool)
	traversed := make(map[[2]int]bool)
	for _, r := range c.Routes {
		if routeIDs[r.ID] {
			fail("route %d specified twice", r.ID)
		}
		routeIDs[r.ID] = true

		if distinct := slices.Compact(slices.Sorted(slices.Values(r.Stops))); len(distinct) < 2 {
			fail("route %d must visit at least 2 distinct stops", r.ID)
		}
		if len(r.Buses) == 0 {
			fail("route %d: bus count missing", r.ID)
		}
		for _, n := range r.Buses {
			if n <= 0 {
				fail("route %d: bus count must be positive, got %d", r.ID, n)
			}
		}
		if len(r.Capacity) == 0 {
			fail("route %d: capacity missing", r.ID)
		}
		for _, n := range r.Capacity {
			if n <= 0 {
				fail("route %d: capacity must be positive, got %d", r.ID, n)
			}
		}

		for i, s := range r.Stops {
			onRoute[s] = true
			next := r.Stops[(i+1)%len(r.Stops)]
			key := [2]int{s, next}
			traversed[key] = true
			if len(r.Stops) > 1 && !roads[key] {
				fail("route %d: no road rate from stop %d to stop %d", r.ID, s, next)
			}
		}
	}

	for _, r := range c.Roads {
		if r.From == r.To {
			warn("rate from stop %d to itself specified", r.From)
		}
		for _, s := range []int{r.From, r.To} {
			if !onRoute[s] {
				warn("road %d - %d: stop %d is not on any route", r.From, r.To, s)
			}
		}
		if !traversed[[2]int{r.From, r.To}] {
			warn("road %d - %d is not travelled by any route", r.From, r.To)
		}
	}

	for _, nr := range c.Rates.named() {
		if len(*nr.values) == 0 {
			fail("rate %s missing", nr.name)
			continue
		}
		checkPositive(fail, "rate "+nr.name, *nr.values)
	}

	switch {
	case c.StopTime == nil:
		fail("stop time missing")
	case !(*c.StopTime > 0) || math.IsInf(*c.StopTime, 0):
		fail("stop time must be positive and finite, got %g", *c.StopTime)
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	if len(warnings) > 0 && !c.IgnoreWarnings {
		return warnings, fmt.Errorf("%w: %s", ErrWarning, strings.Join(warnings, "; "))
	}
	return warnings, nil
}

func checkPositive(fail func(string, ...any), what string, vals FloatValues) {
	for _, v := range vals {
		if !(v > 0) || math.IsInf(v, 0) {
			fail("%s must be positive and finite, got %g", what, v)
		}
	}
}

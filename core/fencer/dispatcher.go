package fencer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/retcodes"
	"github.com/opensvc/fence-agents/util/retry"
)

type (
	// Dispatcher executes an action against a backend and converges the
	// power changes.
	Dispatcher struct {
		Backend Backend

		// Clock defaults to the wall clock.
		Clock retry.Clock

		// Stdout receives the action result lines. Defaults to os.Stdout.
		Stdout io.Writer
	}
)

// offAttempts is the number of off sequences tried. Unlike the on
// sequence, it has no retry budget.
const offAttempts = 1

var (
	ErrNoStrategy = errors.New("backend has no power change strategy")
	ErrNoStatus   = errors.New("backend has no power status getter")
)

// Do executes the action of o. It returns the exit code of the agent and,
// on failure, the error to report.
func (t *Dispatcher) Do(ctx context.Context, o *options.T) (retcodes.T, error) {
	set := o.DeviceOpts()
	a := o.Action()
	if a == action.Monitor && set.Has("no_status") {
		return retcodes.OK, nil
	}
	if a.IsListing() || (a == action.Monitor && keywords.HasPort(set)) {
		if err := t.list(ctx, o); err != nil {
			return fenceerr.Code(err), err
		}
		return retcodes.OK, nil
	}

	var status powerstatus.T
	if t.hasStatus(set) {
		s, err := t.multiStatus(ctx, o)
		if err != nil {
			return fenceerr.Code(err), err
		}
		if !s.IsKnown() {
			log.Debug().Msgf("Power status '%s' is neither on nor off", s)
			err := fenceerr.New(retcodes.Status)
			return err.Code, err
		}
		status = s
	}

	switch a {
	case action.On, action.Off:
		if status == powerstatus.T(a) && !(a == action.On && set.Has("force_on")) {
			t.println("Success: Already %s", status.Display())
			return retcodes.OK, nil
		}
		return t.powerChange(ctx, o, a)
	case action.Reboot:
		return t.reboot(ctx, o, status)
	case action.Status:
		if !t.hasStatus(set) {
			err := fenceerr.New(retcodes.Status)
			return err.Code, err
		}
		t.println("Status: %s", status.Display())
		if status == powerstatus.Off {
			return retcodes.StatusOff, nil
		}
		return retcodes.OK, nil
	case action.Monitor:
		return retcodes.OK, nil
	default:
		err := fenceerr.Usagef("Failed: Unrecognised action '%s'", a)
		return err.Code, err
	}
}

func (t *Dispatcher) powerChange(ctx context.Context, o *options.T, a action.T) (retcodes.T, error) {
	var (
		attempts = offAttempts
		target   = powerstatus.Off
		code     = retcodes.WaitingOff
		msg      = "Success: Powered OFF"
	)
	if a == action.On {
		attempts = onAttempts(o)
		target = powerstatus.On
		code = retcodes.WaitingOn
		msg = "Success: Powered ON"
	}
	ok, err := t.converge(ctx, o, target, attempts)
	switch {
	case err != nil:
		return fenceerr.Code(err), err
	case !ok:
		err := fenceerr.New(code)
		return err.Code, err
	}
	t.println(msg)
	return retcodes.OK, nil
}

func (t *Dispatcher) reboot(ctx context.Context, o *options.T, status powerstatus.T) (retcodes.T, error) {
	var powerOn bool
	if strings.EqualFold(o.Get("--method"), "cycle") && t.Backend.Cycler != nil {
		attempts := 1 + o.Int("--retry-on")
		ok, err := retry.Until(ctx, retry.Policy{Attempts: attempts, Clock: t.clock()}, func(ctx context.Context, attempt int) (bool, error) {
			ok, err := t.Backend.Cycler.RebootCycle(ctx, o)
			if err != nil {
				log.Warn().Err(err).Msgf("Reboot cycle attempt %d/%d failed", attempt, attempts)
				return false, nil
			}
			return ok, nil
		})
		if err != nil {
			return fenceerr.Code(err), err
		}
		if !ok {
			err := fenceerr.New(retcodes.TimedOut)
			return err.Code, err
		}
		powerOn = true
	} else {
		if status != powerstatus.Off {
			ok, err := t.converge(ctx, o, powerstatus.Off, offAttempts)
			switch {
			case err != nil:
				return fenceerr.Code(err), err
			case !ok:
				err := fenceerr.New(retcodes.WaitingOff)
				return err.Code, err
			}
		}
		attempts := onAttempts(o)
		// The plug is off: the fencing is done even if the power on fails.
		ok, err := t.converge(ctx, o, powerstatus.On, attempts)
		if err != nil {
			log.Warn().Err(err).Msg("Power on phase of the reboot failed")
		}
		powerOn = ok
	}
	if !powerOn {
		log.Error().Msg("Timed out waiting to power ON")
	}
	t.println("Success: Rebooted")
	return retcodes.OK, nil
}

// onAttempts returns the number of power on sequences tried: retry-on,
// at least one.
func onAttempts(o *options.T) int {
	if n := o.Int("--retry-on"); n > 1 {
		return n
	}
	return 1
}

// converge runs up to attempts power change sequences until the plugs
// reach the target status.
func (t *Dispatcher) converge(ctx context.Context, o *options.T, target powerstatus.T, attempts int) (bool, error) {
	o = o.WithAction(action.T(target))
	plugs := plugTargets(o)
	clock := t.clock()
	return retry.Until(ctx, retry.Policy{Attempts: attempts, Clock: clock}, func(ctx context.Context, attempt int) (bool, error) {
		if attempt > 1 {
			log.Info().Msgf("Power %s attempt %d/%d", target, attempt, attempts)
		}
		switch strategy := t.Backend.Change.(type) {
		case SelfVerifying:
			converged := true
			for _, p := range plugs {
				ok, err := strategy.Setter.SyncSetPowerStatus(ctx, p)
				if err != nil {
					return false, err
				}
				if !ok {
					log.Debug().Msgf("Plug '%s' did not confirm power %s", p.Plug(), target)
					converged = false
				}
			}
			return converged, nil
		case Polled:
			if t.Backend.Status == nil {
				return false, ErrNoStatus
			}
			for _, p := range plugs {
				if err := strategy.Setter.SetPowerStatus(ctx, p); err != nil {
					return false, err
				}
			}
			if d := o.Seconds("--power-wait"); d > 0 {
				if err := clock.Sleep(ctx, d); err != nil {
					return false, err
				}
			}
			policy := retry.Policy{
				Interval: o.Seconds("--stonith-status-sleep"),
				Timeout:  o.Seconds("--power-timeout"),
				Clock:    clock,
			}
			return retry.Until(ctx, policy, func(ctx context.Context, _ int) (bool, error) {
				s, err := t.multiStatus(ctx, o)
				if err != nil {
					return false, err
				}
				return s == target, nil
			})
		default:
			return false, ErrNoStrategy
		}
	})
}

// multiStatus returns the aggregated status of the plugs.
func (t *Dispatcher) multiStatus(ctx context.Context, o *options.T) (powerstatus.T, error) {
	if t.Backend.Status == nil {
		return powerstatus.Undef, ErrNoStatus
	}
	l := make([]powerstatus.T, 0)
	for _, p := range plugTargets(o) {
		s, err := t.Backend.Status.GetPowerStatus(ctx, p)
		if errors.Is(err, fenceerr.ErrPlugNotFound) {
			if !o.Has("--missing-as-off") {
				return powerstatus.Undef, fenceerr.Wrap(retcodes.Status, err)
			}
			log.Debug().Msgf("Plug '%s' not found, reported as off", p.Plug())
			s, err = powerstatus.Off, nil
		}
		if err != nil {
			return powerstatus.Undef, err
		}
		log.Debug().Msgf("Plug '%s' power status is %s", p.Plug(), s)
		l = append(l, s)
	}
	return powerstatus.Aggregate(l...), nil
}

func (t *Dispatcher) list(ctx context.Context, o *options.T) error {
	set := o.DeviceOpts()
	switch {
	case !keywords.HasPort(set):
		t.println("N/A")
		return nil
	case t.Backend.Lister == nil:
		t.println("NOTICE: List option is not working on this device yet")
		return nil
	}
	outlets, err := t.Backend.Lister.GetOutletList(ctx, o.WithAction(action.List))
	if err != nil {
		return err
	}
	sep := o.Get("--separator")
	if sep == "" {
		sep = ","
	}
	for _, outlet := range outlets {
		switch o.Action() {
		case action.List:
			t.println("%s%s%s", outlet.ID, sep, outlet.Name)
		case action.ListStatus:
			t.println("%s%s%s%s%s", outlet.ID, sep, outlet.Name, sep, outlet.Status.Display())
		}
	}
	return nil
}

func (t *Dispatcher) hasStatus(set keywords.Set) bool {
	return t.Backend.Status != nil && !set.Has("no_status")
}

func (t *Dispatcher) clock() retry.Clock {
	if t.Clock == nil {
		return retry.WallClock
	}
	return t.Clock
}

func (t *Dispatcher) println(format string, args ...interface{}) {
	w := t.Stdout
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// plugTargets returns the per-plug variants of o. o itself is the only
// target if no plug is set.
func plugTargets(o *options.T) []*options.T {
	plugs := o.Plugs()
	if len(plugs) == 0 {
		return []*options.T{o}
	}
	l := make([]*options.T, len(plugs))
	for i, plug := range plugs {
		l[i] = o.WithPlug(plug)
	}
	return l
}

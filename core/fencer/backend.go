package fencer

import (
	"context"
	"io"

	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
)

//go:generate mockgen -source=backend.go -destination=mock_fencer/mock_fencer.go -package=mock_fencer

type (
	// StatusGetter returns the power status of the plug targeted by o.
	StatusGetter interface {
		GetPowerStatus(ctx context.Context, o *options.T) (powerstatus.T, error)
	}

	// StatusSetter requests the plug targeted by o to change to the
	// power status of the o action, without waiting for the change.
	StatusSetter interface {
		SetPowerStatus(ctx context.Context, o *options.T) error
	}

	// SyncStatusSetter changes the power status of the plug targeted by
	// o and returns true when the device confirmed the change.
	SyncStatusSetter interface {
		SyncSetPowerStatus(ctx context.Context, o *options.T) (bool, error)
	}

	// OutletLister returns the plugs of the device.
	OutletLister interface {
		GetOutletList(ctx context.Context, o *options.T) ([]Outlet, error)
	}

	// RebootCycler power cycles the plug targeted by o in a single
	// device operation, and returns true on success.
	RebootCycler interface {
		RebootCycle(ctx context.Context, o *options.T) (bool, error)
	}

	// Outlet is a plug of the device. Status is Undef if the lister can
	// not report it.
	Outlet struct {
		ID     string
		Name   string
		Status powerstatus.T
	}

	// Strategy is the power change strategy of a backend: Polled or
	// SelfVerifying.
	Strategy interface {
		strategy()
	}

	// Polled changes the power status with Setter, then polls the
	// backend status until it reports the requested status.
	Polled struct {
		Setter StatusSetter
	}

	// SelfVerifying changes the power status with a setter confirming
	// the change itself. The status is never polled.
	SelfVerifying struct {
		Setter SyncStatusSetter
	}

	// Backend is the set of device operations of an agent. Status is
	// required unless the agent declares no_status, Lister and Cycler
	// are optional.
	Backend struct {
		Status StatusGetter
		Change Strategy
		Lister OutletLister
		Cycler RebootCycler

		// Closer, if set, is closed after the action.
		Closer io.Closer
	}
)

func (Polled) strategy()        {}
func (SelfVerifying) strategy() {}

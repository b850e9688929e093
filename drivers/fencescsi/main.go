// Package fencescsi is the fence agent cutting the access of a node to
// shared storage using the SCSI-3 persistent reservations.
//
// Each node registers its own key on the devices. Fencing a node
// preempts its key, so the node can no longer write to the devices.
// Unfencing registers the key again.
package fencescsi

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/hostname"
	"github.com/opensvc/fence-agents/util/scsi"
)

type (
	// T is the reservation backend of a set of devices.
	T struct {
		devices []string
		drivers map[string]scsi.PersistentReservationDriver
		key     string
		hostKey string
	}
)

const (
	lockTimeout = 10 * time.Second
)

var (
	// NewDriver returns the reservation driver of a device.
	NewDriver = scsi.NewDriver

	// Hostname returns the name of the local node, used to derive the
	// key preempting the fenced node registrations.
	Hostname = hostname.Local

	kws = []keywords.Keyword{
		{
			Name:  "devices",
			Short: "d",
			Long:  "devices",
			Value: "[devices]",
			Text:  "List of devices to use for current operation. Devices can be comma-separated list of raw devices (eg. /dev/sdc). Each device must support SCSI-3 persistent reservations.",
			Order: 1,
		},
		{
			Name:  "key",
			Short: "k",
			Long:  "key",
			Value: "[key]",
			Text:  "Key to use for the current operation. This key should be unique to a node. For the \"on\" action, the key specifies the key use to register the local node. For the \"off\" action, this key specifies the key to be removed from the device(s).",
			Order: 1,
		},
		{
			Name:    "sg_persist_path",
			Long:    "sg_persist-path",
			Value:   "[path]",
			Default: "sg_persist",
			Text:    "Path to sg_persist binary",
			Order:   300,
		},
		{
			Name:    "mpathpersist_path",
			Long:    "mpathpersist-path",
			Value:   "[path]",
			Default: "mpathpersist",
			Text:    "Path to mpathpersist binary",
			Order:   300,
		},
	}
)

// New returns the fence_scsi agent.
func New() fencer.Agent {
	return fencer.Agent{
		Name:      "fence_scsi",
		ShortDesc: "Fence agent for SCSI persistent reservation",
		LongDesc: "fence_scsi is an I/O fencing agent that uses SCSI-3 persistent reservations to control access to shared storage devices. " +
			"These devices must support SCSI-3 persistent reservations (SPC-3 or greater) as well as the \"preempt-and-abort\" subcommand.\n" +
			"The fence_scsi agent works by having each node in the cluster register a unique key with the SCSI device(s). " +
			"Once registered, a single node will become the reservation holder by creating a \"write exclusive, registrants only\" reservation on the device(s). " +
			"The result is that only registered nodes may write to the device(s). " +
			"When a node failure occurs, the fence_scsi agent will remove the key belonging to the failed node from the device(s). " +
			"The failed node will no longer be able to write to the device(s). " +
			"A manual reboot is required.",
		VendorURL:  "",
		DeviceOpts: []string{"fabric_fencing", "no_login", "no_password", "devices", "nodename", "key", "sg_persist_path", "mpathpersist_path"},
		Keywords:   kws,
		Connect:    Connect,
	}
}

// Connect resolves the key and the drivers of the devices.
func Connect(_ context.Context, o *options.T) (fencer.Backend, error) {
	t := &T{
		drivers: make(map[string]scsi.PersistentReservationDriver),
	}
	for _, dev := range strings.Split(o.Get("--devices"), ",") {
		if dev = strings.TrimSpace(dev); dev != "" {
			t.devices = append(t.devices, dev)
		}
	}
	if len(t.devices) == 0 {
		return fencer.Backend{}, fenceerr.Usagef("Failed: No devices found")
	}
	switch {
	case o.Get("--key") != "":
		t.key = scsi.FormatKey(o.Get("--key"))
	case o.Get("--nodename") != "":
		nodename := o.Get("--nodename")
		if !hostname.IsValid(nodename) {
			return fencer.Backend{}, fenceerr.Usagef("Failed: invalid nodename %s", nodename)
		}
		t.key = scsi.MakeKey(hostname.Short(nodename))
	case o.Action() != action.Monitor:
		return fencer.Backend{}, fenceerr.Usagef("Failed: nodename or key is required")
	}
	for _, dev := range t.devices {
		drv, err := NewDriver(dev, o.Get("--sg_persist-path"), o.Get("--mpathpersist-path"), &log.Logger)
		if err != nil {
			return fencer.Backend{}, errors.Wrap(err, dev)
		}
		t.drivers[dev] = drv
	}
	if o.Action() == action.Off {
		local, err := Hostname()
		if err != nil {
			return fencer.Backend{}, err
		}
		t.hostKey = scsi.MakeKey(local)
		if t.hostKey == t.key {
			return fencer.Backend{}, fenceerr.Usagef("Failed: keys cannot be same. You can not fence yourself.")
		}
	}
	log.Debug().Msgf("scsi key %s on %s", t.key, strings.Join(t.devices, ","))
	return fencer.Backend{
		Status: t,
		Change: fencer.SelfVerifying{Setter: t},
	}, nil
}

func (t *T) isRegistered(ctx context.Context, dev, key string) (bool, error) {
	keys, err := t.drivers[dev].ReadRegistrations(ctx, dev)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// GetPowerStatus returns on if the key is registered on every device.
func (t *T) GetPowerStatus(ctx context.Context, _ *options.T) (powerstatus.T, error) {
	for _, dev := range t.devices {
		ok, err := t.isRegistered(ctx, dev, t.key)
		if err != nil {
			return powerstatus.Undef, err
		}
		if !ok {
			return powerstatus.Off, nil
		}
	}
	return powerstatus.On, nil
}

// SyncSetPowerStatus registers or preempts the key, then verifies the
// registrations.
func (t *T) SyncSetPowerStatus(ctx context.Context, o *options.T) (bool, error) {
	var f func(context.Context) error
	switch o.Action() {
	case action.On:
		f = t.unfence
	case action.Off:
		f = t.fence
	default:
		return false, errors.Errorf("unsupported action %s", o.Action())
	}
	err := scsi.DoWithLock(lockTimeout, "fence_scsi", o.Action().String()+" "+t.key, func() error {
		return f(ctx)
	})
	if err != nil {
		return false, err
	}
	s, err := t.GetPowerStatus(ctx, o)
	if err != nil {
		return false, err
	}
	return s == powerstatus.T(o.Action()), nil
}

func (t *T) unfence(ctx context.Context) error {
	for _, dev := range t.devices {
		drv := t.drivers[dev]
		if err := drv.Register(ctx, dev, t.key); err != nil {
			return err
		}
		holder, err := drv.ReadReservation(ctx, dev)
		if err != nil {
			return err
		}
		if holder != "" {
			continue
		}
		if err := drv.Reserve(ctx, dev, t.key); err != nil {
			return err
		}
	}
	return nil
}

func (t *T) fence(ctx context.Context) error {
	for _, dev := range t.devices {
		drv := t.drivers[dev]
		ok, err := t.isRegistered(ctx, dev, t.hostKey)
		if err != nil {
			return err
		}
		if !ok {
			log.Debug().Msgf("register the host key %s on %s", t.hostKey, dev)
			if err := drv.Register(ctx, dev, t.hostKey); err != nil {
				return err
			}
		}
		if err := drv.PreemptAbort(ctx, dev, t.key, t.hostKey); err != nil {
			return err
		}
	}
	return nil
}

// Package fencedummy is a fence agent without device, keeping the power
// status in a local file. It is used to test the fencing configurations.
package fencedummy

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/file"
	"github.com/opensvc/fence-agents/util/flock"
	"github.com/opensvc/fence-agents/util/retry"
)

type (
	// fileDevice stores the power status in the status file.
	fileDevice struct {
		path string
	}

	// failDevice reports two plugs whose power status never changes.
	failDevice struct {
		status powerstatus.T
	}
)

const (
	lockTimeout = 5 * time.Second

	TypeFile = "file"
	TypeFail = "fail"
)

var (
	kws = []keywords.Keyword{
		{
			Name:    "status_file",
			Long:    "status-file",
			Value:   "[file]",
			Default: "/tmp/fence_dummy.status",
			Text:    "File with status",
			Order:   1,
		},
		{
			Name:  "random_sleep_range",
			Long:  "random_sleep_range",
			Value: "[seconds]",
			Type:  keywords.TypeInteger,
			Text:  "Issue a sleep between 1 and X seconds. Used for testing.",
			Order: 1,
		},
		{
			Name:       "type",
			Long:       "type",
			Value:      "[type]",
			Default:    TypeFile,
			Candidates: []string{TypeFile, TypeFail},
			Text:       "Type of the dummy fence agent",
			Order:      1,
		},
		keywords.Base.Derive("port", func(kw *keywords.Keyword) {
			kw.Required = keywords.RequiredNo
		}),
	}

	failPlugs = []fencer.Outlet{
		{ID: "1", Name: "port 1"},
		{ID: "2", Name: "port 2"},
	}
)

// New returns the fence_dummy agent.
func New() fencer.Agent {
	return fencer.Agent{
		Name:       "fence_dummy",
		ShortDesc:  "Dummy fence agent",
		LongDesc:   "fence_dummy is a fake fencing agent which can be used to test the fencing configurations. It has no device: the power status is kept in a file.",
		DeviceOpts: []string{"no_login", "no_password", "port", "status_file", "random_sleep_range", "type"},
		Keywords:   kws,
		Connect:    Connect,
	}
}

// Connect returns the backend of the --type option.
func Connect(ctx context.Context, o *options.T) (fencer.Backend, error) {
	if n := o.Int("--random_sleep_range"); n > 0 {
		d := time.Duration(1+rand.Intn(n)) * time.Second
		log.Info().Msgf("random sleep %s", d)
		if err := retry.Sleep(ctx, d); err != nil {
			return fencer.Backend{}, err
		}
	}
	if o.Get("--type") == TypeFail {
		t := &failDevice{status: powerstatus.On}
		if o.Action() == action.On {
			t.status = powerstatus.Off
		}
		return fencer.Backend{
			Status: t,
			Change: fencer.Polled{Setter: t},
			Lister: t,
		}, nil
	}
	t := &fileDevice{path: o.Get("--status-file")}
	return fencer.Backend{
		Status: t,
		Change: fencer.Polled{Setter: t},
		Lister: t,
	}, nil
}

func (t *fileDevice) GetPowerStatus(_ context.Context, _ *options.T) (powerstatus.T, error) {
	s, err := file.ReadTrimmed(t.path)
	if os.IsNotExist(err) {
		return powerstatus.Off, nil
	}
	if err != nil {
		return powerstatus.Undef, err
	}
	return powerstatus.Parse(s), nil
}

func (t *fileDevice) SetPowerStatus(_ context.Context, o *options.T) error {
	switch a := o.Action(); a {
	case action.On, action.Off:
		return flock.Do(t.path+".lock", lockTimeout, "set "+a.String(), func() error {
			return file.WriteAtomic(t.path, []byte(a.String()), 0644)
		})
	default:
		return nil
	}
}

func (t *fileDevice) GetOutletList(ctx context.Context, o *options.T) ([]fencer.Outlet, error) {
	status, err := t.GetPowerStatus(ctx, o)
	if err != nil {
		return nil, err
	}
	l := make([]fencer.Outlet, len(failPlugs))
	for i, outlet := range failPlugs {
		outlet.Status = status
		l[i] = outlet
	}
	return l, nil
}

func (t *failDevice) GetPowerStatus(_ context.Context, o *options.T) (powerstatus.T, error) {
	if !t.hasPlug(o.Plug()) {
		return powerstatus.Undef, fenceerr.Usagef("Failed: You have to enter existing machine!")
	}
	return t.status, nil
}

func (t *failDevice) hasPlug(plug string) bool {
	for _, outlet := range failPlugs {
		if outlet.ID == plug {
			return true
		}
	}
	return false
}

// SetPowerStatus does nothing, so the power changes never converge.
func (t *failDevice) SetPowerStatus(_ context.Context, _ *options.T) error {
	return nil
}

func (t *failDevice) GetOutletList(_ context.Context, _ *options.T) ([]fencer.Outlet, error) {
	l := make([]fencer.Outlet, len(failPlugs))
	for i, outlet := range failPlugs {
		outlet.Status = t.status
		l[i] = outlet
	}
	return l, nil
}

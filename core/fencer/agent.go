package fencer

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/metadata"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/rawopts"
	"github.com/opensvc/fence-agents/util/logging"
	"github.com/opensvc/fence-agents/util/retcodes"
	"github.com/opensvc/fence-agents/util/retry"
)

type (
	// Agent is a fence agent: its documentation, its options and the
	// factory of its device backend.
	Agent struct {
		Name      string
		ShortDesc string
		LongDesc  string
		VendorURL string
		Version   string

		// DeviceOpts are the option names requested by the agent. They
		// are expanded with their dependencies.
		DeviceOpts []string

		// Keywords are the agent specific keywords, or the base keywords
		// the agent overrides.
		Keywords []keywords.Keyword

		// Connect opens the device and returns its backend. It is not
		// called for the actions not needing the device.
		Connect func(ctx context.Context, o *options.T) (Backend, error)

		// Clock defaults to the wall clock.
		Clock retry.Clock
	}
)

const usageHint = "Please use '-h' for usage"

// Set returns the expanded option set of the agent.
func (t Agent) Set() keywords.Set {
	return keywords.Expand(t.DeviceOpts...)
}

// Store returns the keywords of the agent, patched for its option set.
func (t Agent) Store() keywords.Store {
	return keywords.Base.Merge(t.Keywords...).Patched(t.Set())
}

// Doc returns the documentation source of the agent.
func (t Agent) Doc() metadata.Doc {
	set := t.Set()
	return metadata.Doc{
		Name:      t.Name,
		ShortDesc: t.ShortDesc,
		LongDesc:  t.LongDesc,
		VendorURL: t.VendorURL,
		Store:     t.Store(),
		Set:       set,
	}
}

// Run executes the agent with the command line arguments args, or the
// stdin options if args is empty, and returns the process exit code.
func (t Agent) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) retcodes.T {
	logging.Configure(logging.Config{
		Level:          zerolog.InfoLevel,
		WithConsoleLog: true,
		Console:        stderr,
	})
	doc := t.Doc()
	raw, err := rawopts.Acquire(args, stdin, doc.Store, doc.Set)
	if err != nil {
		return t.fail(err)
	}
	o := options.Prepare(raw, doc.Store, doc.Set, options.NewEnv())
	if o.ShortCircuit() {
		if err := t.document(stdout, doc, o); err != nil {
			return t.fail(err)
		}
		return retcodes.OK
	}

	level := zerolog.InfoLevel
	if o.VerboseLevel() >= 1 {
		level = zerolog.DebugLevel
	}
	logger := logging.Configure(logging.Config{
		Level:          level,
		WithConsoleLog: !o.Has("--quiet"),
		Console:        stderr,
		DebugFile:      o.Get("--debug-file"),
		WithSyslog:     true,
		Tag:            t.Name,
	})
	defer func() {
		_ = logger.Close()
	}()
	log.Debug().Msgf("%s %s", t.Name, o.RawAction())

	code, err := t.execute(ctx, o, stdout)
	if err != nil {
		t.report(err)
	}
	return code
}

// fail reports err and returns its exit code.
func (t Agent) fail(err error) retcodes.T {
	t.report(err)
	return fenceerr.Code(err)
}

func (t Agent) report(err error) {
	e := fenceerr.FromTransport(err)
	if e.Err != nil && e.Code != retcodes.GenericError {
		log.Debug().Err(e.Err).Msg("cause")
	}
	log.Error().Msg(e.Error())
	if e.Usage {
		log.Error().Msg(usageHint)
	}
}

func (t Agent) execute(ctx context.Context, o *options.T, stdout io.Writer) (retcodes.T, error) {
	if err := o.CheckAction(); err != nil {
		return fenceerr.Code(err), err
	}
	if o.Action() == action.ValidateAll {
		errs := o.Check()
		if len(errs) == 0 {
			return retcodes.OK, nil
		}
		for _, err := range errs {
			log.Error().Msg(err.Error())
		}
		log.Error().Msg(usageHint)
		return retcodes.GenericError, nil
	}
	if err := o.Validate(); err != nil {
		return fenceerr.Code(err), err
	}
	if err := o.ResolveSecrets(ctx); err != nil {
		return fenceerr.Code(err), err
	}
	if err := o.ExportEnvFile(); err != nil {
		return fenceerr.Code(err), err
	}

	clock := t.clock()
	if a := o.Action(); a == action.Off || a == action.Reboot {
		if d := o.Seconds("--delay"); d > 0 {
			log.Info().Msgf("Delay %s before fencing", d)
			if err := clock.Sleep(ctx, d); err != nil {
				return fenceerr.Code(err), err
			}
		}
	}

	if t.Connect == nil {
		return retcodes.GenericError, fmt.Errorf("agent %s has no backend", t.Name)
	}
	backend, err := t.Connect(ctx, o)
	if err != nil {
		return fenceerr.Code(err), err
	}
	if backend.Closer != nil {
		defer func() {
			if err := backend.Closer.Close(); err != nil {
				log.Debug().Err(err).Msg("close backend")
			}
		}()
	}
	d := Dispatcher{
		Backend: backend,
		Clock:   clock,
		Stdout:  stdout,
	}
	return d.Do(ctx, o)
}

func (t Agent) document(w io.Writer, doc metadata.Doc, o *options.T) error {
	switch {
	case o.Has("--help"):
		_, _ = fmt.Fprint(w, doc.Help())
	case o.Has("--version"):
		_, _ = fmt.Fprintf(w, "%s\n", t.Version)
	case o.Action() == action.Manpage:
		_, _ = fmt.Fprint(w, doc.Manpage(t.clock().Now()))
	default:
		b, err := doc.XML()
		if err != nil {
			return err
		}
		_, _ = w.Write(b)
	}
	return nil
}

func (t Agent) clock() retry.Clock {
	if t.Clock == nil {
		return retry.WallClock
	}
	return t.Clock
}

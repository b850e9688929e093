// Package fenceredfish is the fence agent of the servers managed by a
// Redfish API compliant controller.
package fenceredfish

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/retcodes"
)

type (
	// T is the Redfish backend.
	T struct {
		client     *http.Client
		baseURL    string
		systemsURI string
		user       string
		password   string
	}

	link struct {
		ID string `json:"@odata.id"`
	}

	serviceRoot struct {
		Systems link `json:"Systems"`
	}

	collection struct {
		Members []link `json:"Members"`
	}

	system struct {
		PowerState string `json:"PowerState"`
	}

	resetRequest struct {
		ResetType string `json:"ResetType"`
	}
)

const (
	ResetOn           = "On"
	ResetForceOff     = "ForceOff"
	ResetForceRestart = "ForceRestart"
)

var (
	kws = []keywords.Keyword{
		{
			Name:    "redfish_uri",
			Long:    "redfish-uri",
			Value:   "[uri]",
			Default: "/redfish/v1",
			Text:    "Base or starting Redfish URI",
			Order:   1,
		},
		{
			Name:  "systems_uri",
			Long:  "systems-uri",
			Value: "[uri]",
			Text:  "Redfish Systems resource URI, i.e. /redfish/v1/Systems/System.Embedded.1",
			Order: 1,
		},
		keywords.Base.Derive("ssl", func(kw *keywords.Keyword) {
			kw.Default = "1"
		}),
		keywords.Base.Derive("method", func(kw *keywords.Keyword) {
			kw.Default = "cycle"
		}),
	}

	resetTypes = map[action.T]string{
		action.On:  ResetOn,
		action.Off: ResetForceOff,
	}
)

// New returns the fence_redfish agent.
func New() fencer.Agent {
	return fencer.Agent{
		Name:       "fence_redfish",
		ShortDesc:  "I/O Fencing agent for Redfish",
		LongDesc:   "fence_redfish is a Power Fencing agent which can be used with Out-of-Band controllers that support Redfish APIs. These controllers provide remote access to control power on a server.",
		VendorURL:  "http://www.dmtf.org",
		DeviceOpts: []string{"ipaddr", "login", "passwd", "redfish_uri", "systems_uri", "ssl", "method"},
		Keywords:   kws,
		Connect:    Connect,
	}
}

// Connect discovers the systems URI if not set, and checks the
// credentials on the way.
func Connect(ctx context.Context, o *options.T) (fencer.Backend, error) {
	scheme := "http"
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if o.Has("--ssl") {
		scheme = "https"
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: o.Has("--ssl-insecure"),
		}
	}
	host := o.Get("--ip")
	if port := o.Get("--ipport"); port != "" {
		host = net.JoinHostPort(host, port)
	}
	t := &T{
		client: &http.Client{
			Transport: transport,
			Timeout:   o.Seconds("--shell-timeout"),
		},
		baseURL:    scheme + "://" + host,
		systemsURI: o.Get("--systems-uri"),
		user:       o.Get("--username"),
		password:   o.Get("--password"),
	}
	if t.systemsURI == "" {
		uri, err := t.discoverSystemsURI(ctx, o.Get("--redfish-uri"))
		if err != nil {
			return fencer.Backend{}, err
		}
		t.systemsURI = uri
	}
	log.Debug().Msgf("redfish systems uri: %s", t.systemsURI)
	return fencer.Backend{
		Status: t,
		Change: fencer.Polled{Setter: t},
		Cycler: t,
		Closer: t,
	}, nil
}

func (t *T) discoverSystemsURI(ctx context.Context, redfishURI string) (string, error) {
	var root serviceRoot
	if err := t.do(ctx, http.MethodGet, redfishURI, nil, &root); err != nil {
		return "", err
	}
	if root.Systems.ID == "" {
		return "", errors.Errorf("%s: no Systems resource", redfishURI)
	}
	var systems collection
	if err := t.do(ctx, http.MethodGet, root.Systems.ID, nil, &systems); err != nil {
		return "", err
	}
	if len(systems.Members) == 0 {
		return "", errors.Errorf("%s: no system", root.Systems.ID)
	}
	if len(systems.Members) > 1 {
		log.Warn().Msgf("%d systems found, use the first one. Set --systems-uri to select another one", len(systems.Members))
	}
	return systems.Members[0].ID, nil
}

func (t *T) do(ctx context.Context, method, uri string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+uri, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.user, t.password)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fenceerr.Wrap(retcodes.LoginDenied, errors.Errorf("%s %s: %s", method, uri, resp.Status))
	case resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("%s %s: %s %s", method, uri, resp.Status, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s %s", method, uri)
	}
	return nil
}

func (t *T) reset(ctx context.Context, resetType string) error {
	uri := t.systemsURI + "/Actions/ComputerSystem.Reset"
	log.Debug().Msgf("redfish reset %s", resetType)
	return t.do(ctx, http.MethodPost, uri, resetRequest{ResetType: resetType}, nil)
}

func (t *T) GetPowerStatus(ctx context.Context, _ *options.T) (powerstatus.T, error) {
	var s system
	if err := t.do(ctx, http.MethodGet, t.systemsURI, nil, &s); err != nil {
		return powerstatus.Undef, err
	}
	return powerstatus.Parse(s.PowerState), nil
}

func (t *T) SetPowerStatus(ctx context.Context, o *options.T) error {
	resetType, ok := resetTypes[o.Action()]
	if !ok {
		return fmt.Errorf("no reset type for action %s", o.Action())
	}
	return t.reset(ctx, resetType)
}

func (t *T) RebootCycle(ctx context.Context, _ *options.T) (bool, error) {
	if err := t.reset(ctx, ResetForceRestart); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the idle connections.
func (t *T) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

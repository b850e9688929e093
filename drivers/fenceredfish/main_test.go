package fenceredfish

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/opensvc/fence-agents/util/retcodes"
	"github.com/opensvc/fence-agents/util/retry"
)

type bmc struct {
	sync.Mutex
	powerState string
	resets     []string
}

func (t *bmc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, password, ok := r.BasicAuth()
	if !ok || user != "admin" || password != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	t.Lock()
	defer t.Unlock()
	write := func(v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/redfish/v1":
		write(map[string]interface{}{"Systems": map[string]string{"@odata.id": "/redfish/v1/Systems"}})
	case r.Method == http.MethodGet && r.URL.Path == "/redfish/v1/Systems":
		write(map[string]interface{}{"Members": []map[string]string{{"@odata.id": "/redfish/v1/Systems/1"}}})
	case r.Method == http.MethodGet && r.URL.Path == "/redfish/v1/Systems/1":
		write(map[string]string{"PowerState": t.powerState})
	case r.Method == http.MethodPost && r.URL.Path == "/redfish/v1/Systems/1/Actions/ComputerSystem.Reset":
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		t.resets = append(t.resets, req.ResetType)
		switch req.ResetType {
		case ResetOn, ResetForceRestart:
			t.powerState = "On"
		case ResetForceOff:
			t.powerState = "Off"
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"error": "not found"}`)
	}
}

func setup(t *testing.T, powerState string) (*bmc, []string) {
	device := &bmc{powerState: powerState}
	server := httptest.NewTLSServer(device)
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, _ := net.SplitHostPort(u.Host)
	return device, []string{"-a", host, "-u", port, "-l", "admin", "-p", "secret", "--ssl-insecure"}
}

func run(args ...string) (retcodes.T, string, string) {
	var stdout, stderr bytes.Buffer
	agent := New()
	agent.Clock = retry.NewFakeClock()
	code := agent.Run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAgent(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		_, args := setup(t, "On")
		code, stdout, stderr := run(append(args, "-o", "status")...)
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Status: ON\n", stdout)
	})

	t.Run("off", func(t *testing.T) {
		device, args := setup(t, "On")
		code, stdout, stderr := run(append(args, "-o", "off")...)
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Success: Powered OFF\n", stdout)
		assert.Equal(t, []string{ResetForceOff}, device.resets)
	})

	t.Run("reboot cycles by default", func(t *testing.T) {
		device, args := setup(t, "On")
		code, stdout, stderr := run(append(args, "-o", "reboot")...)
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Success: Rebooted\n", stdout)
		assert.Equal(t, []string{ResetForceRestart}, device.resets)
	})

	t.Run("reboot with onoff method", func(t *testing.T) {
		device, args := setup(t, "On")
		code, stdout, stderr := run(append(args, "-o", "reboot", "--method", "onoff")...)
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Success: Rebooted\n", stdout)
		assert.Equal(t, []string{ResetForceOff, ResetOn}, device.resets)
	})

	t.Run("explicit systems uri", func(t *testing.T) {
		_, args := setup(t, "Off")
		code, stdout, _ := run(append(args, "-o", "status", "--systems-uri", "/redfish/v1/Systems/1")...)
		assert.Equal(t, retcodes.StatusOff, code)
		assert.Equal(t, "Status: OFF\n", stdout)
	})

	t.Run("wrong systems uri", func(t *testing.T) {
		_, args := setup(t, "Off")
		code, _, stderr := run(append(args, "-o", "status", "--systems-uri", "/redfish/v1/Systems/9")...)
		assert.Equal(t, retcodes.GenericError, code)
		assert.Contains(t, stderr, "404 Not Found")
	})

	t.Run("login denied", func(t *testing.T) {
		_, args := setup(t, "On")
		args[7] = "wrong"
		code, _, stderr := run(append(args, "-o", "status")...)
		assert.Equal(t, retcodes.LoginDenied, code)
		assert.Contains(t, stderr, retcodes.LoginDenied.Message())
	})

	t.Run("certificate is verified without ssl-insecure", func(t *testing.T) {
		_, args := setup(t, "On")
		code, _, _ := run(append(args[:len(args)-1], "-o", "status")...)
		assert.NotEqual(t, retcodes.OK, code)
	})

	t.Run("list is not available", func(t *testing.T) {
		_, args := setup(t, "On")
		code, stdout, _ := run(append(args, "-o", "list")...)
		assert.Equal(t, retcodes.OK, code)
		assert.Equal(t, "N/A\n", stdout)
	})
}

// Package sshnode opens ssh sessions on fence devices and hypervisors,
// authenticating with a password or private keys.
package sshnode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/opensvc/fence-agents/util/file"
)

type (
	// Config is the ssh connection configuration.
	Config struct {
		Host string
		Port string
		User string

		// Password is used for the password and keyboard-interactive
		// authentications.
		Password string

		// IdentityFile is the private key file. If neither Password nor
		// IdentityFile is set, the ~/.ssh/id_* keys are tried.
		IdentityFile string

		// KnownHostsFile defaults to ~/.ssh/known_hosts. Unknown hosts are
		// added to the file, hosts with a changed key are refused.
		KnownHostsFile string

		// StrictHostKeyChecking=no disables the known hosts verification.
		InsecureHostKey bool

		// Network is "tcp", "tcp4" or "tcp6".
		Network string

		// Timeout bounds the connection and authentication. Zero means
		// unbounded.
		Timeout time.Duration
	}

	// Client is a connected ssh client.
	Client struct {
		*ssh.Client
	}

	// ExitError is returned by Run when the remote command exits with a
	// non-zero status.
	ExitError struct {
		Cmd    string
		Status int
		Stderr string
	}
)

const DefaultKnownHostsFile = "~/.ssh/known_hosts"

var (
	ErrNoAuth = errors.New("no ssh authentication method available")
)

func (t *ExitError) Error() string {
	s := fmt.Sprintf("%s: exit status %d", t.Cmd, t.Status)
	if t.Stderr != "" {
		s += ": " + t.Stderr
	}
	return s
}

// NewClient connects and authenticates to the host.
func NewClient(ctx context.Context, c Config) (*Client, error) {
	if c.Host == "" {
		return nil, errors.New("empty hostname is not allowed")
	}
	config, err := c.clientConfig()
	if err != nil {
		return nil, err
	}
	port := c.Port
	if port == "" {
		port = "22"
	}
	network := c.Network
	if network == "" {
		network = "tcp"
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	addr := net.JoinHostPort(c.Host, port)
	log.Debug().Msgf("ssh connect %s@%s", c.User, addr)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return &Client{Client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

func (c Config) clientConfig() (*ssh.ClientConfig, error) {
	auth, err := c.authMethods()
	if err != nil {
		return nil, err
	}
	knownHostsFile := c.KnownHostsFile
	if knownHostsFile == "" {
		knownHostsFile = DefaultKnownHostsFile
	}
	knownHostsFile, err = homedir.Expand(knownHostsFile)
	if err != nil {
		return nil, err
	}
	callback := AddingKnownHostCallback(knownHostsFile)
	if c.InsecureHostKey {
		callback = ssh.InsecureIgnoreHostKey()
	}
	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: callback,
		Timeout:         c.Timeout,
	}, nil
}

func (c Config) authMethods() ([]ssh.AuthMethod, error) {
	l := make([]ssh.AuthMethod, 0)
	signers, err := c.signers()
	if err != nil {
		return nil, err
	}
	if len(signers) > 0 {
		l = append(l, ssh.PublicKeys(signers...))
	}
	if c.Password != "" {
		l = append(l, ssh.Password(c.Password))
		l = append(l, ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				answers[i] = c.Password
			}
			return answers, nil
		}))
	}
	if len(l) == 0 {
		return nil, ErrNoAuth
	}
	return l, nil
}

func (c Config) signers() ([]ssh.Signer, error) {
	if c.IdentityFile != "" {
		p, err := homedir.Expand(c.IdentityFile)
		if err != nil {
			return nil, err
		}
		key, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.IdentityFile, err)
		}
		return []ssh.Signer{signer}, nil
	}
	if c.Password != "" {
		return nil, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}
	privKeyFiles, err := filepath.Glob(filepath.Join(home, ".ssh/id_*"))
	if err != nil {
		return nil, err
	}
	signers := make([]ssh.Signer, 0)
	for _, privKeyFile := range privKeyFiles {
		if strings.Contains(filepath.Base(privKeyFile), ".") {
			continue
		}
		if key, err := os.ReadFile(privKeyFile); err == nil {
			if signer, err := ssh.ParsePrivateKey(key); err == nil {
				signers = append(signers, signer)
			}
		}
	}
	return signers, nil
}

// Run executes cmd in a new session and returns its stdout. The session
// is closed when ctx is done.
func (t *Client) Run(ctx context.Context, cmd string) ([]byte, error) {
	session, err := t.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	done := make(chan error, 1)
	log.Debug().Msgf("ssh run: %s", cmd)
	go func() {
		done <- session.Run(cmd)
	}()
	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, ctx.Err()
	case err = <-done:
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), &ExitError{
			Cmd:    cmd,
			Status: exitErr.ExitStatus(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	if err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// AddingKnownHostCallback returns a host key callback accepting the
// hosts known in knownHostFile, and adding the unknown hosts to it.
func AddingKnownHostCallback(knownHostFile string) ssh.HostKeyCallback {
	return func(host string, remote net.Addr, key ssh.PublicKey) error {
		var keyErr *knownhosts.KeyError

		if !file.Exists(knownHostFile) {
			if err := AddKnownHost(knownHostFile, host, remote, key); err != nil {
				return err
			}
		}
		callback, err := knownhosts.New(knownHostFile)
		if err != nil {
			return err
		}
		err = callback(host, remote, key)
		if err == nil {
			return nil
		}
		v := errors.As(err, &keyErr)
		if v && len(keyErr.Want) > 0 {
			return fmt.Errorf("%s: conflicting %s +%d", keyErr, keyErr.Want[0].Filename, keyErr.Want[0].Line)
		}
		if v && len(keyErr.Want) == 0 {
			log.Info().Msgf("add %s to %s", host, knownHostFile)
			return AddKnownHost(knownHostFile, host, remote, key)
		}
		return err
	}
}

// AddKnownHost appends the host key to knownHostFile.
func AddKnownHost(knownHostFile, host string, remote net.Addr, key ssh.PublicKey) error {
	if err := os.MkdirAll(filepath.Dir(knownHostFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(knownHostFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	knownHost := knownhosts.Normalize(host)
	_, err = f.WriteString(knownhosts.Line([]string{knownHost}, key) + "\n")
	return err
}

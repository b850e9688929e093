package test_helper

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"testing"

	"golang.org/x/crypto/ssh"
)

// SSHHandler returns the stdout, stderr and exit status of a command run
// on the test ssh server.
type SSHHandler func(cmd string) (stdout, stderr string, status int)

// SSHServer starts an ssh server on the loopback interface accepting
// password, and returns its host and port. The server is stopped by the
// test cleanup.
func SSHServer(t *testing.T, password string, handler SSHHandler) (string, string) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("SSHServer GenerateKey error: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("SSHServer NewSignerFromKey error: %v", err)
	}
	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if string(pass) == password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", c.User())
		},
	}
	config.AddHostKey(signer)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("SSHServer Listen error: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go serveSSH(conn, config, handler)
		}
	}()
	host, port, _ := net.SplitHostPort(l.Addr().String())
	return host, port
}

func serveSSH(conn net.Conn, config *ssh.ServerConfig, handler SSHHandler) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		_ = conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go serveSession(ch, requests, handler)
	}
}

func serveSession(ch ssh.Channel, requests <-chan *ssh.Request, handler SSHHandler) {
	for req := range requests {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			continue
		}
		_ = req.Reply(true, nil)
		stdout, stderr, status := handler(payload.Command)
		_, _ = io.WriteString(ch, stdout)
		_, _ = io.WriteString(ch.Stderr(), stderr)
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(status)}))
		_ = ch.Close()
	}
}

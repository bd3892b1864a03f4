package m1xep

import (
	"bufio"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type panelConfig struct {
	secure   bool
	username string
	password string
	// welcome is written right after the login success banner.
	welcome string
	// respond returns the frames answering a received line.
	respond func(line string) []string
}

// fakePanel is an in-process M1XEP listening on 127.0.0.1.
type fakePanel struct {
	t   *testing.T
	cfg panelConfig
	ln  net.Listener

	mu    sync.Mutex
	conns []net.Conn
	lines chan string
	wg    sync.WaitGroup
}

func newFakePanel(t *testing.T, cfg panelConfig) *fakePanel {
	t.Helper()

	var ln net.Listener
	var err error
	if cfg.secure {
		ln, err = tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
			Certificates: []tls.Certificate{selfSignedCert(t)},
			MinVersion:   tls.VersionTLS12,
		})
	} else {
		ln, err = net.Listen("tcp", "127.0.0.1:0")
	}
	require.NoError(t, err)

	p := &fakePanel{t: t, cfg: cfg, ln: ln, lines: make(chan string, 256)}

	p.wg.Add(1)
	go p.acceptLoop()
	t.Cleanup(p.close)

	return p
}

func (p *fakePanel) port() int {
	return p.ln.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert
}

func (p *fakePanel) acceptLoop() {
	defer p.wg.Done()

	for {
		conn, err := p.ln.Accept()
		if err != nil {
			return
		}

		p.mu.Lock()
		p.conns = append(p.conns, conn)
		p.mu.Unlock()

		p.wg.Add(1)
		go p.serve(conn)
	}
}

func (p *fakePanel) serve(conn net.Conn) {
	defer p.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)

	if p.cfg.secure && !p.login(conn, r) {
		return
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		select {
		case p.lines <- line:
		default:
		}

		if p.cfg.respond == nil {
			continue
		}
		for _, resp := range p.cfg.respond(line) {
			p.write(conn, resp+"\r\n")
		}
	}
}

func (p *fakePanel) login(conn net.Conn, r *bufio.Reader) bool {
	for {
		p.write(conn, "\r\nUsername:")
		user, err := r.ReadString('\n')
		if err != nil {
			return false
		}

		p.write(conn, "\r\nPassword:")
		pass, err := r.ReadString('\n')
		if err != nil {
			return false
		}

		if strings.TrimRight(user, "\r\n") == p.cfg.username && strings.TrimRight(pass, "\r\n") == p.cfg.password {
			p.write(conn, "\r\nElk-M1XEP: Login successful.\r\n"+p.cfg.welcome)
			return true
		}
	}
}

func (p *fakePanel) write(conn net.Conn, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = io.WriteString(conn, s)
}

// broadcast writes frame lines to every open connection.
func (p *fakePanel) broadcast(frames ...string) {
	p.mu.Lock()
	conns := append([]net.Conn(nil), p.conns...)
	p.mu.Unlock()

	for _, conn := range conns {
		for _, f := range frames {
			p.write(conn, f+"\r\n")
		}
	}
}

// waitConns waits until the panel holds n open connections.
func (p *fakePanel) waitConns(t *testing.T, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.conns) == n
	}, time.Second, time.Millisecond)
}

// dropConnections closes every open connection, the listener keeps accepting.
func (p *fakePanel) dropConnections() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, conn := range p.conns {
		_ = conn.Close()
	}
	p.conns = nil
}

func (p *fakePanel) close() {
	_ = p.ln.Close()
	p.dropConnections()
	p.wg.Wait()
}

// nextLine returns the next line received by the panel.
func (p *fakePanel) nextLine(timeout time.Duration) (string, bool) {
	select {
	case line := <-p.lines:
		return line, true
	case <-time.After(timeout):
		return "", false
	}
}

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "m1xep"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

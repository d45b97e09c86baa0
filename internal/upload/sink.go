// Package upload hands finished artifacts to a remote sink. Local
// persistence and remote delivery are independent: no upload outcome ever
// deletes or mutates the local file.
package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// SinkConfig carries the remote endpoint settings. The fields are optional
// as a group: when the required subset (host, user, password) is missing the
// dispatcher treats uploads as not configured rather than failing.
type SinkConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	RemoteDir string
	Timeout   time.Duration
}

// Configured reports whether enough settings are present to attempt an
// upload.
func (c SinkConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

func (c SinkConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 21
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

func (c SinkConfig) remoteDir() string {
	if c.RemoteDir == "" {
		return "/videos"
	}
	return c.RemoteDir
}

// Sink is the capability interface for a remote artifact store: a thing that
// takes bytes and a remote path and can report the stored size. It exists so
// the dispatcher can be tested without a network.
type Sink interface {
	// Store writes r under name in the sink's remote directory and returns
	// the full remote path.
	Store(ctx context.Context, r io.Reader, name string) (string, error)
	// StoredSize returns the remote size of a previously stored name.
	StoredSize(ctx context.Context, name string) (int64, error)
}

// FTPSink transfers artifacts over FTP. Each Store or StoredSize call dials
// a fresh session; generation dominates the runtime of a request so
// connection reuse buys nothing here.
type FTPSink struct {
	cfg SinkConfig
}

// NewFTPSink returns a sink for the given endpoint.
func NewFTPSink(cfg SinkConfig) *FTPSink {
	return &FTPSink{cfg: cfg}
}

func (s *FTPSink) connect(ctx context.Context) (*ftp.ServerConn, error) {
	timeout := s.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	conn, err := ftp.Dial(s.cfg.addr(), ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.cfg.addr(), err)
	}
	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login as %s: %w", s.cfg.User, err)
	}
	return conn, nil
}

// Store uploads r under name inside the configured remote directory,
// creating the directory chain when it does not exist yet.
func (s *FTPSink) Store(ctx context.Context, r io.Reader, name string) (string, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Quit()

	if err := enterDir(conn, s.cfg.remoteDir()); err != nil {
		return "", err
	}
	if err := conn.Stor(name, r); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return path.Join(s.cfg.remoteDir(), name), nil
}

// StoredSize reports the remote size of name inside the remote directory.
func (s *FTPSink) StoredSize(ctx context.Context, name string) (int64, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Quit()

	if err := conn.ChangeDir(s.cfg.remoteDir()); err != nil {
		return 0, fmt.Errorf("change dir %s: %w", s.cfg.remoteDir(), err)
	}
	size, err := conn.FileSize(name)
	if err != nil {
		return 0, fmt.Errorf("size of %s: %w", name, err)
	}
	return size, nil
}

// dirNavigator is the slice of the FTP session the directory walk needs. It
// exists so the walk is testable without a live server.
type dirNavigator interface {
	ChangeDir(path string) error
	MakeDir(path string) error
}

// enterDir changes into dir, creating each missing path segment along the
// way.
func enterDir(conn dirNavigator, dir string) error {
	if err := conn.ChangeDir(dir); err == nil {
		return nil
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		if err := conn.ChangeDir(part); err != nil {
			if err := conn.MakeDir(part); err != nil {
				return fmt.Errorf("create remote dir %s: %w", part, err)
			}
			if err := conn.ChangeDir(part); err != nil {
				return fmt.Errorf("enter remote dir %s: %w", part, err)
			}
		}
	}
	return nil
}

var _ Sink = (*FTPSink)(nil)

// Package smbshare provides the SMB2 sink side of a transfer: the
// connect/authenticate/mount chain, destination file handles, and
// best-effort teardown.
package smbshare

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/hirochachacha/go-smb2"
	"github.com/sirupsen/logrus"

	"s3smbcopy/internal/transfer"
)

// DefaultMaxWriteSize is the write ceiling assumed when none is
// configured. Every SMB2 dialect guarantees at least 1 MiB.
const DefaultMaxWriteSize = 1 << 20

// Config describes one share mount.
type Config struct {
	Server   string
	Port     int
	Share    string
	Username string
	Password string
	Domain   string

	// MaxWriteSize bounds single writes to the share. Zero selects
	// DefaultMaxWriteSize.
	MaxWriteSize int
}

// Session is an authenticated, mounted SMB2 session. It implements
// transfer.Sink and must not be shared between concurrent transfers.
type Session struct {
	conn     net.Conn
	sess     *smb2.Session
	share    *smb2.Share
	maxWrite int
	log      *logrus.Logger
}

// Connect dials the server, authenticates with NTLM, and mounts the share.
// Partially established state is torn down before an error returns.
func Connect(ctx context.Context, cfg Config, log *logrus.Logger) (*Session, error) {
	port := cfg.Port
	if port == 0 {
		port = 445
	}
	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(port))

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.Username,
			Password: cfg.Password,
			Domain:   cfg.Domain,
		},
	}
	sess, err := dialer.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smb session setup with %s: %w", cfg.Server, err)
	}

	share, err := sess.Mount(cfg.Share)
	if err != nil {
		sess.Logoff()
		conn.Close()
		return nil, fmt.Errorf("mount share %s on %s: %w", cfg.Share, cfg.Server, err)
	}

	maxWrite := cfg.MaxWriteSize
	if maxWrite <= 0 {
		maxWrite = DefaultMaxWriteSize
	}

	log.WithFields(logrus.Fields{
		"server":         cfg.Server,
		"share":          cfg.Share,
		"max_write_size": maxWrite,
	}).Info("smb share mounted")

	return &Session{conn: conn, sess: sess, share: share, maxWrite: maxWrite, log: log}, nil
}

// MaxWriteUnit reports the largest single write this session accepts.
func (s *Session) MaxWriteUnit() int { return s.maxWrite }

// Open creates the destination file on the share, truncating any existing
// content (overwrite-if semantics).
func (s *Session) Open(name string) (transfer.SinkFile, error) {
	f, err := s.share.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// Close tears the session down: unmount, log off, disconnect. Each step is
// best-effort; failures are logged, never returned. Safe to call twice.
func (s *Session) Close() {
	if s.share != nil {
		if err := s.share.Umount(); err != nil {
			s.log.WithError(err).Warn("smb unmount failed")
		}
		s.share = nil
	}
	if s.sess != nil {
		if err := s.sess.Logoff(); err != nil {
			s.log.WithError(err).Warn("smb logoff failed")
		}
		s.sess = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Warn("smb connection close failed")
		}
		s.conn = nil
	}
}

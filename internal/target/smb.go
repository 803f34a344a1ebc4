package target

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/hirochachacha/go-smb2"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
)

const smbPort = "445"

// shareFS is the subset of an SMB share used for uploads.
type shareFS interface {
	MkdirAll(path string, perm os.FileMode) error
	Create(name string) (io.WriteCloser, error)
	Stat(name string) (fs.FileInfo, error)
}

// shareDialer opens a mounted share and returns a release func.
type shareDialer func(ctx context.Context) (shareFS, func(), error)

// SMB uploads to a Windows or Samba file share.
type SMB struct {
	host      string
	share     string
	remoteDir string
	dial      shareDialer
	logger    *slog.Logger

	// ready is set once the remote directory exists. Uploads run one at a
	// time from the transfer loop.
	ready bool
}

// NewSMB constructs an SMB target that dials the share per upload.
func NewSMB(cfg config.SMB, logger *slog.Logger) *SMB {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &SMB{
		host:      cfg.Host,
		share:     cfg.Share,
		remoteDir: lockedDir(cfg.StoragePath),
		logger:    logger,
	}
	t.dial = func(ctx context.Context) (shareFS, func(), error) {
		return dialShare(ctx, cfg)
	}
	return t
}

func (s *SMB) Name() string { return "SMB" }

// Upload copies the file onto the share and confirms its size with a stat.
func (s *SMB) Upload(ctx context.Context, file LocalFile) error {
	share, release, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("smb connect %s/%s: %w", s.host, s.share, err)
	}
	defer release()

	if err := s.ensureReady(share); err != nil {
		return err
	}

	remote := smbPath(s.remoteDir + "/" + file.Name)
	s.logger.Debug("uploading file to smb", logging.File(file.Name))

	if err := copyToShare(share, file.Path, remote); err != nil {
		return err
	}

	info, err := share.Stat(remote)
	if err != nil {
		return fmt.Errorf("%w: smb stat %s: %v", ErrVerify, remote, err)
	}
	return verifySize(remote, file.Size, info.Size())
}

func (s *SMB) ensureReady(share shareFS) error {
	if s.ready {
		return nil
	}
	dir := smbPath(s.remoteDir)
	if err := share.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("smb mkdir %s: %w", dir, err)
	}
	s.ready = true
	return nil
}

func copyToShare(share shareFS, localPath, remote string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer src.Close()

	dst, err := share.Create(remote)
	if err != nil {
		return fmt.Errorf("smb create %s: %w", remote, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("smb write %s: %w", remote, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("smb close %s: %w", remote, err)
	}
	return nil
}

func smbPath(p string) string {
	return strings.ReplaceAll(cleanRemotePath(p), "/", `\`)
}

// smbShare adapts *smb2.Share to shareFS.
type smbShare struct {
	share *smb2.Share
}

func (s smbShare) MkdirAll(path string, perm os.FileMode) error {
	return s.share.MkdirAll(path, perm)
}

func (s smbShare) Create(name string) (io.WriteCloser, error) {
	return s.share.Create(name)
}

func (s smbShare) Stat(name string) (fs.FileInfo, error) {
	return s.share.Stat(name)
}

func dialShare(ctx context.Context, cfg config.SMB) (shareFS, func(), error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, smbPort))
	if err != nil {
		return nil, nil, err
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.Username,
			Password: cfg.Password,
			Domain:   cfg.Domain,
		},
	}
	session, err := dialer.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("session: %w", err)
	}

	share, err := session.Mount(cfg.Share)
	if err != nil {
		_ = session.Logoff()
		return nil, nil, fmt.Errorf("mount %s: %w", cfg.Share, err)
	}

	release := func() {
		_ = share.Umount()
		_ = session.Logoff()
	}
	return smbShare{share: share.WithContext(ctx)}, release, nil
}

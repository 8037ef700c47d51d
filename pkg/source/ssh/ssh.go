package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/questanalytics/s3parquet/pkg/source"
)

type Backend struct {
	name       string
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	remotePath string
}

func init() {
	source.RegisterBackend("ssh", func(ctx context.Context, cfg source.Config) (source.Backend, error) {
		return New(cfg)
	})
}

// New creates a new SSH/SFTP backend
func New(cfg source.Config) (*Backend, error) {
	sshCfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            sshCfg.User,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: Add host key verification
		Timeout:         30 * time.Second,
	}

	if sshCfg.Password != "" {
		clientConfig.Auth = append(clientConfig.Auth, ssh.Password(sshCfg.Password))
	}

	if sshCfg.KeyPath != "" {
		key, err := os.ReadFile(sshCfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key: %w", err)
		}

		var signer ssh.Signer
		if sshCfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(sshCfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}

		clientConfig.Auth = append(clientConfig.Auth, ssh.PublicKeys(signer))
	}

	addr := fmt.Sprintf("%s:%d", sshCfg.Host, sshCfg.Port)
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, source.WrapError(cfg.Name, "connect", source.ErrConnFailed)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, source.WrapError(cfg.Name, "sftp init", err)
	}

	return &Backend{
		name:       cfg.Name,
		sshClient:  sshClient,
		sftpClient: sftpClient,
		remotePath: sshCfg.RemotePath,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "ssh" }

// Stat returns remote file metadata
func (b *Backend) Stat(ctx context.Context, key string) (*source.FileInfo, error) {
	remotePath := path.Join(b.remotePath, key)

	info, err := b.sftpClient.Stat(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, source.WrapError(b.name, "stat", source.ErrNotFound)
		}
		return nil, source.WrapError(b.name, "stat", err)
	}
	if info.IsDir() {
		return nil, source.WrapError(b.name, "stat", source.ErrNotFound)
	}

	return &source.FileInfo{
		Path:    key,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if a remote file exists
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns remote files under the prefix, sorted by path
func (b *Backend) List(ctx context.Context, prefix string) ([]source.FileInfo, error) {
	root := path.Join(b.remotePath, prefix)

	info, err := b.sftpClient.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, source.WrapError(b.name, "list", err)
	}

	var files []source.FileInfo
	if !info.IsDir() {
		files = append(files, source.FileInfo{Path: prefix, Size: info.Size(), ModTime: info.ModTime()})
		return files, nil
	}

	entries, err := b.sftpClient.ReadDir(root)
	if err != nil {
		return nil, source.WrapError(b.name, "list", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Size() == 0 {
			continue
		}

		files = append(files, source.FileInfo{
			Path:    path.Join(prefix, entry.Name()),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Fetch downloads a remote file via SFTP
func (b *Backend) Fetch(ctx context.Context, key string, localPath string) error {
	remotePath := path.Join(b.remotePath, key)

	remoteFile, err := b.sftpClient.Open(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return source.WrapError(b.name, "download", source.ErrNotFound)
		}
		return source.WrapError(b.name, "download", err)
	}
	defer remoteFile.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return source.WrapError(b.name, "download", err)
	}

	localFile, err := os.Create(localPath)
	if err != nil {
		return source.WrapError(b.name, "download", err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, remoteFile); err != nil {
		os.Remove(localPath) // Clean up partial file
		return source.WrapError(b.name, "download", source.ErrTransfer)
	}

	return nil
}

// Close releases resources
func (b *Backend) Close() error {
	if b.sftpClient != nil {
		b.sftpClient.Close()
	}
	if b.sshClient != nil {
		b.sshClient.Close()
	}
	return nil
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Port: 22,
	}

	if v, ok := options["host"].(string); ok {
		cfg.Host = v
	} else {
		return nil, fmt.Errorf("missing required option: host")
	}
	if v, ok := options["user"].(string); ok {
		cfg.User = v
	} else {
		return nil, fmt.Errorf("missing required option: user")
	}
	if v, ok := options["remote_path"].(string); ok {
		cfg.RemotePath = v
	} else {
		return nil, fmt.Errorf("missing required option: remote_path")
	}
	if v, ok := options["password"].(string); ok {
		cfg.Password = v
	}
	if v, ok := options["key_path"].(string); ok {
		cfg.KeyPath = v
	}
	if v, ok := options["key_passphrase"].(string); ok {
		cfg.KeyPassphrase = v
	}
	if v, ok := options["port"].(float64); ok && v > 0 {
		cfg.Port = int(v)
	}

	return cfg, nil
}

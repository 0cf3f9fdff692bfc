package provider

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type SFTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SFTPProvider exposes a remote directory tree over SFTP. Node
// identities are "sftp://host/path" URIs.
type SFTPProvider struct {
	config     SFTPConfig
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	prefix     string
}

func NewSFTPProvider(config SFTPConfig) *SFTPProvider {
	if config.Port == 0 {
		config.Port = 22
	}
	return &SFTPProvider{
		config: config,
		prefix: "sftp://" + config.Host,
	}
}

func (p *SFTPProvider) Connect() error {
	sshConfig := &ssh.ClientConfig{
		User: p.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(p.config.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // For home use, simplified
		Timeout:         10 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", p.config.Host, p.config.Port)
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return fmt.Errorf("failed to dial ssh: %w", err)
	}
	p.sshClient = client

	sc, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create sftp client: %w", err)
	}
	p.sftpClient = sc

	return nil
}

func (p *SFTPProvider) Close() error {
	if p.sftpClient != nil {
		p.sftpClient.Close()
	}
	if p.sshClient != nil {
		return p.sshClient.Close()
	}
	return nil
}

// URI returns the node identity for a remote path.
func (p *SFTPProvider) URI(remotePath string) string {
	if !strings.HasPrefix(remotePath, "/") {
		remotePath = "/" + remotePath
	}
	return p.prefix + remotePath
}

func (p *SFTPProvider) remotePath(identity string) string {
	rp := strings.TrimPrefix(identity, p.prefix)
	if rp == "" {
		rp = "/"
	}
	return rp
}

func (p *SFTPProvider) ListChildren(identity string) ([]Node, error) {
	dir := p.remotePath(identity)
	entries, err := p.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var nodes []Node
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." || strings.HasPrefix(name, "._") {
			continue
		}
		nodes = append(nodes, Node{
			Identity: p.URI(path.Join(dir, name)),
			Name:     name,
			IsDir:    entry.IsDir(),
		})
	}
	return nodes, nil
}

func (p *SFTPProvider) Exists(identity string) bool {
	_, err := p.sftpClient.Stat(p.remotePath(identity))
	return err == nil
}

func (p *SFTPProvider) Open(identity string) (io.ReadCloser, error) {
	return p.sftpClient.Open(p.remotePath(identity))
}

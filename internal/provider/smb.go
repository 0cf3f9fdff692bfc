package provider

import (
	"fmt"
	"io"
	"net"
	"path"
	"strings"

	"github.com/hirochachacha/go-smb2"
)

type SMBConfig struct {
	Host     string
	Share    string
	Username string
	Password string
	Domain   string
}

// SMBProvider exposes an SMB share as a document tree. Node identities
// are "smb://host/share/path" URIs.
type SMBProvider struct {
	config  SMBConfig
	conn    net.Conn
	session *smb2.Session
	share   *smb2.Share
	prefix  string
}

func NewSMBProvider(config SMBConfig) *SMBProvider {
	return &SMBProvider{
		config: config,
		prefix: "smb://" + config.Host + "/" + config.Share,
	}
}

func (p *SMBProvider) Connect() error {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:445", p.config.Host))
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	p.conn = conn

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     p.config.Username,
			Password: p.config.Password,
			Domain:   p.config.Domain,
		},
	}

	s, err := d.Dial(conn)
	if err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to dial smb: %w", err)
	}
	p.session = s

	share, err := s.Mount(p.config.Share)
	if err != nil {
		s.Logoff()
		p.conn.Close()
		return fmt.Errorf("failed to mount share: %w", err)
	}
	p.share = share

	return nil
}

func (p *SMBProvider) Close() error {
	if p.share != nil {
		p.share.Umount()
	}
	if p.session != nil {
		p.session.Logoff()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *SMBProvider) URI(sharePath string) string {
	sharePath = strings.TrimPrefix(sharePath, "/")
	if sharePath == "" || sharePath == "." {
		return p.prefix
	}
	return p.prefix + "/" + sharePath
}

// sharePath maps an identity back to a go-smb2 path: "." for the share
// root, forward slashes below it.
func (p *SMBProvider) sharePath(identity string) string {
	sp := strings.TrimPrefix(identity, p.prefix)
	sp = strings.TrimPrefix(sp, "/")
	if sp == "" {
		return "."
	}
	return sp
}

func (p *SMBProvider) ListChildren(identity string) ([]Node, error) {
	dir := p.sharePath(identity)
	entries, err := p.share.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var nodes []Node
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." || strings.HasPrefix(name, "._") || strings.HasPrefix(name, "$") {
			continue
		}
		child := name
		if dir != "." {
			child = path.Join(dir, name)
		}
		nodes = append(nodes, Node{
			Identity: p.URI(child),
			Name:     name,
			IsDir:    entry.IsDir(),
		})
	}
	return nodes, nil
}

func (p *SMBProvider) Exists(identity string) bool {
	_, err := p.share.Stat(p.sharePath(identity))
	return err == nil
}

func (p *SMBProvider) Open(identity string) (io.ReadCloser, error) {
	return p.share.Open(p.sharePath(identity))
}

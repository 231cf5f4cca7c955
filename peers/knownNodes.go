package peers

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

var ErrInvalidAddress = errors.New("invalid peer address")

// KnownNodes is the set of peer HTTP addresses, stored as host:port.
type KnownNodes struct {
	sync.Mutex
	self  string
	peers []string
}

func NewKnownNodes(self string) *KnownNodes {
	return &KnownNodes{
		self:  self,
		peers: []string{},
	}
}

// ParseAddress accepts host:port or an http(s) URL and returns host:port.
func ParseAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	hostPort := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("%w: scheme %q", ErrInvalidAddress, u.Scheme)
		}
		hostPort = u.Host
	}

	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidAddress, raw)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("%w: port %q", ErrInvalidAddress, port)
	}
	return net.JoinHostPort(host, port), nil
}

// Register adds the address unless it is a duplicate or this node.
// It reports whether the set grew.
func (kn *KnownNodes) Register(raw string) (bool, error) {
	address, err := ParseAddress(raw)
	if err != nil {
		return false, err
	}

	kn.Lock()
	defer kn.Unlock()
	if address == kn.self || slices.Contains(kn.peers, address) {
		return false, nil
	}
	kn.peers = append(kn.peers, address)
	return true, nil
}

func (kn *KnownNodes) Remove(address string) {
	kn.Lock()
	defer kn.Unlock()
	idx := slices.Index(kn.peers, address)
	if idx < 0 {
		return
	}
	kn.peers = slices.Delete(kn.peers, idx, idx+1)
}

// Addresses returns a sorted copy.
func (kn *KnownNodes) Addresses() []string {
	kn.Lock()
	defer kn.Unlock()
	all := slices.Clone(kn.peers)
	slices.Sort(all)
	return all
}

func (kn *KnownNodes) Contains(address string) bool {
	kn.Lock()
	defer kn.Unlock()
	return slices.Contains(kn.peers, address)
}

func (kn *KnownNodes) Len() int {
	kn.Lock()
	defer kn.Unlock()
	return len(kn.peers)
}

// P2PAddress maps a peer's HTTP address to its broadcast listener, which
// sits offset ports above.
func P2PAddress(httpAddress string, offset int) (string, error) {
	host, port, err := net.SplitHostPort(httpAddress)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return "", fmt.Errorf("%w: port %q", ErrInvalidAddress, port)
	}
	if n+offset <= 0 || n+offset > 65535 {
		return "", fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, n+offset)
	}
	return net.JoinHostPort(host, strconv.Itoa(n+offset)), nil
}

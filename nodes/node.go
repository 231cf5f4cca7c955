package nodes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"simple-ledger-go/common"
	"simple-ledger-go/p2p"
	"simple-ledger-go/peers"
)

const (
	DIAL_TIMEOUT = 3 * time.Second
	READ_TIMEOUT = 10 * time.Second
	// a full chain response is the largest message
	MAX_MESSAGE_BYTES int64 = 32 << 20
)

var ErrMessageTooLarge = errors.New("message too large")

// Node is the P2P side of a ledger node: who it is, whom it knows, and how
// payloads reach them. Peers are kept by HTTP address and mapped to their
// P2P listener with the port offset.
type Node struct {
	id         string
	address    string
	offset     int
	knownNodes *peers.KnownNodes
	seen       *p2p.SeenSet
	// zero means MAX_MESSAGE_BYTES
	maxMessage int64
}

func (n *Node) messageLimit() int64 {
	if n.maxMessage > 0 {
		return n.maxMessage
	}
	return MAX_MESSAGE_BYTES
}

// readMessage reads one connection's frame, refusing anything over limit
// bytes.
func readMessage(r io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrMessageTooLarge, limit)
	}
	return raw, nil
}

func (n *Node) send(to string, data []byte) error {
	conn, err := net.DialTimeout(p2p.TCP, to, DIAL_TIMEOUT)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = io.Copy(conn, bytes.NewReader(data))
	return err
}

func (n *Node) sendMessage(to string, kind p2p.MessageKind, msg interface{}) error {
	enc, err := common.Encode(msg)
	if err != nil {
		return err
	}
	return n.send(to, kind.MakePayload(enc))
}

// broadcast sends to every known peer concurrently. Unreachable peers are
// logged and skipped.
func (n *Node) broadcast(kind p2p.MessageKind, msg interface{}) {
	enc, err := common.Encode(msg)
	if err != nil {
		slog.Error("encoding broadcast", "kind", kind.ToString(), "err", err)
		return
	}
	payload := kind.MakePayload(enc)

	var wg sync.WaitGroup
	for _, httpAddress := range n.knownNodes.Addresses() {
		to, err := peers.P2PAddress(httpAddress, n.offset)
		if err != nil {
			slog.Warn("skipping peer", "peer", httpAddress, "err", err)
			continue
		}
		if to == n.address {
			continue
		}

		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			if err := n.send(to, payload); err != nil {
				slog.Warn("peer is not available", "peer", to, "kind", kind.ToString(), "err", err)
			}
		}(to)
	}
	wg.Wait()
}

// serve accepts connections until ctx ends and hands each to handle on its
// own goroutine. Oversized messages are dropped unread past the limit.
func (n *Node) serve(ctx context.Context, listener net.Listener, handle func(raw []byte)) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func(conn net.Conn) {
			defer conn.Close()
			conn.SetReadDeadline(time.Now().Add(READ_TIMEOUT))
			raw, err := readMessage(conn, n.messageLimit())
			if err != nil {
				slog.Warn("reading connection", "remote", conn.RemoteAddr().String(), "err", err)
				return
			}
			handle(raw)
		}(conn)
	}
}

package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/virtualvoting/hashgraph/event"
	"github.com/virtualvoting/hashgraph/xlog"
)

// ErrFrameTooLarge guards against a malformed or hostile length prefix.
var ErrFrameTooLarge = errors.New("transport: frame exceeds maximum size")

// maxFrameBytes bounds a single sync frame, grounded on the reference
// TCP server's trust model: peers are expected cooperative, but an
// unbounded length prefix would let one bad peer exhaust memory.
const maxFrameBytes = 64 << 20

// TCPPeer reaches a remote node over a plain TCP connection using
// length-prefixed JSON frames, grounded on the reference tcp_server's
// request/response framing.
type TCPPeer struct {
	id   event.PeerID
	addr string
}

// NewTCPPeer addresses a remote node at addr, identified by id.
func NewTCPPeer(id event.PeerID, addr string) *TCPPeer {
	return &TCPPeer{id: id, addr: addr}
}

// ID returns the remote node's identity.
func (p *TCPPeer) ID() event.PeerID {
	return p.id
}

// GetSync dials addr, sends the requester's identity, and reads back
// the peer's head hash and DAG slice.
func (p *TCPPeer) GetSync(requester event.PeerID) (event.Hash, DAGSlice, error) {
	conn, err := net.Dial("tcp", p.addr)
	if err != nil {
		return event.Hash{}, nil, err
	}
	defer conn.Close()

	if err := writeFrame(conn, []byte(requester)); err != nil {
		return event.Hash{}, nil, err
	}
	resp, err := readFrame(conn)
	if err != nil {
		return event.Hash{}, nil, err
	}
	return decodeFrame(resp)
}

// Listener serves sync requests over TCP by delegating to a local
// Responder, grounded on the reference TCP server's answer loop.
type Listener struct {
	addr          string
	responder     Responder
	log           *xlog.Logger
	sem           *semaphore.Weighted
	answerBackoff time.Duration
}

// NewListener creates a Listener that will answer on addr using
// responder, bounding concurrent in-flight connections to
// maxConcurrent. answerBackoff paces retries after a transient accept
// failure (e.g. a transient file-descriptor exhaustion); zero or
// negative disables the pause.
func NewListener(addr string, responder Responder, log *xlog.Logger, maxConcurrent int64, answerBackoff time.Duration) *Listener {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Listener{addr: addr, responder: responder, log: log, sem: semaphore.NewWeighted(maxConcurrent), answerBackoff: answerBackoff}
}

// Serve accepts connections until ctx is cancelled or the listener
// fails to bind. A transient (temporary) accept error is logged and
// retried after answerBackoff rather than aborting the loop.
func (l *Listener) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				l.log.Warn("answer: transient accept failure, backing off", zap.Error(err), zap.Duration("backoff", l.answerBackoff))
				if l.answerBackoff <= 0 {
					continue
				}
				select {
				case <-time.After(l.answerBackoff):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			return err
		}
		if err := l.sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			return ctx.Err()
		}
		go func() {
			defer l.sem.Release(1)
			l.handle(conn)
		}()
	}
}

func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()
	if _, err := readFrame(conn); err != nil {
		l.log.Warn("answer: failed to read request frame", zap.Error(err))
		return
	}
	head, slice, err := l.responder.RespondMessage()
	if err != nil {
		l.log.Warn("answer: responder failed", zap.Error(err))
		return
	}
	payload, err := encodeFrame(head, slice)
	if err != nil {
		l.log.Warn("answer: failed to encode response frame", zap.Error(err))
		return
	}
	if err := writeFrame(conn, payload); err != nil {
		l.log.Warn("answer: failed to write response frame", zap.Error(err))
	}
}

func writeFrame(w io.Writer, payload []byte) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size > maxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

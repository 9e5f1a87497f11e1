package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIOOptions configure a socket.io sink.
type SocketIOOptions struct {
	Namespace          string
	InsecureSkipVerify bool
}

// SocketIO sends events to a socket.io server over a websocket.
type SocketIO struct {
	mu sync.Mutex
	io *socket.Socket
}

// DialSocketIO connects to rawURL and waits until the connection is
// established, failed, or ctx is done. The URL path, when present, is the
// socket.io endpoint path.
func DialSocketIO(ctx context.Context, rawURL string, o SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported notify URL scheme %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("notify URL %q has no host", rawURL)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	done := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		select {
		case done <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused by notify server")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case done <- err:
		default:
		}
	})

	io.Connect()
	select {
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out while waiting for notify connection: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("failed to connect to notify server: %w", err)
		}
	}
	logger.Info("Connected to notify server.", "namespace", namespace, "sid", io.Id())
	return &SocketIO{io: io}, nil
}

// Send implements Sink. Delivery is best effort.
func (s *SocketIO) Send(_ context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.io.Emit(EventName, ev.Payload())
}

// Close disconnects from the server.
func (s *SocketIO) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.io.Disconnect()
}

package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	oerrors "github.com/crosscast/tvlink/internal/errors"
)

// TailLogs streams the device debug console to w until ctx is canceled or
// the device closes the connection.
func (c *Client) TailLogs(ctx context.Context, w io.Writer) error {
	return tailFrom(ctx, fmt.Sprintf("%s:%d", hostOnly(c.Host), HarnessPort), w)
}

func tailFrom(ctx context.Context, addr string, w io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return oerrors.NewConnectivityError(err.Error(),
			map[string]string{"console": addr},
			"only one console connection is allowed at a time")
	}
	defer conn.Close()

	// Close the socket when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			if _, werr := io.WriteString(w, line); werr != nil {
				return werr
			}
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return oerrors.NewConnectivityError(err.Error(),
				map[string]string{"console": addr}, "")
		}
	}
}

// hostOnly strips any port from an address, since the console port is fixed.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

package harness

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	oerrors "github.com/crosscast/tvlink/internal/errors"
	"github.com/crosscast/tvlink/internal/output"
)

// Markers framing the JSON event stream on the debug console.
const (
	beginMarker = "*** TVLINK TEST RUN BEGIN ***"
	endMarker   = "*** TVLINK TEST RUN END ***"
)

// Run is the raw outcome of one harness session.
type Run struct {
	Events  []Event
	Summary Summary

	// Truncated is true when the stream ended without the end marker, from
	// either connection loss or the deadline firing.
	Truncated bool
}

// Collect dials addr, waits for the begin marker and gathers events until
// the end marker. console, when non-nil, receives every raw line so the
// device output stays visible during the run. deadline bounds the whole
// session in wall-clock time regardless of how chatty the console is.
func Collect(ctx context.Context, addr string, console io.Writer, deadline time.Duration) (Run, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Run{}, oerrors.NewConnectivityError(err.Error(),
			map[string]string{"harness": addr},
			"only one console connection is allowed at a time")
	}
	defer conn.Close()

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var run Run
	g, gctx := errgroup.WithContext(runCtx)

	// Watchdog: unblock the reader by poisoning the socket when the overall
	// deadline expires. Per-read timeouts alone would let a device that
	// keeps logging non-test output extend the session forever.
	g.Go(func() error {
		<-gctx.Done()
		conn.SetReadDeadline(time.Now())
		return nil
	})

	g.Go(func() error {
		defer cancel()
		r, err := readStream(conn, console)
		run = r
		return err
	})

	err = g.Wait()
	run.Summary = Summarize(run.Events)
	if run.Summary.Mismatch != "" {
		output.Warn(run.Summary.Mismatch)
	}
	if err != nil {
		return run, err
	}
	// The reader cancels runCtx on its way out, so only the parent context
	// tells an interrupted session apart from a finished one.
	if ctx.Err() == context.Canceled {
		return run, ctx.Err()
	}
	if runCtx.Err() == context.DeadlineExceeded && run.Truncated {
		return run, oerrors.Wrap(oerrors.ErrTimeout,
			fmt.Sprintf("test run did not finish within %s", deadline))
	}
	return run, nil
}

// readStream consumes console lines. Lines before the begin marker and after
// the end marker are feature chatter, not events.
func readStream(conn net.Conn, console io.Writer) (Run, error) {
	var run Run
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inRun := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if console != nil {
			fmt.Fprintf(console, "%s\n", line)
		}

		trimmed := bytes.TrimSpace(line)
		switch {
		case !inRun:
			if string(trimmed) == beginMarker {
				inRun = true
			}
		case string(trimmed) == endMarker:
			return run, nil
		case len(trimmed) == 0:
			// blank lines inside the frame are tolerated
		default:
			ev, err := parseEvent(trimmed)
			if err != nil {
				output.Warn("skipping unparseable harness line", "err", err)
				continue
			}
			run.Events = append(run.Events, ev)
		}
	}

	// EOF or a poisoned read deadline. Both mean the frame never closed;
	// whatever was gathered is still reported.
	run.Truncated = inRun || len(run.Events) == 0
	if err := scanner.Err(); err != nil && !isDeadline(err) && !errors.Is(err, io.EOF) {
		return run, oerrors.NewConnectivityError(err.Error(),
			map[string]string{"harness": conn.RemoteAddr().String()}, "")
	}
	return run, nil
}

func isDeadline(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

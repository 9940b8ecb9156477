package docker

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/moby/moby/client"
)

// StreamLogs copies a service's container logs to the given writers,
// demultiplexing the Engine API's stdout/stderr framing. With follow
// set it blocks until the container exits or ctx is canceled.
func (p *Platform) StreamLogs(ctx context.Context, service string, stdout, stderr io.Writer, follow bool, tail string) error {
	name := p.ContainerName(service)

	rc, err := p.client.ContainerLogs(ctx, name, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Timestamps: false,
		Tail:       tail,
	})
	if err != nil {
		return fmt.Errorf("logs container %q: %w", name, err)
	}
	defer rc.Close()

	return demuxLogs(stdout, stderr, rc)
}

// demuxLogs parses the 8-byte multiplexing headers the Engine API
// prepends when a container has no TTY: byte 0 is the stream (1=stdout,
// 2=stderr), bytes 4-7 the big-endian payload size.
func demuxLogs(dstOut, dstErr io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		streamType := header[0]
		size := binary.BigEndian.Uint32(header[4:8])
		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return err
		}

		w := dstOut
		if streamType == 2 {
			w = dstErr
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write log payload: %w", err)
		}
	}
}

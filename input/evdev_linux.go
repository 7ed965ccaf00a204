//go:build linux

package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// EvdevRotary reads rotary/button events from one or more Linux input devices
// using a single epoll loop and pushes the translated events into the queue.
//
// One goroutine serves all devices; the kernel wakes it only when data is
// ready, so this stays cheap even with separate encoder and button devices.
type EvdevRotary struct {
	files  []*os.File
	queue  *Queue
	cfg    EvdevConfig
	logger *slog.Logger
}

// OpenEvdevRotary opens the given device paths (e.g. /dev/input/event0).
func OpenEvdevRotary(paths []string, q *Queue, cfg EvdevConfig, logger *slog.Logger) (*EvdevRotary, error) {
	cfg.fillDefaults()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input devices configured")
	}

	files := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			for _, o := range files {
				o.Close()
			}
			return nil, fmt.Errorf("open input device %s: %w", p, err)
		}
		files = append(files, f)
	}

	return &EvdevRotary{files: files, queue: q, cfg: cfg, logger: logger}, nil
}

// Close releases the device files.
func (e *EvdevRotary) Close() error {
	var first error
	for _, f := range e.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Run blocks in epoll until ctx is canceled or a device fails. A bounded wait
// lets the loop notice cancellation without a separate wakeup pipe.
func (e *EvdevRotary) Run(ctx context.Context) error {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fdToFile := make(map[int]*os.File, len(e.files))
	for _, f := range e.files {
		fd := int(f.Fd())
		fdToFile[fd] = f
		event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
		}
	}

	e.logger.Info("evdev rotary source started", "devices", len(e.files),
		"rel_code", e.cfg.RelCode, "key_code", e.cfg.KeyCode)

	const maxEvents = 32
	epollEvents := make([]unix.EpollEvent, maxEvents)
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := unix.EpollWait(epfd, epollEvents, 500)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(epollEvents[i].Fd)
			f := fdToFile[fd]

			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("input device error/hangup: %s", f.Name())
			}
			if _, err := f.Read(buf); err != nil {
				return fmt.Errorf("read %s: %w", f.Name(), err)
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				// Malformed event; skip.
				continue
			}
			translateInputEvent(ev, e.cfg, e.queue)
		}
	}
}

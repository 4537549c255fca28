package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions selects which lines Tail returns. A negative Offset returns the
// last Limit lines; otherwise reading resumes at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads a daemon run log. A missing file yields no lines and offset 0 so
// callers can poll until the daemon creates it.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated underneath us.
			offset = 0
		}
		result, err = readFrom(path, offset)
	}
	if err != nil || !opts.Follow || opts.Wait <= 0 || len(result.Lines) > 0 {
		return result, err
	}
	return waitForLines(ctx, path, result.Offset, opts.Wait)
}

func lastLines(path string, limit int) (TailResult, error) {
	all, err := readFrom(path, 0)
	if err != nil || limit <= 0 {
		return TailResult{Offset: all.Offset}, err
	}
	if len(all.Lines) > limit {
		all.Lines = all.Lines[len(all.Lines)-limit:]
	}
	return all, nil
}

func readFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}

	result := TailResult{Offset: offset}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial trailing line is left for the next read.
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("read log file: %w", err)
		}
		result.Offset += int64(len(line))
		result.Lines = append(result.Lines, trimNewline(line))
	}
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-timer.C:
			return TailResult{Offset: offset}, nil
		case <-ticker.C:
			result, err := readFrom(path, offset)
			if err != nil || len(result.Lines) > 0 {
				return result, err
			}
		}
	}
}

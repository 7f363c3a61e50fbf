package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const sample = "{\"n\":1}\n\n  {\"n\":2}  \n{\"n\":3}"

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func collect(t *testing.T, r io.Reader) ([]string, []int64) {
	t.Helper()
	var lines []string
	var offsets []int64
	_, err := ReadLines(context.Background(), r, func(line []byte, next int64) error {
		lines = append(lines, string(line))
		offsets = append(offsets, next)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	return lines, offsets
}

func TestReadLines(t *testing.T) {
	lines, offsets := collect(t, strings.NewReader(sample))

	want := []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	wantOffsets := []int64{8, 21, int64(len(sample))}
	for i, o := range wantOffsets {
		if offsets[i] != o {
			t.Errorf("offset[%d] = %d, want %d", i, offsets[i], o)
		}
	}
}

func TestReadLines_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	n, err := ReadLines(context.Background(), strings.NewReader(sample), func([]byte, int64) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("error = %v, want stop", err)
	}
	if calls != 1 || n != 0 {
		t.Errorf("calls = %d, n = %d, want 1 call and 0 lines counted", calls, n)
	}
}

func TestReadLines_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadLines(ctx, strings.NewReader(sample), func([]byte, int64) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDetectCompression(t *testing.T) {
	tests := map[string]Compression{
		"app.jsonl":     CompressionNone,
		"app.jsonl.gz":  CompressionGzip,
		"APP.GZ":        CompressionGzip,
		"app.jsonl.zst": CompressionZstd,
		"app.lz4":       CompressionLZ4,
		"-":             CompressionNone,
	}
	for path, want := range tests {
		if got := DetectCompression(path); got != want {
			t.Errorf("DetectCompression(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(sample))
	_ = gw.Close()

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = zw.Write([]byte(sample))
	_ = zw.Close()

	var l4 bytes.Buffer
	lw := lz4.NewWriter(&l4)
	_, _ = lw.Write([]byte(sample))
	_ = lw.Close()

	files := map[string][]byte{
		"plain.jsonl":    []byte(sample),
		"logs.jsonl.gz":  gz.Bytes(),
		"logs.jsonl.zst": zs.Bytes(),
		"logs.jsonl.lz4": l4.Bytes(),
	}

	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, data)

			r, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer r.Close()

			lines, _ := collect(t, r)
			if len(lines) != 3 || lines[2] != `{"n":3}` {
				t.Errorf("lines = %q", lines)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "missing.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want not exist", err)
	}

	bad := filepath.Join(dir, "bad.gz")
	writeFile(t, bad, []byte("not gzip"))
	if _, err := Open(bad); err == nil {
		t.Error("Open(bad gzip) error = nil")
	}
}

type followed struct {
	line string
	next int64
}

func startFollower(t *testing.T, path string, offset int64) (*Follower, <-chan followed, context.CancelFunc, <-chan error) {
	t.Helper()
	f := NewFollower(path, offset, nil)
	f.poll = 20 * time.Millisecond

	out := make(chan followed, 100)
	done := make(chan error, 1)
	finished := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(finished)
		done <- f.Run(ctx, func(line []byte, next int64) error {
			out <- followed{string(line), next}
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return f, out, cancel, done
}

func expectLine(t *testing.T, ch <-chan followed, want string) followed {
	t.Helper()
	select {
	case got := <-ch:
		if got.line != want {
			t.Fatalf("line = %q, want %q", got.line, want)
		}
		return got
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
	return followed{}
}

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatal(err)
	}
}

func TestFollower_AppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.jsonl")
	writeFile(t, path, []byte("{\"n\":1}\n"))

	_, out, _, _ := startFollower(t, path, 0)
	expectLine(t, out, `{"n":1}`)

	appendFile(t, path, "{\"n\":2}\n{\"n\"")
	got := expectLine(t, out, `{"n":2}`)
	if got.next != 16 {
		t.Errorf("next = %d, want 16", got.next)
	}

	select {
	case l := <-out:
		t.Fatalf("partial line delivered: %q", l.line)
	case <-time.After(100 * time.Millisecond):
	}

	appendFile(t, path, ":3}\n")
	got = expectLine(t, out, `{"n":3}`)
	if got.next != 24 {
		t.Errorf("next = %d, want 24", got.next)
	}
}

func TestFollower_ResumesFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.jsonl")
	writeFile(t, path, []byte("{\"n\":1}\n{\"n\":2}\n"))

	f, out, cancel, done := startFollower(t, path, 8)
	expectLine(t, out, `{"n":2}`)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil on cancel", err)
	}
	if f.Offset() != 16 {
		t.Errorf("Offset() = %d, want 16", f.Offset())
	}
}

func TestFollower_WaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.jsonl")

	_, out, _, _ := startFollower(t, path, 0)
	time.Sleep(50 * time.Millisecond)
	appendFile(t, path, "{\"late\":true}\n")

	expectLine(t, out, `{"late":true}`)
}

func TestFollower_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.jsonl")
	writeFile(t, path, []byte("{\"n\":1}\n{\"n\":2}\n"))

	_, out, _, _ := startFollower(t, path, 0)
	expectLine(t, out, `{"n":1}`)
	expectLine(t, out, `{"n":2}`)

	writeFile(t, path, []byte("{\"m\":1}\n"))
	got := expectLine(t, out, `{"m":1}`)
	if got.next != 8 {
		t.Errorf("next = %d, want 8 after truncation", got.next)
	}
}

func TestFollower_OffsetBeyondFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.jsonl")
	writeFile(t, path, []byte("{\"n\":1}\n"))

	_, out, _, _ := startFollower(t, path, 1000)
	expectLine(t, out, `{"n":1}`)
}

func TestFollower_FuncError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.jsonl")
	writeFile(t, path, []byte("{\"n\":1}\n"))

	stop := errors.New("stop")
	err := NewFollower(path, 0, nil).Run(context.Background(), func([]byte, int64) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Run() error = %v, want stop", err)
	}
}

package tailer

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Tailer follows an access log file as it grows. Existing content is
// delivered first, then the directory containing the file is watched and
// appended lines are delivered as they are written. A file that shrinks
// is treated as truncated (log rotation with copytruncate) and read again
// from the start.
type Tailer struct {
	filename string
	watcher  *fsnotify.Watcher
	file     *os.File
	offset   int64
	pending  []byte
	lines    chan string
	errs     chan error
	done     chan struct{}
	stop     sync.Once
}

func New(filename string) (*Tailer, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, err
	}
	// Watch the directory, not the file: rotated files are removed and
	// recreated and a watch on the file itself would go stale.
	if err = watcher.Add(filepath.Dir(filename)); err != nil {
		watcher.Close()
		file.Close()
		return nil, err
	}
	t := &Tailer{
		filename: filename,
		watcher:  watcher,
		file:     file,
		lines:    make(chan string),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	go t.run()
	return t, nil
}

// Lines yields complete lines in file order. The channel is closed when
// the tailer is stopped.
func (t *Tailer) Lines() <-chan string {
	return t.lines
}

// Errs yields watch errors. The tailer keeps running after an error.
func (t *Tailer) Errs() <-chan error {
	return t.errs
}

func (t *Tailer) Stop() {
	t.stop.Do(func() {
		close(t.done)
		t.watcher.Close()
	})
}

// private

func (t *Tailer) run() {
	defer close(t.lines)
	defer t.file.Close()
	if !t.drain() {
		return
	}
	for {
		select {
		case <-t.done:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if event.Name != t.filename {
				continue
			}
			if event.Has(fsnotify.Create) {
				// the file was recreated, e.g. after rotation
				t.reopen()
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if !t.drain() {
					return
				}
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			select {
			case t.errs <- err:
			default:
			}
		}
	}
}

func (t *Tailer) reopen() {
	file, err := os.Open(t.filename)
	if err != nil {
		select {
		case t.errs <- err:
		default:
		}
		return
	}
	t.file.Close()
	t.file = file
	t.offset = 0
	t.pending = t.pending[:0]
}

// drain reads everything appended since the last call and sends complete
// lines. Returns false when the tailer was stopped mid send.
func (t *Tailer) drain() bool {
	if info, err := os.Stat(t.filename); err == nil && info.Size() < t.offset {
		// truncated, start over
		if _, err := t.file.Seek(0, io.SeekStart); err == nil {
			t.offset = 0
			t.pending = t.pending[:0]
		}
	}
	buf := make([]byte, 64*1024)
	for {
		n, err := t.file.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			t.pending = append(t.pending, buf[:n]...)
			if !t.flushPending() {
				return false
			}
		}
		if err != nil {
			// io.EOF means caught up, anything else will resolve on
			// the next write event or not at all
			return true
		}
	}
}

func (t *Tailer) flushPending() bool {
	for {
		idx := bytes.IndexByte(t.pending, '\n')
		if idx < 0 {
			return true
		}
		line := strings.TrimSuffix(string(t.pending[:idx]), "\r")
		t.pending = t.pending[idx+1:]
		select {
		case t.lines <- line:
		case <-t.done:
			return false
		}
	}
}

package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"terrania.game/internal/sim/game"
)

// JSONLZstdWriter appends JSON lines to zstd-compressed files under
// baseDir. With hourly rotation a new file starts every UTC hour;
// otherwise one file per writer is used.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	hourly  bool
	now     func() time.Time

	mu      sync.Mutex
	curPart string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix, hourly: true, now: time.Now}
}

// NewSegmentWriter writes every line to one file named after the time
// the writer was opened.
func NewSegmentWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	part := w.curPart
	if w.hourly || part == "" {
		if w.hourly {
			part = w.now().UTC().Format("2006-01-02-15")
		} else {
			part = w.now().UTC().Format("2006-01-02-150405.000000000")
		}
	}
	if part != w.curPart {
		if err := w.rotateLocked(part); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(part string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathFor(part), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curPart = part
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathFor(part string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, part))
}

// ReadJSONL calls fn for every line of a .jsonl.zst file.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Files lists prefix-*.jsonl.zst files in dir in chronological order.
func Files(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl.zst") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// ActivityLogger writes one JSONL entry per activity-log line (compressed).
type ActivityLogger struct{ w *JSONLZstdWriter }

func NewActivityLogger(gameDir string) *ActivityLogger {
	return &ActivityLogger{w: NewJSONLZstdWriter(filepath.Join(gameDir, "activity"), "activity")}
}

func (l *ActivityLogger) WriteActivity(v game.ActivityRecord) error { return l.w.Write(v) }
func (l *ActivityLogger) Close() error                             { return l.w.Close() }

// Journal records every handled request for replay. Each server run
// opens a new segment starting with a header entry.
type Journal struct{ w *JSONLZstdWriter }

func NewJournal(gameDir string) *Journal {
	return &Journal{w: NewSegmentWriter(filepath.Join(gameDir, "journal"), "journal")}
}

func (j *Journal) WriteCommand(e game.JournalEntry) error { return j.w.Write(e) }
func (j *Journal) Close() error                           { return j.w.Close() }

// ReadJournal decodes a journal file, or every segment of a journal
// directory in order.
func ReadJournal(path string) ([]game.JournalEntry, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	files := []string{path}
	if fi.IsDir() {
		if files, err = Files(path, "journal"); err != nil {
			return nil, err
		}
	}
	var out []game.JournalEntry
	for _, f := range files {
		err := ReadJSONL(f, func(line []byte) error {
			var e game.JournalEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			out = append(out, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadActivity decodes every activity record under dir in order.
func ReadActivity(dir string) ([]game.ActivityRecord, error) {
	files, err := Files(dir, "activity")
	if err != nil {
		return nil, err
	}
	var out []game.ActivityRecord
	for _, f := range files {
		err := ReadJSONL(f, func(line []byte) error {
			var r game.ActivityRecord
			if err := json.Unmarshal(line, &r); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

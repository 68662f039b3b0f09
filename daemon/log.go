/* Copyright 2019 Vox Media, Inc.
   Copyright 2026 Jarrah Analytics

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       https://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License. */

package daemon

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logPrefix = "2006-01-02 15:04:05.000000 "

func init() {
	log.SetFlags(0) // no prefix, we provide our own
}

// setLog points the standard logger at a new logWriter.
var setLog = func(logPath string, cycle time.Duration) *logWriter {
	lw, err := newLogWriter(logPath, cycle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	log.SetOutput(lw)
	if logPath != "" {
		log.Printf("Logs will be written to '%s'.", logPath)
	}
	return lw
}

// logWriter timestamps every line and writes it to stderr or to a
// file which is optionally archived and reopened every cycle.
type logWriter struct {
	x    sync.Mutex
	out  io.Writer
	file *os.File // nil when writing to stderr
	path string
	now  func() time.Time
	stop chan struct{}
	wg   sync.WaitGroup
}

func newLogWriter(path string, cycle time.Duration) (*logWriter, error) {
	w := &logWriter{out: os.Stderr, path: path, now: time.Now, stop: make(chan struct{})}
	if path == "" {
		return w, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("Unable to create log directory for '%s': %v", path, err)
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	if cycle > 0 {
		w.wg.Add(1)
		go w.cycler(cycle)
	}
	return w, nil
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.x.Lock()
	defer w.x.Unlock()
	if _, err := w.out.Write(append(w.now().AppendFormat(nil, logPrefix), p...)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close stops cycling and closes the file, if any.
func (w *logWriter) Close() error {
	close(w.stop)
	w.wg.Wait()
	w.x.Lock()
	defer w.x.Unlock()
	if w.file != nil {
		err := w.file.Close()
		w.file, w.out = nil, os.Stderr
		return err
	}
	return nil
}

func (w *logWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("Unable to open log file '%s': %v", w.path, err)
	}
	w.x.Lock()
	defer w.x.Unlock()
	if w.file != nil {
		w.file.Close()
	}
	w.file, w.out = file, file
	return nil
}

// cycle archives the current file as <name>-YYYYMMDD_HHMMSS and
// starts a new one.
func (w *logWriter) cycle() error {
	dir, name := filepath.Split(w.path)
	archived := filepath.Join(dir, w.now().Format(name+"-20060102_150405"))
	w.x.Lock()
	err := os.Rename(w.path, archived)
	w.x.Unlock()
	if err != nil {
		return err
	}
	if err := w.open(); err != nil {
		return err
	}
	log.Printf("Started new log file, previous log archived as: '%s'", archived)
	return nil
}

func (w *logWriter) cycler(every time.Duration) {
	defer w.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := w.cycle(); err != nil {
				fmt.Fprintf(os.Stderr, "Log cycle error: %v\n", err)
			}
		case <-w.stop:
			return
		}
	}
}

// Package storage implements the atomic JSON and append-only JSONL
// primitives that the router and executor are built on: ReadJson,
// WriteJsonAtomic, AppendJsonl, and ReadJsonlValid, plus the per-path
// mutex that serializes concurrent access to the same storage file.
// Corrupt lines encountered during a JSONL scan are quarantined rather
// than failing the whole read.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dispatchd/dispatchd/internal/dispatcherr"
	"github.com/dispatchd/dispatchd/internal/errkind"
)

// pathLocks serializes concurrent access to the same storage file across
// the whole process, so concurrent tool calls touching the same file
// serialize instead of racing. Entries are created lazily and never
// removed — the number of distinct storage paths in a single-operator
// process is small and bounded.
var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

// Lock returns the process-wide mutex guarding path, creating it on first use.
func Lock(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()
	m, ok := pathLocks[abs]
	if !ok {
		m = &sync.Mutex{}
		pathLocks[abs] = m
	}
	return m
}

// WriteJsonAtomic marshals doc and writes it to path atomically: the
// temp file is created in the same directory as the target (required for
// cross-platform atomic rename — never the OS temp dir), flushed, then
// renamed over the target. The target is never observed half-written.
func WriteJsonAtomic(path string, doc any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, fmt.Sprintf("mkdir %q", dir), err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, "marshal json", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*"+filepath.Base(path))
	if err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return dispatcherr.Wrap(errkind.StorageWriteError, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return dispatcherr.Wrap(errkind.StorageWriteError, "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, fmt.Sprintf("rename to %q", path), err)
	}
	return nil
}

// ReadJson reads and unmarshals path into out. A missing file leaves out
// untouched (the caller's zero-value/default document applies) and returns
// nil. A parse error quarantines the file to <path>.corrupt.<unixnano> and
// also leaves out untouched, returning nil — readers never get a hard
// failure out of a corrupted document, per the storage core's invariant
// that reads never throw.
func ReadJson(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return dispatcherr.Wrap(errkind.StorageReadError, fmt.Sprintf("read %q", path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		quarantinePath := fmt.Sprintf("%s.corrupt.%d", path, time.Now().UnixNano())
		if werr := os.WriteFile(quarantinePath, data, 0o644); werr != nil {
			log.Printf("[Storage] quarantine write failed for %q: %v", quarantinePath, werr)
		} else {
			log.Printf("[Storage] quarantined unparseable %q to %q", path, quarantinePath)
		}
		return nil
	}
	return nil
}

// AppendJsonl marshals record as a single JSON line and appends it to path,
// creating parent directories and the file as needed. Appends never
// truncate existing content.
func AppendJsonl(path string, record any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, fmt.Sprintf("mkdir %q", dir), err)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, "marshal jsonl record", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, fmt.Sprintf("open %q", path), err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return dispatcherr.Wrap(errkind.StorageWriteError, fmt.Sprintf("append %q", path), err)
	}
	return f.Sync()
}

// IsValidFunc validates a raw, already-JSON-parsed record and reports
// whether it should be kept.
type IsValidFunc func(raw json.RawMessage) bool

// ReadJsonlValid reads path line by line, parses each non-blank line as
// JSON, and keeps only lines that parse AND satisfy isValid. Lines that
// fail either check are dropped from the returned slice and appended to
// <path>.corrupt. Quarantine is idempotent: a line already present in
// <path>.corrupt (byte-for-byte) is not appended again.
func ReadJsonlValid(path string, isValid IsValidFunc) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dispatcherr.Wrap(errkind.StorageReadError, fmt.Sprintf("open %q", path), err)
	}
	defer f.Close()

	corruptPath := path + ".corrupt"
	existingCorrupt, err := readLines(corruptPath)
	if err != nil {
		log.Printf("[Storage] could not read existing quarantine %q: %v", corruptPath, err)
	}
	alreadyQuarantined := make(map[string]bool, len(existingCorrupt))
	for _, l := range existingCorrupt {
		alreadyQuarantined[l] = true
	}

	var valid []json.RawMessage
	var newlyCorrupt []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		var raw json.RawMessage
		ok := json.Valid(trimmed)
		if ok {
			raw = append(json.RawMessage(nil), trimmed...)
			if isValid == nil || isValid(raw) {
				valid = append(valid, raw)
				continue
			}
		}

		s := string(trimmed)
		if !alreadyQuarantined[s] {
			newlyCorrupt = append(newlyCorrupt, s)
			alreadyQuarantined[s] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return valid, dispatcherr.Wrap(errkind.StorageReadError, fmt.Sprintf("scan %q", path), err)
	}

	if len(newlyCorrupt) > 0 {
		cf, err := os.OpenFile(corruptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("[Storage] could not open quarantine %q: %v", corruptPath, err)
		} else {
			for _, l := range newlyCorrupt {
				if _, err := cf.WriteString(l + "\n"); err != nil {
					log.Printf("[Storage] quarantine write failed: %v", err)
					break
				}
			}
			cf.Close()
		}
	}

	return valid, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"braces.dev/errtrace"

	"git.home.luguber.info/inful/bgtimer/internal/foundation"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
)

// jsonDocument is the on-disk layout of the JSON backend.
type jsonDocument struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

const jsonDocumentVersion = 1

// corruptSuffix is appended to a state file that could not be decoded when it
// is moved out of the way.
const corruptSuffix = ".corrupt"

var errCorruptDocument = errors.New("state file is corrupt")

// JSONStore implements Store on a single JSON document.
//
// Every call re-reads the file so that changes made by another bgtimer process
// are visible, and every mutation is written with a temp-file rename.
//
// A file that cannot be decoded reads as an error, but the next mutation moves
// it aside to <path>.corrupt and starts over from an empty document.
type JSONStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewJSONStore creates the store and its parent directory. The file itself is
// created on the first write. A nil logger means slog.Default.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if path == "" {
		return nil, errtrace.Wrap(fmt.Errorf("json store: path is required"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("failed to create data directory: %w", err))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{path: path, logger: logger}, nil
}

// Get returns the value under key.
func (js *JSONStore) Get(_ context.Context, key string) (foundation.Option[string], error) {
	if err := checkKey(key); err != nil {
		return foundation.None[string](), err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return foundation.None[string](), ErrClosed
	}
	doc, err := js.load()
	if err != nil {
		return foundation.None[string](), errtrace.Wrap(err)
	}
	if v, ok := doc.Values[key]; ok {
		return foundation.Some(v), nil
	}
	return foundation.None[string](), nil
}

// Set stores value under key.
func (js *JSONStore) Set(_ context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return js.mutate(func(values map[string]string) bool {
		if cur, ok := values[key]; ok && cur == value {
			return false
		}
		values[key] = value
		return true
	})
}

// Delete removes key; missing keys are ignored.
func (js *JSONStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return js.mutate(func(values map[string]string) bool {
		if _, ok := values[key]; !ok {
			return false
		}
		delete(values, key)
		return true
	})
}

// Close marks the store closed.
func (js *JSONStore) Close() error {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.closed = true
	return nil
}

func (js *JSONStore) mutate(fn func(map[string]string) bool) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return ErrClosed
	}
	doc, err := js.load()
	if errors.Is(err, errCorruptDocument) {
		doc, err = js.quarantine(err)
	}
	if err != nil {
		return errtrace.Wrap(err)
	}
	if !fn(doc.Values) {
		return nil
	}
	return errtrace.Wrap(js.save(doc))
}

// load reads the document; a missing file is an empty document.
func (js *JSONStore) load() (*jsonDocument, error) {
	doc := &jsonDocument{Version: jsonDocumentVersion, Values: map[string]string{}}
	data, err := os.ReadFile(js.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptDocument, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc, nil
}

// quarantine moves an undecodable state file aside and returns an empty
// document to write in its place.
func (js *JSONStore) quarantine(cause error) (*jsonDocument, error) {
	aside := js.path + corruptSuffix
	if err := os.Rename(js.path, aside); err != nil {
		return nil, fmt.Errorf("failed to move corrupt state file aside: %w", err)
	}
	js.logger.Warn("state file is corrupt; starting from empty state",
		logfields.Path(js.path), slog.String("moved_to", aside), logfields.Error(cause))
	return &jsonDocument{Version: jsonDocumentVersion, Values: map[string]string{}}, nil
}

// save writes the document atomically using a temporary file.
func (js *JSONStore) save(doc *jsonDocument) error {
	doc.Version = jsonDocumentVersion
	doc.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tempPath := js.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := os.Rename(tempPath, js.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

package annotation

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// JSONLWriter appends examples to a JSON-lines file, one object per line.
type JSONLWriter struct {
	path string
	mu   sync.Mutex
}

func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeValidation, "training data path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "create training data directory")
	}
	return &JSONLWriter{path: path}, nil
}

func (w *JSONLWriter) Path() string { return w.path }

// Write opens the file for each example so a crash never loses more than
// the line being written.
func (w *JSONLWriter) Write(ex Example) error {
	line, err := json.Marshal(ex)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode training example")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "open training data")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "write training data")
	}
	return f.Close()
}

// ReadExamples loads every example in a JSON-lines file.  A missing file
// yields no examples.
func ReadExamples(path string) ([]Example, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "open training data")
	}
	defer f.Close()

	var out []Example
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ex Example
		if err := json.Unmarshal(sc.Bytes(), &ex); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode training data").
				WithDetail(filepath.Base(path) + ":" + strconv.Itoa(line))
		}
		out = append(out, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "read training data")
	}
	return out, nil
}

//Personal.AI order the ending

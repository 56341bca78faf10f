package serialization

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/born-ml/dagrad/internal/tensor"
)

// lockPath returns the advisory lock file guarding path.
func lockPath(path string) string {
	return path + ".lock"
}

// SaveCheckpointFile writes a checkpoint to path atomically.
//
// The data goes to a temporary file in the same directory which is renamed over
// path once complete, under an exclusive lock on path + ".lock". Readers using
// LoadCheckpointFile never observe a partially written file.
func SaveCheckpointFile(path string, state map[string]*tensor.Tensor, header Header) (Header, error) {
	lock := flock.New(lockPath(path))
	if err := lock.Lock(); err != nil {
		return Header{}, errors.Wrapf(err, "checkpoint: lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return Header{}, errors.Wrap(err, "checkpoint: create temporary file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // No-op after the rename.

	w := bufio.NewWriter(tmp)
	written, err := WriteCheckpoint(w, state, header)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Header{}, errors.Wrapf(err, "checkpoint: write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Header{}, errors.Wrapf(err, "checkpoint: rename into %s", path)
	}
	return written, nil
}

// LoadCheckpointFile reads the checkpoint at path under a shared lock.
func LoadCheckpointFile(path string, opts ReaderOptions) (map[string]*tensor.Tensor, Header, error) {
	lock := flock.New(lockPath(path))
	if err := lock.RLock(); err != nil {
		return nil, Header{}, errors.Wrapf(err, "checkpoint: lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	//nolint:gosec // G304: the path is chosen by the caller.
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, errors.Wrap(err, "checkpoint: open")
	}
	defer func() { _ = f.Close() }()
	state, header, err := ReadCheckpoint(bufio.NewReader(f), opts)
	if err != nil {
		return nil, Header{}, errors.WithMessagef(err, "checkpoint %s", path)
	}
	return state, header, nil
}

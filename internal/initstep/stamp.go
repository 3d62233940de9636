package initstep

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/readygate/readygate/internal/fileutil"
)

// stepHash computes a deterministic digest of a step definition. Fields are
// separated by NUL bytes to prevent cross-field collisions. The first 16 hex
// characters are enough to tell definitions apart.
func stepHash(step Step) string {
	h := sha256.New()
	h.Write([]byte(step.Name))
	h.Write([]byte{0})
	h.Write([]byte(step.Path))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(step.Args, "\x00")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(step.Env, "\x00")))
	h.Write([]byte{0})
	h.Write([]byte(step.Dir))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// stampMatches reports whether the stamp file records the given hash. A
// missing stamp means the step has not completed; a stale hash means the
// definition changed and the step must run again.
func stampMatches(path, hash string) (bool, error) {
	recorded, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read stamp %s: %w", path, err)
	}
	return strings.TrimSpace(string(recorded)) == hash, nil
}

// writeStamp records a completed step. The write is atomic so a crash
// mid-write can never leave a stamp that skips an unfinished step.
func writeStamp(path, hash string) error {
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, []byte(hash+"\n"), 0o644); err != nil {
		return fmt.Errorf("write stamp %s: %w", path, err)
	}
	return nil
}

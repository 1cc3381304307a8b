package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filippo.io/age"
	goSession "github.com/MrEthical07/goSession"
)

// ErrSealedFile wraps encryption and file system failures of [SealedFile].
var ErrSealedFile = errors.New("sealed credential file")

// SealedFile keeps credentials in one file encrypted to an age X25519 identity.
//
// A missing file reads as absent. Writes go to a temporary file that is renamed over
// the target, so a reader never sees a partial file.
type SealedFile struct {
	path     string
	identity *age.X25519Identity

	mu sync.Mutex
}

// NewSealedFile creates a store at path sealed to identity.
func NewSealedFile(path string, identity *age.X25519Identity) (*SealedFile, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrSealedFile)
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: nil identity", ErrSealedFile)
	}
	return &SealedFile{path: path, identity: identity}, nil
}

// LoadIdentity reads the first X25519 identity from an age identity file.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read identity: %v", ErrSealedFile, err)
	}
	ids, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse identity: %v", ErrSealedFile, err)
	}
	for _, id := range ids {
		if x, ok := id.(*age.X25519Identity); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: no X25519 identity in %s", ErrSealedFile, path)
}

// GenerateIdentityFile creates a new identity and writes it to path with mode 0600.
func GenerateIdentityFile(path string) (*age.X25519Identity, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("%w: generate identity: %v", ErrSealedFile, err)
	}
	body := "# public key: " + id.Recipient().String() + "\n" + id.String() + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write identity: %v", ErrSealedFile, err)
	}
	return id, nil
}

// Read decrypts the file. Any failure reads as absent.
func (s *SealedFile) Read() (goSession.Credentials, bool) {
	c, ok, err := s.Load()
	if err != nil {
		return goSession.Credentials{}, false
	}
	return c, ok
}

// Load is Read with the failure preserved. A missing file is not an error.
func (s *SealedFile) Load() (goSession.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return goSession.Credentials{}, false, nil
		}
		return goSession.Credentials{}, false, fmt.Errorf("%w: open: %v", ErrSealedFile, err)
	}
	defer f.Close()

	r, err := age.Decrypt(f, s.identity)
	if err != nil {
		return goSession.Credentials{}, false, fmt.Errorf("%w: decrypt: %v", ErrSealedFile, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return goSession.Credentials{}, false, fmt.Errorf("%w: decrypt: %v", ErrSealedFile, err)
	}

	var fields map[string]string
	if err := json.Unmarshal(plain, &fields); err != nil {
		return goSession.Credentials{}, false, fmt.Errorf("%w: decode: %v", ErrSealedFile, err)
	}

	c, ok := fromFields(fields)
	return c, ok, nil
}

// Write encrypts c and atomically replaces the file.
func (s *SealedFile) Write(c goSession.Credentials) error {
	if !c.Present() {
		return ErrIncomplete
	}

	plain, err := json.Marshal(toFields(c))
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSealedFile, err)
	}

	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, s.identity.Recipient())
	if err != nil {
		return fmt.Errorf("%w: encrypt: %v", ErrSealedFile, err)
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("%w: encrypt: %v", ErrSealedFile, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: encrypt: %v", ErrSealedFile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+strings.TrimPrefix(filepath.Base(s.path), ".")+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrSealedFile, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod: %v", ErrSealedFile, err)
	}
	if _, err := tmp.Write(sealed.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrSealedFile, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write: %v", ErrSealedFile, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrSealedFile, err)
	}
	return nil
}

// Clear removes the file. Clearing a missing file succeeds.
func (s *SealedFile) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove: %v", ErrSealedFile, err)
	}
	return nil
}

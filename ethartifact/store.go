package ethartifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goware/superr"
)

// Store resolves a contract name to the raw bytes of its build artifact.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(contractName string) ([]byte, error)
}

var (
	_ Store = &DirStore{}
	_ Store = &Registry{}
)

// DirStore reads artifacts from a build directory, one `<contractName>.json`
// file per contract, e.g. truffle's build/contracts.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Dir() string {
	return s.dir
}

func (s *DirStore) Path(contractName string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", contractName))
}

func (s *DirStore) Load(contractName string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(contractName))
	if err != nil {
		// a missing file and an unreadable one are both unresolvable
		return nil, superr.New(ErrNotFound, err)
	}
	return data, nil
}

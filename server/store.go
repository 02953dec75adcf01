package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/undeconstructed/ludogo/game"
)

// savedMatch is what goes on disk, one file per match.
type savedMatch struct {
	ID         string            `json:"id"`
	Version    int64             `json:"version"`
	State      game.State        `json:"state"`
	Strategies map[string]string `json:"strategies,omitempty"`
}

type fileStore struct {
	dir string
}

func newFileStore(dir string) *fileStore {
	return &fileStore{dir: dir}
}

func (fs *fileStore) path(id string) string {
	return filepath.Join(fs.dir, "state-"+id+".json")
}

func (fs *fileStore) save(sm savedMatch) error {
	outFile, err := os.Create(fs.path(sm.ID))
	if err != nil {
		return err
	}
	defer outFile.Close()
	return json.NewEncoder(outFile).Encode(sm)
}

func (fs *fileStore) load(id string) (savedMatch, error) {
	inFile, err := os.Open(fs.path(id))
	if err != nil {
		return savedMatch{}, err
	}
	defer inFile.Close()
	var sm savedMatch
	err = json.NewDecoder(inFile).Decode(&sm)
	return sm, err
}

func (fs *fileStore) loadAll() ([]savedMatch, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, err
	}
	var out []savedMatch
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "state-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "state-"), ".json")
		sm, err := fs.load(id)
		if err != nil {
			// skip the bad file, the rest can still load
			continue
		}
		out = append(out, sm)
	}
	return out, nil
}

func (fs *fileStore) remove(id string) error {
	err := os.Remove(fs.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

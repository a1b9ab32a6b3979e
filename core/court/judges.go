package court

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

const judgePrefix = "judge:"

// Judge is a directory entry. Judges live outside the ledger.
type Judge struct {
	JudgeID      string    `json:"judge_id"`
	Name         string    `json:"name"`
	Specialty    string    `json:"specialty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// JudgeDirectory persists judges in the node's key-value store.
type JudgeDirectory struct {
	mu      sync.Mutex
	backend storage.StateBackend
}

func NewJudgeDirectory(backend storage.StateBackend) *JudgeDirectory {
	return &JudgeDirectory{backend: backend}
}

// Register adds a judge. Registering the same name and specialty again
// returns the existing entry with created false.
func (d *JudgeDirectory) Register(name, specialty string) (Judge, bool, error) {
	name, specialty = strings.TrimSpace(name), strings.TrimSpace(specialty)
	if name == "" || specialty == "" {
		return Judge{}, false, errors.New("judge name and specialty are required")
	}
	id := JudgeID(name, specialty)

	d.mu.Lock()
	defer d.mu.Unlock()
	var existing Judge
	err := storage.GetJSON(d.backend, judgePrefix+id, &existing)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return Judge{}, false, err
	}
	j := Judge{JudgeID: id, Name: name, Specialty: specialty, RegisteredAt: time.Now().UTC()}
	if err := storage.PutJSON(d.backend, judgePrefix+id, j); err != nil {
		return Judge{}, false, err
	}
	return j, true, nil
}

// Get looks a judge up by id.
func (d *JudgeDirectory) Get(id string) (Judge, bool, error) {
	var j Judge
	err := storage.GetJSON(d.backend, judgePrefix+id, &j)
	if errors.Is(err, storage.ErrNotFound) {
		return Judge{}, false, nil
	}
	return j, err == nil, err
}

// List returns every judge ordered by id.
func (d *JudgeDirectory) List() ([]Judge, error) {
	var out []Judge
	err := d.backend.Iterate(judgePrefix, func(_ string, value []byte) error {
		var j Judge
		if err := json.Unmarshal(value, &j); err != nil {
			return err
		}
		out = append(out, j)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, k int) bool { return out[i].JudgeID < out[k].JudgeID })
	return out, nil
}

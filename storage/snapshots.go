package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/wyseguys/site-audit/ratings"
)

var snapshotsBucket = []byte("snapshots")

// Snapshot is the latest audit result for a host.
type Snapshot struct {
	RunID            string          `json:"run_id"`
	URL              string          `json:"url"`
	Host             string          `json:"host"`
	Kind             string          `json:"kind"`
	AuditedAt        time.Time       `json:"audited_at"`
	Scores           []CategoryScore `json:"scores,omitempty"`
	ObservatoryScore int             `json:"observatory_score,omitempty"`
	ObservatoryGrade string          `json:"observatory_grade,omitempty"`
}

// Failing lists what is wrong with the snapshot: every poor lighthouse
// category and an F observatory grade.
func (s Snapshot) Failing() []string {
	var out []string
	for _, sc := range s.Scores {
		if sc.Class == ratings.Poor {
			out = append(out, fmt.Sprintf("%s %d", sc.Category, sc.Score))
		}
	}
	if s.ObservatoryGrade == "F" {
		out = append(out, fmt.Sprintf("observatory %s (%d)", s.ObservatoryGrade, s.ObservatoryScore))
	}
	return out
}

// Snapshots keeps the latest Snapshot per host in a bolt database.
type Snapshots struct {
	db *bolt.DB
}

// OpenSnapshots opens (or creates) the bolt file at path.
func OpenSnapshots(path string) (*Snapshots, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshots: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Snapshots{db: db}, nil
}

// PutSnapshot replaces the snapshot stored for s.Host.
func (s *Snapshots) PutSnapshot(snap Snapshot) error {
	if snap.Host == "" {
		return fmt.Errorf("snapshot has no host")
	}
	v, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotsBucket).Put([]byte(snap.Host), v)
	})
}

// Snapshot returns the snapshot for host; ok is false when there is none.
func (s *Snapshots) Snapshot(host string) (snap Snapshot, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotsBucket).Get([]byte(host))
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &snap)
	})
	return snap, ok, err
}

// ForEachSnapshot calls fn for every stored snapshot in host order. Entries
// that do not decode are skipped.
func (s *Snapshots) ForEachSnapshot(fn func(Snapshot) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return nil
			}
			return fn(snap)
		})
	})
}

// Close closes the bolt database.
func (s *Snapshots) Close() error {
	return s.db.Close()
}

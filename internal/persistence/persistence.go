package persistence

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nasfand/nasfand/internal/configuration"
	"github.com/nasfand/nasfand/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketConfiguration = "configuration"

	keyFanControl = "fancontrol"
)

// Persistence stores the mutable fan control configuration document so
// user changes made through the API survive restarts. The document is
// opaque to this layer, it is marshalled as-is.
type Persistence interface {
	Init() error

	LoadFanControlConfig() (*configuration.FanControlConfig, error)
	SaveFanControlConfig(config configuration.FanControlConfig) error
	DeleteFanControlConfig() error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p persistence) SaveFanControlConfig(config configuration.FanControlConfig) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(config)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketConfiguration))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyFanControl), data)
	})
}

func (p persistence) LoadFanControlConfig() (*configuration.FanControlConfig, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var config *configuration.FanControlConfig
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketConfiguration))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(keyFanControl))
		if v == nil {
			return os.ErrNotExist
		}

		var loaded configuration.FanControlConfig
		if err := json.Unmarshal(v, &loaded); err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved configuration: %v", err)
			if err := b.Delete([]byte(keyFanControl)); err != nil {
				ui.Error("Unable to delete corrupt configuration: %v", err)
			}
			return nil
		}

		config = &loaded
		return nil
	})

	return config, err
}

func (p persistence) DeleteFanControlConfig() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketConfiguration))
		if b == nil {
			// nothing persisted yet
			return nil
		}
		return b.Delete([]byte(keyFanControl))
	})
}

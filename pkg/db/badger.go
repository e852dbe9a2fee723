package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const (
	versionPath    = "stethoscope/version"
	taskPrefix     = "task/"
	taskPath       = "task/%s"
	inflightPath   = "inflight/%s" // EntryID -> TaskID
	inflightPrefix = "inflight/"
)

// BadgerConfig represents BadgerDB configuration parameters
type BadgerConfig struct {
	Truncate bool `toml:"truncate"`
	FileIO   bool `toml:"file_io"`
}

// Ledger keeps background task records. Each entry may have at most one
// pending task, guarded by an in-flight marker written in the same transaction.
type Ledger struct {
	db *badger.DB
}

func NewLedger(config *Config) (*Ledger, error) {
	var (
		dir = filepath.Join(config.Dir, "tasks")
	)

	log.Infof("opening task ledger %q", dir)

	// Make sure database directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir database dir")
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(log.StandardLogger()).
		WithTruncate(true)

	if config.Badger != nil {
		opts.Truncate = config.Badger.Truncate
		if config.Badger.FileIO {
			opts.ValueLogLoadingMode = options.FileIO
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	ledger := &Ledger{db: db}

	if err := db.Update(func(txn *badger.Txn) error {
		if err := ledger.setObj(txn, []byte(versionPath), CurrentVersion, false); err != nil && !errors.Is(err, model.ErrConflict) {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to read database version")
	}

	return ledger, nil
}

func (l *Ledger) Close() error {
	log.Debug("closing task ledger")
	return l.db.Close()
}

func (l *Ledger) Version() (int, error) {
	var (
		version = -1
	)

	err := l.db.View(func(txn *badger.Txn) error {
		return l.getObj(txn, []byte(versionPath), &version)
	})

	return version, err
}

// CreateTask saves a new task. A pending task takes the in-flight marker of its entry,
// a second pending task for the same entry fails with ErrConflict.
func (l *Ledger) CreateTask(_ context.Context, task *model.Task) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		if task.InFlight() {
			if err := l.setObj(txn, l.getKey(inflightPath, task.EntryID), task.ID, false); err != nil {
				return errors.Wrapf(err, "entry %q already has a task in flight", task.EntryID)
			}
		}

		return l.setObj(txn, l.getKey(taskPath, task.ID), task, false)
	})

	// Two concurrent registrations raced for the same marker
	if err == badger.ErrConflict {
		return errors.Wrapf(model.ErrConflict, "entry %q already has a task in flight", task.EntryID)
	}

	return err
}

func (l *Ledger) GetTask(_ context.Context, taskID string) (*model.Task, error) {
	var (
		task model.Task
		key  = l.getKey(taskPath, taskID)
	)

	if err := l.db.View(func(txn *badger.Txn) error {
		return l.getObj(txn, key, &task)
	}); err != nil {
		return nil, err
	}

	return &task, nil
}

// InFlight returns the id of the pending task of an entry, if any.
func (l *Ledger) InFlight(_ context.Context, entryID string) (string, bool, error) {
	var taskID string

	err := l.db.View(func(txn *badger.Txn) error {
		return l.getObj(txn, l.getKey(inflightPath, entryID), &taskID)
	})

	if errors.Is(err, model.ErrNotFound) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}

	return taskID, true, nil
}

// UpdateTask modifies a task in place. Leaving the pending state releases the entry's
// in-flight marker, going back to pending takes it again.
func (l *Ledger) UpdateTask(taskID string, cb func(task *model.Task) error) error {
	var (
		key  = l.getKey(taskPath, taskID)
		task model.Task
	)

	err := l.db.Update(func(txn *badger.Txn) error {
		if err := l.getObj(txn, key, &task); err != nil {
			return err
		}

		if err := cb(&task); err != nil {
			return err
		}

		if task.ID != taskID {
			return errors.New("can't change task ID")
		}

		markerKey := l.getKey(inflightPath, task.EntryID)

		var owner string
		err := l.getObj(txn, markerKey, &owner)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}

		switch {
		case task.InFlight() && err != nil:
			if err := l.setObj(txn, markerKey, task.ID, false); err != nil {
				return err
			}
		case task.InFlight() && owner != task.ID:
			return errors.Wrapf(model.ErrConflict, "entry %q already has task %q in flight", task.EntryID, owner)
		case !task.InFlight() && owner == task.ID:
			if err := txn.Delete(markerKey); err != nil {
				return errors.Wrap(err, "failed to release in-flight marker")
			}
		}

		return l.setObj(txn, key, &task, true)
	})

	if err == badger.ErrConflict {
		return errors.Wrapf(model.ErrConflict, "task %q was modified concurrently", taskID)
	}

	return err
}

// DeleteTask removes a task and releases its marker.
func (l *Ledger) DeleteTask(_ context.Context, taskID string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		var task model.Task

		key := l.getKey(taskPath, taskID)
		if err := l.getObj(txn, key, &task); err != nil {
			return err
		}

		markerKey := l.getKey(inflightPath, task.EntryID)

		var owner string
		if err := l.getObj(txn, markerKey, &owner); err == nil && owner == task.ID {
			if err := txn.Delete(markerKey); err != nil {
				return errors.Wrap(err, "failed to release in-flight marker")
			}
		}

		return txn.Delete(key)
	})
}

// WalkTasks iterates over all tasks in the ledger.
func (l *Ledger) WalkTasks(_ context.Context, cb func(task *model.Task) error) error {
	return l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = l.getKey(taskPrefix)
		opts.PrefetchValues = true
		return l.iterator(txn, opts, func(item *badger.Item) error {
			task := &model.Task{}
			if err := l.unmarshalObj(item, task); err != nil {
				return err
			}

			return cb(task)
		})
	})
}

// PurgeMarkers drops in-flight markers whose task is gone or no longer pending.
func (l *Ledger) PurgeMarkers(_ context.Context) (int, error) {
	var purged int

	err := l.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = l.getKey(inflightPrefix)
		opts.PrefetchValues = true

		var stale [][]byte
		if err := l.iterator(txn, opts, func(item *badger.Item) error {
			var taskID string
			if err := l.unmarshalObj(item, &taskID); err != nil {
				return err
			}

			var task model.Task
			err := l.getObj(txn, l.getKey(taskPath, taskID), &task)
			if errors.Is(err, model.ErrNotFound) || (err == nil && !task.InFlight()) {
				stale = append(stale, item.KeyCopy(nil))
				return nil
			}
			return err
		}); err != nil {
			return err
		}

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		purged = len(stale)
		return nil
	})

	return purged, err
}

func (l *Ledger) iterator(txn *badger.Txn, opts badger.IteratorOptions, callback func(item *badger.Item) error) error {
	iter := txn.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()

		if err := callback(item); err != nil {
			return err
		}
	}

	return nil
}

func (l *Ledger) getKey(format string, a ...interface{}) []byte {
	resourcePath := fmt.Sprintf(format, a...)
	fullPath := fmt.Sprintf("stethoscope/v%d/%s", CurrentVersion, resourcePath)

	return []byte(fullPath)
}

func (l *Ledger) setObj(txn *badger.Txn, key []byte, obj interface{}, overwrite bool) error {
	if !overwrite {
		// Overwrites are not allowed, make sure there is no object with the given key
		_, err := txn.Get(key)
		if err == nil {
			return model.ErrConflict
		} else if err != badger.ErrKeyNotFound {
			return errors.Wrap(err, "failed to check whether key exists")
		}
	}

	data, err := l.marshalObj(obj)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize object for key %q", key)
	}

	return txn.Set(key, data)
}

func (l *Ledger) getObj(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return model.ErrNotFound
		}

		return err
	}

	return l.unmarshalObj(item, out)
}

func (l *Ledger) marshalObj(obj interface{}) ([]byte, error) {
	return json.Marshal(obj)
}

func (l *Ledger) unmarshalObj(item *badger.Item, out interface{}) error {
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

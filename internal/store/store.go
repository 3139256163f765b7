package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

// FileStore keeps the portal database as one JSON document on disk.
// Every write rewrites the whole document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// New returns a store backed by the file at path. The parent directory is
// created if needed; the file itself is created on first Load.
func New(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "store: create %s", dir)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the current document.
func (s *FileStore) Load() (*models.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the document.
func (s *FileStore) Save(db *models.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(db)
}

// Update loads the document, applies fn and saves the result. Nothing is
// written when fn returns an error.
func (s *FileStore) Update(fn func(db *models.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	return s.save(db)
}

func (s *FileStore) load() (*models.Database, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		db := empty()
		if err := s.save(db); err != nil {
			return nil, err
		}
		return db, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "store: read %s", s.path)
	}

	db := empty()
	if err := json.Unmarshal(data, db); err != nil {
		return nil, errors.Wrapf(err, "store: decode %s", s.path)
	}
	normalize(db)
	return db, nil
}

// save writes to a temp file and renames it over the document so readers
// never see a partial write.
func (s *FileStore) save(db *models.Database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return errors.Wrap(err, "store: encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return errors.Wrap(err, "store: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "store: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "store: close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "store: replace %s", s.path)
	}
	return nil
}

func empty() *models.Database {
	return &models.Database{
		Classes:        []models.Class{},
		Students:       []models.ClassStudent{},
		Tutors:         []models.Account{},
		Scholarships:   []models.ScholarshipApplication{},
		ActivityPoints: []models.Activity{},
	}
}

// normalize replaces collections decoded as null with empty ones, so the
// document never serialises null lists.
func normalize(db *models.Database) {
	if db.Classes == nil {
		db.Classes = []models.Class{}
	}
	if db.Students == nil {
		db.Students = []models.ClassStudent{}
	}
	if db.Tutors == nil {
		db.Tutors = []models.Account{}
	}
	if db.Scholarships == nil {
		db.Scholarships = []models.ScholarshipApplication{}
	}
	if db.ActivityPoints == nil {
		db.ActivityPoints = []models.Activity{}
	}
	for i := range db.Classes {
		c := &db.Classes[i]
		if c.Students == nil {
			c.Students = []models.ClassStudent{}
		}
		if c.ScholarshipApplications == nil {
			c.ScholarshipApplications = []models.ScholarshipApplication{}
		}
		if c.Internals == nil {
			c.Internals = []models.InternalRecord{}
		}
		for j := range c.Students {
			if c.Students[j].Requests == nil {
				c.Students[j].Requests = []models.Request{}
			}
		}
	}
}

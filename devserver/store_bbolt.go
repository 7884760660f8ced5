package devserver

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketUsers      = []byte("users")       // email -> UserRecord
	bucketFiles      = []byte("files")       // id -> FileRecord
	bucketFileTokens = []byte("file_tokens") // share token -> file id
	bucketPolicy     = []byte("policy")      // "policy" -> PolicyRecord
)

var policyKey = []byte("policy")

// BoltStore is a bbolt-backed Store used by the long-running server command.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens (creating if needed) a bbolt database at path.
func OpenBoltStore(path string, options *bbolt.Options) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketFiles, bucketFileTokens, bucketPolicy} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) UserByEmail(email string) (*UserRecord, error) {
	var u UserRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(email))
		if data == nil {
			return fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return json.Unmarshal(data, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *BoltStore) UserByUsername(username string) (*UserRecord, error) {
	var found *UserRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, data []byte) error {
			var u UserRecord
			if err := json.Unmarshal(data, &u); err != nil {
				return err
			}
			if u.Username == username {
				found = &u
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return found, nil
}

func (s *BoltStore) PutUser(u *UserRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUsers).Put([]byte(u.Email), data)
	})
}

func (s *BoltStore) FileByID(id string) (*FileRecord, error) {
	var f FileRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("file %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &f)
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *BoltStore) FileByShareToken(token string) (*FileRecord, error) {
	var f FileRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketFileTokens).Get([]byte(token))
		if id == nil {
			return fmt.Errorf("file token %s: %w", token, ErrNotFound)
		}
		data := tx.Bucket(bucketFiles).Get(id)
		if data == nil {
			return fmt.Errorf("file %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &f)
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *BoltStore) Files() ([]*FileRecord, error) {
	var out []*FileRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(_, data []byte) error {
			var f FileRecord
			if err := json.Unmarshal(data, &f); err != nil {
				return err
			}
			out = append(out, &f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) PutFile(f *FileRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketFiles).Put([]byte(f.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketFileTokens).Put([]byte(f.ShareToken), []byte(f.ID))
	})
}

func (s *BoltStore) DeleteFile(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		files := tx.Bucket(bucketFiles)
		data := files.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("file %s: %w", id, ErrNotFound)
		}
		var f FileRecord
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if err := tx.Bucket(bucketFileTokens).Delete([]byte(f.ShareToken)); err != nil {
			return err
		}
		return files.Delete([]byte(id))
	})
}

func (s *BoltStore) Policy() (*PolicyRecord, error) {
	var p *PolicyRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPolicy).Get(policyKey)
		if data == nil {
			return nil
		}
		p = &PolicyRecord{}
		return json.Unmarshal(data, p)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return defaultPolicy(), nil
	}
	return p, nil
}

func (s *BoltStore) PutPolicy(p *PolicyRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketPolicy).Put(policyKey, data)
	})
}

package qauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/kardianos/qcat"
	"go.etcd.io/bbolt"
	"golang.org/x/crypto/bcrypt"
)

var bucketAccounts = []byte("accounts")

var (
	// ErrAccountNotFound is returned when an account does not exist.
	ErrAccountNotFound = errors.New("qauth: account not found")

	// ErrInvalidAccount is returned for an unusable username, password or role.
	ErrInvalidAccount = errors.New("qauth: invalid account")
)

// timeNow returns the current time. Tests may replace it.
var timeNow = time.Now

// Account is a stored login account.
type Account struct {
	Username string `cbor:"1,keyasint"`

	// Hash is the bcrypt hash of the password.
	Hash []byte `cbor:"2,keyasint"`

	Role qcat.Role `cbor:"3,keyasint"`

	// CreatedAt is when the account was first added.
	CreatedAt time.Time `cbor:"4,keyasint"`
}

// Options configures a BoltAuthenticator.
type Options struct {
	// Cost is the bcrypt cost for new password hashes.
	// Zero selects bcrypt.DefaultCost.
	Cost int
}

// BoltAuthenticator implements qcat.Authenticator using bbolt for persistence.
type BoltAuthenticator struct {
	db   *bbolt.DB
	cost int
}

var _ qcat.Authenticator = (*BoltAuthenticator)(nil)

// Open opens or creates the account database at path.
func Open(path string, opt Options) (*BoltAuthenticator, error) {
	cost := opt.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("qauth: bcrypt cost %d out of range", cost)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create account directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAccounts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &BoltAuthenticator{db: db, cost: cost}, nil
}

// Close closes the database.
func (a *BoltAuthenticator) Close() error {
	return a.db.Close()
}

// SetAccount adds an account or replaces the password and role of an
// existing one.
func (a *BoltAuthenticator) SetAccount(username, password string, role qcat.Role) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %s", ErrInvalidAccount, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return a.db.Update(func(tx *bbolt.Tx) error {
		return putAccount(tx.Bucket(bucketAccounts), username, hash, role)
	})
}

func putAccount(b *bbolt.Bucket, username string, hash []byte, role qcat.Role) error {
	rec := Account{
		Username:  username,
		Hash:      hash,
		Role:      role,
		CreatedAt: timeNow(),
	}
	if data := b.Get([]byte(username)); data != nil {
		var old Account
		if err := cbor.Unmarshal(data, &old); err == nil {
			rec.CreatedAt = old.CreatedAt
		}
	}
	data, err := cbor.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put([]byte(username), data)
}

// DeleteAccount removes an account.
func (a *BoltAuthenticator) DeleteAccount(username string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAccounts)
		if b.Get([]byte(username)) == nil {
			return ErrAccountNotFound
		}
		return b.Delete([]byte(username))
	})
}

// Account returns the stored account for username.
func (a *BoltAuthenticator) Account(username string) (Account, error) {
	var rec Account
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAccounts).Get([]byte(username))
		if data == nil {
			return ErrAccountNotFound
		}
		return cbor.Unmarshal(data, &rec)
	})
	return rec, err
}

// Accounts returns all accounts ordered by username.
func (a *BoltAuthenticator) Accounts() ([]Account, error) {
	var list []Account
	err := a.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			var rec Account
			if err := cbor.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("account %q: %w", k, err)
			}
			list = append(list, rec)
			return nil
		})
	})
	return list, err
}

// Authenticate reports whether username exists with the given role and
// password. An unknown user, a role mismatch and a wrong password all
// return false with a nil error.
func (a *BoltAuthenticator) Authenticate(ctx context.Context, role qcat.Role, username, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rec, err := a.Account(username)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Role != role {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword(rec.Hash, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("account %q: %w", username, err)
	}
}

// DefaultAccounts are installed by SeedDefaults.
var DefaultAccounts = []struct {
	Username, Password string
	Role               qcat.Role
}{
	{"user", "user", qcat.RolePatron},
	{"admin", "admin", qcat.RoleAdmin},
}

// SeedDefaults installs DefaultAccounts if the database holds no accounts.
// It reports whether anything was added.
func (a *BoltAuthenticator) SeedDefaults() (bool, error) {
	type hashed struct {
		name string
		hash []byte
		role qcat.Role
	}
	list := make([]hashed, 0, len(DefaultAccounts))
	for _, d := range DefaultAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), a.cost)
		if err != nil {
			return false, fmt.Errorf("hash password: %w", err)
		}
		list = append(list, hashed{d.Username, hash, d.Role})
	}

	seeded := false
	err := a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAccounts)
		if k, _ := b.Cursor().First(); k != nil {
			return nil
		}
		for _, h := range list {
			if err := putAccount(b, h.name, h.hash, h.role); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

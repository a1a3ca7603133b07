//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"log/slog"
	"pairchat/domain"
	"pairchat/errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// IUserRepository is the user directory: identities, handles and credentials.
type IUserRepository interface {
	CreateUser(handle, email, passwordHash string) (User, error)
	GetUserByHandle(handle string) (User, error)
	GetUserByID(id string) (User, error)
	ListUsers() ([]User, error)
	SearchUsers(query string) ([]User, error)
}

// User is the repository representation of a directory entry.
type User struct {
	ID           string
	Handle       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (u User) Ref() domain.UserRef {
	return domain.UserRef{ID: u.ID, Handle: u.Handle}
}

const (
	userPrefix        = "user:id:"
	userHandlePrefix  = "user:handle:"
	userEmailPrefix   = "user:email:"
	defaultPrefetches = 100
)

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewUserRepository(db *badger.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log, now: time.Now}
}

// CreateUser persists a new user with its handle and e-mail indexes.
// User ids are UUIDv7 so the id keyspace enumerates users in registration order.
// Handles are matched exactly, e-mails case-insensitively.
func (u *UserRepository) CreateUser(handle, email, passwordHash string) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:           id.String(),
		Handle:       handle,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    u.now().UTC(),
	}
	handleKey := []byte(userHandlePrefix + handle)
	emailKey := []byte(userEmailPrefix + strings.ToLower(email))

	err = update(u.db, u.log, func(txn *badger.Txn) error {
		for _, key := range [][]byte{handleKey, emailKey} {
			_, err := txn.Get(key)
			if err == nil {
				return errors.ErrUserAlreadyExists
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		if err := txn.Set([]byte(userPrefix+user.ID), marshalUser(toUserRecord(user))); err != nil {
			return err
		}
		if err := txn.Set(handleKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	if err != nil {
		return User{}, err
	}
	u.log.Info("User registered", "user_id", user.ID, "handle", handle)
	return user, nil
}

// GetUserByHandle resolves an exact handle.
func (u *UserRepository) GetUserByHandle(handle string) (User, error) {
	var user User
	err := view(u.db, func(txn *badger.Txn) error {
		id, err := getValue(txn, []byte(userHandlePrefix+handle))
		if err != nil {
			return notFound(err)
		}
		user, err = getUser(txn, string(id))
		return err
	})
	return user, err
}

func (u *UserRepository) GetUserByID(id string) (User, error) {
	var user User
	err := view(u.db, func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

// ListUsers enumerates the directory in registration order.
func (u *UserRepository) ListUsers() ([]User, error) {
	return u.scan(func(User) bool { return true })
}

// SearchUsers returns users whose handle contains query, ignoring case.
// The query is matched literally; an empty query matches everyone.
func (u *UserRepository) SearchUsers(query string) ([]User, error) {
	needle := strings.ToLower(query)
	return u.scan(func(user User) bool {
		return strings.Contains(strings.ToLower(user.Handle), needle)
	})
}

func (u *UserRepository) scan(keep func(User) bool) ([]User, error) {
	users := []User{}
	err := view(u.db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = defaultPrefetches
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				record, err := unmarshalUser(v)
				if err != nil {
					return err
				}
				if user := fromUserRecord(record); keep(user) {
					users = append(users, user)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func getUser(txn *badger.Txn, id string) (User, error) {
	v, err := getValue(txn, []byte(userPrefix+id))
	if err != nil {
		return User{}, notFound(err)
	}
	record, err := unmarshalUser(v)
	if err != nil {
		return User{}, err
	}
	return fromUserRecord(record), nil
}

func notFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrUserNotFound
	}
	return err
}

func toUserRecord(user User) userRecord {
	return userRecord{
		ID:           user.ID,
		Handle:       user.Handle,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
}

func fromUserRecord(record userRecord) User {
	return User{
		ID:           record.ID,
		Handle:       record.Handle,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}

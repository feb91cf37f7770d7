package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/requestid"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"go.uber.org/zap"
)

// defaultBirthdayWindow is the number of days after today that still count as upcoming.
const defaultBirthdayWindow = 7

// Service enforces the rules that span several contacts before it hands over to the store.
// Every call gets its own store, either on the connection pool or on a transaction of its own.
type Service struct {
	db             *sqlx.DB
	log            *zap.Logger
	now            func() time.Time
	birthdayWindow int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the clock that determines today's date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBirthdayWindow sets how many days after today a birthday is still upcoming.
func WithBirthdayWindow(days int) Option {
	return func(s *Service) { s.birthdayWindow = days }
}

// New creates a service on the database. The database can be a real one for production use or a
// mock database within unit tests.
func New(db *sqlx.DB, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:             db,
		log:            log,
		now:            time.Now,
		birthdayWindow: defaultBirthdayWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateContact inserts a new contact unless its email or phone number is already taken.
func (s *Service) CreateContact(ctx context.Context, fields model.ContactFields) (*model.Contact, error) {
	var created *model.Contact
	err := s.inTx(ctx, func(st *store.Store) error {
		if fields.Email != nil {
			taken, err := st.EmailTaken(ctx, *fields.Email, 0)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailExists
			}
		}
		if fields.PhoneNumber != nil {
			taken, err := st.PhoneTaken(ctx, *fields.PhoneNumber, 0)
			if err != nil {
				return err
			}
			if taken {
				return ErrPhoneExists
			}
		}
		var err error
		created, err = st.Create(ctx, fields)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "create contact", err)
	}
	return created, nil
}

// ReadContact returns the contact with the given id.
func (s *Service) ReadContact(ctx context.Context, id int64) (*model.Contact, error) {
	contact, err := store.New(s.db).Get(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "read contact", err)
	}
	if contact == nil {
		return nil, ErrNotFound
	}
	return contact, nil
}

// ListContacts returns at most limit contacts after skipping the first skip of them.
func (s *Service) ListContacts(ctx context.Context, skip, limit int) ([]model.Contact, error) {
	contacts, err := store.New(s.db).List(ctx, skip, limit)
	if err != nil {
		return nil, s.fail(ctx, "list contacts", err)
	}
	return contacts, nil
}

// UpdateContact overwrites the present fields of a contact. A new email or phone number must not
// belong to another contact; keeping one's own is fine.
func (s *Service) UpdateContact(ctx context.Context, id int64, fields model.ContactFields) (*model.Contact, error) {
	var updated *model.Contact
	err := s.inTx(ctx, func(st *store.Store) error {
		existing, err := st.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		if fields.Email != nil {
			taken, err := st.EmailTaken(ctx, *fields.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailExists
			}
		}
		if fields.PhoneNumber != nil {
			taken, err := st.PhoneTaken(ctx, *fields.PhoneNumber, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrPhoneExists
			}
		}
		updated, err = st.Update(ctx, id, fields)
		if err == nil && updated == nil {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update contact", err)
	}
	return updated, nil
}

// DeleteContact removes a contact and returns it as it was.
func (s *Service) DeleteContact(ctx context.Context, id int64) (*model.Contact, error) {
	var deleted *model.Contact
	err := s.inTx(ctx, func(st *store.Store) error {
		var err error
		deleted, err = st.Delete(ctx, id)
		if err == nil && deleted == nil {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "delete contact", err)
	}
	return deleted, nil
}

// SearchContacts returns the contacts whose first name, last name or email contains text.
func (s *Service) SearchContacts(ctx context.Context, text string) ([]model.Contact, error) {
	contacts, err := store.New(s.db).Search(ctx, text)
	if err != nil {
		return nil, s.fail(ctx, "search contacts", err)
	}
	return contacts, nil
}

// UpcomingBirthdays returns the contacts whose birthday is between today and the end of the
// birthday window, both inclusive.
func (s *Service) UpcomingBirthdays(ctx context.Context) ([]model.Contact, error) {
	today := model.DateOf(s.now().UTC())
	contacts, err := store.New(s.db).UpcomingBirthdays(ctx, today, today.AddDays(s.birthdayWindow))
	if err != nil {
		return nil, s.fail(ctx, "upcoming birthdays", err)
	}
	return contacts, nil
}

// inTx runs fn on a store bound to a new transaction. The transaction is committed if fn
// succeeds and rolled back otherwise.
func (s *Service) inTx(ctx context.Context, fn func(st *store.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after a commit
	if err := fn(store.New(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// fail passes service errors through, turns duplicate keys that slipped past the pre-checks into
// conflicts, and logs and hides everything else.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	var serviceErr *Error
	switch {
	case errors.As(err, &serviceErr):
		return serviceErr
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrEmailExists
	case errors.Is(err, store.ErrDuplicatePhone):
		return ErrPhoneExists
	case errors.Is(err, store.ErrDuplicate):
		return ErrDuplicate
	}
	s.log.Error(op+" failed", zap.Error(err), zap.String("request_id", requestid.FromContext(ctx)))
	return ErrInternal
}

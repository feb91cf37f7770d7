package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// erDupEntry is the MySQL error number for a violated unique key.
const erDupEntry = 1062

// columns is the select list for a full contact row.
const columns = "id, first_name, last_name, email, phone_number, birthday"

var (
	// ErrDuplicate is returned when an insert or update violates a unique key.
	ErrDuplicate = errors.New("store: duplicate contact")
	// ErrDuplicateEmail is an ErrDuplicate on the email column.
	ErrDuplicateEmail = fmt.Errorf("%w: email", ErrDuplicate)
	// ErrDuplicatePhone is an ErrDuplicate on the phone_number column.
	ErrDuplicatePhone = fmt.Errorf("%w: phone_number", ErrDuplicate)
)

// Querier is the part of sqlx.DB and sqlx.Tx the store works with.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// Store performs the persistence operations on the contacts table. A Store is cheap to create
// and is meant to live for a single request, on top of either the connection pool or a
// transaction.
type Store struct {
	q Querier
}

// New creates a store that runs its statements on q.
func New(q Querier) *Store {
	return &Store{q: q}
}

// Get fetches the contact with the given id. It returns nil without an error if there is no such
// contact.
func (s *Store) Get(ctx context.Context, id int64) (*model.Contact, error) {
	var contact model.Contact
	err := s.q.GetContext(ctx, &contact, `SELECT `+columns+` FROM contacts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	return &contact, nil
}

// List returns at most limit contacts in id order, skipping the first skip of them. Negative
// values yield an empty list.
func (s *Store) List(ctx context.Context, skip, limit int) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if skip < 0 || limit <= 0 {
		return contacts, nil
	}
	err := s.q.SelectContext(ctx, &contacts,
		`SELECT `+columns+` FROM contacts ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Create inserts a new contact built from the fields and returns it with its generated id.
func (s *Store) Create(ctx context.Context, fields model.ContactFields) (*model.Contact, error) {
	var contact model.Contact
	fields.Apply(&contact)
	result, err := s.q.NamedExecContext(ctx, `
		INSERT INTO contacts (first_name, last_name, email, phone_number, birthday)
		VALUES (:first_name, :last_name, :email, :phone_number, :birthday)
	`, &contact)
	if err != nil {
		return nil, duplicateOr(err, "insert contact")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	contact.Id = id
	return &contact, nil
}

// Update overwrites the present fields of the contact with the given id and returns the new
// version. It returns nil without an error if there is no such contact.
func (s *Store) Update(ctx context.Context, id int64, fields model.ContactFields) (*model.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil || contact == nil {
		return nil, err
	}
	fields.Apply(contact)
	_, err = s.q.ExecContext(ctx, `
		UPDATE contacts
		SET first_name = ?, last_name = ?, email = ?, phone_number = ?, birthday = ?
		WHERE id = ?
	`, contact.FirstName, contact.LastName, contact.Email, contact.PhoneNumber, contact.Birthday, id)
	if err != nil {
		return nil, duplicateOr(err, fmt.Sprintf("update contact %d", id))
	}
	return contact, nil
}

// Delete removes the contact with the given id and returns it as it was before the removal. It
// returns nil without an error if there is no such contact.
func (s *Store) Delete(ctx context.Context, id int64) (*model.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil || contact == nil {
		return nil, err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete contact %d: %w", id, err)
	}
	return contact, nil
}

// Search returns all contacts whose first name, last name or email contains text, ignoring case.
// An empty text matches every contact.
func (s *Store) Search(ctx context.Context, text string) ([]model.Contact, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	contacts := []model.Contact{}
	err := s.q.SelectContext(ctx, &contacts, `
		SELECT `+columns+`
		FROM contacts
		WHERE LOWER(first_name) LIKE ?
			OR LOWER(last_name) LIKE ?
			OR LOWER(email) LIKE ?
		ORDER BY id
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return contacts, nil
}

// UpcomingBirthdays returns the contacts whose birthday lies between from and to, both
// inclusive, sorted by birthday.
func (s *Store) UpcomingBirthdays(ctx context.Context, from, to model.Date) ([]model.Contact, error) {
	contacts := []model.Contact{}
	err := s.q.SelectContext(ctx, &contacts, `
		SELECT `+columns+`
		FROM contacts
		WHERE birthday BETWEEN ? AND ?
		ORDER BY birthday, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select birthdays: %w", err)
	}
	return contacts, nil
}

// EmailTaken reports whether a contact other than exceptID holds the email. Pass 0 as exceptID
// to check against all contacts.
func (s *Store) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	return s.taken(ctx, "email", email, exceptID)
}

// PhoneTaken reports whether a contact other than exceptID holds the phone number.
func (s *Store) PhoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error) {
	return s.taken(ctx, "phone_number", phone, exceptID)
}

// taken counts the contacts holding value in column. The column is never user input.
func (s *Store) taken(ctx context.Context, column, value string, exceptID int64) (bool, error) {
	var count int
	err := s.q.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM contacts WHERE `+column+` = ? AND id <> ?`, value, exceptID)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return count > 0, nil
}

// duplicateOr translates a unique key violation into one of the duplicate errors and wraps any
// other error with the operation.
func duplicateOr(err error, op string) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != erDupEntry {
		return fmt.Errorf("%s: %w", op, err)
	}
	// The message names the violated key: "Duplicate entry 'x' for key 'contacts.uq_contacts_email'".
	_, key, _ := strings.Cut(mysqlErr.Message, " for key ")
	switch {
	case strings.Contains(key, "email"):
		return ErrDuplicateEmail
	case strings.Contains(key, "phone"):
		return ErrDuplicatePhone
	default:
		return ErrDuplicate
	}
}

// escapeLike escapes the LIKE wildcards so that s matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

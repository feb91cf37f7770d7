//go:build integration

package integrationtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/randomgen"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
	"go.uber.org/zap/zaptest"
)

// setupRouter connects to the database configured in the environment and returns the router of
// a contacts service running on it.
func setupRouter(t *testing.T) *gin.Engine {
	cfg, err := config.Load()
	require.NoError(t, err)
	sqlDB, err := service.CreateDatabase(service.DatabaseOptions{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	svc := service.New(service.SetupDatabaseWrapper(sqlDB), log)
	return service.SetupHttpRouter(svc, log, service.RouterOptions{})
}

func serve(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, request)
	return recorder
}

func contactJSON(first, last, email, phone string, birthday *time.Time) string {
	body := map[string]string{"first_name": first, "last_name": last, "email": email, "phone_number": phone}
	if birthday != nil {
		body["birthday"] = birthday.Format(time.DateOnly)
	}
	b, _ := json.Marshal(body)
	return string(b)
}

// createContact posts a contact, expects it to be created and registers its deletion.
func createContact(t *testing.T, router *gin.Engine, body string) model.Contact {
	recorder := serve(router, http.MethodPost, "/contacts/", body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var contact model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contact))
	t.Cleanup(func() { deleteContact(router, contact.Id) })
	return contact
}

// deleteContact removes the contact. A contact that the test has already deleted is fine.
func deleteContact(router *gin.Engine, id int64) {
	serve(router, http.MethodDelete, fmt.Sprintf("/contacts/%d", id), "")
}

func decodeList(t *testing.T, recorder *httptest.ResponseRecorder) []model.Contact {
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var contacts []model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contacts))
	return contacts
}

// TestContactLifecycle tests create, read, a conflicting update, delete and a final read.
func TestContactLifecycle(t *testing.T) {
	router := setupRouter(t)
	emailA, emailB := randomgen.Email(), randomgen.Email()
	birthday := time.Date(1969, time.March, 2, 0, 0, 0, 0, time.UTC)

	a := createContact(t, router, contactJSON("Erika", "Mustermann", emailA, randomgen.PhoneNumber(), &birthday))
	b := createContact(t, router, contactJSON("Rudi", "Völler", emailB, randomgen.PhoneNumber(), nil))
	assert.NotEqual(t, a.Id, b.Id)

	recorder := serve(router, http.MethodGet, fmt.Sprintf("/contacts/%d", a.Id), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var read model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &read))
	assert.Equal(t, a, read)
	assert.Equal(t, "1969-03-02", read.Birthday.String())

	// another contact's email is taken
	recorder = serve(router, http.MethodPut, fmt.Sprintf("/contacts/%d", a.Id), fmt.Sprintf(`{"email": %q}`, emailB))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// one's own email is not
	recorder = serve(router, http.MethodPut, fmt.Sprintf("/contacts/%d", a.Id), fmt.Sprintf(`{"email": %q, "first_name": "Erna"}`, emailA))
	require.Equal(t, http.StatusOK, recorder.Code)
	var updated model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &updated))
	assert.Equal(t, "Erna", updated.FirstName)
	assert.Equal(t, a.PhoneNumber, updated.PhoneNumber)

	recorder = serve(router, http.MethodDelete, fmt.Sprintf("/contacts/%d", a.Id), "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = serve(router, http.MethodGet, fmt.Sprintf("/contacts/%d", a.Id), "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestCreateDuplicates expects that neither email nor phone number can be used twice.
func TestCreateDuplicates(t *testing.T) {
	router := setupRouter(t)
	email, phone := randomgen.Email(), randomgen.PhoneNumber()
	createContact(t, router, contactJSON("Julius", "Cäsar", email, phone, nil))

	recorder := serve(router, http.MethodPost, "/contacts/", contactJSON("Marc", "Anton", email, randomgen.PhoneNumber(), nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Email already exists")

	recorder = serve(router, http.MethodPost, "/contacts/", contactJSON("Marc", "Anton", randomgen.Email(), phone, nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Phone already exists")
}

// TestListAndSearch creates 15 contacts sharing a unique last name. It expects pages of ten and
// that the search ignores case.
func TestListAndSearch(t *testing.T) {
	router := setupRouter(t)
	lastName := "Tag" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	ids := make(map[int64]bool)
	for range 15 {
		contact := createContact(t, router, contactJSON(randomgen.FirstName(), lastName, randomgen.Email(), randomgen.PhoneNumber(), nil))
		ids[contact.Id] = true
	}

	found := decodeList(t, serve(router, http.MethodGet, "/contacts/search/?query="+strings.ToUpper(lastName), ""))
	require.Len(t, found, 15)
	for _, contact := range found {
		assert.True(t, ids[contact.Id])
	}

	assert.Len(t, decodeList(t, serve(router, http.MethodGet, "/contacts/", "")), 10)
	assert.Empty(t, decodeList(t, serve(router, http.MethodGet, "/contacts/?limit=0", "")))

	// locate the created contacts in the whole list, then page over them
	all := decodeList(t, serve(router, http.MethodGet, "/contacts/?limit=1000000", ""))
	start := -1
	for i, contact := range all {
		if contact.Id == found[0].Id {
			start = i
			break
		}
	}
	require.GreaterOrEqual(t, start, 0)
	first := decodeList(t, serve(router, http.MethodGet, fmt.Sprintf("/contacts/?skip=%d&limit=10", start), ""))
	second := decodeList(t, serve(router, http.MethodGet, fmt.Sprintf("/contacts/?skip=%d&limit=10", start+10), ""))
	require.Len(t, first, 10)
	require.GreaterOrEqual(t, len(second), 5)

	paged := append(first, second[:5]...)
	for i, contact := range paged {
		assert.Equal(t, found[i].Id, contact.Id)
		if i > 0 {
			assert.Greater(t, contact.Id, paged[i-1].Id)
		}
	}
}

// TestUpcomingBirthdays expects a contact born today to be listed, and one born a month ago not.
func TestUpcomingBirthdays(t *testing.T) {
	router := setupRouter(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	monthAgo := today.AddDate(0, -1, 0)
	born := createContact(t, router, contactJSON("Pavla", "Novak", randomgen.Email(), randomgen.PhoneNumber(), &today))
	earlier := createContact(t, router, contactJSON("Jana", "Novak", randomgen.Email(), randomgen.PhoneNumber(), &monthAgo))

	var bornListed, earlierListed bool
	for _, contact := range decodeList(t, serve(router, http.MethodGet, "/contacts/birthdays/", "")) {
		bornListed = bornListed || contact.Id == born.Id
		earlierListed = earlierListed || contact.Id == earlier.Id
	}
	assert.True(t, bornListed)
	assert.False(t, earlierListed)
}

// TestInvalidRequests expects client errors for malformed ids, bodies and parameters.
func TestInvalidRequests(t *testing.T) {
	router := setupRouter(t)
	contact := createContact(t, router, contactJSON("Hans", "Wurst", randomgen.Email(), randomgen.PhoneNumber(), nil))
	url := fmt.Sprintf("/contacts/%d", contact.Id)

	tests := []struct {
		method, url, body string
		code              int
	}{
		{http.MethodPost, "/contacts/", "", http.StatusBadRequest},
		{http.MethodPost, "/contacts/", "not JSON", http.StatusBadRequest},
		{http.MethodPost, "/contacts/", `{"first_name": "Erika"}`, http.StatusBadRequest},
		{http.MethodPut, url, "{}", http.StatusBadRequest},
		{http.MethodPut, url, `{"email": "no-email"}`, http.StatusBadRequest},
		{http.MethodPut, "/contacts/invalid", `{"first_name": "Rudi"}`, http.StatusNotFound},
		{http.MethodGet, "/contacts/invalid", "", http.StatusNotFound},
		{http.MethodGet, "/contacts/?skip=x", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		recorder := serve(router, tt.method, tt.url, tt.body)
		assert.Equal(t, tt.code, recorder.Code, "%s %s %s", tt.method, tt.url, tt.body)
	}
}

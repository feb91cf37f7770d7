package service

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-api/internal/middleware"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"go.uber.org/zap"
)

const (
	defaultSkip  = 0
	defaultLimit = 10
)

// RouterOptions tune the middleware chain of the HTTP router.
type RouterOptions struct {
	// AccessLog turns on one log line per request.
	AccessLog bool
	// Limiters enables per-client rate limiting when not nil.
	Limiters *middleware.Limiters
}

// createContactRequest is the body of a POST request. Email and phone number have to be unique,
// which is checked by the service.
type createContactRequest struct {
	FirstName   string      `json:"first_name"   binding:"required"`
	LastName    string      `json:"last_name"    binding:"required"`
	Email       string      `json:"email"        binding:"required,email"`
	PhoneNumber string      `json:"phone_number" binding:"required"`
	Birthday    *model.Date `json:"birthday"`
}

func (r createContactRequest) fields() model.ContactFields {
	return model.ContactFields{
		FirstName:   &r.FirstName,
		LastName:    &r.LastName,
		Email:       &r.Email,
		PhoneNumber: &r.PhoneNumber,
		Birthday:    r.Birthday,
	}
}

// handler translates HTTP requests into service calls and service outcomes into responses.
type handler struct {
	svc *Service
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func SetupHttpRouter(svc *Service, log *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(log))
	if opts.AccessLog {
		router.Use(middleware.AccessLog(log))
	}
	router.Use(middleware.RateLimit(opts.Limiters))

	h := &handler{svc: svc}
	contacts := router.Group("/contacts")
	contacts.POST("/", h.createContact)
	contacts.GET("/", h.listContacts)
	contacts.GET("/search/", h.searchContacts)
	contacts.GET("/birthdays/", h.upcomingBirthdays)
	contacts.GET("/:id", h.readContact)
	contacts.PUT("/:id", h.updateContact)
	contacts.DELETE("/:id", h.deleteContact)
	return router
}

// httpStatus maps a service status to the HTTP status code. Conflicts are reported as bad
// requests.
func httpStatus(status Status) int {
	switch status {
	case StatusOK:
		return http.StatusOK
	case StatusCreated:
		return http.StatusCreated
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the client-safe message of a failed service call.
func respondError(c *gin.Context, err error) {
	message := ErrInternal.Message
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		message = serviceErr.Message
	}
	c.AbortWithStatusJSON(httpStatus(StatusOf(err)), gin.H{"message": message})
}

// parseID reads the id parameter of the request URL. An id that is not a number cannot belong to
// any contact, so the request is answered with NOT FOUND.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// parseSkipAndLimit inspects the URL parameters and determines values for skip and limit of the
// result set. Negative numbers are passed on and lead to an empty result.
func parseSkipAndLimit(c *gin.Context) (skip int, limit int, success bool) {
	skip, limit = defaultSkip, defaultLimit
	var err error
	if s := c.Query("skip"); s != "" {
		if skip, err = strconv.Atoi(s); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid skip parameter"})
			return 0, 0, false
		}
	}
	if l := c.Query("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return 0, 0, false
		}
	}
	return skip, limit, true
}

// createContact inserts the contact specified in the request's JSON into the database. It
// responds with the full contact data including the newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/ --request "POST" --include --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "email": "hans@wurst.de", "phone_number": "0815", "birthday": "1969-03-02"}'
func (h *handler) createContact(c *gin.Context) {
	var request createContactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := h.svc.CreateContact(c.Request.Context(), request.fields())
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(httpStatus(StatusCreated), contact)
}

// listContacts responds with a page of contacts in the order they were created.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts/"
//	> curl "http://localhost:8080/contacts/?skip=20&limit=10"
func (h *handler) listContacts(c *gin.Context) {
	skip, limit, ok := parseSkipAndLimit(c)
	if !ok {
		return
	}
	contacts, err := h.svc.ListContacts(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// readContact locates the contact whose id matches the id parameter of the request URL.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56
func (h *handler) readContact(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := h.svc.ReadContact(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContact updates the values specified in the JSON (and only those) of the contact whose
// id matches the id parameter of the request URL, then responds with the new version of the
// contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"phone_number": "81970"}'
func (h *handler) updateContact(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var fields model.ContactFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	// It only makes sense to continue if we have at least one value to update.
	if fields.IsEmpty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}
	contact, err := h.svc.UpdateContact(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContact deletes the contact whose id matches the id parameter of the request URL and
// responds with the deleted contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE"
func (h *handler) deleteContact(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := h.svc.DeleteContact(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// searchContacts responds with all contacts whose first name, last name or email contains the
// 'query' URL parameter, ignoring case.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/search/?query=smith"
func (h *handler) searchContacts(c *gin.Context) {
	contacts, err := h.svc.SearchContacts(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// upcomingBirthdays responds with the contacts whose birthday is within the next week.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/birthdays/"
func (h *handler) upcomingBirthdays(c *gin.Context) {
	contacts, err := h.svc.UpcomingBirthdays(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

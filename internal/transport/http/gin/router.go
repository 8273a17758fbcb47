package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	redisrepo "github.com/gatepass/gatepass/internal/repository/redis"
	"github.com/gatepass/gatepass/internal/service"
	"github.com/gatepass/gatepass/internal/service/admin"
	"github.com/gatepass/gatepass/internal/service/booking"
	"github.com/gatepass/gatepass/internal/service/payment"
	"github.com/gatepass/gatepass/internal/service/query"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	adminToken string,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/sections", handleListSections(svcs))

	r.POST("/bookings", handleCreateBooking(svcs, idem))
	r.GET("/bookings/:id", handleGetBooking(svcs))
	r.POST("/bookings/:id/verify-payment", handleVerifyPayment(svcs))
	r.POST("/bookings/:id/cancel", handleCancelBooking(svcs))

	r.POST("/discounts/validate", handleValidateDiscount(svcs))

	// Operator API
	adm := r.Group("/admin", OperatorAuth(adminToken))
	{
		adm.POST("/events", handleCreateEvent(svcs))
		adm.POST("/sections/:id/capacity", handleAdjustCapacity(svcs))
		adm.POST("/discounts", handleCreateDiscount(svcs))
		adm.PATCH("/discounts/:code", handleSetDiscountActive(svcs))
		adm.POST("/bookings/cleanup", handleCleanup(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List published events
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200  {array}  domain.Event
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		events, err := svcs.Query.ListEvents(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, events, "public, max-age=60", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60", true)
	}
}

// @Summary  List event sections with availability
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  domain.Section
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/sections [get]
func handleListSections(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		sections, err := svcs.Query.SectionsByEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// availability changes fast, keep the cache window short
		writeJSONWithCache(c, http.StatusOK, sections, "public, max-age=15", true)
	}
}

// @Summary  Create booking (places a bounded hold, idempotent)
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateBookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "insufficient capacity / idem in progress"
// @Failure  422 {object} ErrorResponse "invalid discount or section"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(req.EventID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "IdempotencyInProgress"},
				)
				return
			}
		}

		tickets := make([]domain.SelectedTicket, len(req.SelectedTickets))
		for i, t := range req.SelectedTickets {
			tickets[i] = domain.SelectedTicket{
				SectionID: t.SectionID,
				Quantity:  t.Quantity,
			}
		}

		b, err := svcs.Booking.Create(c.Request.Context(), booking.CreateParams{
			EventID: req.EventID,
			Customer: domain.CustomerInfo{
				Name:  req.CustomerInfo.Name,
				Email: req.CustomerInfo.Email,
				Phone: req.CustomerInfo.Phone,
			},
			Tickets:      tickets,
			DiscountCode: req.DiscountCode,
			RateKey:      "ip:" + c.ClientIP(),
		})
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := CreateBookingResponse{
			BookingID:     b.ID.String(),
			Status:        string(b.Status),
			TotalAmount:   b.TotalCents,
			HoldExpiresAt: b.HoldExpiresAt,
		}

		if idemStorageKey != "" && idem != nil {
			payload, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(payload))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get booking snapshot
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b, time.Now()))
	}
}

// @Summary  Verify manual bank-transfer payment (UTR)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Param    req body  VerifyPaymentRequest true "payload"
// @Success  200 {object} VerifyPaymentResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already finalized / duplicate reference"
// @Router   /bookings/{id}/verify-payment [post]
func handleVerifyPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.Payment.Verify(c.Request.Context(), id, req.PaymentReference)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, VerifyPaymentResponse{
			BookingID: b.ID.String(),
			Status:    string(b.Status),
		})
	}
}

// @Summary  Validate a discount code
// @Param    req body  ValidateDiscountRequest true "payload"
// @Success  200 {object} ValidateDiscountResponse
// @Router   /discounts/validate [post]
func handleValidateDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svcs.Discount.Validate(c.Request.Context(), req.DiscountCode, req.EventID, req.Amount)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ValidateDiscountResponse{
			Valid:          res.Valid,
			DiscountAmount: res.DiscountCents,
			Reason:         res.Reason,
		})
	}
}

// @Summary  Create event with sections
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} CreateEventResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(req.EndsAt)
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}

		e := &domain.Event{
			Name:      req.Name,
			Venue:     req.Venue,
			StartsAt:  starts,
			EndsAt:    ends,
			Published: true,
		}
		sections := make([]domain.Section, len(req.Sections))
		for i, s := range req.Sections {
			sections[i] = domain.Section{
				Name:           s.Name,
				UnitPriceCents: s.UnitPrice,
				TotalCapacity:  s.TotalCapacity,
			}
		}

		id, err := svcs.Admin.CreateEvent(c.Request.Context(), e, sections)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

// @Summary  Adjust section capacity
// @Param    id  path  int  true  "Section ID"
// @Param    req body  AdjustCapacityRequest true "payload"
// @Success  200 {object} AdjustCapacityResponse
// @Failure  409 {object} ErrorResponse "capacity below reserved"
// @Router   /admin/sections/{id}/capacity [post]
func handleAdjustCapacity(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sectionID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req AdjustCapacityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		total, err := svcs.Admin.AdjustSectionCapacity(c.Request.Context(), sectionID, req.Delta)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, AdjustCapacityResponse{
			SectionID:     sectionID,
			TotalCapacity: total,
		})
	}
}

// @Summary  Create discount code
// @Param    req body  CreateDiscountRequest true "payload"
// @Success  201 {object} domain.DiscountCode
// @Router   /admin/discounts [post]
func handleCreateDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		from, err := parseRFC3339(req.ValidFrom)
		if err != nil {
			badRequest(c, "invalid valid_from (RFC3339)")
			return
		}
		till, err := parseRFC3339(req.ValidTill)
		if err != nil {
			badRequest(c, "invalid valid_till (RFC3339)")
			return
		}

		dc := &domain.DiscountCode{
			Code:      req.Code,
			Type:      domain.DiscountType(req.Type),
			Value:     req.Value,
			ValidFrom: from,
			ValidTill: till,
			MaxUses:   req.MaxUses,
			EventIDs:  req.EventIDs,
			Active:    true,
		}
		if err := svcs.Admin.CreateDiscount(c.Request.Context(), dc); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, dc)
	}
}

// @Summary  Activate or deactivate a discount code
// @Param    code  path  string  true  "Code"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/discounts/{code} [patch]
func handleSetDiscountActive(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Active *bool `json:"active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Admin.SetDiscountActive(c.Request.Context(), c.Param("code"), *req.Active); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Reclaim expired holds now
// @Success  200 {object} CleanupResponse
// @Router   /admin/bookings/cleanup [post]
func handleCleanup(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svcs.Sweeper.Sweep(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CleanupResponse{
			ExpiredCount:      res.ExpiredCount,
			InventoryReleased: res.InventoryReleased,
		})
	}
}

// @Summary  Cancel a pending booking and release its hold
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} CancelBookingResponse
// @Failure  409 {object} ErrorResponse "already finalized"
// @Router   /bookings/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		released, err := svcs.Booking.Cancel(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CancelBookingResponse{
			BookingID:         id.String(),
			Status:            string(domain.BookingCancelled),
			InventoryReleased: released,
		})
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "BadRequest", Reason: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		capErr     *booking.InsufficientCapacityError
		sectionErr *booking.UnknownSectionError
		discErr    *booking.InvalidDiscountError
		rlErr      *booking.RateLimitedError
	)

	switch {
	// booking service
	case errors.As(err, &capErr):
		available := capErr.Available
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:     "InsufficientCapacity",
			SectionID: capErr.SectionID,
			Available: &available,
		})
		return
	case errors.As(err, &discErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "InvalidDiscount",
			Reason: discErr.Reason,
		})
		return
	case errors.As(err, &sectionErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:     "UnknownSection",
			SectionID: sectionErr.SectionID,
		})
		return
	case errors.As(err, &rlErr):
		c.Header("Retry-After", strconv.FormatInt(int64(rlErr.RetryAfter.Seconds())+1, 10))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "RateLimited"})
		return
	case errors.Is(err, booking.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "BadRequest", Reason: err.Error()})
		return
	case errors.Is(err, booking.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Reason: "event not found"})
		return
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Reason: "booking not found"})
		return
	case errors.Is(err, booking.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "AlreadyFinalized"})
		return
	// payment service
	case errors.Is(err, payment.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Reason: "booking not found"})
		return
	case errors.Is(err, payment.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "AlreadyFinalized"})
		return
	case errors.Is(err, payment.ErrDuplicateReference):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "DuplicateReference"})
		return
	case errors.Is(err, payment.ErrDiscountExhausted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "DiscountExhausted"})
		return
	case errors.Is(err, payment.ErrEmptyReference):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "BadRequest", Reason: "payment reference is empty"})
		return
	// query service
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Reason: "event not found"})
		return
	// admin service
	case errors.Is(err, admin.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Reason: "section not found"})
		return
	case errors.Is(err, admin.ErrDiscountNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Reason: "discount code not found"})
		return
	case errors.Is(err, admin.ErrSectionConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Conflict", Reason: "duplicate section name"})
		return
	case errors.Is(err, admin.ErrDiscountConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Conflict", Reason: "discount code already exists"})
		return
	case errors.Is(err, admin.ErrCapacityBelowHeld):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "CapacityBelowReserved"})
		return
	case errors.Is(err, admin.ErrNoSections), errors.Is(err, admin.ErrInvalidDiscount):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Invalid", Reason: err.Error()})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal"})
}

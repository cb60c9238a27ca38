package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/flights"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/geo"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/itinerary"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/nearby"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/reorder"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingRegistry     = errors.New("session registry dependency required")
	errMissingNearbyEngine = errors.New("nearby engine dependency required")
	errMissingPlaceWriter  = errors.New("place writer dependency required")
)

// FlightStatusProvider is the flight lookup collaborator; optional.
type FlightStatusProvider interface {
	GetFlightStatus(ctx context.Context, airline, flightNumber, date string) (flights.Status, error)
}

// PlaceWriter accepts catalog entries.
type PlaceWriter interface {
	Upsert(ctx context.Context, place nearby.Place) error
}

// Dependencies wires the router's collaborators.
type Dependencies struct {
	Registry *SessionRegistry
	Nearby   *nearby.Engine
	Places   PlaceWriter
	Flights  FlightStatusProvider
	Logger   *zap.Logger
}

// NewHTTPHandler builds the API surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Registry == nil {
		return nil, errMissingRegistry
	}
	if deps.Nearby == nil {
		return nil, errMissingNearbyEngine
	}
	if deps.Places == nil {
		return nil, errMissingPlaceWriter
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		registry: deps.Registry,
		nearby:   deps.Nearby,
		places:   deps.Places,
		flights:  deps.Flights,
		logger:   logger,
	}

	router.POST("/trips", handler.handleCreateTrip)
	router.GET("/trips/:tripID", handler.handleGetTrip)
	router.POST("/trips/:tripID/days", handler.handleAddDay)
	router.GET("/trips/:tripID/days/:dayID/feed", handler.handleGroupedFeed)
	router.POST("/trips/:tripID/days/:dayID/blocks", handler.handleAddBlock)
	router.PATCH("/trips/:tripID/days/:dayID/blocks/:blockID", handler.handleUpdateBlock)
	router.DELETE("/trips/:tripID/days/:dayID/blocks/:blockID", handler.handleRemoveBlock)
	router.POST("/trips/:tripID/blocks/move", handler.handleMoveBlock)
	router.POST("/trips/:tripID/days/:dayID/blocks/:blockID/attachments", handler.handleAddAttachment)
	router.DELETE("/trips/:tripID/days/:dayID/blocks/:blockID/attachments/:attachmentID", handler.handleRemoveAttachment)
	router.POST("/trips/:tripID/days/:dayID/blocks/:blockID/comments", handler.handleAddComment)
	router.GET("/trips/:tripID/days/:dayID/blocks/:blockID/nearby", handler.handleFindNearby)
	router.POST("/places", handler.handleUpsertPlace)
	router.GET("/flights/:airline/:flightNumber", handler.handleFlightStatus)

	return router, nil
}

type httpHandler struct {
	registry *SessionRegistry
	nearby   *nearby.Engine
	places   PlaceWriter
	flights  FlightStatusProvider
	logger   *zap.Logger
}

type coordinatesPayload struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

type attachmentPayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
	Type  string `json:"type"`
}

type commentPayload struct {
	ID         string `json:"id"`
	AuthorName string `json:"author_name"`
	Message    string `json:"message"`
	CreatedAt  int64  `json:"created_at_ms"`
}

type blockPayload struct {
	ID              string                   `json:"id"`
	DayID           string                   `json:"day_id"`
	Position        int                      `json:"position"`
	Kind            string                   `json:"kind"`
	Title           string                   `json:"title"`
	Time            string                   `json:"time,omitempty"`
	DurationMinutes int                      `json:"duration_minutes,omitempty"`
	Description     string                   `json:"description,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
	Coordinates     *coordinatesPayload      `json:"coordinates,omitempty"`
	Flight          *itinerary.FlightDetails `json:"flight,omitempty"`
	Hotel           *itinerary.HotelDetails  `json:"hotel,omitempty"`
	Place           *itinerary.PlaceDetails  `json:"place,omitempty"`
	Attachments     []attachmentPayload      `json:"attachments"`
	Comments        []commentPayload         `json:"comments"`
}

type dayPayload struct {
	ID     string         `json:"id"`
	Date   string         `json:"date,omitempty"`
	Blocks []blockPayload `json:"blocks"`
}

type tripPayload struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Days  []dayPayload `json:"days"`
}

func blockToPayload(block *itinerary.Block) blockPayload {
	payload := blockPayload{
		ID:              block.ID.String(),
		DayID:           block.DayID.String(),
		Position:        block.Position,
		Kind:            string(block.Kind),
		Title:           block.Title,
		Time:            block.Time.String(),
		DurationMinutes: block.DurationMinutes,
		Description:     block.Description,
		Notes:           block.Notes,
		Flight:          block.Flight,
		Hotel:           block.Hotel,
		Place:           block.Place,
		Attachments:     make([]attachmentPayload, 0, len(block.Attachments)),
		Comments:        make([]commentPayload, 0, len(block.Comments)),
	}
	if block.Coordinates != nil {
		payload.Coordinates = &coordinatesPayload{
			Latitude:  block.Coordinates.Latitude,
			Longitude: block.Coordinates.Longitude,
		}
	}
	for _, attachment := range block.Attachments {
		payload.Attachments = append(payload.Attachments, attachmentPayload{
			ID:    attachment.ID,
			Label: attachment.Label,
			URL:   attachment.URL,
			Type:  string(attachment.Type),
		})
	}
	for _, comment := range block.Comments {
		payload.Comments = append(payload.Comments, commentPayload{
			ID:         comment.ID,
			AuthorName: comment.AuthorName,
			Message:    comment.Message,
			CreatedAt:  comment.CreatedAt.UnixMilli(),
		})
	}
	return payload
}

func tripToPayload(trip *itinerary.Trip) tripPayload {
	payload := tripPayload{
		ID:    trip.ID.String(),
		Title: trip.Title,
		Days:  make([]dayPayload, 0, len(trip.Days)),
	}
	for _, day := range trip.Days {
		dayView := dayPayload{
			ID:     day.ID.String(),
			Date:   day.Date,
			Blocks: make([]blockPayload, 0, len(day.Blocks)),
		}
		for _, block := range day.Blocks {
			dayView.Blocks = append(dayView.Blocks, blockToPayload(block))
		}
		payload.Days = append(payload.Days, dayView)
	}
	return payload
}

type createTripRequest struct {
	Title string   `json:"title"`
	Dates []string `json:"dates"`
}

func (h *httpHandler) handleCreateTrip(c *gin.Context) {
	var request createTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	session, err := h.registry.CreateTrip(c.Request.Context(), request.Title)
	if err != nil {
		h.logger.Error("trip creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trip_create_failed"})
		return
	}
	for _, date := range request.Dates {
		if _, err := session.AddDay(c.Request.Context(), date); err != nil {
			h.logger.Error("day creation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "day_create_failed"})
			return
		}
	}

	c.JSON(http.StatusCreated, tripToPayload(session.Snapshot()))
}

func (h *httpHandler) handleGetTrip(c *gin.Context) {
	session, _, ok := h.sessionFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tripToPayload(session.Snapshot()))
}

type addDayRequest struct {
	Date string `json:"date"`
}

func (h *httpHandler) handleAddDay(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var request addDayRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	day, err := session.AddDay(c.Request.Context(), request.Date)
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusCreated, dayPayload{ID: day.ID.String(), Date: day.Date, Blocks: []blockPayload{}})
}

type blockRequest struct {
	Kind            string                   `json:"kind"`
	Title           string                   `json:"title"`
	Time            string                   `json:"time"`
	DurationMinutes int                      `json:"duration_minutes"`
	Description     string                   `json:"description"`
	Notes           string                   `json:"notes"`
	AtIndex         *int                     `json:"at_index"`
	Coordinates     *coordinatesPayload      `json:"coordinates"`
	Flight          *itinerary.FlightDetails `json:"flight"`
	Hotel           *itinerary.HotelDetails  `json:"hotel"`
	Place           *itinerary.PlaceDetails  `json:"place"`
}

func (h *httpHandler) handleAddBlock(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var request blockRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	kind, err := itinerary.ParseBlockKind(request.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
		return
	}
	draft := itinerary.BlockDraft{
		Kind:            kind,
		Title:           request.Title,
		DurationMinutes: request.DurationMinutes,
		Description:     request.Description,
		Notes:           request.Notes,
		Flight:          request.Flight,
		Hotel:           request.Hotel,
		Place:           request.Place,
	}
	if request.Time != "" {
		clockTime, err := itinerary.NewClockTime(request.Time)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_time"})
			return
		}
		draft.Time = clockTime
	}
	if request.Coordinates != nil {
		draft.Coordinates = &itinerary.Coordinates{
			Latitude:  request.Coordinates.Latitude,
			Longitude: request.Coordinates.Longitude,
		}
	}

	atIndex := -1
	if request.AtIndex != nil {
		atIndex = *request.AtIndex
		if atIndex < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_index"})
			return
		}
	}

	block, err := session.AddBlock(c.Request.Context(), itinerary.DayID(c.Param("dayID")), draft, atIndex)
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusCreated, blockToPayload(block))
}

type blockPatchRequest struct {
	Title           *string                  `json:"title"`
	Time            *string                  `json:"time"`
	DurationMinutes *int                     `json:"duration_minutes"`
	Description     *string                  `json:"description"`
	Notes           *string                  `json:"notes"`
	Coordinates     *coordinatesPayload      `json:"coordinates"`
	Flight          *itinerary.FlightDetails `json:"flight"`
	Hotel           *itinerary.HotelDetails  `json:"hotel"`
	Place           *itinerary.PlaceDetails  `json:"place"`
}

func (h *httpHandler) handleUpdateBlock(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var request blockPatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	patch := itinerary.BlockPatch{
		Title:           request.Title,
		DurationMinutes: request.DurationMinutes,
		Description:     request.Description,
		Notes:           request.Notes,
		Flight:          request.Flight,
		Hotel:           request.Hotel,
		Place:           request.Place,
	}
	if request.Time != nil {
		clockTime, err := itinerary.NewClockTime(*request.Time)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_time"})
			return
		}
		patch.Time = &clockTime
	}
	if request.Coordinates != nil {
		patch.Coordinates = &itinerary.Coordinates{
			Latitude:  request.Coordinates.Latitude,
			Longitude: request.Coordinates.Longitude,
		}
	}

	block, err := session.UpdateBlock(c.Request.Context(),
		itinerary.DayID(c.Param("dayID")), itinerary.BlockID(c.Param("blockID")), patch)
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusOK, blockToPayload(block))
}

func (h *httpHandler) handleRemoveBlock(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	err := session.RemoveBlock(c.Request.Context(),
		itinerary.DayID(c.Param("dayID")), itinerary.BlockID(c.Param("blockID")))
	// Removing an already-removed block reads as success: the block is gone
	// either way.
	if err != nil && !errors.Is(err, itinerary.ErrBlockNotFound) {
		h.respondError(c, tripID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type moveBlockRequest struct {
	FromDayID string `json:"from_day_id"`
	ToDayID   string `json:"to_day_id"`
	BlockID   string `json:"block_id"`
	AtIndex   int    `json:"at_index"`
}

func (h *httpHandler) handleMoveBlock(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var request moveBlockRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.FromDayID == "" || request.BlockID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	toDayID := request.ToDayID
	if toDayID == "" {
		toDayID = request.FromDayID
	}

	err := session.MoveBlock(c.Request.Context(),
		itinerary.DayID(request.FromDayID), itinerary.DayID(toDayID),
		itinerary.BlockID(request.BlockID), request.AtIndex)
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusOK, tripToPayload(session.Snapshot()))
}

type attachmentRequest struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

func (h *httpHandler) handleAddAttachment(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var request attachmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	attachmentType := itinerary.AttachmentType(request.Type)
	if attachmentType != itinerary.AttachmentTypeLink && attachmentType != itinerary.AttachmentTypeFile {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_attachment_type"})
		return
	}

	attachment, err := session.AddAttachment(c.Request.Context(),
		itinerary.DayID(c.Param("dayID")), itinerary.BlockID(c.Param("blockID")),
		request.Label, request.URL, attachmentType)
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusCreated, attachmentPayload{
		ID:    attachment.ID,
		Label: attachment.Label,
		URL:   attachment.URL,
		Type:  string(attachment.Type),
	})
}

func (h *httpHandler) handleRemoveAttachment(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	err := session.RemoveAttachment(c.Request.Context(),
		itinerary.DayID(c.Param("dayID")), itinerary.BlockID(c.Param("blockID")),
		c.Param("attachmentID"))
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentRequest struct {
	AuthorName string `json:"author_name"`
	Message    string `json:"message"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var request commentRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	comment, err := session.AddComment(c.Request.Context(),
		itinerary.DayID(c.Param("dayID")), itinerary.BlockID(c.Param("blockID")),
		request.AuthorName, request.Message)
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusCreated, commentPayload{
		ID:         comment.ID,
		AuthorName: comment.AuthorName,
		Message:    comment.Message,
		CreatedAt:  comment.CreatedAt.UnixMilli(),
	})
}

func (h *httpHandler) handleGroupedFeed(c *gin.Context) {
	session, tripID, ok := h.sessionFor(c)
	if !ok {
		return
	}
	grouped, err := session.GroupedFeed(itinerary.DayID(c.Param("dayID")))
	if err != nil {
		h.respondError(c, tripID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"morning":   blocksToPayloads(grouped.Morning),
		"afternoon": blocksToPayloads(grouped.Afternoon),
		"evening":   blocksToPayloads(grouped.Evening),
	})
}

func blocksToPayloads(blocks []*itinerary.Block) []blockPayload {
	payloads := make([]blockPayload, 0, len(blocks))
	for _, block := range blocks {
		payloads = append(payloads, blockToPayload(block))
	}
	return payloads
}

type candidatePayload struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

func (h *httpHandler) handleFindNearby(c *gin.Context) {
	session, _, ok := h.sessionFor(c)
	if !ok {
		return
	}

	trip := session.Snapshot()
	day := trip.DayByID(itinerary.DayID(c.Param("dayID")))
	if day == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	block := blockByID(day, itinerary.BlockID(c.Param("blockID")))
	if block == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if block.Coordinates == nil {
		c.JSON(http.StatusOK, gin.H{"candidates": []candidatePayload{}})
		return
	}

	query := nearby.Query{
		CategoryFilter: c.Query("category"),
		ExcludeIDs:     scheduledPlaceIDs(trip),
	}
	if raw := c.Query("radius_km"); raw != "" {
		if radius, err := strconv.ParseFloat(raw, 64); err == nil && radius > 0 {
			query.RadiusKm = radius
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			query.Limit = limit
		}
	}

	reference := geo.Coordinates{
		Latitude:  block.Coordinates.Latitude,
		Longitude: block.Coordinates.Longitude,
	}
	candidates := h.nearby.FindNearby(c.Request.Context(), reference, query)

	payloads := make([]candidatePayload, 0, len(candidates))
	for _, candidate := range candidates {
		payloads = append(payloads, candidatePayload{
			ID:         candidate.Place.ID,
			Name:       candidate.Place.Name,
			Category:   candidate.Place.Category,
			Latitude:   candidate.Place.Latitude,
			Longitude:  candidate.Place.Longitude,
			Thumbnail:  candidate.Place.Thumbnail,
			DistanceKm: candidate.DistanceKm,
		})
	}
	c.JSON(http.StatusOK, gin.H{"candidates": payloads})
}

// scheduledPlaceIDs collects the place ids already on the itinerary so the
// engine never suggests a stop the traveler has scheduled.
func scheduledPlaceIDs(trip *itinerary.Trip) []string {
	ids := make([]string, 0)
	for _, day := range trip.Days {
		for _, block := range day.Blocks {
			if block.Place != nil && block.Place.DestinationRef != "" {
				ids = append(ids, block.Place.DestinationRef)
			}
		}
	}
	return ids
}

type placeRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Thumbnail string  `json:"thumbnail"`
}

func (h *httpHandler) handleUpsertPlace(c *gin.Context) {
	var request placeRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.ID == "" || request.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	err := h.places.Upsert(c.Request.Context(), nearby.Place{
		ID:        request.ID,
		Name:      request.Name,
		Category:  request.Category,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		Thumbnail: request.Thumbnail,
	})
	if err != nil {
		h.logger.Error("place upsert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "place_upsert_failed"})
		return
	}
	c.Status(http.StatusCreated)
}

func (h *httpHandler) handleFlightStatus(c *gin.Context) {
	if h.flights == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "flight_status_not_configured"})
		return
	}
	status, err := h.flights.GetFlightStatus(c.Request.Context(),
		c.Param("airline"), c.Param("flightNumber"), c.Query("date"))
	if err != nil {
		if errors.Is(err, flights.ErrInvalidFlightQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		h.logger.Warn("flight status lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "flight_status_unavailable"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *httpHandler) sessionFor(c *gin.Context) (*Session, itinerary.TripID, bool) {
	tripID := itinerary.TripID(c.Param("tripID"))
	session, err := h.registry.Session(c.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, storage.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return nil, tripID, false
		}
		h.logger.Error("session load failed", zap.String("trip_id", tripID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session_load_failed"})
		return nil, tripID, false
	}
	return session, tripID, true
}

// respondError maps the domain error taxonomy onto HTTP statuses. A reorder
// conflict arrives here after the coordinator already rolled local state
// back, so 409 is safe to retry against the reloaded order. Unclassified
// persistence failures drop the cached session so the next request reloads
// persisted truth.
func (h *httpHandler) respondError(c *gin.Context, tripID itinerary.TripID, err error) {
	switch {
	case errors.Is(err, itinerary.ErrDayNotFound),
		errors.Is(err, itinerary.ErrBlockNotFound),
		errors.Is(err, itinerary.ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, itinerary.ErrInvalidIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_index"})
	case errors.Is(err, reorder.ErrPersistenceFailure),
		errors.Is(err, storage.ErrStaleDayVersion):
		h.registry.Invalidate(tripID)
		c.JSON(http.StatusConflict, gin.H{"error": "order_conflict"})
	case errors.Is(err, reorder.ErrDragInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "drag_in_progress"})
	default:
		h.logger.Error("planner operation failed",
			zap.String("trip_id", tripID.String()), zap.Error(err))
		h.registry.Invalidate(tripID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

package handlers

import (
	"fmt"
	"io"
	"time"

	"github.com/areiqi/sitedb/data"
	"github.com/areiqi/sitedb/internal/chat"
	"github.com/areiqi/sitedb/internal/media"
	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/store"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DefaultVisitorCookie holds the id that keys a visitor's chat transcript
const DefaultVisitorCookie = "areiqi_visitor"

// SiteHandler handles the public site routes and media uploads
type SiteHandler struct {
	Store           *store.Store
	Assistant       *chat.Assistant
	Specializations []data.Specialization
	VisitorCookie   string
}

// SendMessage handles POST /api/messages
// @Summary Send a contact message
// @Tags Site
// @Accept json
// @Produce json
// @Param message body models.Message true "Name, phone and message"
// @Success 201 {object} models.Message
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /messages [post]
func (h *SiteHandler) SendMessage(c *fiber.Ctx) error {
	fields, err := readFields(c)
	if err != nil {
		return writeError(c, err, "message")
	}
	rec, err := h.Store.SendMessage(c.UserContext(), middleware.Identity(c), fields)
	if err != nil {
		return writeError(c, err, "message")
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// GetSpecializations handles GET /api/specializations
// @Summary List service areas
// @Tags Site
// @Produce json
// @Success 200 {array} data.Specialization
// @Router /specializations [get]
func (h *SiteHandler) GetSpecializations(c *fiber.Ctx) error {
	return c.JSON(h.Specializations)
}

// UploadResult is returned when a media batch stops part way
type UploadResult struct {
	Added []models.Record `json:"added"`
	Error string          `json:"error,omitempty"`
}

// UploadMedia handles POST /api/media/:collection
// @Summary Upload images
// @Description Adds one record per uploaded file, in order. A failure stops the batch and earlier files stay.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param collection path string true "Collection name"
// @Param files formData file true "Images"
// @Success 201 {array} map[string]interface{}
// @Success 207 {object} UploadResult
// @Security CookieAuth
// @Router /media/{collection} [post]
func (h *SiteHandler) UploadMedia(c *fiber.Ctx) error {
	coll, err := collectionParam(c)
	if err != nil {
		return writeError(c, err, "media")
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return writeError(c, &types.CustomError{Code: fiber.StatusBadRequest, Message: "files are required", Type: "media"}, "media")
	}

	uploads := make([]media.Upload, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return writeError(c, err, "media")
		}
		raw, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return writeError(c, fmt.Errorf("read %s: %w", fh.Filename, err), "media")
		}
		uploads = append(uploads, media.Upload{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: raw})
	}

	added, err := h.Store.UploadMediaBatch(c.UserContext(), middleware.Identity(c), coll, uploads)
	if err != nil {
		if len(added) == 0 {
			return writeError(c, err, "media")
		}
		return c.Status(fiber.StatusMultiStatus).JSON(UploadResult{Added: added, Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(added)
}

// ChatInput is one visitor message
type ChatInput struct {
	Text string `json:"text"`
}

// ChatHistory handles GET /api/chat
// @Summary Assistant transcript
// @Description Returns the transcript of the visitor named by the visitor cookie, issuing the cookie when missing
// @Tags Chat
// @Produce json
// @Success 200 {array} chat.Message
// @Router /chat [get]
func (h *SiteHandler) ChatHistory(c *fiber.Ctx) error {
	msgs, err := h.Assistant.History(c.UserContext(), h.visitor(c))
	if err != nil {
		return writeError(c, err, "chat")
	}
	return c.JSON(msgs)
}

// ChatSend handles POST /api/chat
// @Summary Ask the assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param message body ChatInput true "Message"
// @Success 200 {array} chat.Message
// @Router /chat [post]
func (h *SiteHandler) ChatSend(c *fiber.Ctx) error {
	var input ChatInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, chat.ErrEmptyMessage, "chat")
	}
	msgs, err := h.Assistant.Send(c.UserContext(), h.visitor(c), input.Text)
	if err != nil {
		return writeError(c, err, "chat")
	}
	return c.JSON(msgs)
}

// visitor returns the issued visitor id, issuing a new one when the cookie
// is missing or was not issued by this service
func (h *SiteHandler) visitor(c *fiber.Ctx) string {
	name := h.VisitorCookie
	if name == "" {
		name = DefaultVisitorCookie
	}
	if id, err := uuid.Parse(c.Cookies(name)); err == nil {
		return id.String()
	}

	id := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
	return id
}

package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/formatapi/internal/application/engine"
	"github.com/doeshing/formatapi/internal/domain"
)

type parseRequest struct {
	Text       string `json:"text"`
	Candidates bool   `json:"candidates"`
	Save       bool   `json:"save"`
}

func (h *Handler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Save {
		rec, err := h.engine.CaptureText(req.Text)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
		return
	}
	if req.Candidates {
		c.JSON(http.StatusOK, h.engine.AnalyzeText(req.Text))
		return
	}
	c.JSON(http.StatusOK, h.engine.ParseText(req.Text))
}

func (h *Handler) Format(c *gin.Context) {
	var req engine.FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	out, err := h.engine.FormatOutput(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

type ocrRequest struct {
	ImagePath  string   `json:"image_path" form:"image_path"`
	ImagePaths []string `json:"image_paths" form:"image_paths"`
	Mode       string   `json:"mode" form:"mode"`
	Text       string   `json:"text" form:"text"`
	Save       bool     `json:"save" form:"save"`
}

// OCR accepts either JSON naming local image paths or a multipart upload
// with one or more "images" files.
func (h *Handler) OCR(c *gin.Context) {
	var req ocrRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	paths := req.ImagePaths
	if req.ImagePath != "" {
		paths = append([]string{req.ImagePath}, paths...)
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		uploaded, cleanup, err := saveUploads(c)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		defer cleanup()
		paths = append(paths, uploaded...)
	}
	if len(paths) == 0 {
		badRequest(c, "image_path or images required")
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = h.defaultMode
	}
	ctx := c.Request.Context()

	if req.Save {
		rec, err := h.engine.CaptureImage(ctx, req.Text, paths, mode)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
		return
	}

	models, err := h.engine.ExtractModelsBatch(ctx, paths, mode)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func saveUploads(c *gin.Context) ([]string, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, noop, nil
	}
	dir, err := os.MkdirTemp("", "formatapi-upload-*")
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	paths := make([]string, 0, len(files))
	for i, fh := range files {
		dst := filepath.Join(dir, strconv.Itoa(i)+"-"+filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			cleanup()
			return nil, noop, err
		}
		paths = append(paths, dst)
	}
	return paths, cleanup, nil
}

func (h *Handler) LoadHistory(c *gin.Context) {
	records, err := h.engine.LoadHistory()
	msg, ok := warning(err)
	if !ok {
		abortWithError(c, err)
		return
	}
	body := gin.H{"records": records}
	if msg != "" {
		body["warning"] = msg
	}
	c.JSON(http.StatusOK, body)
}

type historyBody struct {
	Records []domain.Record `json:"records"`
}

func (h *Handler) SaveHistory(c *gin.Context) {
	var body historyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := h.engine.SaveHistory(body.Records); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddHistoryItem appends a record; a zero timestamp is assigned from the engine clock.
func (h *Handler) AddHistoryItem(c *gin.Context) {
	var rec domain.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = h.engine.Clock.Next()
	}
	rec = rec.Normalized()
	if err := h.engine.AddHistoryItem(rec); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.engine.ClearHistory(); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteHistoryItem(c *gin.Context) {
	ts, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
	if err != nil {
		badRequest(c, "invalid timestamp")
		return
	}
	if err := h.engine.DeleteHistoryItem(ts); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) LoadTemplates(c *gin.Context) {
	templates, err := h.engine.LoadTemplates()
	msg, ok := warning(err)
	if !ok {
		abortWithError(c, err)
		return
	}
	body := gin.H{"templates": templates}
	if msg != "" {
		body["warning"] = msg
	}
	c.JSON(http.StatusOK, body)
}

type templatesBody struct {
	Templates []domain.CustomTemplate `json:"templates"`
}

func (h *Handler) SaveTemplates(c *gin.Context) {
	var body templatesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := h.engine.SaveTemplates(body.Templates); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type generalizeRequest struct {
	Example string `json:"example"`
	Name    string `json:"name"`
}

// Generalize returns the template for an example; with a name it is also stored.
func (h *Handler) Generalize(c *gin.Context) {
	var req generalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	tpl := h.engine.GeneralizeTemplate(req.Example)
	if strings.TrimSpace(req.Name) != "" {
		if err := h.engine.AddTemplate(domain.CustomTemplate{Name: req.Name, Content: tpl}); err != nil {
			abortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl})
}

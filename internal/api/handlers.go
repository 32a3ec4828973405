package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/deck"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/orchestrator"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/prompt"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/scene"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
	"github.com/dseditor/AIStudioFloorPlan/pkg/util"
)

type Handler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *logger.Logger
}

func NewHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *Handler {
	return &Handler{
		orchestrator: orch,
		logger:       log,
	}
}

// --- plan renders ---

func (h *Handler) RenderPlan(c *gin.Context) {
	var req RenderPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	requestID := req.ClientRequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	kind, ok := planKind(req.Kind)
	if !ok {
		h.badRequest(c, "INVALID_REQUEST", fmt.Sprintf("unknown render kind %q", req.Kind))
		return
	}

	plan, err := decodeImageField(req.PlanImage)
	if err != nil {
		h.badRequest(c, "INVALID_IMAGE", err.Error())
		return
	}

	images, err := h.orchestrator.RenderPlan(c.Request.Context(), &orchestrator.RenderPlanRequest{
		RequestID:      requestID,
		Kind:           kind,
		Plan:           plan,
		Instruction:    req.Instruction,
		Style:          req.Style,
		CandidateCount: candidateCount(req.CandidateCount),
	})
	if err != nil {
		h.renderError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, RenderPlanResponse{
		RequestID: requestID,
		Status:    StatusSucceeded,
		Images:    encodeImages(images),
	})
}

func (h *Handler) EditPlan(c *gin.Context) {
	var req EditPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	requestID := req.ClientRequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	base, err := decodeImageField(req.BaseImage)
	if err != nil {
		h.badRequest(c, "INVALID_IMAGE", "base_image: "+err.Error())
		return
	}
	mask, err := decodeImageField(req.MaskImage)
	if err != nil {
		h.badRequest(c, "INVALID_IMAGE", "mask_image: "+err.Error())
		return
	}

	images, err := h.orchestrator.EditPlan(c.Request.Context(), &orchestrator.EditPlanRequest{
		RequestID:      requestID,
		Base:           base,
		Mask:           mask,
		Instruction:    req.Instruction,
		CandidateCount: candidateCount(req.CandidateCount),
	})
	if err != nil {
		h.renderError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, RenderPlanResponse{
		RequestID: requestID,
		Status:    StatusSucceeded,
		Images:    encodeImages(images),
	})
}

// --- scenes ---

func (h *Handler) GenerateScenes(c *gin.Context) {
	var req GenerateScenesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	requestID := req.ClientRequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	plan, err := decodeImageField(req.PlanImage)
	if err != nil {
		h.badRequest(c, "INVALID_IMAGE", err.Error())
		return
	}

	orchReq := &orchestrator.GenerateScenesRequest{
		RequestID:  requestID,
		Plan:       plan,
		Viewpoints: req.Viewpoints,
		Style:      req.Style,
	}

	if req.Stream {
		h.streamScenes(c, requestID, orchReq)
		return
	}

	scenes, err := h.orchestrator.GenerateScenes(c.Request.Context(), orchReq, nil)
	if err != nil {
		h.scenesError(c, requestID, err, scenes)
		return
	}

	c.JSON(http.StatusOK, ScenesResponse{
		RequestID: requestID,
		Status:    StatusSucceeded,
		Scenes:    sceneDTOs(scenes),
	})
}

func (h *Handler) streamScenes(c *gin.Context, requestID string, req *orchestrator.GenerateScenesRequest) {
	sendEvent := sseSender(c, requestID)

	sendEvent(EventTypeStart, EventProgress{Message: "scene generation started"})

	scenes, err := h.orchestrator.GenerateScenes(c.Request.Context(), req, func(event orchestrator.ProgressEvent) {
		sendEvent(EventTypeProgress, EventProgress{Message: event.Message, Progress: event.Progress})
	})
	if err != nil {
		sendEvent(EventTypeError, EventError{Code: errors.Code(err), Message: err.Error()})
		return
	}

	sendEvent(EventTypeComplete, ScenesResponse{
		RequestID: requestID,
		Status:    StatusSucceeded,
		Scenes:    sceneDTOs(scenes),
	})
}

func (h *Handler) ListScenes(c *gin.Context) {
	c.JSON(http.StatusOK, ScenesResponse{
		Status: StatusSucceeded,
		Scenes: sceneDTOs(h.orchestrator.Scenes()),
	})
}

func (h *Handler) ClearScenes(c *gin.Context) {
	h.orchestrator.ClearScenes()
	c.JSON(http.StatusOK, ScenesResponse{Status: StatusSucceeded})
}

func (h *Handler) UpdateSceneCamera(c *gin.Context) {
	index, ok := h.sceneIndex(c)
	if !ok {
		return
	}

	var req SceneCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	sc, err := h.orchestrator.UpdateSceneCamera(c.Request.Context(), &orchestrator.SceneUpdateRequest{
		Viewpoint: index,
		Camera: scene.Camera{
			RotationDeg: req.RotationDeg,
			TiltDeg:     req.TiltDeg,
			ZoomFactor:  req.ZoomFactor,
		},
		Lighting:          scene.Lighting(req.Lighting),
		ColorTemperatureK: req.ColorTemperatureK,
		Style:             req.Style,
	})
	if err != nil {
		h.sceneError(c, err)
		return
	}

	dto := sceneDTO(sc)
	c.JSON(http.StatusOK, SceneResponse{Status: StatusSucceeded, Scene: &dto})
}

func (h *Handler) EditScene(c *gin.Context) {
	index, ok := h.sceneIndex(c)
	if !ok {
		return
	}

	var req SceneEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Instruction == "" && req.InsertItem == "" {
		h.badRequest(c, "INVALID_REQUEST", "instruction or insert_item is required")
		return
	}

	sc, err := h.orchestrator.EditScene(c.Request.Context(), &orchestrator.SceneEditRequest{
		Viewpoint:   index,
		Instruction: req.Instruction,
		InsertItem:  req.InsertItem,
	})
	if err != nil {
		h.sceneError(c, err)
		return
	}

	dto := sceneDTO(sc)
	c.JSON(http.StatusOK, SceneResponse{Status: StatusSucceeded, Scene: &dto})
}

func (h *Handler) RestoreScene(c *gin.Context) {
	index, ok := h.sceneIndex(c)
	if !ok {
		return
	}

	sc, err := h.orchestrator.RestoreScene(index)
	if err != nil {
		h.sceneError(c, err)
		return
	}

	dto := sceneDTO(sc)
	c.JSON(http.StatusOK, SceneResponse{Status: StatusSucceeded, Scene: &dto})
}

// --- presentation ---

func (h *Handler) GeneratePresentationText(c *gin.Context) {
	var req PresentationTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	text, err := h.orchestrator.GeneratePresentationText(c.Request.Context(), req.Language)
	if err != nil {
		h.presentationError(c, err)
		return
	}

	c.JSON(http.StatusOK, PresentationTextResponse{Status: StatusSucceeded, Text: text})
}

func (h *Handler) UpdatePresentationText(c *gin.Context) {
	var text deck.PresentationText
	if err := c.ShouldBindJSON(&text); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	h.orchestrator.UpdatePresentationText(text)
	c.JSON(http.StatusOK, PresentationTextResponse{Status: StatusSucceeded, Text: &text})
}

func (h *Handler) RenderSlides(c *gin.Context) {
	var req RenderSlidesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	slides, err := h.orchestrator.RenderSlides(req.Theme)
	if err != nil {
		h.presentationError(c, err)
		return
	}

	encoded, err := encodeSlides(slides)
	if err != nil {
		h.presentationError(c, err)
		return
	}

	c.JSON(http.StatusOK, RenderSlidesResponse{Status: StatusSucceeded, Slides: encoded})
}

func (h *Handler) ExportDeck(c *gin.Context) {
	var req ExportDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	// The export ID names the archive and its directory, so a short hex id
	// beats a full uuid in the download URL.
	requestID := req.ClientRequestID
	if requestID == "" {
		requestID = "deck-" + util.RandomString(12)
	}

	if req.Stream {
		h.streamExport(c, requestID, req.Theme)
		return
	}

	url, err := h.orchestrator.ExportDeck(requestID, req.Theme, nil)
	if err != nil {
		h.exportError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, ExportDeckResponse{
		RequestID: requestID,
		Status:    StatusSucceeded,
		DeckURL:   url,
	})
}

func (h *Handler) streamExport(c *gin.Context, requestID, theme string) {
	sendEvent := sseSender(c, requestID)

	sendEvent(EventTypeStart, EventProgress{Message: "deck export started"})

	url, err := h.orchestrator.ExportDeck(requestID, theme, func(event orchestrator.ProgressEvent) {
		sendEvent(EventTypeProgress, EventProgress{Message: event.Message, Progress: event.Progress})
	})
	if err != nil {
		sendEvent(EventTypeError, EventError{Code: errors.Code(err), Message: err.Error()})
		return
	}

	sendEvent(EventTypeComplete, ExportDeckResponse{
		RequestID: requestID,
		Status:    StatusSucceeded,
		DeckURL:   url,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// --- helpers ---

func (h *Handler) sceneIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 1 {
		h.badRequest(c, "INVALID_REQUEST", "viewpoint index must be a positive integer")
		return 0, false
	}
	return index, true
}

func (h *Handler) badRequest(c *gin.Context, code, message string) {
	h.logger.Error("invalid request", "code", code, "message", message)
	c.JSON(http.StatusBadRequest, ScenesResponse{
		Status: StatusFailed,
		Error:  &ErrorBody{Code: code, Message: message},
	})
}

func (h *Handler) renderError(c *gin.Context, requestID string, err error) {
	h.logger.Error("plan render failed", "request_id", requestID, "error", err)
	c.JSON(httpStatus(err), RenderPlanResponse{
		RequestID: requestID,
		Status:    StatusFailed,
		Error:     errorBody(err),
	})
}

// scenesError reports a failed batch. The per-scene records still go out so
// the client can show which viewpoint failed with what message.
func (h *Handler) scenesError(c *gin.Context, requestID string, err error, scenes []scene.Scene) {
	h.logger.Error("scene generation failed", "request_id", requestID, "error", err)
	c.JSON(httpStatus(err), ScenesResponse{
		RequestID: requestID,
		Status:    StatusFailed,
		Scenes:    sceneDTOs(scenes),
		Error:     errorBody(err),
	})
}

func (h *Handler) sceneError(c *gin.Context, err error) {
	h.logger.Error("scene operation failed", "error", err)
	c.JSON(httpStatus(err), SceneResponse{
		Status: StatusFailed,
		Error:  errorBody(err),
	})
}

func (h *Handler) presentationError(c *gin.Context, err error) {
	h.logger.Error("presentation operation failed", "error", err)
	c.JSON(httpStatus(err), PresentationTextResponse{
		Status: StatusFailed,
		Error:  errorBody(err),
	})
}

func (h *Handler) exportError(c *gin.Context, requestID string, err error) {
	h.logger.Error("deck export failed", "request_id", requestID, "error", err)
	c.JSON(httpStatus(err), ExportDeckResponse{
		RequestID: requestID,
		Status:    StatusFailed,
		Error:     errorBody(err),
	})
}

func errorBody(err error) *ErrorBody {
	return &ErrorBody{Code: errors.Code(err), Message: err.Error()}
}

// httpStatus maps the error taxonomy onto response codes.
func httpStatus(err error) int {
	switch errors.Code(err) {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeBlocked:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTransient, errors.ErrCodeAllCandidates:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sseSender(c *gin.Context, requestID string) func(eventType string, data interface{}) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	return func(eventType string, data interface{}) {
		event := StreamEvent{
			Event:     eventType,
			Data:      data,
			RequestID: requestID,
		}
		jsonData, _ := json.Marshal(event)
		fmt.Fprintf(c.Writer, "event: %s\n", eventType)
		fmt.Fprintf(c.Writer, "data: %s\n\n", jsonData)
		c.Writer.Flush()
	}
}

func planKind(s string) (prompt.Kind, bool) {
	switch prompt.Kind(s) {
	case prompt.KindCleanRender, prompt.KindMaterialPass, prompt.KindDollhouse:
		return prompt.Kind(s), true
	case "":
		return prompt.KindCleanRender, true
	default:
		return "", false
	}
}

func candidateCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > 4 {
		return 4
	}
	return n
}

func decodeImageField(payload string) (gemini.Image, error) {
	data, mime, err := util.DecodeImagePayload(payload)
	if err != nil {
		return gemini.Image{}, err
	}
	return gemini.Image{MimeType: mime, Data: data}, nil
}

func encodeImages(images []*gemini.Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, util.EncodeDataURL(img.MimeType, img.Data))
	}
	return out
}

func encodeSlides(slides []*image.RGBA) ([]string, error) {
	out := make([]string, 0, len(slides))
	for _, slide := range slides {
		var buf bytes.Buffer
		if err := png.Encode(&buf, slide); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRender, "encode slide")
		}
		out = append(out, util.EncodeDataURL("image/png", buf.Bytes()))
	}
	return out, nil
}

func sceneDTO(sc scene.Scene) SceneDTO {
	dto := SceneDTO{
		ViewpointIndex:    sc.ViewpointIndex,
		Status:            string(sc.Status),
		RotationDeg:       sc.Camera.RotationDeg,
		TiltDeg:           sc.Camera.TiltDeg,
		ZoomFactor:        sc.Camera.ZoomFactor,
		Lighting:          string(sc.Lighting),
		ColorTemperatureK: sc.ColorTemperatureK,
		Error:             sc.Error,
	}
	if sc.Current != nil {
		dto.Image = util.EncodeDataURL(sc.Current.MimeType, sc.Current.Data)
	}
	return dto
}

func sceneDTOs(scenes []scene.Scene) []SceneDTO {
	out := make([]SceneDTO, 0, len(scenes))
	for _, sc := range scenes {
		out = append(out, sceneDTO(sc))
	}
	return out
}

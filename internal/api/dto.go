package api

import "github.com/dseditor/AIStudioFloorPlan/internal/service/deck"

// Images cross the API as data URLs (data:image/png;base64,...); bare base64
// is tolerated on input.

type RenderPlanRequest struct {
	Kind            string `json:"kind"` // clean-render | material-pass | dollhouse
	PlanImage       string `json:"plan_image" binding:"required"`
	Instruction     string `json:"instruction"`
	Style           string `json:"style"`
	CandidateCount  int    `json:"candidate_count"`
	ClientRequestID string `json:"client_request_id"`
}

type EditPlanRequest struct {
	BaseImage       string `json:"base_image" binding:"required"`
	MaskImage       string `json:"mask_image" binding:"required"`
	Instruction     string `json:"instruction" binding:"required"`
	CandidateCount  int    `json:"candidate_count"`
	ClientRequestID string `json:"client_request_id"`
}

type RenderPlanResponse struct {
	RequestID string     `json:"request_id"`
	Status    string     `json:"status"`
	Images    []string   `json:"images,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
}

type GenerateScenesRequest struct {
	PlanImage       string `json:"plan_image" binding:"required"`
	Viewpoints      []int  `json:"viewpoints" binding:"required"`
	Style           string `json:"style"`
	Stream          bool   `json:"stream"`
	ClientRequestID string `json:"client_request_id"`
}

type SceneCameraRequest struct {
	RotationDeg       float64 `json:"rotation_deg"`
	TiltDeg           float64 `json:"tilt_deg"`
	ZoomFactor        float64 `json:"zoom_factor"`
	Lighting          string  `json:"lighting"` // day | night
	ColorTemperatureK int     `json:"color_temperature_k"`
	Style             string  `json:"style"`
}

type SceneEditRequest struct {
	Instruction string `json:"instruction"`
	InsertItem  string `json:"insert_item"`
}

type SceneDTO struct {
	ViewpointIndex    int     `json:"viewpoint_index"`
	Status            string  `json:"status"`
	Image             string  `json:"image,omitempty"`
	RotationDeg       float64 `json:"rotation_deg"`
	TiltDeg           float64 `json:"tilt_deg"`
	ZoomFactor        float64 `json:"zoom_factor"`
	Lighting          string  `json:"lighting"`
	ColorTemperatureK int     `json:"color_temperature_k"`
	Error             string  `json:"error,omitempty"`
}

type ScenesResponse struct {
	RequestID string     `json:"request_id,omitempty"`
	Status    string     `json:"status"`
	Scenes    []SceneDTO `json:"scenes,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
}

type SceneResponse struct {
	Status string     `json:"status"`
	Scene  *SceneDTO  `json:"scene,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type PresentationTextRequest struct {
	Language string `json:"language"`
}

type PresentationTextResponse struct {
	Status string                 `json:"status"`
	Text   *deck.PresentationText `json:"text,omitempty"`
	Error  *ErrorBody             `json:"error,omitempty"`
}

type RenderSlidesRequest struct {
	Theme string `json:"theme"`
}

type RenderSlidesResponse struct {
	Status string     `json:"status"`
	Slides []string   `json:"slides,omitempty"` // PNG data URLs in deck order
	Error  *ErrorBody `json:"error,omitempty"`
}

type ExportDeckRequest struct {
	Theme           string `json:"theme"`
	Stream          bool   `json:"stream"`
	ClientRequestID string `json:"client_request_id"`
}

type ExportDeckResponse struct {
	RequestID string     `json:"request_id"`
	Status    string     `json:"status"`
	DeckURL   string     `json:"deck_url,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// SSE envelope for streamed progress.
type StreamEvent struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
}

type EventProgress struct {
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

type EventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"

	EventTypeStart    = "start"
	EventTypeProgress = "progress"
	EventTypeComplete = "complete"
	EventTypeError    = "error"
)

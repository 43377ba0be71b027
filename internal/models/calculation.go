package models

import "image"

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ImageRequest is the body accepted by POST /calculate.
type ImageRequest struct {
	Image     string         `json:"image" binding:"required"`
	Variables map[string]any `json:"dict_of_vars"`
}

// ExpressionResult is one recognized expression and its evaluated value.
// Result holds a json.Number, string or bool.
type ExpressionResult struct {
	Expr   string `json:"expr"`
	Result any    `json:"result"`
	Assign bool   `json:"assign"`
}

// ResponseEnvelope is the only response shape returned by /calculate,
// for both success and failure.
type ResponseEnvelope struct {
	Message string             `json:"message"`
	Data    []ExpressionResult `json:"data"`
	Status  string             `json:"status"`
}

// SuccessEnvelope wraps results in a success envelope.
func SuccessEnvelope(message string, data []ExpressionResult) ResponseEnvelope {
	if data == nil {
		data = []ExpressionResult{}
	}
	return ResponseEnvelope{Message: message, Data: data, Status: StatusSuccess}
}

// ErrorEnvelope returns an error envelope with an empty data list.
func ErrorEnvelope(message string) ResponseEnvelope {
	return ResponseEnvelope{Message: message, Data: []ExpressionResult{}, Status: StatusError}
}

// DecodedImage is a validated, in-memory bitmap. It lives for a single request.
type DecodedImage struct {
	Image  image.Image
	Format string // lower-case Go format name: "png", "jpeg", "gif"
	Width  int
	Height int
}

// Pixels returns width*height.
func (d *DecodedImage) Pixels() int {
	return d.Width * d.Height
}

// MIMEType returns the media type of the original format.
func (d *DecodedImage) MIMEType() string {
	return "image/" + d.Format
}

// Release drops the bitmap so it can be collected. Safe to call more than once.
func (d *DecodedImage) Release() {
	if d == nil {
		return
	}
	d.Image = nil
}

// Released reports whether Release has been called.
func (d *DecodedImage) Released() bool {
	return d == nil || d.Image == nil
}

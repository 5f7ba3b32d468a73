package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "pinmap/pkg/domain-errors"
)

// createRequest is the HTTP request body for POST /api/users. Lat and Lng are
// pointers so an absent coordinate is distinguishable from zero.
type createRequest struct {
	Nickname     string   `json:"nickname"`
	Handle       string   `json:"handle"`
	Country      string   `json:"country"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Avatar       string   `json:"avatar"`
	CaptchaToken string   `json:"captchaToken"`
}

// Validate checks request shape. Semantic checks (handle verification,
// uniqueness) belong to the admission controller.
func (r *createRequest) Validate() error {
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.Country = strings.TrimSpace(r.Country)

	if !govalidator.StringLength(r.Nickname, "1", "20") {
		return dErrors.New(dErrors.CodeValidation, "nickname must be 1-20 characters")
	}
	if r.Country == "" {
		return dErrors.New(dErrors.CodeValidation, "country is required")
	}
	if r.Lat == nil || r.Lng == nil {
		return dErrors.New(dErrors.CodeValidation, "lat and lng are required")
	}
	if !govalidator.InRangeFloat64(*r.Lat, -90, 90) {
		return dErrors.New(dErrors.CodeValidation, "lat must be between -90 and 90")
	}
	if !govalidator.InRangeFloat64(*r.Lng, -180, 180) {
		return dErrors.New(dErrors.CodeValidation, "lng must be between -180 and 180")
	}
	if r.Avatar != "" && !govalidator.IsRequestURL(r.Avatar) {
		return dErrors.New(dErrors.CodeValidation, "avatar must be a URL")
	}
	return nil
}

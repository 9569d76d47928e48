package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
)

// DefaultMaxUploadBytes caps avatar and publication files when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// profileFieldsRequest is shared by registration and profile edits. It binds from JSON
// and from multipart forms; tag fields accept arrays or comma-separated strings.
type profileFieldsRequest struct {
	Headline      string `json:"headline" form:"headline" validate:"max=200"`
	Bio           string `json:"bio" form:"bio" validate:"max=5000"`
	Location      string `json:"location" form:"location" validate:"max=120"`
	Organisation  string `json:"organisation" form:"organisation" validate:"max=200"`
	ContactNumber string `json:"contact_number" form:"contact_number" validate:"max=40"`
	LinkedInURL   string `json:"linkedin_url" form:"linkedin_url" validate:"omitempty,url"`
	WebsiteURL    string `json:"website_url" form:"website_url" validate:"omitempty,url"`
	Education     string `json:"education" form:"education" validate:"max=5000"`
	Experience    string `json:"experience" form:"experience" validate:"max=5000"`
	CompanySize   string `json:"company_size" form:"company_size" validate:"max=60"`
	CompanyType   string `json:"company_type" form:"company_type" validate:"max=60"`
	FoundedYear   *int   `json:"founded_year" form:"founded_year" validate:"omitempty,min=1800,max=2100"`

	Expertise         models.TagList `json:"expertise" form:"expertise"`
	Services          models.TagList `json:"services" form:"services"`
	IndustryExpertise models.TagList `json:"industry_expertise" form:"industry_expertise"`
	MentoringAreas    models.TagList `json:"mentoring_areas" form:"mentoring_areas"`
	ResearchAreas     models.TagList `json:"research_areas" form:"research_areas"`
	Languages         models.TagList `json:"languages" form:"languages"`
}

func (r profileFieldsRequest) fields() services.ProfileFields {
	return services.ProfileFields{
		Headline:      r.Headline,
		Bio:           r.Bio,
		Location:      r.Location,
		Organisation:  r.Organisation,
		ContactNumber: r.ContactNumber,
		LinkedInURL:   r.LinkedInURL,
		WebsiteURL:    r.WebsiteURL,
		Education:     r.Education,
		Experience:    r.Experience,
		CompanySize:   r.CompanySize,
		CompanyType:   r.CompanyType,
		FoundedYear:   r.FoundedYear,

		Expertise:         splitTags(r.Expertise),
		Services:          splitTags(r.Services),
		IndustryExpertise: splitTags(r.IndustryExpertise),
		MentoringAreas:    splitTags(r.MentoringAreas),
		ResearchAreas:     splitTags(r.ResearchAreas),
		Languages:         splitTags(r.Languages),
	}
}

// Form fields arrive as one "a, b" value or as repeated keys; both end up as one tag per item.
func splitTags(values models.TagList) models.TagList {
	return models.ParseTags(strings.Join(values, ","))
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

var errNoUpload = errors.New("no file uploaded")

// formUpload opens a multipart file. The caller closes the returned upload via done.
func formUpload(c *gin.Context, field string, maxBytes int64) (*services.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, errNoUpload
		}
		return nil, func() {}, appErrors.NewBadRequest("invalid file upload")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if header.Size > maxBytes {
		return nil, func() {}, appErrors.NewBadRequest(fmt.Sprintf("%s must be at most %d bytes", field, maxBytes))
	}

	file, err := header.Open()
	if err != nil {
		return nil, func() {}, appErrors.ErrInternalServer.WithInternal(err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upload := &services.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}
	return upload, func() { _ = file.Close() }, nil
}

// optionalUpload is formUpload for forms where the file may be omitted.
func optionalUpload(c *gin.Context, field string, maxBytes int64) (*services.Upload, func(), error) {
	if !isMultipart(c) {
		return nil, func() {}, nil
	}
	upload, done, err := formUpload(c, field, maxBytes)
	if errors.Is(err, errNoUpload) {
		return nil, done, nil
	}
	return upload, done, err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

// LocationAll disables the location facet.
const LocationAll = "all"

// DirectoryQuery is the browse filter: free text ANDed with an exact location.
type DirectoryQuery struct {
	Search   string
	Location string
}

// FilterProfiles keeps profiles whose full name, headline, bio or organisation contains
// Search case-insensitively and whose location equals Location. Blank Search and a blank or
// "all" Location match everything. Input order is preserved.
func FilterProfiles(profiles []models.Profile, query DirectoryQuery) []models.Profile {
	search := strings.ToLower(strings.TrimSpace(query.Search))
	location := strings.TrimSpace(query.Location)
	if strings.EqualFold(location, LocationAll) {
		location = ""
	}

	out := make([]models.Profile, 0, len(profiles))
	for _, profile := range profiles {
		if search != "" && !matchesSearch(profile, search) {
			continue
		}
		if location != "" && models.Deref(profile.Location) != location {
			continue
		}
		out = append(out, profile)
	}
	return out
}

func matchesSearch(profile models.Profile, needle string) bool {
	for _, field := range []string{
		profile.FullName,
		models.Deref(profile.Headline),
		models.Deref(profile.Bio),
		models.Deref(profile.Organisation),
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// DirectoryService lists approved members for browsing.
type DirectoryService struct {
	db *gorm.DB
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(db *gorm.DB) (*DirectoryService, error) {
	if db == nil {
		return nil, errors.New("directory service: db is required")
	}
	return &DirectoryService{db: db}, nil
}

// List returns approved profiles of userType ordered by name, narrowed by query.
func (s *DirectoryService) List(ctx context.Context, userType models.UserType, query DirectoryQuery) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.db.WithContext(ensureContext(ctx)).
		Where("approval_status = ? AND user_type = ?", models.ApprovalApproved, userType).
		Order("full_name ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("directory service: list profiles: %w", err)
	}
	return FilterProfiles(profiles, query), nil
}

// Locations returns the distinct non-empty locations among approved profiles of userType.
func (s *DirectoryService) Locations(ctx context.Context, userType models.UserType) ([]string, error) {
	var raw []*string
	if err := s.db.WithContext(ensureContext(ctx)).
		Model(&models.Profile{}).
		Where("approval_status = ? AND user_type = ?", models.ApprovalApproved, userType).
		Distinct("location").
		Pluck("location", &raw).Error; err != nil {
		return nil, fmt.Errorf("directory service: list locations: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	locations := make([]string, 0, len(raw))
	for _, value := range raw {
		location := strings.TrimSpace(models.Deref(value))
		if location == "" {
			continue
		}
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		locations = append(locations, location)
	}
	sort.Strings(locations)
	return locations, nil
}

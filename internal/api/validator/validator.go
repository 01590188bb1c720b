package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]playgroundvalidator.Func{
		"user_role":         oneOfValues("ADMIN", "EDITOR", "RESEARCHER"),
		"object_type":       oneOfValues("information_object", "actor", "repository", "accession"),
		"glam_sector":       oneOfValues("gallery", "library", "archive", "museum"),
		"rights_basis":      oneOfValues("copyright", "license", "statute", "donor", "policy"),
		"act_restriction":   oneOfValues("allow", "disallow", "conditional"),
		"embargo_type":      oneOfValues("full", "metadata_only", "digital_only", "partial"),
		"embargo_status":    oneOfValues("pending", "active", "lifted", "expired"),
		"grant_level":       oneOfValues("view", "download", "edit"),
		"asset_class":       oneOfValues("collections", "art", "monuments", "archaeological", "natural", "other"),
		"measurement_basis": oneOfValues("cost", "revaluation", "nominal"),
		"dsar_status":       oneOfValues("pending", "in_progress", "completed", "rejected"),
		"breach_status":     oneOfValues("open", "closed"),
		"jurisdiction":      oneOfValues("popia", "gdpr", "both"),
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil
		}
	}

	return &CustomValidator{validator: v}
}

func oneOfValues(values ...string) playgroundvalidator.Func {
	valid := make(map[string]bool, len(values))
	for _, value := range values {
		valid[value] = true
	}
	return func(fl playgroundvalidator.FieldLevel) bool {
		return valid[fl.Field().String()]
	}
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// Request validation structs

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=2"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role" validate:"omitempty,user_role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ToggleFavoriteRequest struct {
	ObjectID   string `json:"objectId" validate:"required,uuid"`
	ObjectType string `json:"objectType" validate:"omitempty,object_type"`
}

type CustomFavoriteRequest struct {
	Title    string `json:"title" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
	Notes    string `json:"notes"`
	FolderID string `json:"folderId" validate:"omitempty,uuid"`
}

type BulkFavoritesRequest struct {
	FavoriteIDs []string `json:"favoriteIds" validate:"required,min=1,dive,uuid"`
	FolderID    string   `json:"folderId" validate:"omitempty,uuid"`
}

type ImportFavoritesRequest struct {
	Slugs []string `json:"slugs" validate:"required,min=1"`
}

type FolderRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
	ParentID    string `json:"parentId" validate:"omitempty,uuid"`
}

type ShareFolderRequest struct {
	ExpiresAt *time.Time `json:"expiresAt" validate:"omitempty,gt=now"`
}

type ClassifyObjectRequest struct {
	ObjectID          string     `json:"objectId" validate:"required,uuid"`
	ClassificationID  string     `json:"classificationId" validate:"required,uuid"`
	Reason            string     `json:"reason"`
	ReviewDate        *time.Time `json:"reviewDate"`
	DeclassifyDate    *time.Time `json:"declassifyDate"`
	DeclassifyToID    string     `json:"declassifyToId" validate:"omitempty,uuid"`
	InheritToChildren *bool      `json:"inheritToChildren"`
	AutoDeclassify    bool       `json:"autoDeclassify"`
	RetentionYears    int        `json:"retentionYears" validate:"omitempty,min=0,max=100"`
}

type GrantClearanceRequest struct {
	UserID           string     `json:"userId" validate:"required,uuid"`
	ClassificationID string     `json:"classificationId" validate:"required,uuid"`
	ExpiryDate       *time.Time `json:"expiryDate" validate:"omitempty,gt=now"`
	VettingReference string     `json:"vettingReference"`
}

type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

type AccessRequestRequest struct {
	ObjectID      string `json:"objectId" validate:"required,uuid"`
	RequestType   string `json:"requestType" validate:"required"`
	Justification string `json:"justification" validate:"required,min=10"`
	DurationHours int    `json:"durationHours" validate:"omitempty,min=1,max=720"`
	Priority      string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

type AccessGrantRequest struct {
	UserID             string     `json:"userId" validate:"required,uuid"`
	ObjectID           string     `json:"objectId" validate:"required,uuid"`
	Level              string     `json:"level" validate:"required,grant_level"`
	IncludeDescendants bool       `json:"includeDescendants"`
	ExpiresAt          *time.Time `json:"expiresAt" validate:"omitempty,gt=now"`
	Note               string     `json:"note"`
}

type EmbargoRequest struct {
	ObjectID         string     `json:"objectId" validate:"required,uuid"`
	EmbargoType      string     `json:"embargoType" validate:"required,embargo_type"`
	Reason           string     `json:"reason" validate:"required"`
	InternalNotes    string     `json:"internalNotes"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	AutoRelease      bool       `json:"autoRelease"`
	NotifyBeforeDays int        `json:"notifyBeforeDays" validate:"omitempty,min=0,max=365"`
}

type LiftEmbargoRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type RightsRecordRequest struct {
	ObjectID        string     `json:"objectId" validate:"required,uuid"`
	Basis           string     `json:"basis" validate:"required,rights_basis"`
	RightsStatement string     `json:"rightsStatement"`
	License         string     `json:"license"`
	RightsHolder    string     `json:"rightsHolder"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	RestrictionNote string     `json:"restrictionNote"`
	Acts            []RightsActRequest `json:"acts" validate:"omitempty,dive"`
}

type RightsActRequest struct {
	Act         string `json:"act" validate:"required,oneof=display disseminate replicate migrate modify delete"`
	Restriction string `json:"restriction" validate:"required,act_restriction"`
}

type DsarRequest struct {
	RequesterName  string `json:"requesterName" validate:"required"`
	RequesterEmail string `json:"requesterEmail" validate:"required,email"`
	IDType         string `json:"idType" validate:"omitempty,oneof=national_id passport drivers_license other"`
	Jurisdiction   string `json:"jurisdiction" validate:"omitempty,jurisdiction"`
	RequestType    string `json:"requestType" validate:"required,oneof=access correction deletion objection portability"`
	Details        string `json:"details"`
}

type DsarStatusRequest struct {
	Status  string `json:"status" validate:"required,dsar_status"`
	Outcome string `json:"outcome"`
}

type BreachRequest struct {
	BreachType       string `json:"breachType" validate:"required,oneof=unauthorised_access data_loss disclosure ransomware phishing other"`
	Severity         string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	AffectedSubjects int    `json:"affectedSubjects" validate:"omitempty,min=0"`
	Description      string `json:"description" validate:"required"`
	Jurisdiction     string `json:"jurisdiction" validate:"omitempty,jurisdiction"`
}

type ValuationRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Valuer string  `json:"valuer"`
	Method string  `json:"method"`
	Notes  string  `json:"notes"`
}

type ConditionCheckRequest struct {
	ObjectID        string   `json:"objectId" validate:"required,uuid"`
	Condition       string   `json:"condition" validate:"required,oneof=excellent good fair poor critical"`
	Notes           string   `json:"notes"`
	Recommendations string   `json:"recommendations"`
	NextCheckMonths int      `json:"nextCheckMonths" validate:"omitempty,min=1,max=120"`
	Humidity        *float64 `json:"humidity"`
	Temperature     *float64 `json:"temperature"`
}

package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"availability_hub/internal/domain"
)

const maxNights = 30

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSearchRequest checks field rules and the date window relative to now.
func ValidateSearchRequest(req domain.SearchRequest, now time.Time) error {
	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	today := dateOf(now)
	switch {
	case !req.CheckOutDate.After(req.CheckInDate):
		return fmt.Errorf("%w: check-out date must be after check-in date", domain.ErrValidation)
	case dateOf(req.CheckInDate).Before(today):
		return fmt.Errorf("%w: check-in date is in the past", domain.ErrValidation)
	case req.Nights() > maxNights:
		return fmt.Errorf("%w: stay exceeds %d nights", domain.ErrValidation, maxNights)
	}
	return nil
}

// dateOf truncates t to midnight UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound means the page has no class table (error page, expired session, ...)
	ErrTableNotFound = errors.New(`<tbody id="formBusca:dataTable:tb"> not found`)
	// ErrNoCourseTitle means a row has an empty course title cell
	ErrNoCourseTitle = errors.New("no course title")
	// ErrNumericFieldParse matches every *NumericFieldError
	ErrNumericFieldParse = errors.New("invalid numeric field")
	// ErrMalformedRow means a row has fewer cells than the listing defines
	ErrMalformedRow = errors.New("malformed row")
	// ErrUnexpectedStatus is returned for non-200 responses
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrSemesterDropdownNotFound means the landing page has no semester selector
	ErrSemesterDropdownNotFound = errors.New(`<select id="formBusca:selectSemestre"> not found`)
)

// NumericFieldError reports a cell that should hold a number but doesn't
type NumericFieldError struct {
	Field    string
	CourseID string
	Value    string
	Err      error
}

func (e *NumericFieldError) Error() string {
	return fmt.Sprintf("parsing %s %q of course %s: %v", e.Field, e.Value, e.CourseID, e.Err)
}

func (e *NumericFieldError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNumericFieldParse) match any NumericFieldError
func (e *NumericFieldError) Is(target error) bool {
	return target == ErrNumericFieldParse
}

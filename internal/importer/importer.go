// Package importer loads unavailability, allocation, exception and job
// records from JSON documents into a repository.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/javiermolinar/rota/internal/schedule"
)

// ErrInvalidDocument is returned when a document fails to decode or validate.
var ErrInvalidDocument = errors.New("invalid import document")

// Document is the JSON import format. Instants are RFC 3339.
type Document struct {
	Unavailability []UnavailabilityRecord `json:"unavailability" validate:"dive"`
	Allocations    []AllocationRecord     `json:"allocations" validate:"dive"`
	Exceptions     []ExceptionRecord      `json:"exceptions" validate:"dive"`
	Jobs           []JobRecord            `json:"jobs" validate:"dive"`
}

// UnavailabilityRecord is a leave span.
type UnavailabilityRecord struct {
	ResourceID string    `json:"resource_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtefield=Start"`
	Reason     string    `json:"reason"`
}

// AllocationRecord assigns a resource to a job.
type AllocationRecord struct {
	JobID      int64     `json:"job_id" validate:"gte=0"`
	ResourceID string    `json:"resource_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtefield=Start"`
}

// ExceptionRecord is a manually recorded scheduling exception.
type ExceptionRecord struct {
	ResourceID string    `json:"resource_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtefield=Start"`
	Note       string    `json:"note"`
}

// JobRecord is a job. Without a date the job is imported unscheduled.
type JobRecord struct {
	Title           string `json:"title" validate:"required"`
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Start           string `json:"start" validate:"omitempty,timeofday"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}

// Result counts imported records.
type Result struct {
	Unavailability int
	Allocations    int
	Exceptions     int
	Jobs           int
}

// Total returns the number of imported records.
func (r Result) Total() int {
	return r.Unavailability + r.Allocations + r.Exceptions + r.Jobs
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return v
}

var messages = map[string]string{
	"required":  "is required",
	"gtefield":  "must not be before %s",
	"gte":       "must be at least %s",
	"datetime":  "must be a date in %s format",
	"timeofday": "must be a time in HH:MM format",
}

// formatValidationErrors renders every failed field as "path message".
func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, strings.ToLower(fe.Param()))
		}
		out = append(out, path+" "+msg)
	}
	return strings.Join(out, ", ")
}

// Decode reads and validates a document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks every record of doc.
func Validate(doc *Document) error {
	if err := validate.Struct(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, formatValidationErrors(err))
	}
	for i, j := range doc.Jobs {
		if j.Start != "" && j.Date == "" {
			return fmt.Errorf("%w: jobs[%d].date is required when start is set", ErrInvalidDocument, i)
		}
	}
	return nil
}

// Importer writes documents to a repository.
type Importer struct {
	repo schedule.Repository
	loc  *time.Location
	log  *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLocation sets the zone job dates are interpreted in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(im *Importer) {
		if loc != nil {
			im.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.log = logger
		}
	}
}

// New creates an importer writing to repo.
func New(repo schedule.Repository, opts ...Option) *Importer {
	im := &Importer{repo: repo, loc: time.UTC, log: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile decodes the document at path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := Decode(f)
	if err != nil {
		return Result{}, err
	}
	return im.Import(ctx, doc)
}

// Import writes every record of doc. Jobs go first so allocations imported
// later can refer to them. On error the counts of records written so far are
// returned with it.
func (im *Importer) Import(ctx context.Context, doc *Document) (Result, error) {
	var res Result

	for i, rec := range doc.Jobs {
		j, err := im.job(rec)
		if err != nil {
			return res, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		if err := im.repo.CreateJob(ctx, j); err != nil {
			return res, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		res.Jobs++
	}

	for i, rec := range doc.Unavailability {
		u := &schedule.Unavailability{ResourceID: rec.ResourceID, Start: rec.Start, End: rec.End, Reason: rec.Reason}
		if err := im.repo.CreateUnavailability(ctx, u); err != nil {
			return res, fmt.Errorf("unavailability[%d]: %w", i, err)
		}
		res.Unavailability++
	}

	for i, rec := range doc.Allocations {
		a := &schedule.Allocation{JobID: rec.JobID, ResourceID: rec.ResourceID, Start: rec.Start, End: rec.End}
		if err := im.repo.CreateAllocation(ctx, a); err != nil {
			return res, fmt.Errorf("allocations[%d]: %w", i, err)
		}
		res.Allocations++
	}

	for i, rec := range doc.Exceptions {
		e := &schedule.Exception{ResourceID: rec.ResourceID, Start: rec.Start, End: rec.End, Note: rec.Note}
		if err := im.repo.CreateException(ctx, e); err != nil {
			return res, fmt.Errorf("exceptions[%d]: %w", i, err)
		}
		res.Exceptions++
	}

	im.log.Info("import finished",
		zap.Int("jobs", res.Jobs),
		zap.Int("unavailability", res.Unavailability),
		zap.Int("allocations", res.Allocations),
		zap.Int("exceptions", res.Exceptions),
	)
	return res, nil
}

func (im *Importer) job(rec JobRecord) (*schedule.Job, error) {
	if rec.Date == "" {
		return &schedule.Job{Title: rec.Title, DurationMinutes: rec.DurationMinutes}, nil
	}
	start := rec.Start
	if start == "" {
		start = schedule.Midnight.Clock()
	}
	now := time.Now().In(im.loc)
	return schedule.NewJob(rec.Title, rec.Date, start, rec.DurationMinutes, now)
}

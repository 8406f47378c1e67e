package core

import (
	"context"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/JonMunkholm/vpl/internal/logging"
)

// Service provides registration, listing and export of player records.
type Service struct {
	store    Store
	ids      *IDGenerator
	photos   *PhotoStore
	limiter  *SubmitLimiter
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService wires a Service. A nil limiter uses the defaults; a nil logger
// uses slog.Default.
func NewService(store Store, photos *PhotoStore, limiter *SubmitLimiter, logger *slog.Logger) *Service {
	if limiter == nil {
		limiter = NewSubmitLimiter(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		ids:      NewIDGenerator(store),
		photos:   photos,
		limiter:  limiter,
		validate: newValidator(),
		logger:   logger,
	}
}

// Limiter exposes the submission limiter so shutdown can drain it.
func (s *Service) Limiter() *SubmitLimiter {
	return s.limiter
}

// Register validates form, assigns the next public ID, stores the photo as
// <public_id>.<ext> and writes the record.
//
// Nothing is stored when validation fails. If the record write fails after
// the photo was stored, the photo is removed again.
func (s *Service) Register(ctx context.Context, form RegistrationForm, photo *Upload) (result *RegistrationResult, err error) {
	ctx, span := startSpan(ctx, "core.Register")
	defer func() {
		countRegistration(ctx, err)
		endSpan(span, err)
	}()

	age, shirtNumber, err := s.validateForm(form, photo)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	id, publicID, err := s.ids.Next(ctx)
	if err != nil {
		return nil, persistenceError(err, "reserve id")
	}
	span.SetAttributes(attribute.String("vpl.public_id", publicID))

	filename, err := s.photos.Ingest(photo, publicID)
	if err != nil {
		return nil, ingestError(err)
	}

	p := form.player(id, publicID, filename, age, shirtNumber)
	if err := s.store.Insert(ctx, p); err != nil {
		if rmErr := s.photos.Remove(filename); rmErr != nil {
			s.log(ctx).Warn("orphaned photo after failed insert",
				"public_id", publicID,
				"photo", filename,
				"error", rmErr,
			)
		}
		return nil, persistenceError(err, "insert player")
	}

	s.log(ctx).Info("player registered",
		"public_id", publicID,
		"photo", filename,
		"client", ClientFromContext(ctx),
	)

	return &RegistrationResult{PublicID: publicID, PhotoFilename: filename}, nil
}

// validateForm runs every check that does not touch storage. Phones are
// checked first, then required text, then numbers, then the photo.
func (s *Service) validateForm(form RegistrationForm, photo *Upload) (age, shirtNumber int, err error) {
	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return 0, 0, errors.Wrap(err, "validate form")
		}
		return 0, 0, classifyFieldErrors(verrs)
	}

	if age, err = parseWholeNumber(form.Age); err != nil {
		return 0, 0, err
	}
	if shirtNumber, err = parseWholeNumber(form.ShirtNumber); err != nil {
		return 0, 0, err
	}

	if photo == nil || photo.Filename == "" || photo.Content == nil {
		return 0, 0, ErrPhotoRequired
	}
	if _, err := PhotoExtension(photo.Filename); err != nil {
		return 0, 0, ErrPhotoExtension
	}

	return age, shirtNumber, nil
}

// classifyFieldErrors picks the error shown for a failed form. Validator
// reports fields in struct order, so the phone and required-text failures
// are searched for explicitly.
func classifyFieldErrors(verrs validator.ValidationErrors) error {
	var missing, numeric string
	for _, fe := range verrs {
		switch fe.Field() {
		case "phone", "ch_mobile":
			return ErrPhoneLength
		case "age", "shirt_number":
			if numeric == "" {
				numeric = fe.Field()
			}
		default:
			if missing == "" {
				missing = fe.Field()
			}
		}
	}
	if missing != "" {
		return errors.WithDetailf(ErrMissingField, "missing field %s", missing)
	}
	return errors.WithDetailf(ErrNotANumber, "invalid field %s", numeric)
}

// parseWholeNumber parses a digit string into the range of the INTEGER
// columns it is stored in.
func parseWholeNumber(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 0 {
		return 0, ErrNotANumber
	}
	return int(n), nil
}

// ingestError maps photo store failures: a missing or unusable file is the
// submitter's fault, anything else is an I/O failure.
func ingestError(err error) error {
	switch {
	case errors.Is(err, ErrMissingFile):
		return ErrPhotoRequired
	case errors.Is(err, ErrInvalidFilename):
		return ErrPhotoExtension
	default:
		return persistenceError(err, "store photo")
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logging.Enrich(ctx, s.logger)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

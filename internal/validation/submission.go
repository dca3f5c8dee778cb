package validation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidSubmission = errors.New("submission does not match schema")

//go:embed submission.schema.json
var submissionSchemaJSON string

var submissionSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(submissionSchemaJSON))
})

// ValidateSubmission checks an export payload against the submission schema
// before it is handed to storage.
func ValidateSubmission(sub timeline.Submission) error {
	schema, err := submissionSchema()
	if err != nil {
		return fmt.Errorf("load submission schema: %w", err)
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidSubmission, strings.Join(errs, "; "))
	}
	return nil
}

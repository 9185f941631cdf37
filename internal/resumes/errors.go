package resumes

import (
	"errors"
	"fmt"
)

// Pipeline step names, reported with upload failures.
const (
	StepValidation         = "validation"
	StepResumeParsing      = "resume_parsing"
	StepDataProcessing     = "data_processing"
	StepUpload             = "s3_upload"
	StepAssociateCompanies = "associate_companies"
	StepAssociateKeywords  = "associate_keywords"
	StepDatabaseCreate     = "database_create"
	StepTransactionCommit  = "transaction_commit"
)

// ErrNotFound is returned when no active resume matches the requested ID.
var ErrNotFound = errors.New("resume not found")

// ErrTxCommit marks a failure while committing the record transaction, as
// opposed to a failure executing its statements.
var ErrTxCommit = errors.New("transaction commit failed")

// ClientInputError reports a rejected upload or request. Handlers map it to
// a 400 response.
type ClientInputError struct {
	Message string
}

func (e *ClientInputError) Error() string { return e.Message }

// PipelineError reports a fatal failure of a named pipeline step.
type PipelineError struct {
	Step    string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s (step %s): %v", e.Message, e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrExtraction       = errors.New("extraction failed")
	ErrSchemaNotFound   = errors.New("table not found")
	ErrReconciliation   = errors.New("schema reconciliation failed")
	ErrNarrative        = errors.New("narrative analysis failed")
	ErrConstraintParse  = errors.New("unsupported constraint expression")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrSheetNotFound    = errors.New("sheet not found")
	ErrUnsafeIdentifier = errors.New("unsafe identifier")
	ErrPathNotAllowed   = errors.New("path outside allowed root")
)

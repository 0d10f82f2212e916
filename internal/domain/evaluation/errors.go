package evaluation

import "errors"

var (
	ErrEmployeeRequired  = errors.New("employee id is required")
	ErrEvaluatorRequired = errors.New("evaluator id is required")
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrNegativeAbsences  = errors.New("days absent must not be negative")
	ErrUnknownSection    = errors.New("unknown rubric section")
	ErrUnknownItem       = errors.New("unknown rubric item")
	ErrUnknownSubGroup   = errors.New("unknown rubric subgroup")
	ErrScoreOutOfRange   = errors.New("composite score outside 1.00-5.00")
	ErrInvalidRubric     = errors.New("invalid rubric definition")
	ErrBackendFailure    = errors.New("evaluation backend request failed")
)

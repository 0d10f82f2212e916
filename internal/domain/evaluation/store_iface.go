package evaluation

import (
	"context"
	"strings"
)

type Employee struct {
	EmployeeID int    `json:"employeeID"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	PositionID *int   `json:"positionID,omitempty"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// RubricSource serves the group/subgroup/item tree of the dynamic rubric.
type RubricSource interface {
	Groups(ctx context.Context) ([]Group, error)
	SubGroups(ctx context.Context, groupID int) ([]SubGroup, error)
	ItemsBySubGroup(ctx context.Context, subGroupID int) ([]TreeItem, error)
}

type EmployeeDirectory interface {
	Employees(ctx context.Context) ([]Employee, error)
}

// Repository persists evaluations and reads them back for reporting.
type Repository interface {
	CreateFixed(ctx context.Context, rec FixedRecord) (Record, error)
	CreateTree(ctx context.Context, rec TreeRecord) (Record, error)
	List(ctx context.Context) ([]Record, error)
}

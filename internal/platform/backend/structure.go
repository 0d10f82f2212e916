package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/grunt24/bcas-hrms/internal/domain/evaluation"
)

func (c *Client) Employees(ctx context.Context) ([]evaluation.Employee, error) {
	out := []evaluation.Employee{}
	if err := c.do(ctx, "list employees", http.MethodGet, c.endpoint("Employees"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Groups(ctx context.Context) ([]evaluation.Group, error) {
	out := []evaluation.Group{}
	if err := c.do(ctx, "list groups", http.MethodGet, c.endpoint("EvaluationStructure", "groups"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubGroups(ctx context.Context, groupID int) ([]evaluation.SubGroup, error) {
	out := []evaluation.SubGroup{}
	target := c.endpoint("EvaluationStructure", "subgroups", strconv.Itoa(groupID))
	if err := c.do(ctx, "list subgroups", http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ItemsBySubGroup(ctx context.Context, subGroupID int) ([]evaluation.TreeItem, error) {
	out := []evaluation.TreeItem{}
	target := c.endpoint("EvaluationStructure", "items", "by-subgroup", strconv.Itoa(subGroupID))
	if err := c.do(ctx, "list items", http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

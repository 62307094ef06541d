package tool

import (
	"context"
	"encoding/json"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/resources"
)

// IndexRefresher regenerates the documentation artifacts unconditionally.
type IndexRefresher interface {
	Refresh(ctx context.Context) (resources.RefreshReport, error)
}

// RefreshIndex rebuilds the API index after a package update.
type RefreshIndex struct {
	Index IndexRefresher
}

func NewRefreshIndex(index IndexRefresher) *RefreshIndex { return &RefreshIndex{Index: index} }

func (t *RefreshIndex) Name() string { return "refresh_api_index" }

func (t *RefreshIndex) Description() string {
	return "Regenerate the API index and component types from the installed Julia packages and " +
		"return the updated symbol count. Use after updating PowerAnalytics.jl."
}

func (t *RefreshIndex) Params() []Param { return nil }

func (t *RefreshIndex) Validate(raw json.RawMessage) error { return nil }

func (t *RefreshIndex) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	rep, err := t.Index.Refresh(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:    rep.String(),
		IsError: !rep.OK(),
		Meta:    map[string]any{"symbols": rep.Symbols, "failures": len(rep.Failures)},
	}, nil
}

// Package export runs the documentation export pipeline: preload the schema
// snapshot, walk every stored column in display order, expand reference
// columns into flattened rows, and hand the ordered result to sinks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tuvistavie/securerandom"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/store"
)

type Opts struct {
	MaxDepth    int
	IndentWidth int
	Predicate   expand.Predicate
}

func DefaultOpts() Opts {
	return Opts{
		MaxDepth:    expand.DefaultMaxDepth,
		IndentWidth: expand.DefaultIndentWidth,
	}
}

// Result is one export run: the full ordered row sequence plus expansion
// diagnostics. RunID ties log lines, workbook metadata, and writeback
// together.
type Result struct {
	RunID   string
	Tables  []types.Table
	Rows    []expand.ExportRow
	Summary expand.Summary
}

type Runner struct {
	store  *store.Store
	logger *slog.Logger
	opts   Opts
}

func NewRunner(st *store.Store, logger *slog.Logger, opts Opts) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: st, logger: logger, opts: opts}
}

// Run produces the flat export. Expansion anomalies (cycles, depth limits,
// unresolved references) never fail the run; they surface as annotated rows
// and summary counters. Only invalid configuration is fatal.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.opts.IndentWidth < 0 {
		return nil, fmt.Errorf("indent width must not be negative, got %d", r.opts.IndentWidth)
	}

	snapshot, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("preload schema snapshot: %v", err)
	}

	engine, err := expand.New(snapshot, expand.Opts{
		MaxDepth:  r.opts.MaxDepth,
		Predicate: r.opts.Predicate,
	})
	if err != nil {
		return nil, err
	}

	runID, err := securerandom.Hex(4)
	if err != nil {
		return nil, fmt.Errorf("generate run id: %v", err)
	}

	result := &Result{RunID: runID}

	for _, tableID := range snapshot.TableIDs() {
		table, _ := snapshot.Table(tableID)
		result.Tables = append(result.Tables, table)

		for _, col := range snapshot.Columns(tableID) {
			result.Rows = append(result.Rows, baseRow(table, col))

			if !expand.Expandable(col) {
				continue
			}

			expansion, err := engine.Expand(ctx, col)
			if err != nil {
				return nil, fmt.Errorf("expand %s.%s: %v", table.Name, col.FieldName, err)
			}

			extended := expand.Flatten(expansion.Root, r.opts.IndentWidth)
			for i := range extended {
				extended[i].ID = fmt.Sprintf("%d.%06d", col.ID, i+1)
			}

			result.Rows = append(result.Rows, extended...)
			result.Summary.Add(expansion.Summary)
		}
	}

	r.logger.Info("export run complete",
		"run_id", result.RunID,
		"tables", len(result.Tables),
		"rows", len(result.Rows),
		"leaves", result.Summary.Leaves,
		"cycles", result.Summary.Cycles,
		"depth_limited", result.Summary.DepthLimited,
		"unresolved", result.Summary.Unresolved)

	return result, nil
}

// baseRow is the unexpanded row every stored column contributes, reference
// or not.
func baseRow(table types.Table, col types.Column) expand.ExportRow {
	return expand.ExportRow{
		TableName:         table.Name,
		IsKey:             col.IsKey,
		FieldName:         col.FieldName,
		IsCalculated:      col.IsCalculated,
		Description:       col.Description,
		DataType:          col.DataType,
		ID:                strconv.FormatInt(col.ID, 10),
		TableID:           col.TableID,
		ReferencedTableID: col.ReferencedTableID,
	}
}

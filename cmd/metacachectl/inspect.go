// Copyright 2025 The MetaCache Authors
// This file is part of metacache.
//
// metacache is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// metacache is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with metacache. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsdbkit/metacache/catalog"
	"github.com/tsdbkit/metacache/metacache"
)

func newInspectCmd() *cobra.Command {
	var (
		tablePath      string
		rowsPath       string
		keyColumns     []int
		valueColumns   []int
		maxCardinality int
		maxAge         time.Duration
		inPredicates   []string
		notInPredicate []string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Build a metadata cache from a table shape and a row file, then print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := loggerFrom(cmd.Context())

			table, err := loadTableDefinition(tablePath)
			if err != nil {
				return err
			}
			rows, err := loadRows(rowsPath, table)
			if err != nil {
				return err
			}

			columnIDs := make([]catalog.ColumnID, 0, len(keyColumns)+len(valueColumns))
			for _, id := range keyColumns {
				columnIDs = append(columnIDs, catalog.ColumnID(id))
			}
			for _, id := range valueColumns {
				columnIDs = append(columnIDs, catalog.ColumnID(id))
			}

			cfg := metacache.Config{MaxCardinality: maxCardinality, MaxAge: maxAge}
			cache, err := metacache.New(metacache.SystemClock{}, table, columnIDs, cfg)
			if err != nil {
				return fmt.Errorf("configuring cache: %w", err)
			}

			for _, row := range rows {
				cache.Push(row)
			}
			log.Debug("pushed rows", zap.Int("count", len(rows)), zap.Int("cardinality", cache.Cardinality()))

			cache.Prune()
			log.Debug("pruned", zap.Int("cardinality", cache.Cardinality()))

			predicates, err := parsePredicates(inPredicates, notInPredicate)
			if err != nil {
				return err
			}
			rec, err := cache.ToRecordBatch(predicates)
			if err != nil {
				return fmt.Errorf("evaluating predicates: %w", err)
			}
			defer rec.Release()

			printRecord(cmd, rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&tablePath, "table", "", "path to a table definition JSON file")
	cmd.Flags().StringVar(&rowsPath, "rows", "", "path to a newline-delimited JSON row file")
	cmd.Flags().IntSliceVar(&keyColumns, "key", nil, "ordered key column ids")
	cmd.Flags().IntSliceVar(&valueColumns, "value", nil, "ordered value column ids, appended after key columns")
	cmd.Flags().IntVar(&maxCardinality, "max-cardinality", metacache.DefaultMaxCardinality, "cardinality bound")
	cmd.Flags().DurationVar(&maxAge, "max-age", metacache.DefaultMaxAge, "age bound")
	cmd.Flags().StringArrayVar(&inPredicates, "in", nil, "colid=v1,v2 inclusion predicate, repeatable")
	cmd.Flags().StringArrayVar(&notInPredicate, "not-in", nil, "colid=v1,v2 exclusion predicate, repeatable")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("rows")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

// parsePredicates turns "colid=v1,v2" flag values into the column-id-keyed
// predicate map ToRecordBatch expects.
func parsePredicates(in, notIn []string) (map[catalog.ColumnID]*metacache.Predicate, error) {
	out := make(map[catalog.ColumnID]*metacache.Predicate)
	apply := func(raw string, build func(...string) *metacache.Predicate) error {
		colIDStr, values, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("predicate %q must be colid=v1,v2", raw)
		}
		id, err := strconv.Atoi(colIDStr)
		if err != nil {
			return fmt.Errorf("predicate %q: invalid column id: %w", raw, err)
		}
		col := catalog.ColumnID(id)
		if _, dup := out[col]; dup {
			return fmt.Errorf("column %d has more than one predicate", id)
		}
		out[col] = build(strings.Split(values, ",")...)
		return nil
	}
	for _, raw := range in {
		if err := apply(raw, metacache.NewIn); err != nil {
			return nil, err
		}
	}
	for _, raw := range notIn {
		if err := apply(raw, metacache.NewNotIn); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func printRecord(cmd *cobra.Command, rec arrow.Record) {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\t"))

	cols := make([]*array.String, rec.NumCols())
	for i := range cols {
		cols[i] = rec.Column(i).(*array.String)
	}
	for row := int64(0); row < rec.NumRows(); row++ {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = col.Value(int(row))
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(values, "\t"))
	}
}

package main

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/kvmem/engine"
	"github.com/viant/kvmem/memory"
	"github.com/viant/kvmem/memtab"
	"github.com/viant/kvmem/snapshot"
	"github.com/viant/kvmem/vector"
)

const defaultInspectSQL = "SELECT slot, value, age FROM slots ORDER BY age, slot LIMIT 20"

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run SQL over the slots of a saved memory",
		Long: `inspect loads the latest snapshot from --db, exposes it as the virtual
table "slots" (slot, value, age, key, hidden score) and prints the rows of
--sql. Use "WHERE key MATCH '[...]'" for nearest-neighbour lookups; the
vec_cosine, vec_l2, vec_dot and vec_normalize functions are available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			dsn, _ := flags.GetString("db")
			if dsn == "" {
				return fmt.Errorf("--db is required")
			}
			table, _ := flags.GetString("table")
			if table == "" {
				table = cfg.Table
			}
			query, _ := flags.GetString("sql")

			mem, err := loadLatest(cmd, dsn, table)
			if err != nil {
				return err
			}
			// functions and modules attach to connections opened after registration
			if err := engine.RegisterVectorFunctions(nil); err != nil {
				return err
			}
			db, err := engine.OpenSingle(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := memtab.CreateTable(cmd.Context(), db, "temp.slots", mem); err != nil {
				return err
			}
			logger.Debug("snapshot loaded", "table", table, "capacity", mem.Store().Len())
			return printQuery(cmd, db, query)
		},
	}
	cmd.Flags().String("db", "", "SQLite DSN holding the snapshot")
	cmd.Flags().String("table", "", "Snapshot table (default from config)")
	cmd.Flags().String("sql", defaultInspectSQL, "Query to run against the slots table")
	return cmd
}

func loadLatest(cmd *cobra.Command, dsn, table string) (*memory.Memory, error) {
	db, err := engine.OpenSingle(dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return snapshot.Load(cmd.Context(), db, table)
}

func printQuery(cmd *cobra.Command, db *sql.DB, query string) error {
	rows, err := db.QueryContext(cmd.Context(), query)
	if err != nil {
		return err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return rows.Err()
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if vec, err := vector.DecodeEmbedding(val); err == nil && vec != nil {
			return fmt.Sprint(vec)
		}
		return fmt.Sprintf("x'%x'", val)
	case float64:
		return fmt.Sprintf("%.6g", val)
	default:
		return fmt.Sprint(val)
	}
}

package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
)

const salesQuery = `SELECT SUM(units * price) FROM tickets WHERE type = ?`

// formatTotal renders a SUM() result the way SQLite reports it. A NULL sum
// (no matching rows) is written as 0.
func formatTotal(v any) string {
	switch t := v.(type) {
	case nil:
		return "0"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

type ticketSales struct{ host Host }

func newGoldTicketSales(h Host) *ticketSales { return &ticketSales{host: h} }

func (o *ticketSales) Spec() operation.Spec {
	return operation.Spec{
		Name:        "calculate_gold_ticket_sales",
		Description: "Calculate total sales (units * price) of one ticket type in a SQLite database",
		Params: []operation.Param{
			pathParam("db_file_path", "Path to SQLite database file"),
			outputParam("output_file_path", "Path to output sales total file"),
			{
				Name:        "ticket_type",
				Type:        operation.TypeString,
				Description: "Ticket type to total",
				Default:     "Gold",
			},
		},
	}
}

func (o *ticketSales) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	dbArg, err := args.RequireString("db_file_path")
	if err != nil {
		return nil, err
	}
	out, err := args.RequireString("output_file_path")
	if err != nil {
		return nil, apperr.Invalid("invalid output filename")
	}
	ticketType, err := args.RequireString("ticket_type")
	if err != nil {
		return nil, err
	}
	dbPath, err := o.host.FS.Resolve(dbArg)
	if err != nil {
		return nil, err
	}
	if _, err := o.host.FS.CheckTarget(out); err != nil {
		return nil, err
	}
	if _, err := o.host.FS.SafeStat(dbArg); err != nil {
		return nil, err
	}

	total, err := querySales(ctx, dbPath, ticketType)
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	if err := o.host.FS.SafeWriteFile(out, []byte(total)); err != nil {
		return nil, err
	}
	return operation.FileCreated(out), nil
}

func querySales(ctx context.Context, path, ticketType string) (string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var v any
	if err := db.QueryRowContext(ctx, salesQuery, ticketType).Scan(&v); err != nil {
		return "", err
	}
	return formatTotal(v), nil
}

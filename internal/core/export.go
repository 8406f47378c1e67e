package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
)

// ExportFilename is the attachment name used for the CSV download.
const ExportFilename = "VPL_Season2_Registrations.csv"

// ExportColumns is the CSV header row. Photo file name, status and creation
// time are not exported.
var ExportColumns = []string{
	"VPL ID",
	"Full Name",
	"Age",
	"Phone",
	"CH Same?",
	"CH Mobile",
	"CH Name",
	"Current Team",
	"Prev Team",
	"Role",
	"Style",
	"Shirt Name",
	"Shirt No",
	"Size",
	"Sleeves",
	"Comments",
}

// WriteCSV writes the header and one row per player, in the given order.
func WriteCSV(w io.Writer, players []Player) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range players {
		if err := cw.Write(exportRecord(p)); err != nil {
			return fmt.Errorf("write %s: %w", p.PublicID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ListPlayers returns every registration, oldest first.
func (s *Service) ListPlayers(ctx context.Context) (players []Player, err error) {
	ctx, span := startSpan(ctx, "core.ListPlayers")
	defer func() { endSpan(span, err) }()

	players, err = s.store.List(ctx)
	if err != nil {
		return nil, persistenceError(err, "list players")
	}
	span.SetAttributes(attribute.Int("vpl.players", len(players)))
	return players, nil
}

// ExportCSV writes every registration to w as CSV. The store is read before
// anything is written, so a store failure leaves w untouched.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, players)
}

// Ping reports whether the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

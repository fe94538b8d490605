package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// WriteCSV writes a header row and one record per task. Fields containing
// commas, quotes or newlines are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, rows []Row, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(Records(rows, loc)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

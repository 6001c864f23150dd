package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// exportEntry is the JSONL shape written by Export.
type exportEntry struct {
	RequestID  string    `json:"request_id"`
	Endpoint   string    `json:"endpoint"`
	Format     string    `json:"format,omitempty"`
	Code       string    `json:"code"`
	Message    string    `json:"message,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
	DraftBytes int       `json:"draft_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Export streams every journal entry to w as zstd-compressed JSON lines,
// oldest first.
func (j *Journal) Export(w io.Writer) error {
	rows, err := j.db.Query(
		`SELECT request_id, endpoint, format, code, message, latency_ms, draft_bytes, created_at
		 FROM calls ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	enc := json.NewEncoder(encoder)
	for rows.Next() {
		var e exportEntry
		var createdAt string
		if err := rows.Scan(&e.RequestID, &e.Endpoint, &e.Format, &e.Code, &e.Message,
			&e.LatencyMS, &e.DraftBytes, &createdAt); err != nil {
			encoder.Close()
			return fmt.Errorf("scan journal row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if err := enc.Encode(e); err != nil {
			encoder.Close()
			return fmt.Errorf("encode entry: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		encoder.Close()
		return err
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

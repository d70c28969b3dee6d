package db

import (
	"fmt"
	"strings"
)

func normalizeKeyword(kw string) string {
	return strings.Join(strings.Fields(strings.ToLower(kw)), " ")
}

// EnqueueKeyword adds a keyword to the intake queue. When the keyword is
// already queued its row is left alone unless refresh is set, in which case
// volume, kd and source are updated and the row is made unprocessed again.
// Returns whether a row was inserted or refreshed.
func (d *DB) EnqueueKeyword(q QueuedKeyword, refresh bool) (bool, error) {
	kw := normalizeKeyword(q.Keyword)
	if kw == "" {
		return false, fmt.Errorf("enqueue: empty keyword")
	}

	conflict := `DO NOTHING`
	if refresh {
		conflict = `DO UPDATE SET volume = excluded.volume, kd = excluded.kd, source = excluded.source,
			status = 'unprocessed', processed_at = NULL`
	}
	res, err := d.conn.Exec(`
		INSERT INTO keyword_queue (keyword, volume, kd, source, status, created_at)
		VALUES (?, ?, ?, ?, 'unprocessed', ?)
		ON CONFLICT (keyword) `+conflict,
		kw, q.Volume, q.KD, q.Source, d.nowMillis())
	if err != nil {
		return false, fmt.Errorf("enqueueing %q: %w", kw, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// NextKeywords returns up to limit unprocessed keywords, highest volume first.
func (d *DB) NextKeywords(limit int) ([]QueuedKeyword, error) {
	rows, err := d.conn.Query(`
		SELECT keyword, volume, kd, source, status, created_at, processed_at
		FROM keyword_queue WHERE status = 'unprocessed'
		ORDER BY volume DESC, created_at, keyword LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueuedKeyword
	for rows.Next() {
		var q QueuedKeyword
		if err := rows.Scan(&q.Keyword, &q.Volume, &q.KD, &q.Source, &q.Status, &q.CreatedAt, &q.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// MarkKeywordProcessed marks a queued keyword as attempted.
func (d *DB) MarkKeywordProcessed(keyword string) error {
	kw := normalizeKeyword(keyword)
	return d.execOne("marking processed", kw,
		`UPDATE keyword_queue SET status = 'processed', processed_at = ? WHERE keyword = ?`,
		d.nowMillis(), kw)
}

// KeywordCounts returns the queue size per status.
func (d *DB) KeywordCounts() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT status, COUNT(*) FROM keyword_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{QueueUnprocessed: 0, QueueProcessed: 0}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

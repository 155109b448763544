package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ademuri/vibe-gigs/internal/extract"
)

func (s *Store) GetSessionKey(user string) (string, error) {
	row := s.db.QueryRow("SELECT session_key FROM User WHERE name = ? AND session_key <> ''", user)
	var key string
	err := row.Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting session key: %w", err)
	}
	return key, nil
}

func (s *Store) GetLastUpdated(user string) (time.Time, error) {
	row := s.db.QueryRow("SELECT last_updated FROM User WHERE name = ?", user)
	var t sql.NullTime
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("getting last updated: %w", err)
	}
	return t.Time, nil
}

// GetLatestListen returns the time of the user's newest scrobble, or the
// zero time if there is none.
func (s *Store) GetLatestListen(user string) (time.Time, error) {
	query := "SELECT date FROM Listen WHERE user = ? ORDER BY CAST(date AS INTEGER) desc LIMIT 1"
	row := s.db.QueryRow(query, user)
	var dateStr string
	err := row.Scan(&dateStr)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("scanning latest listen: %w", err)
	}
	return parseDate(dateStr)
}

// Older rows hold RFC 3339 strings instead of Unix seconds.
func parseDate(dateStr string) (time.Time, error) {
	if uts, err := strconv.ParseInt(dateStr, 10, 64); err == nil {
		return time.Unix(uts, 0), nil
	}
	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", dateStr, err)
	}
	return t, nil
}

// ListeningRecords returns the user's most recent scrobbles, newest first,
// as listening history. The title reads "Artist - Track" so that the artist
// is recovered the same way as from a video title. limit <= 0 means all.
func (s *Store) ListeningRecords(user string, limit int) ([]extract.Record, error) {
	query := `
		SELECT Track.artist, Track.name
		FROM Listen
		INNER JOIN Track ON Track.id = Listen.track
		WHERE Listen.user = ?
		ORDER BY CAST(Listen.date AS INTEGER) DESC, Listen.id DESC
	`
	args := []any{user}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listens: %w", err)
	}
	defer rows.Close()

	var records []extract.Record
	for rows.Next() {
		var artist, track string
		if err := rows.Scan(&artist, &track); err != nil {
			return nil, err
		}
		records = append(records, extract.Record{
			Title:       artist + " - " + track,
			ChannelText: artist,
		})
	}
	return records, rows.Err()
}

// GetArtistsNeedingTagUpdate lists artists with more than ten listens whose
// tags are missing or older than interval.
func (s *Store) GetArtistsNeedingTagUpdate(interval time.Duration) ([]string, error) {
	threshold := time.Now().Add(-interval)
	query := `
		SELECT t.artist
		FROM Listen l
		JOIN Track t ON l.track = t.id
		JOIN Artist a ON t.artist = a.name
		WHERE (a.tags_last_updated IS NULL OR a.tags_last_updated < ?)
		GROUP BY t.artist
		HAVING COUNT(*) > 10
	`
	rows, err := s.db.Query(query, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying artists for tag update: %w", err)
	}
	defer rows.Close()

	var artists []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// ArtistTags returns, per artist the user has listened to, the artist's tags
// with at least minCount votes, most voted first.
func (s *Store) ArtistTags(user string, minCount int) (map[string][]string, error) {
	query := `
		SELECT at.artist, at.tag
		FROM ArtistTag at
		WHERE at.count >= ?
		AND at.artist IN (
			SELECT DISTINCT Track.artist
			FROM Listen
			INNER JOIN Track ON Track.id = Listen.track
			WHERE Listen.user = ?
		)
		ORDER BY at.artist, at.count DESC, at.tag
	`
	rows, err := s.db.Query(query, minCount, user)
	if err != nil {
		return nil, fmt.Errorf("querying artist tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var artist, tag string
		if err := rows.Scan(&artist, &tag); err != nil {
			return nil, err
		}
		tags[artist] = append(tags[artist], tag)
	}
	return tags, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// TrackImport is one scrobble as returned by user.getRecentTracks.
type TrackImport struct {
	Artist    string
	Album     string
	TrackName string
	DateUTS   string
}

// CreateUser ensures a user exists in the database.
func (s *Store) CreateUser(user string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO User (name) VALUES (?)", user)
	if err != nil {
		return fmt.Errorf("inserting user %q: %w", user, err)
	}
	return nil
}

func (s *Store) SetLastUpdated(user string, updated time.Time) error {
	_, err := s.db.Exec("UPDATE User SET last_updated = ? WHERE name = ?", updated, user)
	if err != nil {
		return fmt.Errorf("updating last_updated for %q: %w", user, err)
	}
	return nil
}

func (s *Store) SetSessionKey(user, key string) error {
	_, err := s.db.Exec("UPDATE User SET session_key = ? WHERE name = ?", key, user)
	if err != nil {
		return fmt.Errorf("updating session key for %q: %w", user, err)
	}
	return nil
}

// AddRecentTracks inserts a batch of scrobbles in one transaction. Listens
// already present are skipped.
func (s *Store) AddRecentTracks(user string, tracks []TrackImport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, track := range tracks {
		if _, err := tx.Exec("INSERT OR IGNORE INTO Artist (name) VALUES (?)", track.Artist); err != nil {
			return fmt.Errorf("inserting artist %q: %w", track.Artist, err)
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO Album (artist, name) VALUES (?, ?)", track.Artist, track.Album); err != nil {
			return fmt.Errorf("inserting album %q for %q: %w", track.Album, track.Artist, err)
		}
		trackID, err := createTrack(tx, track.Artist, track.Album, track.TrackName)
		if err != nil {
			return err
		}
		if err := createListen(tx, user, trackID, track.DateUTS); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func createTrack(tx *sql.Tx, artist, album, name string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM Track WHERE artist = ? AND album = ? AND name = ?", artist, album, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking track %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO Track (artist, album, name) VALUES (?, ?, ?)", artist, album, name)
	if err != nil {
		return 0, fmt.Errorf("inserting track %q: %w", name, err)
	}
	return res.LastInsertId()
}

func createListen(tx *sql.Tx, user string, trackID int64, date string) error {
	var id int64
	err := tx.QueryRow("SELECT id FROM Listen WHERE user = ? AND date = ? AND track = ?", user, date, trackID).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking listen: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO Listen (user, track, date) VALUES (?, ?, ?)", user, trackID, date); err != nil {
		return fmt.Errorf("inserting listen: %w", err)
	}
	return nil
}

// SaveArtistTags upserts the artist's tag counts and stamps the artist as
// freshly tagged.
func (s *Store) SaveArtistTags(artist string, tags []string, counts []int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, tag := range tags {
		count := 0
		if i < len(counts) {
			count = counts[i]
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO Tag (name) VALUES (?)", tag); err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag, err)
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO ArtistTag (artist, tag, count) VALUES (?, ?, ?)", artist, tag, count); err != nil {
			return fmt.Errorf("linking tag %q to artist %q: %w", tag, artist, err)
		}
	}

	if _, err := tx.Exec("UPDATE Artist SET tags_last_updated = ? WHERE name = ?", time.Now(), artist); err != nil {
		return fmt.Errorf("updating artist tag timestamp: %w", err)
	}
	return tx.Commit()
}

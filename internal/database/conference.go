package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// conferenceCentreRepo implements ConferenceCentreRepository.
type conferenceCentreRepo struct {
	db *DB
}

// NewConferenceCentreRepository creates a new ConferenceCentreRepository.
func NewConferenceCentreRepository(db *DB) ConferenceCentreRepository {
	return &conferenceCentreRepo{db: db}
}

// Create inserts a new conference centre, generating its UUID if unset.
func (r *conferenceCentreRepo) Create(ctx context.Context, c *models.ConferenceCentre) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conference_centres (id, domain_id, name, extension, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))`,
		c.ID, c.DomainID, c.Name, c.Extension, c.Enabled,
	)
	if err != nil {
		return fmt.Errorf("inserting conference centre: %w", err)
	}
	return nil
}

// GetByID returns a conference centre by UUID.
func (r *conferenceCentreRepo) GetByID(ctx context.Context, id string) (*models.ConferenceCentre, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, name, extension, enabled, created_at
		 FROM conference_centres WHERE id = ?`, id,
	)

	var c models.ConferenceCentre
	err := row.Scan(&c.ID, &c.DomainID, &c.Name, &c.Extension, &c.Enabled, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conference centre: %w", err)
	}
	return &c, nil
}

// conferenceRoomRepo implements ConferenceRoomRepository.
type conferenceRoomRepo struct {
	db *DB
}

// NewConferenceRoomRepository creates a new ConferenceRoomRepository.
func NewConferenceRoomRepository(db *DB) ConferenceRoomRepository {
	return &conferenceRoomRepo{db: db}
}

const roomColumns = `id, centre_id, name, profile, participant_pin, moderator_pin,
	 max_members, record, wait_mod, announce, sounds, mute, enabled, created_at`

// Create inserts a new conference room, generating its UUID if unset.
func (r *conferenceRoomRepo) Create(ctx context.Context, room *models.ConferenceRoom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conference_rooms (id, centre_id, name, profile, participant_pin,
		 moderator_pin, max_members, record, wait_mod, announce, sounds, mute,
		 enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		room.ID, room.CentreID, room.Name, room.Profile, room.ParticipantPIN,
		room.ModeratorPIN, room.MaxMembers, room.Record, room.WaitMod,
		room.Announce, room.Sounds, room.Mute, room.Enabled,
	)
	if err != nil {
		return fmt.Errorf("inserting conference room: %w", err)
	}
	return nil
}

// GetByID returns a conference room by UUID.
func (r *conferenceRoomRepo) GetByID(ctx context.Context, id string) (*models.ConferenceRoom, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM conference_rooms WHERE id = ?`, id,
	))
}

// MatchPIN returns the first enabled room in the centre whose participant
// or moderator PIN matches.
func (r *conferenceRoomRepo) MatchPIN(ctx context.Context, centreID, pin string) (*models.ConferenceRoom, error) {
	if pin == "" {
		return nil, nil
	}
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+`
		 FROM conference_rooms
		 WHERE centre_id = ? AND enabled = 1
		   AND (participant_pin = ? OR moderator_pin = ?)
		 ORDER BY created_at
		 LIMIT 1`,
		centreID, pin, pin,
	))
}

func (r *conferenceRoomRepo) scanOne(row *sql.Row) (*models.ConferenceRoom, error) {
	var room models.ConferenceRoom
	err := row.Scan(&room.ID, &room.CentreID, &room.Name, &room.Profile,
		&room.ParticipantPIN, &room.ModeratorPIN, &room.MaxMembers, &room.Record,
		&room.WaitMod, &room.Announce, &room.Sounds, &room.Mute, &room.Enabled,
		&room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conference room: %w", err)
	}
	return &room, nil
}

// conferenceSessionRepo implements ConferenceSessionRepository.
type conferenceSessionRepo struct {
	db *DB
}

// NewConferenceSessionRepository creates a new ConferenceSessionRepository.
func NewConferenceSessionRepository(db *DB) ConferenceSessionRepository {
	return &conferenceSessionRepo{db: db}
}

// Create inserts a new conference session, generating its UUID if unset.
// New sessions start live.
func (r *conferenceSessionRepo) Create(ctx context.Context, sess *models.ConferenceSession) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Live = true
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conference_sessions (id, room_id, profile, live, recording,
		 caller_id_name, caller_id_number, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		sess.ID, sess.RoomID, sess.Profile, sess.Live, sess.Recording,
		sess.CallerIDName, sess.CallerIDNumber,
	)
	if err != nil {
		return fmt.Errorf("inserting conference session: %w", err)
	}
	return nil
}

// GetByID returns a conference session by UUID.
func (r *conferenceSessionRepo) GetByID(ctx context.Context, id string) (*models.ConferenceSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, room_id, profile, live, recording, caller_id_name,
		 caller_id_number, created_at, updated_at
		 FROM conference_sessions WHERE id = ?`, id,
	)

	var s models.ConferenceSession
	err := row.Scan(&s.ID, &s.RoomID, &s.Profile, &s.Live, &s.Recording,
		&s.CallerIDName, &s.CallerIDNumber, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conference session: %w", err)
	}
	return &s, nil
}

// Update modifies an existing conference session.
func (r *conferenceSessionRepo) Update(ctx context.Context, sess *models.ConferenceSession) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conference_sessions SET live = ?, recording = ?, caller_id_name = ?,
		 caller_id_number = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		sess.Live, sess.Recording, sess.CallerIDName, sess.CallerIDNumber, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("updating conference session: %w", err)
	}
	return nil
}

// CountLive returns the number of live sessions for a room.
func (r *conferenceSessionRepo) CountLive(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conference_sessions WHERE room_id = ? AND live = 1`,
		roomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting live conference sessions: %w", err)
	}
	return count, nil
}

// CountAllLive returns the number of live sessions across all rooms.
func (r *conferenceSessionRepo) CountAllLive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conference_sessions WHERE live = 1`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting live conference sessions: %w", err)
	}
	return count, nil
}

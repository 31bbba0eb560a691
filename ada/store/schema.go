package store

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	id               BIGSERIAL PRIMARY KEY,
	sender           TEXT NOT NULL,
	name             TEXT NOT NULL,
	surname          TEXT NOT NULL DEFAULT '',
	"date"           TEXT NOT NULL,
	"time"           TEXT NOT NULL,
	reservation_type TEXT NOT NULL DEFAULT '',
	party_size       INTEGER NOT NULL CHECK (party_size BETWEEN 1 AND 500),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reservations_sender_idx ON reservations (sender);
`

const insertReservation = `
INSERT INTO reservations (sender, name, surname, "date", "time", reservation_type, party_size)
VALUES (:sender, :name, :surname, :date, :time, :reservation_type, :party_size)
RETURNING id`

const selectRecent = `
SELECT id, sender, name, surname, "date", "time", reservation_type, party_size, created_at
FROM reservations
ORDER BY id DESC
LIMIT $1`

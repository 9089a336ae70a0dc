// Package sqlstore is the SQLite-backed plan store, used by single-node
// deployments and the CLI. It implements plan.Store.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/safeplate/haccp/internal/plan"
)

const schema = `
CREATE TABLE IF NOT EXISTS plans (
    plan_id        TEXT PRIMARY KEY,
    owner_subject  TEXT NOT NULL DEFAULT '',
    payment_status TEXT NOT NULL DEFAULT 'unpaid',
    version_number INTEGER NOT NULL,
    body_json      TEXT NOT NULL,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);
`

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) PutPlan(p plan.Plan) (plan.Plan, error) {
	if p.ID == "" {
		return plan.Plan{}, fmt.Errorf("missing plan id")
	}

	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return plan.Plan{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	var createdAt string
	err = tx.QueryRow(`SELECT version_number, created_at FROM plans WHERE plan_id = ?`, p.ID).
		Scan(&version, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		p.VersionNumber = 1
		p.CreatedAt = now
	case err != nil:
		return plan.Plan{}, err
	default:
		p.VersionNumber = version + 1
		p.CreatedAt = createdAt
	}
	p.UpdatedAt = now

	body, err := json.Marshal(p)
	if err != nil {
		return plan.Plan{}, err
	}

	_, err = tx.Exec(`INSERT INTO plans (plan_id, owner_subject, payment_status, version_number, body_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(plan_id) DO UPDATE SET
    owner_subject = excluded.owner_subject,
    payment_status = excluded.payment_status,
    version_number = excluded.version_number,
    body_json = excluded.body_json,
    updated_at = excluded.updated_at`,
		p.ID, p.OwnerSubject, p.PaymentStatus, p.VersionNumber, string(body), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return plan.Plan{}, err
	}
	if err := tx.Commit(); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}

func (s *Store) GetPlan(planID string) (plan.Plan, bool) {
	var body string
	row := s.db.QueryRow(`SELECT body_json FROM plans WHERE plan_id = ?`, planID)
	if err := row.Scan(&body); err != nil {
		return plan.Plan{}, false
	}
	var p plan.Plan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return plan.Plan{}, false
	}
	return p, true
}

func (s *Store) PutValidation(planID string, v *plan.ValidationVerdict) error {
	return s.update(planID, func(p *plan.Plan) {
		p.FullPlan.Validation = v
	})
}

func (s *Store) SetPaymentStatus(planID string, status string) error {
	return s.update(planID, func(p *plan.Plan) {
		p.PaymentStatus = status
	})
}

func (s *Store) ListPlanIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT plan_id FROM plans ORDER BY plan_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) update(planID string, mutate func(*plan.Plan)) error {
	p, ok := s.GetPlan(planID)
	if !ok {
		return fmt.Errorf("plan %s not found", planID)
	}
	mutate(&p)

	now := time.Now().UTC().Format(time.RFC3339)
	p.VersionNumber++
	p.UpdatedAt = now

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE plans SET owner_subject = ?, payment_status = ?, version_number = ?, body_json = ?, updated_at = ? WHERE plan_id = ?`,
		p.OwnerSubject, p.PaymentStatus, p.VersionNumber, string(body), now, planID)
	return err
}

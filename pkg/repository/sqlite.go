package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	_ "modernc.org/sqlite"
)

// SQLite implements Repository on an embedded SQLite database
type SQLite struct {
	db *sql.DB
}

var _ Repository = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS companies (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	name_lower    TEXT NOT NULL,
	website       TEXT NOT NULL DEFAULT '',
	phone_number  TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	sector        TEXT NOT NULL DEFAULT '',
	business_type TEXT NOT NULL DEFAULT '',
	sales_id      INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS contacts (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name       TEXT NOT NULL,
	last_name        TEXT NOT NULL,
	first_name_lower TEXT NOT NULL,
	last_name_lower  TEXT NOT NULL,
	company_id       INTEGER,
	title            TEXT NOT NULL DEFAULT '',
	email_jsonb      TEXT NOT NULL DEFAULT '[]',
	phone_jsonb      TEXT NOT NULL DEFAULT '[]',
	tags             TEXT NOT NULL DEFAULT '[]',
	patient_type     TEXT NOT NULL DEFAULT '',
	referring_doctor TEXT NOT NULL DEFAULT '',
	sales_id         INTEGER NOT NULL,
	first_seen       TEXT NOT NULL,
	last_seen        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pipelines (
	id         INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0,
	position   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS pipeline_stages (
	pipeline_id INTEGER NOT NULL,
	value       TEXT NOT NULL,
	label       TEXT NOT NULL,
	position    INTEGER NOT NULL,
	PRIMARY KEY (pipeline_id, value)
);
CREATE TABLE IF NOT EXISTS deals (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	name                  TEXT NOT NULL,
	company_id            INTEGER,
	contact_ids           TEXT NOT NULL DEFAULT '[]',
	amount                REAL NOT NULL,
	stage                 TEXT NOT NULL,
	pipeline_id           INTEGER NOT NULL,
	position              INTEGER NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	category              TEXT NOT NULL DEFAULT '',
	expected_closing_date TEXT NOT NULL DEFAULT '',
	sales_id              INTEGER NOT NULL,
	created_at            TEXT NOT NULL,
	updated_at            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS contacts_name ON contacts (last_name_lower, first_name_lower);
CREATE INDEX IF NOT EXISTS deals_stage_position ON deals (pipeline_id, stage, position);
CREATE TABLE IF NOT EXISTS tasks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	contact_id INTEGER NOT NULL,
	type       TEXT NOT NULL,
	text       TEXT NOT NULL,
	due_date   TEXT NOT NULL,
	done_date  TEXT,
	sales_id   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS contact_notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	contact_id INTEGER NOT NULL,
	text       TEXT NOT NULL,
	date       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT '',
	sales_id   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS deal_notes (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	deal_id  INTEGER NOT NULL,
	text     TEXT NOT NULL,
	date     TEXT NOT NULL,
	sales_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sales (
	id         INTEGER PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT ''
);
`

// NewSQLite opens (and creates if needed) a database file at path
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to migrate sqlite database", goerr.V("path", path))
	}

	return &SQLite{db: db}, nil
}

func (r *SQLite) Close() error {
	return r.db.Close()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid timestamp", goerr.V("value", s))
	}
	return t, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const companyColumns = `id, name, website, phone_number, address, sector, business_type, sales_id, created_at`

func scanCompany(row rowScanner) (*model.Company, error) {
	var (
		c         model.Company
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Website, &c.PhoneNumber, &c.Address, &c.Sector, &c.BusinessType, &c.SalesID, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}

func (r *SQLite) SearchCompanies(ctx context.Context, name string, limit int) ([]*model.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies
		 WHERE name_lower LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY id LIMIT ?`,
		escapeLike(strings.ToLower(name)), limit,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search companies", goerr.V("name", name))
	}
	defer rows.Close()

	var companies []*model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan company")
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate companies")
	}
	return companies, nil
}

func (r *SQLite) InsertCompany(ctx context.Context, company *model.Company) (*model.Company, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (name, name_lower, website, phone_number, address, sector, business_type, sales_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		company.Name, strings.ToLower(company.Name), company.Website, company.PhoneNumber, company.Address, company.Sector,
		string(company.BusinessType), int64(company.SalesID), formatTime(company.CreatedAt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert company", goerr.V("name", company.Name))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get company id")
	}

	created := *company
	created.ID = model.CompanyID(id)
	return &created, nil
}

func (r *SQLite) GetCompany(ctx context.Context, id model.CompanyID) (*model.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, int64(id))
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "company not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get company", goerr.V("id", id))
	}
	return c, nil
}

const contactColumns = `id, first_name, last_name, company_id, title, email_jsonb, phone_jsonb, tags, patient_type, referring_doctor, sales_id, first_seen, last_seen`

func scanContact(row rowScanner) (*model.Contact, error) {
	var (
		c                    model.Contact
		companyID            sql.NullInt64
		emails, phones, tags string
		firstSeen, lastSeen  string
	)
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &companyID, &c.Title, &emails, &phones, &tags,
		&c.PatientType, &c.ReferringDoctor, &c.SalesID, &firstSeen, &lastSeen); err != nil {
		return nil, err
	}
	c.CompanyID = model.CompanyID(companyID.Int64)

	if err := json.Unmarshal([]byte(emails), &c.Emails); err != nil {
		return nil, goerr.Wrap(err, "invalid email collection", goerr.V("contact_id", c.ID))
	}
	if err := json.Unmarshal([]byte(phones), &c.Phones); err != nil {
		return nil, goerr.Wrap(err, "invalid phone collection", goerr.V("contact_id", c.ID))
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, goerr.Wrap(err, "invalid tags", goerr.V("contact_id", c.ID))
	}

	var err error
	if c.FirstSeen, err = parseTime(firstSeen); err != nil {
		return nil, err
	}
	if c.LastSeen, err = parseTime(lastSeen); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLite) queryContacts(ctx context.Context, query string, args ...any) ([]*model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query contacts")
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan contact")
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate contacts")
	}
	return contacts, nil
}

func (r *SQLite) FindContactByEmail(ctx context.Context, email string) (*model.Contact, error) {
	contacts, err := r.queryContacts(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE EXISTS (
			SELECT 1 FROM json_each(contacts.email_jsonb) AS e
			WHERE json_extract(e.value, '$.email') = ?
		 )
		 ORDER BY id LIMIT 1`,
		email,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find contact by email", goerr.V("email", email))
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return contacts[0], nil
}

func (r *SQLite) SearchContactsByName(ctx context.Context, firstName, lastName string, limit int) ([]*model.Contact, error) {
	contacts, err := r.queryContacts(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE first_name_lower = ? AND last_name_lower = ?
		 ORDER BY id LIMIT ?`,
		strings.ToLower(firstName), strings.ToLower(lastName), limit,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search contacts by name",
			goerr.V("first_name", firstName), goerr.V("last_name", lastName))
	}
	return contacts, nil
}

func marshalList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal list")
	}
	return string(data), nil
}

func (r *SQLite) InsertContact(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	emails, err := marshalList(contact.Emails)
	if err != nil {
		return nil, err
	}
	phones, err := marshalList(contact.Phones)
	if err != nil {
		return nil, err
	}
	tags, err := marshalList(contact.Tags)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (first_name, last_name, first_name_lower, last_name_lower, company_id, title,
			email_jsonb, phone_jsonb, tags, patient_type, referring_doctor, sales_id, first_seen, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.FirstName, contact.LastName, strings.ToLower(contact.FirstName), strings.ToLower(contact.LastName),
		nullableID(int64(contact.CompanyID)), contact.Title,
		emails, phones, tags, string(contact.PatientType), contact.ReferringDoctor,
		int64(contact.SalesID), formatTime(contact.FirstSeen), formatTime(contact.LastSeen),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert contact", goerr.V("name", contact.FullName()))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get contact id")
	}

	created := *contact
	created.ID = model.ContactID(id)
	return &created, nil
}

func (r *SQLite) GetContact(ctx context.Context, id model.ContactID) (*model.Contact, error) {
	contacts, err := r.queryContacts(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, int64(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("id", id))
	}
	if len(contacts) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("id", id))
	}
	return contacts[0], nil
}

func (r *SQLite) TouchContact(ctx context.Context, id model.ContactID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contacts SET last_seen = ? WHERE id = ?`, formatTime(at), int64(id))
	if err != nil {
		return goerr.Wrap(err, "failed to update contact last_seen", goerr.V("id", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to get affected rows")
	}
	if n == 0 {
		return goerr.Wrap(ErrNotFound, "contact not found", goerr.V("id", id))
	}
	return nil
}

func (r *SQLite) loadStages(ctx context.Context, p *model.Pipeline) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT value, label, position FROM pipeline_stages WHERE pipeline_id = ? ORDER BY position, value`,
		int64(p.ID),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to query stages", goerr.V("pipeline_id", p.ID))
	}
	defer rows.Close()

	p.Stages = nil
	for rows.Next() {
		var s model.Stage
		if err := rows.Scan(&s.Value, &s.Label, &s.Position); err != nil {
			return goerr.Wrap(err, "failed to scan stage")
		}
		p.Stages = append(p.Stages, &s)
	}
	return rows.Err()
}

func (r *SQLite) queryPipeline(ctx context.Context, query string, args ...any) (*model.Pipeline, error) {
	var (
		p         model.Pipeline
		isDefault int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Name, &isDefault, &p.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query pipeline")
	}
	p.IsDefault = isDefault != 0

	if err := r.loadStages(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLite) GetDefaultPipeline(ctx context.Context) (*model.Pipeline, error) {
	return r.queryPipeline(ctx,
		`SELECT id, name, is_default, position FROM pipelines WHERE is_default = 1 ORDER BY position, id LIMIT 1`)
}

func (r *SQLite) GetFirstPipeline(ctx context.Context) (*model.Pipeline, error) {
	return r.queryPipeline(ctx,
		`SELECT id, name, is_default, position FROM pipelines ORDER BY position, id LIMIT 1`)
}

func (r *SQLite) GetPipeline(ctx context.Context, id model.PipelineID) (*model.Pipeline, error) {
	p, err := r.queryPipeline(ctx,
		`SELECT id, name, is_default, position FROM pipelines WHERE id = ?`, int64(id))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, goerr.Wrap(ErrNotFound, "pipeline not found", goerr.V("id", id))
	}
	return p, nil
}

func (r *SQLite) PutPipeline(ctx context.Context, pipeline *model.Pipeline) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	isDefault := 0
	if pipeline.IsDefault {
		isDefault = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pipelines (id, name, is_default, position) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, is_default = excluded.is_default, position = excluded.position`,
		int64(pipeline.ID), pipeline.Name, isDefault, pipeline.Position,
	); err != nil {
		return goerr.Wrap(err, "failed to put pipeline", goerr.V("id", pipeline.ID))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pipeline_stages WHERE pipeline_id = ?`, int64(pipeline.ID)); err != nil {
		return goerr.Wrap(err, "failed to clear stages", goerr.V("id", pipeline.ID))
	}
	for _, s := range pipeline.Stages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pipeline_stages (pipeline_id, value, label, position) VALUES (?, ?, ?, ?)`,
			int64(pipeline.ID), s.Value, s.Label, s.Position,
		); err != nil {
			return goerr.Wrap(err, "failed to put stage", goerr.V("id", pipeline.ID), goerr.V("stage", s.Value))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit pipeline", goerr.V("id", pipeline.ID))
	}
	return nil
}

// InsertDeal computes the position and inserts the row in one statement, so
// concurrent inserts into the same stage are serialized by SQLite.
func (r *SQLite) InsertDeal(ctx context.Context, deal *model.Deal) (*model.Deal, error) {
	contactIDs, err := marshalList(deal.ContactIDs)
	if err != nil {
		return nil, err
	}

	var (
		id       int64
		position int64
	)
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO deals (name, company_id, contact_ids, amount, stage, pipeline_id, position,
			description, category, expected_closing_date, sales_id, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?, ?, ?, ?, ?
		 FROM deals WHERE pipeline_id = ? AND stage = ?
		 RETURNING id, position`,
		deal.Name, nullableID(int64(deal.CompanyID)), contactIDs, deal.Amount, deal.Stage, int64(deal.PipelineID),
		deal.Description, deal.Category, deal.ExpectedClosingDate, int64(deal.SalesID),
		formatTime(deal.CreatedAt), formatTime(deal.UpdatedAt),
		int64(deal.PipelineID), deal.Stage,
	).Scan(&id, &position)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert deal", goerr.V("name", deal.Name))
	}

	created := *deal
	created.ID = model.DealID(id)
	created.Position = position
	return &created, nil
}

func (r *SQLite) GetDeal(ctx context.Context, id model.DealID) (*model.Deal, error) {
	var (
		d                    model.Deal
		companyID            sql.NullInt64
		contactIDs           string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, company_id, contact_ids, amount, stage, pipeline_id, position,
			description, category, expected_closing_date, sales_id, created_at, updated_at
		 FROM deals WHERE id = ?`, int64(id),
	).Scan(&d.ID, &d.Name, &companyID, &contactIDs, &d.Amount, &d.Stage, &d.PipelineID, &d.Position,
		&d.Description, &d.Category, &d.ExpectedClosingDate, &d.SalesID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "deal not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get deal", goerr.V("id", id))
	}

	d.CompanyID = model.CompanyID(companyID.Int64)
	if err := json.Unmarshal([]byte(contactIDs), &d.ContactIDs); err != nil {
		return nil, goerr.Wrap(err, "invalid contact ids", goerr.V("id", id))
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SQLite) InsertTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	var doneDate sql.NullString
	if task.DoneDate != nil {
		doneDate = sql.NullString{String: formatTime(*task.DoneDate), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (contact_id, type, text, due_date, done_date, sales_id) VALUES (?, ?, ?, ?, ?, ?)`,
		int64(task.ContactID), task.Type, task.Text, task.DueDate, doneDate, int64(task.SalesID),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert task", goerr.V("contact_id", task.ContactID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get task id")
	}

	created := *task
	created.ID = model.TaskID(id)
	return &created, nil
}

func (r *SQLite) InsertContactNote(ctx context.Context, note *model.ContactNote) (*model.ContactNote, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_notes (contact_id, text, date, status, sales_id) VALUES (?, ?, ?, ?, ?)`,
		int64(note.ContactID), note.Text, formatTime(note.Date), note.Status, int64(note.SalesID),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert contact note", goerr.V("contact_id", note.ContactID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get note id")
	}

	created := *note
	created.ID = model.NoteID(id)
	return &created, nil
}

func (r *SQLite) InsertDealNote(ctx context.Context, note *model.DealNote) (*model.DealNote, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO deal_notes (deal_id, text, date, sales_id) VALUES (?, ?, ?, ?)`,
		int64(note.DealID), note.Text, formatTime(note.Date), int64(note.SalesID),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert deal note", goerr.V("deal_id", note.DealID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get note id")
	}

	created := *note
	created.ID = model.NoteID(id)
	return &created, nil
}

func (r *SQLite) GetSalesByUserID(ctx context.Context, userID string) (*model.Sales, error) {
	var s model.Sales
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, first_name, last_name, email FROM sales WHERE user_id = ?`, userID,
	).Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sales", goerr.V("user_id", userID))
	}
	return &s, nil
}

func (r *SQLite) PutSales(ctx context.Context, sales *model.Sales) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sales (id, user_id, first_name, last_name, email) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, first_name = excluded.first_name,
			last_name = excluded.last_name, email = excluded.email`,
		int64(sales.ID), sales.UserID, sales.FirstName, sales.LastName, sales.Email,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put sales", goerr.V("id", sales.ID))
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collCompanies    = "companies"
	collContacts     = "contacts"
	collPipelines    = "pipelines"
	collDeals        = "deals"
	collTasks        = "tasks"
	collContactNotes = "contact_notes"
	collDealNotes    = "deal_notes"
	collSales        = "sales"
	collCounters     = "counters"
)

// Firestore implements Repository on Cloud Firestore. Records keep numeric
// IDs allocated from per-collection counter documents.
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

type counterDoc struct {
	Next int64 `firestore:"next"`
}

// readCounter returns the next ID for the collection. Caller must write the
// counter back with writeCounter in the same transaction.
func (r *Firestore) readCounter(tx *firestore.Transaction, collection string) (int64, error) {
	snap, err := tx.Get(r.client.Collection(collCounters).Doc(collection))
	if err != nil {
		if isNotFound(err) {
			return 1, nil
		}
		return 0, goerr.Wrap(err, "failed to read counter", goerr.V("collection", collection))
	}

	var c counterDoc
	if err := snap.DataTo(&c); err != nil {
		return 0, goerr.Wrap(err, "failed to decode counter", goerr.V("collection", collection))
	}
	if c.Next < 1 {
		c.Next = 1
	}
	return c.Next, nil
}

func (r *Firestore) writeCounter(tx *firestore.Transaction, collection string, used int64) error {
	ref := r.client.Collection(collCounters).Doc(collection)
	if err := tx.Set(ref, counterDoc{Next: used + 1}); err != nil {
		return goerr.Wrap(err, "failed to write counter", goerr.V("collection", collection))
	}
	return nil
}

// insert allocates an ID and writes the document built by build
func (r *Firestore) insert(ctx context.Context, collection string, build func(id int64) any) (int64, error) {
	var id int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next, err := r.readCounter(tx, collection)
		if err != nil {
			return err
		}
		if err := r.writeCounter(tx, collection, next); err != nil {
			return err
		}
		if err := tx.Set(r.client.Collection(collection).Doc(docID(next)), build(next)); err != nil {
			return goerr.Wrap(err, "failed to set document")
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to insert document", goerr.V("collection", collection))
	}
	return id, nil
}

func (r *Firestore) get(ctx context.Context, collection string, id int64, dst any) error {
	snap, err := r.client.Collection(collection).Doc(docID(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrNotFound, "document not found", goerr.V("collection", collection), goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get document", goerr.V("collection", collection), goerr.V("id", id))
	}
	if err := snap.DataTo(dst); err != nil {
		return goerr.Wrap(err, "failed to decode document", goerr.V("collection", collection), goerr.V("id", id))
	}
	return nil
}

type companyDoc struct {
	ID           int64     `firestore:"id"`
	Name         string    `firestore:"name"`
	NameLower    string    `firestore:"name_lower"`
	Website      string    `firestore:"website"`
	PhoneNumber  string    `firestore:"phone_number"`
	Address      string    `firestore:"address"`
	Sector       string    `firestore:"sector"`
	BusinessType string    `firestore:"business_type"`
	SalesID      int64     `firestore:"sales_id"`
	CreatedAt    time.Time `firestore:"created_at"`
}

func (d *companyDoc) toModel() *model.Company {
	return &model.Company{
		ID:           model.CompanyID(d.ID),
		Name:         d.Name,
		Website:      d.Website,
		PhoneNumber:  d.PhoneNumber,
		Address:      d.Address,
		Sector:       d.Sector,
		BusinessType: model.BusinessType(d.BusinessType),
		SalesID:      model.SalesID(d.SalesID),
		CreatedAt:    d.CreatedAt,
	}
}

// SearchCompanies scans companies in ID order and filters by substring since
// Firestore has no substring operator.
func (r *Firestore) SearchCompanies(ctx context.Context, name string, limit int) ([]*model.Company, error) {
	needle := strings.ToLower(name)
	iter := r.client.Collection(collCompanies).OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var companies []*model.Company
	for len(companies) < limit {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search companies", goerr.V("name", name))
		}

		var d companyDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode company", goerr.V("doc", snap.Ref.ID))
		}
		if strings.Contains(d.NameLower, needle) {
			companies = append(companies, d.toModel())
		}
	}
	return companies, nil
}

func (r *Firestore) InsertCompany(ctx context.Context, company *model.Company) (*model.Company, error) {
	id, err := r.insert(ctx, collCompanies, func(id int64) any {
		return &companyDoc{
			ID:           id,
			Name:         company.Name,
			NameLower:    strings.ToLower(company.Name),
			Website:      company.Website,
			PhoneNumber:  company.PhoneNumber,
			Address:      company.Address,
			Sector:       company.Sector,
			BusinessType: string(company.BusinessType),
			SalesID:      int64(company.SalesID),
			CreatedAt:    company.CreatedAt,
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert company", goerr.V("name", company.Name))
	}

	created := *company
	created.ID = model.CompanyID(id)
	return &created, nil
}

func (r *Firestore) GetCompany(ctx context.Context, id model.CompanyID) (*model.Company, error) {
	var d companyDoc
	if err := r.get(ctx, collCompanies, int64(id), &d); err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

type contactDoc struct {
	ID              int64              `firestore:"id"`
	FirstName       string             `firestore:"first_name"`
	LastName        string             `firestore:"last_name"`
	FirstNameLower  string             `firestore:"first_name_lower"`
	LastNameLower   string             `firestore:"last_name_lower"`
	CompanyID       int64              `firestore:"company_id"`
	Title           string             `firestore:"title"`
	Emails          []model.EmailEntry `firestore:"email_jsonb"`
	EmailAddresses  []string           `firestore:"email_addresses"`
	Phones          []model.PhoneEntry `firestore:"phone_jsonb"`
	Tags            []string           `firestore:"tags"`
	PatientType     string             `firestore:"patient_type"`
	ReferringDoctor string             `firestore:"referring_doctor"`
	SalesID         int64              `firestore:"sales_id"`
	FirstSeen       time.Time          `firestore:"first_seen"`
	LastSeen        time.Time          `firestore:"last_seen"`
}

func (d *contactDoc) toModel() *model.Contact {
	return &model.Contact{
		ID:              model.ContactID(d.ID),
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		CompanyID:       model.CompanyID(d.CompanyID),
		Title:           d.Title,
		Emails:          d.Emails,
		Phones:          d.Phones,
		Tags:            d.Tags,
		PatientType:     model.PatientType(d.PatientType),
		ReferringDoctor: d.ReferringDoctor,
		SalesID:         model.SalesID(d.SalesID),
		FirstSeen:       d.FirstSeen,
		LastSeen:        d.LastSeen,
	}
}

func (r *Firestore) queryContacts(ctx context.Context, q firestore.Query) ([]*model.Contact, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query contacts")
	}

	contacts := make([]*model.Contact, 0, len(snaps))
	for _, snap := range snaps {
		var d contactDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode contact", goerr.V("doc", snap.Ref.ID))
		}
		contacts = append(contacts, d.toModel())
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

func (r *Firestore) FindContactByEmail(ctx context.Context, email string) (*model.Contact, error) {
	q := r.client.Collection(collContacts).Where("email_addresses", "array-contains", email).Limit(1)
	contacts, err := r.queryContacts(ctx, q)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find contact by email", goerr.V("email", email))
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return contacts[0], nil
}

func (r *Firestore) SearchContactsByName(ctx context.Context, firstName, lastName string, limit int) ([]*model.Contact, error) {
	q := r.client.Collection(collContacts).
		Where("first_name_lower", "==", strings.ToLower(firstName)).
		Where("last_name_lower", "==", strings.ToLower(lastName)).
		Limit(limit)
	contacts, err := r.queryContacts(ctx, q)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search contacts by name",
			goerr.V("first_name", firstName), goerr.V("last_name", lastName))
	}
	return contacts, nil
}

func (r *Firestore) InsertContact(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	addresses := make([]string, 0, len(contact.Emails))
	for _, e := range contact.Emails {
		addresses = append(addresses, e.Email)
	}
	tags := contact.Tags
	if tags == nil {
		tags = []string{}
	}

	id, err := r.insert(ctx, collContacts, func(id int64) any {
		return &contactDoc{
			ID:              id,
			FirstName:       contact.FirstName,
			LastName:        contact.LastName,
			FirstNameLower:  strings.ToLower(contact.FirstName),
			LastNameLower:   strings.ToLower(contact.LastName),
			CompanyID:       int64(contact.CompanyID),
			Title:           contact.Title,
			Emails:          contact.Emails,
			EmailAddresses:  addresses,
			Phones:          contact.Phones,
			Tags:            tags,
			PatientType:     string(contact.PatientType),
			ReferringDoctor: contact.ReferringDoctor,
			SalesID:         int64(contact.SalesID),
			FirstSeen:       contact.FirstSeen,
			LastSeen:        contact.LastSeen,
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert contact", goerr.V("name", contact.FullName()))
	}

	created := *contact
	created.ID = model.ContactID(id)
	return &created, nil
}

func (r *Firestore) GetContact(ctx context.Context, id model.ContactID) (*model.Contact, error) {
	var d contactDoc
	if err := r.get(ctx, collContacts, int64(id), &d); err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

func (r *Firestore) TouchContact(ctx context.Context, id model.ContactID, at time.Time) error {
	ref := r.client.Collection(collContacts).Doc(docID(int64(id)))
	if _, err := ref.Update(ctx, []firestore.Update{{Path: "last_seen", Value: at}}); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrNotFound, "contact not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update contact last_seen", goerr.V("id", id))
	}
	return nil
}

type stageDoc struct {
	Value    string `firestore:"value"`
	Label    string `firestore:"label"`
	Position int64  `firestore:"position"`
}

type pipelineDoc struct {
	ID        int64      `firestore:"id"`
	Name      string     `firestore:"name"`
	IsDefault bool       `firestore:"is_default"`
	Position  int64      `firestore:"position"`
	Stages    []stageDoc `firestore:"stages"`
}

func (d *pipelineDoc) toModel() *model.Pipeline {
	p := &model.Pipeline{
		ID:        model.PipelineID(d.ID),
		Name:      d.Name,
		IsDefault: d.IsDefault,
		Position:  d.Position,
	}
	for _, s := range d.Stages {
		p.Stages = append(p.Stages, &model.Stage{Value: s.Value, Label: s.Label, Position: s.Position})
	}
	sort.SliceStable(p.Stages, func(i, j int) bool { return p.Stages[i].Position < p.Stages[j].Position })
	return p
}

func (r *Firestore) queryPipelines(ctx context.Context, q firestore.Query) ([]*model.Pipeline, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query pipelines")
	}

	pipelines := make([]*model.Pipeline, 0, len(snaps))
	for _, snap := range snaps {
		var d pipelineDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode pipeline", goerr.V("doc", snap.Ref.ID))
		}
		pipelines = append(pipelines, d.toModel())
	}
	sort.SliceStable(pipelines, func(i, j int) bool {
		if pipelines[i].Position != pipelines[j].Position {
			return pipelines[i].Position < pipelines[j].Position
		}
		return pipelines[i].ID < pipelines[j].ID
	})
	return pipelines, nil
}

func (r *Firestore) GetDefaultPipeline(ctx context.Context) (*model.Pipeline, error) {
	pipelines, err := r.queryPipelines(ctx, r.client.Collection(collPipelines).Where("is_default", "==", true))
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, nil
	}
	return pipelines[0], nil
}

func (r *Firestore) GetFirstPipeline(ctx context.Context) (*model.Pipeline, error) {
	pipelines, err := r.queryPipelines(ctx, r.client.Collection(collPipelines).Query)
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, nil
	}
	return pipelines[0], nil
}

func (r *Firestore) GetPipeline(ctx context.Context, id model.PipelineID) (*model.Pipeline, error) {
	var d pipelineDoc
	if err := r.get(ctx, collPipelines, int64(id), &d); err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

func (r *Firestore) PutPipeline(ctx context.Context, pipeline *model.Pipeline) error {
	d := pipelineDoc{
		ID:        int64(pipeline.ID),
		Name:      pipeline.Name,
		IsDefault: pipeline.IsDefault,
		Position:  pipeline.Position,
		Stages:    []stageDoc{},
	}
	for _, s := range pipeline.Stages {
		d.Stages = append(d.Stages, stageDoc{Value: s.Value, Label: s.Label, Position: s.Position})
	}

	if _, err := r.client.Collection(collPipelines).Doc(docID(d.ID)).Set(ctx, &d); err != nil {
		return goerr.Wrap(err, "failed to put pipeline", goerr.V("id", pipeline.ID))
	}
	return nil
}

type dealDoc struct {
	ID                  int64     `firestore:"id"`
	Name                string    `firestore:"name"`
	CompanyID           int64     `firestore:"company_id"`
	ContactIDs          []int64   `firestore:"contact_ids"`
	Amount              float64   `firestore:"amount"`
	Stage               string    `firestore:"stage"`
	PipelineID          int64     `firestore:"pipeline_id"`
	Position            int64     `firestore:"index"`
	Description         string    `firestore:"description"`
	Category            string    `firestore:"category"`
	ExpectedClosingDate string    `firestore:"expected_closing_date"`
	SalesID             int64     `firestore:"sales_id"`
	CreatedAt           time.Time `firestore:"created_at"`
	UpdatedAt           time.Time `firestore:"updated_at"`
}

func (d *dealDoc) toModel() *model.Deal {
	deal := &model.Deal{
		ID:                  model.DealID(d.ID),
		Name:                d.Name,
		CompanyID:           model.CompanyID(d.CompanyID),
		Amount:              d.Amount,
		Stage:               d.Stage,
		PipelineID:          model.PipelineID(d.PipelineID),
		Position:            d.Position,
		Description:         d.Description,
		Category:            d.Category,
		ExpectedClosingDate: d.ExpectedClosingDate,
		SalesID:             model.SalesID(d.SalesID),
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	for _, id := range d.ContactIDs {
		deal.ContactIDs = append(deal.ContactIDs, model.ContactID(id))
	}
	return deal
}

// InsertDeal reads the current maximum position of the stage and writes the
// deal inside one transaction.
func (r *Firestore) InsertDeal(ctx context.Context, deal *model.Deal) (*model.Deal, error) {
	d := dealDoc{
		Name:                deal.Name,
		CompanyID:           int64(deal.CompanyID),
		ContactIDs:          []int64{},
		Amount:              deal.Amount,
		Stage:               deal.Stage,
		PipelineID:          int64(deal.PipelineID),
		Description:         deal.Description,
		Category:            deal.Category,
		ExpectedClosingDate: deal.ExpectedClosingDate,
		SalesID:             int64(deal.SalesID),
		CreatedAt:           deal.CreatedAt,
		UpdatedAt:           deal.UpdatedAt,
	}
	for _, id := range deal.ContactIDs {
		d.ContactIDs = append(d.ContactIDs, int64(id))
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next, err := r.readCounter(tx, collDeals)
		if err != nil {
			return err
		}

		q := r.client.Collection(collDeals).
			Where("pipeline_id", "==", d.PipelineID).
			Where("stage", "==", d.Stage)
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to read stage deals")
		}

		position := int64(-1)
		for _, snap := range snaps {
			var existing dealDoc
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode deal", goerr.V("doc", snap.Ref.ID))
			}
			if existing.Position > position {
				position = existing.Position
			}
		}

		d.ID = next
		d.Position = position + 1

		if err := r.writeCounter(tx, collDeals, next); err != nil {
			return err
		}
		if err := tx.Set(r.client.Collection(collDeals).Doc(docID(next)), &d); err != nil {
			return goerr.Wrap(err, "failed to set deal")
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert deal", goerr.V("name", deal.Name))
	}

	return d.toModel(), nil
}

func (r *Firestore) GetDeal(ctx context.Context, id model.DealID) (*model.Deal, error) {
	var d dealDoc
	if err := r.get(ctx, collDeals, int64(id), &d); err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

type taskDoc struct {
	ID        int64      `firestore:"id"`
	ContactID int64      `firestore:"contact_id"`
	Type      string     `firestore:"type"`
	Text      string     `firestore:"text"`
	DueDate   string     `firestore:"due_date"`
	DoneDate  *time.Time `firestore:"done_date"`
	SalesID   int64      `firestore:"sales_id"`
}

func (r *Firestore) InsertTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	id, err := r.insert(ctx, collTasks, func(id int64) any {
		return &taskDoc{
			ID:        id,
			ContactID: int64(task.ContactID),
			Type:      task.Type,
			Text:      task.Text,
			DueDate:   task.DueDate,
			DoneDate:  task.DoneDate,
			SalesID:   int64(task.SalesID),
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert task", goerr.V("contact_id", task.ContactID))
	}

	created := *task
	created.ID = model.TaskID(id)
	return &created, nil
}

type contactNoteDoc struct {
	ID        int64     `firestore:"id"`
	ContactID int64     `firestore:"contact_id"`
	Text      string    `firestore:"text"`
	Date      time.Time `firestore:"date"`
	Status    string    `firestore:"status"`
	SalesID   int64     `firestore:"sales_id"`
}

func (r *Firestore) InsertContactNote(ctx context.Context, note *model.ContactNote) (*model.ContactNote, error) {
	id, err := r.insert(ctx, collContactNotes, func(id int64) any {
		return &contactNoteDoc{
			ID:        id,
			ContactID: int64(note.ContactID),
			Text:      note.Text,
			Date:      note.Date,
			Status:    note.Status,
			SalesID:   int64(note.SalesID),
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert contact note", goerr.V("contact_id", note.ContactID))
	}

	created := *note
	created.ID = model.NoteID(id)
	return &created, nil
}

type dealNoteDoc struct {
	ID      int64     `firestore:"id"`
	DealID  int64     `firestore:"deal_id"`
	Text    string    `firestore:"text"`
	Date    time.Time `firestore:"date"`
	SalesID int64     `firestore:"sales_id"`
}

func (r *Firestore) InsertDealNote(ctx context.Context, note *model.DealNote) (*model.DealNote, error) {
	id, err := r.insert(ctx, collDealNotes, func(id int64) any {
		return &dealNoteDoc{
			ID:      id,
			DealID:  int64(note.DealID),
			Text:    note.Text,
			Date:    note.Date,
			SalesID: int64(note.SalesID),
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert deal note", goerr.V("deal_id", note.DealID))
	}

	created := *note
	created.ID = model.NoteID(id)
	return &created, nil
}

type salesDoc struct {
	ID        int64  `firestore:"id"`
	UserID    string `firestore:"user_id"`
	FirstName string `firestore:"first_name"`
	LastName  string `firestore:"last_name"`
	Email     string `firestore:"email"`
}

func (r *Firestore) GetSalesByUserID(ctx context.Context, userID string) (*model.Sales, error) {
	snaps, err := r.client.Collection(collSales).Where("user_id", "==", userID).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sales", goerr.V("user_id", userID))
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	var d salesDoc
	if err := snaps[0].DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode sales", goerr.V("user_id", userID))
	}
	return &model.Sales{
		ID:        model.SalesID(d.ID),
		UserID:    d.UserID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
	}, nil
}

func (r *Firestore) PutSales(ctx context.Context, sales *model.Sales) error {
	d := salesDoc{
		ID:        int64(sales.ID),
		UserID:    sales.UserID,
		FirstName: sales.FirstName,
		LastName:  sales.LastName,
		Email:     sales.Email,
	}
	if _, err := r.client.Collection(collSales).Doc(docID(d.ID)).Set(ctx, &d); err != nil {
		return goerr.Wrap(err, "failed to put sales", goerr.V("id", sales.ID))
	}
	return nil
}

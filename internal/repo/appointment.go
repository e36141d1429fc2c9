package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type AppointmentRepo struct {
	conn dialect.ExecQuerier
}

var appointmentColumns = []string{
	"id", "clinic_id", "patient_id", "professional_id", "title",
	"start_time", "end_time", "status", "attendance_status", "created_at", "updated_at",
}

// detailSelector selects appointments joined with their patient and
// professional summaries.
func detailSelector() (*entsql.Selector, *entsql.SelectTable) {
	a := psql.Table(TableAppointments).As("a")
	p := psql.Table(TablePatients).As("p")
	pr := psql.Table(TableProfessionals).As("pr")

	cols := make([]string, 0, len(appointmentColumns)+9)
	for _, c := range appointmentColumns {
		cols = append(cols, a.C(c))
	}
	cols = append(cols,
		p.C("id"), p.C("name"), p.C("cpf"), p.C("email"), p.C("phone"),
		pr.C("id"), pr.C("name"), pr.C("specialty"), pr.C("color"),
	)

	sel := psql.Select(cols...).
		From(a).
		Join(p).On(a.C("patient_id"), p.C("id")).
		Join(pr).On(a.C("professional_id"), pr.C("id"))
	return sel, a
}

func scanAppointmentDetail(rows *entsql.Rows, d *AppointmentDetail) error {
	return rows.Scan(
		&d.ID, &d.ClinicID, &d.PatientID, &d.ProfessionalID, &d.Title,
		&d.StartTime, &d.EndTime, &d.Status, &d.AttendanceStatus, &d.CreatedAt, &d.UpdatedAt,
		&d.Patient.ID, &d.Patient.Name, &d.Patient.CPF, &d.Patient.Email, &d.Patient.Phone,
		&d.Professional.ID, &d.Professional.Name, &d.Professional.Specialty, &d.Professional.Color,
	)
}

// List returns the clinic's appointments matching f, by start time.
func (r *AppointmentRepo) List(ctx context.Context, clinicID uuid.UUID, f AppointmentFilter) ([]*AppointmentDetail, error) {
	sel, a := detailSelector()

	preds := []*entsql.Predicate{entsql.EQ(a.C("clinic_id"), clinicID)}
	if f.StartDate != nil {
		preds = append(preds, entsql.GTE(a.C("start_time"), *f.StartDate))
	}
	if f.EndDate != nil {
		preds = append(preds, entsql.LTE(a.C("start_time"), *f.EndDate))
	}
	if f.PatientID != nil {
		preds = append(preds, entsql.EQ(a.C("patient_id"), *f.PatientID))
	}
	if f.ProfessionalID != nil {
		preds = append(preds, entsql.EQ(a.C("professional_id"), *f.ProfessionalID))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ(a.C("status"), f.Status))
	}
	sel.Where(entsql.And(preds...)).OrderBy(entsql.Asc(a.C("start_time")), entsql.Asc(a.C("id")))

	var out []*AppointmentDetail
	err := query(ctx, r.conn, sel, func(rows *entsql.Rows) error {
		d := &AppointmentDetail{}
		if err := scanAppointmentDetail(rows, d); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

func (r *AppointmentRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*AppointmentDetail, error) {
	sel, a := detailSelector()
	sel.Where(entsql.And(entsql.EQ(a.C("id"), id), entsql.EQ(a.C("clinic_id"), clinicID)))

	d := &AppointmentDetail{}
	if err := queryOne(ctx, r.conn, sel, func(rows *entsql.Rows) error { return scanAppointmentDetail(rows, d) }); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *AppointmentRepo) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = newID()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := exec(ctx, r.conn, psql.Insert(TableAppointments).
		Columns(appointmentColumns...).
		Values(a.ID, a.ClinicID, a.PatientID, a.ProfessionalID, a.Title,
			a.StartTime, a.EndTime, a.Status, a.AttendanceStatus, a.CreatedAt, a.UpdatedAt))
	return err
}

// Update writes the whole row. Concurrent updates are last-write-wins.
func (r *AppointmentRepo) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	n, err := exec(ctx, r.conn, psql.Update(TableAppointments).
		Set("patient_id", a.PatientID).
		Set("professional_id", a.ProfessionalID).
		Set("title", a.Title).
		Set("start_time", a.StartTime).
		Set("end_time", a.EndTime).
		Set("status", a.Status).
		Set("attendance_status", a.AttendanceStatus).
		Set("updated_at", a.UpdatedAt).
		Where(entsql.And(entsql.EQ("id", a.ID), entsql.EQ("clinic_id", a.ClinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TableAppointments).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"sort"
	"time"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// ReportingRepositoryImpl implements the ReportingRepository interface.
// Every figure is computed by scanning the raw patient and event-log tables,
// so reports never drift from the source of truth.
type ReportingRepositoryImpl struct {
	db *gorm.DB
}

// NewReportingRepository creates a new reporting repository
func NewReportingRepository(db *gorm.DB) ReportingRepository {
	return &ReportingRepositoryImpl{db: db}
}

func (r *ReportingRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// CountPatients returns the total patient count for a project
func (r *ReportingRepositoryImpl) CountPatients(ctx context.Context, projectID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Patient{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// StatusBuckets partitions a project's patients by current outreach status.
// Every status appears in the result, zero counts included, and the bucket
// sum always equals the project's total patient count.
func (r *ReportingRepositoryImpl) StatusBuckets(ctx context.Context, projectID uint) ([]StatusCount, error) {
	db := r.getDB(ctx)

	type row struct {
		OutreachStatus models.OutreachStatus
		Count          int64
	}
	var rows []row
	err := db.Model(&models.Patient{}).
		Select("outreach_status, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Group("outreach_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OutreachStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.OutreachStatus] = r.Count
	}

	out := make([]StatusCount, 0, len(models.AllOutreachStatuses()))
	for _, status := range models.AllOutreachStatuses() {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}

	return out, nil
}

// StaffActivity aggregates per-staff calling activity within a project.
// Today/this-week windows are bounded in the reference timezone loc, not the
// caller's. Handoff rows are not dialed calls and stay out of every count,
// keeping the call figures in step with patient attempt counters.
func (r *ReportingRepositoryImpl) StaffActivity(ctx context.Context, projectID uint, now time.Time, loc *time.Location) ([]StaffActivityRow, error) {
	db := r.getDB(ctx)

	type row struct {
		StaffID          uint
		TotalCalls       int64
		DistinctPatients int64
		LastCallAt       *time.Time
	}
	var rows []row
	err := db.Model(&models.OutreachLog{}).
		Select("staff_id, COUNT(*) AS total_calls, COUNT(DISTINCT patient_id) AS distinct_patients, MAX(call_timestamp) AS last_call_at").
		Where("project_id = ? AND forwarded_to_broker IS NOT TRUE", projectID).
		Group("staff_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := utils.DayBounds(now, loc)
	weekStart, weekEnd := utils.WeekBounds(now, loc)

	out := make([]StaffActivityRow, 0, len(rows))
	for _, base := range rows {
		var today, week int64
		err = db.Model(&models.OutreachLog{}).
			Where("project_id = ? AND staff_id = ? AND forwarded_to_broker IS NOT TRUE AND call_timestamp >= ? AND call_timestamp < ?",
				projectID, base.StaffID, dayStart.UTC(), dayEnd.UTC()).
			Count(&today).Error
		if err != nil {
			return nil, err
		}
		err = db.Model(&models.OutreachLog{}).
			Where("project_id = ? AND staff_id = ? AND forwarded_to_broker IS NOT TRUE AND call_timestamp >= ? AND call_timestamp < ?",
				projectID, base.StaffID, weekStart.UTC(), weekEnd.UTC()).
			Count(&week).Error
		if err != nil {
			return nil, err
		}

		out = append(out, StaffActivityRow{
			StaffID:          base.StaffID,
			TotalCalls:       base.TotalCalls,
			CallsToday:       today,
			CallsThisWeek:    week,
			DistinctPatients: base.DistinctPatients,
			LastCallAt:       base.LastCallAt,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })

	return out, nil
}

// DailyCallVolume rolls calls up per (day, staff) pair within a project.
// Positive outcomes count will_switch dispositions plus broker completed
// updates on their day; handoff rows are excluded on both counts. Day keys
// are local to loc so a late-evening call lands on the right calendar day.
func (r *ReportingRepositoryImpl) DailyCallVolume(ctx context.Context, projectID uint, from, to time.Time, loc *time.Location) ([]DailyVolumeRow, error) {
	db := r.getDB(ctx)

	type callRow struct {
		StaffID       uint
		Disposition   models.Disposition
		CallTimestamp time.Time
	}
	var calls []callRow
	err := db.Model(&models.OutreachLog{}).
		Select("staff_id, disposition, call_timestamp").
		Where("project_id = ? AND forwarded_to_broker IS NOT TRUE AND call_timestamp >= ? AND call_timestamp < ?", projectID, from.UTC(), to.UTC()).
		Scan(&calls).Error
	if err != nil {
		return nil, err
	}

	type updateRow struct {
		BrokerID  uint
		CreatedAt time.Time
	}
	var completions []updateRow
	err = db.Model(&models.BrokerUpdate{}).
		Select("broker_id, created_at").
		Where("project_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			projectID, models.BrokerStatusCompleted, from.UTC(), to.UTC()).
		Scan(&completions).Error
	if err != nil {
		return nil, err
	}

	type key struct {
		day     string
		staffID uint
	}
	buckets := make(map[key]*DailyVolumeRow)
	bucket := func(k key) *DailyVolumeRow {
		if b, ok := buckets[k]; ok {
			return b
		}
		b := &DailyVolumeRow{Day: k.day, StaffID: k.staffID}
		buckets[k] = b
		return b
	}

	for _, c := range calls {
		b := bucket(key{day: utils.LocalDayKey(c.CallTimestamp, loc), staffID: c.StaffID})
		b.Calls++
		if c.Disposition.IsPositive() {
			b.PositiveOutcomes++
		}
	}
	for _, u := range completions {
		b := bucket(key{day: utils.LocalDayKey(u.CreatedAt, loc), staffID: u.BrokerID})
		b.PositiveOutcomes++
	}

	out := make([]DailyVolumeRow, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].StaffID < out[j].StaffID
	})

	return out, nil
}

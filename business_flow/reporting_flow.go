package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/app/services"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
	"github.com/redis/go-redis/v9"
)

// ReportingFlow serves dashboard figures. Every figure is computed by the raw
// scans in the reporting repository; redis only caches snapshots of that
// output, so the cached and fallback paths always agree.
type ReportingFlow interface {
	ProjectSummary(ctx context.Context, req *dto.ProjectSummaryRequest, metadata *ClientMetadata) (*dto.ProjectSummaryResponse, error)
	StaffActivity(ctx context.Context, req *dto.StaffActivityRequest, metadata *ClientMetadata) (*dto.StaffActivityResponse, error)
	DailyCallVolume(ctx context.Context, req *dto.DailyCallVolumeRequest, metadata *ClientMetadata) (*dto.DailyCallVolumeResponse, error)
	ExportProjectReport(ctx context.Context, req *dto.ExportReportRequest, metadata *ClientMetadata) (string, []byte, error)
}

// ReportingFlowImpl implements ReportingFlow
type ReportingFlowImpl struct {
	reportingRepo  repository.ReportingRepository
	projectRepo    repository.ProjectRepository
	profileRepo    repository.ProfileRepository
	assignmentRepo repository.ProjectAssignmentRepository
	cache          *redis.Client
	loc            *time.Location
	exporter       services.ReportExport
}

func NewReportingFlow(
	reportingRepo repository.ReportingRepository,
	projectRepo repository.ProjectRepository,
	profileRepo repository.ProfileRepository,
	assignmentRepo repository.ProjectAssignmentRepository,
	cache *redis.Client,
	loc *time.Location,
	exporter services.ReportExport,
) ReportingFlow {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportingFlowImpl{
		reportingRepo:  reportingRepo,
		projectRepo:    projectRepo,
		profileRepo:    profileRepo,
		assignmentRepo: assignmentRepo,
		cache:          cache,
		loc:            loc,
		exporter:       exporter,
	}
}

// requireReportAccess resolves the project and checks the caller may read its
// reports. Brokers and unassigned staff get NotFound.
func (f *ReportingFlowImpl) requireReportAccess(ctx context.Context, userID uint, projectUUID string) (*models.Project, *models.Profile, error) {
	user, err := getProfile(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}

	project, err := getProjectByUUID(ctx, f.projectRepo, projectUUID)
	if err != nil {
		return nil, nil, err
	}

	switch user.Role {
	case models.RoleAdmin:
		return project, user, nil
	case models.RoleStaff:
		assigned, err := f.assignmentRepo.HasActiveAssignment(ctx, project.ID, user.ID)
		if err != nil {
			return nil, nil, NewBusinessError("ASSIGNMENT_LOOKUP_FAILED", "Failed to check project assignment", err)
		}
		if !assigned {
			return nil, nil, ErrProjectNotFound
		}
		return project, user, nil
	default:
		return nil, nil, ErrProjectNotFound
	}
}

// cacheGet loads a snapshot into out. A cold or unreachable cache is a miss,
// never an error.
func (f *ReportingFlowImpl) cacheGet(ctx context.Context, key string, out any) bool {
	if f.cache == nil {
		return false
	}
	raw, err := f.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// cacheSet stores a snapshot best-effort
func (f *ReportingFlowImpl) cacheSet(ctx context.Context, key string, v any) {
	if f.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = f.cache.Set(ctx, key, raw, utils.ReportCacheTTL).Err()
}

// ProjectSummary partitions the project's patients by status. The bucket sum
// always equals the total patient count.
func (f *ReportingFlowImpl) ProjectSummary(ctx context.Context, req *dto.ProjectSummaryRequest, metadata *ClientMetadata) (*dto.ProjectSummaryResponse, error) {
	project, _, err := f.requireReportAccess(ctx, req.UserID, req.ProjectUUID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:summary:%d", project.ID)
	var cached dto.ProjectSummaryResponse
	if f.cacheGet(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	resp, err := f.computeProjectSummary(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	f.cacheSet(ctx, key, resp)
	return resp, nil
}

// computeProjectSummary is the raw-scan path; the cache only ever holds its
// verbatim output
func (f *ReportingFlowImpl) computeProjectSummary(ctx context.Context, projectID uint) (*dto.ProjectSummaryResponse, error) {
	total, err := f.reportingRepo.CountPatients(ctx, projectID)
	if err != nil {
		return nil, NewBusinessError("SUMMARY_FAILED", "Failed to compute project summary", err)
	}
	buckets, err := f.reportingRepo.StatusBuckets(ctx, projectID)
	if err != nil {
		return nil, NewBusinessError("SUMMARY_FAILED", "Failed to compute project summary", err)
	}

	out := make([]dto.StatusBucketDTO, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dto.StatusBucketDTO{
			Status:        b.Status.String(),
			StatusDisplay: b.Status.DisplayName(),
			StatusColor:   b.Status.Color(),
			Count:         b.Count,
		})
	}

	return &dto.ProjectSummaryResponse{
		Message:       "Project summary retrieved",
		TotalPatients: total,
		Buckets:       out,
	}, nil
}

// StaffActivity returns per-staff calling figures with today/this-week
// windows in the reference timezone
func (f *ReportingFlowImpl) StaffActivity(ctx context.Context, req *dto.StaffActivityRequest, metadata *ClientMetadata) (*dto.StaffActivityResponse, error) {
	project, _, err := f.requireReportAccess(ctx, req.UserID, req.ProjectUUID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	key := fmt.Sprintf("report:activity:%d:%s", project.ID, utils.LocalDayKey(now, f.loc))
	var cached dto.StaffActivityResponse
	if f.cacheGet(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	resp, err := f.computeStaffActivity(ctx, project.ID, now)
	if err != nil {
		return nil, err
	}

	f.cacheSet(ctx, key, resp)
	return resp, nil
}

func (f *ReportingFlowImpl) computeStaffActivity(ctx context.Context, projectID uint, now time.Time) (*dto.StaffActivityResponse, error) {
	rows, err := f.reportingRepo.StaffActivity(ctx, projectID, now, f.loc)
	if err != nil {
		return nil, NewBusinessError("ACTIVITY_FAILED", "Failed to compute staff activity", err)
	}

	activity := make([]dto.StaffActivityDTO, 0, len(rows))
	for _, r := range rows {
		item := dto.StaffActivityDTO{
			StaffID:          r.StaffID,
			TotalCalls:       r.TotalCalls,
			CallsToday:       r.CallsToday,
			CallsThisWeek:    r.CallsThisWeek,
			DistinctPatients: r.DistinctPatients,
		}
		if r.LastCallAt != nil {
			item.LastCallAt = utils.ToPtr(r.LastCallAt.Format(time.RFC3339))
		}
		if staff, err := f.profileRepo.ByID(ctx, r.StaffID); err == nil && staff != nil {
			item.StaffName = staff.FullName()
		}
		activity = append(activity, item)
	}

	return &dto.StaffActivityResponse{
		Message:  "Staff activity retrieved",
		Activity: activity,
	}, nil
}

// DailyCallVolume returns (day, staff) rollups for the requested window,
// defaulting to the last 30 days
func (f *ReportingFlowImpl) DailyCallVolume(ctx context.Context, req *dto.DailyCallVolumeRequest, metadata *ClientMetadata) (*dto.DailyCallVolumeResponse, error) {
	project, _, err := f.requireReportAccess(ctx, req.UserID, req.ProjectUUID)
	if err != nil {
		return nil, err
	}

	from, to, err := f.resolveWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:volume:%d:%d:%d", project.ID, from.Unix(), to.Unix())
	var cached dto.DailyCallVolumeResponse
	if f.cacheGet(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	resp, err := f.computeDailyVolume(ctx, project.ID, from, to)
	if err != nil {
		return nil, err
	}

	f.cacheSet(ctx, key, resp)
	return resp, nil
}

func (f *ReportingFlowImpl) computeDailyVolume(ctx context.Context, projectID uint, from, to time.Time) (*dto.DailyCallVolumeResponse, error) {
	rows, err := f.reportingRepo.DailyCallVolume(ctx, projectID, from, to, f.loc)
	if err != nil {
		return nil, NewBusinessError("VOLUME_FAILED", "Failed to compute daily call volume", err)
	}

	days := make([]dto.DailyVolumeDTO, 0, len(rows))
	for _, r := range rows {
		days = append(days, dto.DailyVolumeDTO{
			Day:              r.Day,
			StaffID:          r.StaffID,
			Calls:            r.Calls,
			PositiveOutcomes: r.PositiveOutcomes,
		})
	}

	return &dto.DailyCallVolumeResponse{
		Message: "Daily call volume retrieved",
		Days:    days,
	}, nil
}

// resolveWindow turns optional YYYY-MM-DD bounds into a [from, to) UTC range.
// Bounds are interpreted in the reference timezone.
func (f *ReportingFlowImpl) resolveWindow(startDate, endDate *string) (time.Time, time.Time, error) {
	now := utils.UTCNow()
	dayStart, dayEnd := utils.DayBounds(now, f.loc)

	from := dayStart.AddDate(0, 0, -29)
	to := dayEnd

	if startDate != nil {
		parsed, err := time.ParseInLocation("2006-01-02", *startDate, f.loc)
		if err != nil {
			return time.Time{}, time.Time{}, NewBusinessError("INVALID_DATE", "start_date must be YYYY-MM-DD", err)
		}
		from = parsed
	}
	if endDate != nil {
		parsed, err := time.ParseInLocation("2006-01-02", *endDate, f.loc)
		if err != nil {
			return time.Time{}, time.Time{}, NewBusinessError("INVALID_DATE", "end_date must be YYYY-MM-DD", err)
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrStartDateAfterEndDate
	}

	return from, to, nil
}

// ExportProjectReport builds the XLSX workbook for admins
func (f *ReportingFlowImpl) ExportProjectReport(ctx context.Context, req *dto.ExportReportRequest, metadata *ClientMetadata) (string, []byte, error) {
	project, user, err := f.requireReportAccess(ctx, req.AdminID, req.ProjectUUID)
	if err != nil {
		return "", nil, err
	}
	if !CapabilitiesFor(user.Role).CanExportReports() {
		return "", nil, ErrProjectNotFound
	}

	// Exports always take the raw-scan path so the workbook reflects the
	// source of truth at export time.
	summary, err := f.computeProjectSummary(ctx, project.ID)
	if err != nil {
		return "", nil, err
	}
	activity, err := f.computeStaffActivity(ctx, project.ID, utils.UTCNow())
	if err != nil {
		return "", nil, err
	}
	window, windowEnd, err := f.resolveWindow(nil, nil)
	if err != nil {
		return "", nil, err
	}
	volume, err := f.computeDailyVolume(ctx, project.ID, window, windowEnd)
	if err != nil {
		return "", nil, err
	}

	return f.exporter.BuildProjectWorkbook(project.Name, summary, activity, volume)
}

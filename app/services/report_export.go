package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/xuri/excelize/v2"
)

// ReportExport builds XLSX workbooks from report figures
type ReportExport interface {
	BuildProjectWorkbook(projectName string, summary *dto.ProjectSummaryResponse, activity *dto.StaffActivityResponse, volume *dto.DailyCallVolumeResponse) (filename string, content []byte, err error)
}

// ReportExportImpl implements ReportExport
type ReportExportImpl struct{}

func NewReportExport() ReportExport {
	return &ReportExportImpl{}
}

// BuildProjectWorkbook writes three sheets: the summary partition, per-staff
// activity, and the daily volume rollup.
func (e *ReportExportImpl) BuildProjectWorkbook(projectName string, summary *dto.ProjectSummaryResponse, activity *dto.StaffActivityResponse, volume *dto.DailyCallVolumeResponse) (string, []byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	// Summary sheet replaces the default sheet
	summarySheet := "Summary"
	xl.SetSheetName(xl.GetSheetName(0), summarySheet)

	header := []string{"status", "count"}
	_ = xl.SetSheetRow(summarySheet, "A1", &header)
	for ri, b := range summary.Buckets {
		record := []string{b.StatusDisplay, strconv.FormatInt(b.Count, 10)}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(summarySheet, cellRef, &record)
	}
	totalRef, _ := excelize.CoordinatesToCellName(1, len(summary.Buckets)+2)
	totalRow := []string{"Total patients", strconv.FormatInt(summary.TotalPatients, 10)}
	_ = xl.SetSheetRow(summarySheet, totalRef, &totalRow)

	// Staff activity sheet
	activitySheet := "Staff Activity"
	_, _ = xl.NewSheet(activitySheet)
	header = []string{"staff_id", "staff_name", "total_calls", "calls_today", "calls_this_week", "distinct_patients", "last_call_at"}
	_ = xl.SetSheetRow(activitySheet, "A1", &header)
	for ri, a := range activity.Activity {
		lastCall := ""
		if a.LastCallAt != nil {
			lastCall = *a.LastCallAt
		}
		record := []string{
			strconv.FormatUint(uint64(a.StaffID), 10),
			a.StaffName,
			strconv.FormatInt(a.TotalCalls, 10),
			strconv.FormatInt(a.CallsToday, 10),
			strconv.FormatInt(a.CallsThisWeek, 10),
			strconv.FormatInt(a.DistinctPatients, 10),
			lastCall,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(activitySheet, cellRef, &record)
	}

	// Daily volume sheet
	volumeSheet := "Daily Volume"
	_, _ = xl.NewSheet(volumeSheet)
	header = []string{"day", "staff_id", "calls", "positive_outcomes"}
	_ = xl.SetSheetRow(volumeSheet, "A1", &header)
	for ri, d := range volume.Days {
		record := []string{
			d.Day,
			strconv.FormatUint(uint64(d.StaffID), 10),
			strconv.FormatInt(d.Calls, 10),
			strconv.FormatInt(d.PositiveOutcomes, 10),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(volumeSheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("%s_report.xlsx", sanitizeFilename(projectName))
	return filename, buf.Bytes(), nil
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(" ", "_", ":", "_", "\\", "_", "/", "_", "?", "_", "*", "_")
	safe := strings.TrimSpace(replacer.Replace(strings.ToLower(name)))
	if safe == "" {
		return "project"
	}
	return safe
}

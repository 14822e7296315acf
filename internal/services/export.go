package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	complaintSheet = "Complaints"
	timelineSheet  = "Timeline"
)

var complaintHeader = []interface{}{
	"ID", "Title", "Category", "Priority", "Status", "Date", "Student ID",
	"Student", "Block", "Room", "Upvotes", "Description",
}

var timelineHeader = []interface{}{"Complaint ID", "Status", "Date", "Note"}

// ExportService renders complaint listings as Excel workbooks
type ExportService struct {
	complaints *ComplaintService
	policy     *Policy
	logger     *zap.SugaredLogger
}

// NewExportService creates a new export service
func NewExportService(complaints *ComplaintService, policy *Policy, logger *zap.SugaredLogger) *ExportService {
	return &ExportService{complaints: complaints, policy: policy, logger: logger}
}

// ExportComplaints builds an .xlsx with one sheet of complaints and one of
// timeline entries, scoped like the listing. It returns the workbook and a
// suggested filename.
func (s *ExportService) ExportComplaints(ctx context.Context, actor *models.User, q ListQuery) (*bytes.Buffer, string, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActExport); err != nil {
		return nil, "", err
	}
	complaints, err := s.complaints.List(ctx, actor, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", complaintSheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(timelineSheet); err != nil {
		return nil, "", fmt.Errorf("add sheet: %w", err)
	}

	if err := f.SetSheetRow(complaintSheet, "A1", &complaintHeader); err != nil {
		return nil, "", fmt.Errorf("write header: %w", err)
	}
	if err := f.SetSheetRow(timelineSheet, "A1", &timelineHeader); err != nil {
		return nil, "", fmt.Errorf("write header: %w", err)
	}

	timelineRow := 2
	for i, c := range complaints {
		row := []interface{}{
			c.ID, c.Title, c.Category, string(c.Priority), string(c.Status), c.Date, c.StudentID,
			c.StudentName, c.Block, c.Room, c.Upvotes, c.Description,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(complaintSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("write complaint %s: %w", c.ID, err)
		}

		for _, e := range c.Timeline {
			entry := []interface{}{c.ID, string(e.Status), e.Date, e.Note}
			cell, _ := excelize.CoordinatesToCellName(1, timelineRow)
			if err := f.SetSheetRow(timelineSheet, cell, &entry); err != nil {
				return nil, "", fmt.Errorf("write timeline %s: %w", c.ID, err)
			}
			timelineRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Errorw("Failed to render export", "error", err)
		return nil, "", fmt.Errorf("render workbook: %w", err)
	}

	filename := fmt.Sprintf("complaints-%s.xlsx", s.complaints.now().Format("20060102"))
	s.logger.Infow("Complaints exported", "by", actor.ExternalID, "rows", len(complaints))
	return buf, filename, nil
}

package businessflow

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const contactsOrder = "created_at DESC, id DESC"

// FileDownload is a file served to the dashboard
type FileDownload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContactManagementFlow backs the dashboard contact screens
type ContactManagementFlow interface {
	List(ctx context.Context, req *dto.ListContactsRequest) (*dto.ListContactsResponse, error)
	// Detail accepts a numeric id or a uuid and marks the contact read on first view
	Detail(ctx context.Context, ref string) (*dto.ContactSubmissionDTO, error)
	UpdateNotes(ctx context.Context, ref string, req *dto.UpdateContactNotesRequest) (*dto.ContactSubmissionDTO, error)
	DownloadAttachment(ctx context.Context, ref string) (*FileDownload, error)
	Export(ctx context.Context, req *dto.ListContactsRequest, format string) (*FileDownload, error)
}

type ContactManagementFlowImpl struct {
	contactRepo repository.ContactSubmissionRepository
	storage     services.AttachmentStorage
	exporter    services.ContactExporter
	statsCache  services.StatsCache
	loc         *time.Location
}

func NewContactManagementFlow(
	contactRepo repository.ContactSubmissionRepository,
	storage services.AttachmentStorage,
	exporter services.ContactExporter,
	statsCache services.StatsCache,
	loc *time.Location,
) ContactManagementFlow {
	if statsCache == nil {
		statsCache = services.NoopStatsCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ContactManagementFlowImpl{
		contactRepo: contactRepo,
		storage:     storage,
		exporter:    exporter,
		statsCache:  statsCache,
		loc:         loc,
	}
}

// BuildContactFilter turns dashboard query parameters into a repository filter.
// Unparsable dates and unknown statuses are ignored.
func BuildContactFilter(req *dto.ListContactsRequest, loc *time.Location) models.ContactSubmissionFilter {
	var filter models.ContactSubmissionFilter
	if req == nil {
		return filter
	}
	if s := strings.TrimSpace(req.Search); s != "" {
		filter.Search = &s
	}
	switch req.Status {
	case "read":
		filter.IsRead = utils.ToPtr(true)
	case "unread":
		filter.IsRead = utils.ToPtr(false)
	}
	if from, err := utils.ParseDate(strings.TrimSpace(req.DateFrom), loc); err == nil {
		start := from.UTC()
		filter.CreatedAfter = &start
	}
	if to, err := utils.ParseDate(strings.TrimSpace(req.DateTo), loc); err == nil {
		end := to.AddDate(0, 0, 1).UTC()
		filter.CreatedBefore = &end
	}
	return filter
}

// ClampPage maps a requested page onto [1, totalPages]; an empty list has one page
func ClampPage(page int, total int64, perPage int) (int, int) {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page, totalPages
}

func (f *ContactManagementFlowImpl) List(ctx context.Context, req *dto.ListContactsRequest) (*dto.ListContactsResponse, error) {
	if req == nil {
		req = &dto.ListContactsRequest{}
	}
	filter := BuildContactFilter(req, f.loc)

	total, err := f.contactRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LIST_FAILED", "Failed to count contacts", err)
	}

	page, totalPages := ClampPage(req.Page, total, utils.ContactsPerPage)
	rows, err := f.contactRepo.ByFilter(ctx, filter, contactsOrder, utils.ContactsPerPage, (page-1)*utils.ContactsPerPage)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LIST_FAILED", "Failed to list contacts", err)
	}

	return &dto.ListContactsResponse{
		Items:      ToContactSubmissionDTOs(rows),
		Page:       page,
		PerPage:    utils.ContactsPerPage,
		TotalPages: totalPages,
		TotalCount: total,
	}, nil
}

func (f *ContactManagementFlowImpl) load(ctx context.Context, ref string) (*models.ContactSubmission, error) {
	ref = strings.TrimSpace(ref)
	var (
		row *models.ContactSubmission
		err error
	)
	if id, convErr := strconv.ParseUint(ref, 10, 64); convErr == nil {
		row, err = f.contactRepo.ByID(ctx, uint(id))
	} else if _, parseErr := uuid.Parse(ref); parseErr == nil {
		row, err = f.contactRepo.ByUUID(ctx, ref)
	}
	if err != nil {
		return nil, NewBusinessError("CONTACT_LOOKUP_FAILED", "Failed to load contact", err)
	}
	if row == nil {
		return nil, NewBusinessError(CodeContactNotFound, "Contact not found", ErrContactNotFound)
	}
	return row, nil
}

func (f *ContactManagementFlowImpl) Detail(ctx context.Context, ref string) (*dto.ContactSubmissionDTO, error) {
	row, err := f.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !row.IsRead {
		changed, err := f.contactRepo.MarkRead(ctx, row.ID)
		if err != nil {
			return nil, NewBusinessError("CONTACT_MARK_READ_FAILED", "Failed to mark contact as read", err)
		}
		row.IsRead = true
		if changed {
			f.statsCache.Invalidate(ctx, DashboardCacheKey)
		}
	}

	out := ToContactSubmissionDTO(*row)
	return &out, nil
}

func (f *ContactManagementFlowImpl) UpdateNotes(ctx context.Context, ref string, req *dto.UpdateContactNotesRequest) (*dto.ContactSubmissionDTO, error) {
	if req == nil {
		req = &dto.UpdateContactNotesRequest{}
	}
	row, err := f.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := f.contactRepo.UpdateNotes(ctx, row.ID, req.Notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewBusinessError(CodeContactNotFound, "Contact not found", ErrContactNotFound)
		}
		return nil, NewBusinessError("CONTACT_NOTES_UPDATE_FAILED", "Failed to update contact notes", err)
	}

	row.Notes = req.Notes
	row.UpdatedAt = utils.UTCNow()
	out := ToContactSubmissionDTO(*row)
	return &out, nil
}

func (f *ContactManagementFlowImpl) DownloadAttachment(ctx context.Context, ref string) (*FileDownload, error) {
	row, err := f.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !row.HasAttachment() {
		return nil, NewBusinessError(CodeAttachmentNotFound, "Contact has no attachment", ErrAttachmentNotFound)
	}

	data, contentType, err := f.storage.Read(row.AttachmentPath)
	if err != nil {
		if errors.Is(err, services.ErrAttachmentNotStored) || errors.Is(err, services.ErrInvalidAttachPath) {
			return nil, NewBusinessError(CodeAttachmentNotFound, "Attachment file not found", ErrAttachmentNotFound)
		}
		return nil, NewBusinessError("ATTACHMENT_READ_FAILED", "Failed to read attachment", err)
	}

	return &FileDownload{
		Filename:    row.AttachmentFilename(),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (f *ContactManagementFlowImpl) Export(ctx context.Context, req *dto.ListContactsRequest, format string) (*FileDownload, error) {
	exportFormat := services.ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if !exportFormat.Valid() {
		return nil, NewBusinessError(CodeInvalidExportFormat, "Unsupported export format", ErrInvalidExportFormat)
	}

	filter := BuildContactFilter(req, f.loc)
	rows, err := f.contactRepo.ByFilter(ctx, filter, contactsOrder, 0, 0)
	if err != nil {
		return nil, NewBusinessError(CodeExportFailed, "Failed to load contacts for export", err)
	}

	filename, data, err := f.exporter.Export(exportFormat, rows, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError(CodeExportFailed, "Failed to build export", err)
	}
	log.Printf("contact export: %s with %d contacts", filename, len(rows))

	return &FileDownload{
		Filename:    filename,
		ContentType: exportFormat.ContentType(),
		Data:        data,
	}, nil
}

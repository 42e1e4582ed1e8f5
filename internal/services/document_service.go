package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/authz"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"github.com/solarflowhq/solarflow-backend/internal/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxFileSize = 10 * 1024 * 1024

// DocumentService is the document/form registry: per-step requirements,
// per-lead submission status, and the replace-on-resubmit rule. A fresh
// submission that completes the lead's mandatory set advances the lead
// from interested to processing; this is the only path to that edge.
type DocumentService struct {
	db       *gorm.DB
	store    *storage.Client
	cfg      *config.Config
	activity *ActivityService
	notify   *NotificationService
}

func NewDocumentService(db *gorm.DB, store *storage.Client, cfg *config.Config, activity *ActivityService, notify *NotificationService) *DocumentService {
	return &DocumentService{db: db, store: store, cfg: cfg, activity: activity, notify: notify}
}

// RequiredDocuments lists the document categories a step demands.
func (s *DocumentService) RequiredDocuments(stepID uuid.UUID) ([]dto.RequiredDocument, error) {
	var reqs []models.StepDocument
	if err := s.db.Where("step_id = ?", stepID).Order("document_category ASC").Find(&reqs).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]dto.RequiredDocument, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, dto.RequiredDocument{
			DocumentCategory: r.DocumentCategory,
			SubmissionType:   r.SubmissionType,
		})
	}
	return out, nil
}

// SubmissionStatus joins a step's requirements against the lead's valid
// documents.
func (s *DocumentService) SubmissionStatus(leadID, stepID uuid.UUID) ([]dto.SubmissionStatus, error) {
	required, err := s.RequiredDocuments(stepID)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := s.db.Where("lead_id = ? AND status = ? AND is_submitted = true", leadID, models.DocumentStatusValid).
		Find(&docs).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	byCategory := make(map[string]uuid.UUID, len(docs))
	for _, d := range docs {
		byCategory[d.DocumentCategory] = d.ID
	}

	out := make([]dto.SubmissionStatus, 0, len(required))
	for _, r := range required {
		st := dto.SubmissionStatus{
			DocumentCategory: r.DocumentCategory,
			SubmissionType:   r.SubmissionType,
		}
		if id, ok := byCategory[r.DocumentCategory]; ok {
			st.Submitted = true
			docID := id
			st.DocumentID = &docID
		}
		out = append(out, st)
	}
	return out, nil
}

// AllSatisfied reports whether every required category for the step has a
// valid, submitted document. Steps with no requirements are satisfied.
func (s *DocumentService) AllSatisfied(leadID, stepID uuid.UUID) (bool, error) {
	statuses, err := s.SubmissionStatus(leadID, stepID)
	if err != nil {
		return false, err
	}
	for _, st := range statuses {
		if !st.Submitted {
			return false, nil
		}
	}
	return true, nil
}

// List returns the lead's documents, with signed URLs for file artifacts.
func (s *DocumentService) List(ctx context.Context, leadID uuid.UUID, actor *session.Identity) ([]dto.DocumentResponse, error) {
	lead, err := s.authorizeLead(leadID, actor, "read")
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := s.db.Where("lead_id = ?", lead.ID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp := dto.DocumentResponse{
			ID:               d.ID,
			LeadID:           d.LeadID,
			Type:             d.Type,
			DocumentCategory: d.DocumentCategory,
			Status:           d.Status,
			IsSubmitted:      d.IsSubmitted,
			FileName:         d.FileName,
			FileSize:         d.FileSize,
			MimeType:         d.MimeType,
			FormJSON:         []byte(d.FormJSON),
		}
		if d.FilePath != "" {
			url, err := s.store.SignedURL(ctx, d.FilePath, s.cfg.SignedURLTTL)
			if err != nil {
				slog.Error("signed URL generation failed", "lead_id", leadID.String(), "path", d.FilePath, "error", err)
			} else {
				resp.SignedURL = url
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

// SubmitFile uploads the artifact, then replaces any prior valid document
// for the category in one transaction. The superseded artifact is removed
// best-effort after commit.
func (s *DocumentService) SubmitFile(ctx context.Context, leadID uuid.UUID, category, fileName, mimeType string, data []byte, actor *session.Identity) (*models.Document, error) {
	lead, err := s.authorizeLead(leadID, actor, "submit")
	if err != nil {
		return nil, err
	}
	if category == "" {
		return nil, apperr.Validation("document category is required")
	}
	if len(data) == 0 {
		return nil, apperr.Validation("file is empty")
	}
	if len(data) > maxFileSize {
		return nil, apperr.Validation("file exceeds the 10MB limit")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	path := fmt.Sprintf("leads/%s/%s_%s%s", lead.ID, category, ulid.Make().String(), ext)

	if err := s.store.Upload(ctx, path, mimeType, data, actor.Credential); err != nil {
		return nil, apperr.Internal(err)
	}

	doc := models.Document{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		Type:             s.categoryType(category),
		DocumentCategory: category,
		Status:           models.DocumentStatusValid,
		IsSubmitted:      true,
		FilePath:         path,
		FileName:         fileName,
		FileSize:         int64(len(data)),
		MimeType:         mimeType,
		UploadedBy:       actor.UserID,
	}

	stalePaths, err := s.replace(&doc)
	if err != nil {
		// Roll the fresh upload back so the bucket holds no orphan.
		if rmErr := s.store.Remove(ctx, path, ""); rmErr != nil {
			slog.Error("orphaned upload cleanup failed", "path", path, "error", rmErr)
		}
		return nil, err
	}
	s.cleanupArtifacts(ctx, stalePaths)

	s.recordSubmission(lead, &doc, actor)
	s.maybeAdvanceLead(lead, actor)
	return &doc, nil
}

// SubmitForm stores a structured form submission under the same replace
// semantics as file uploads.
func (s *DocumentService) SubmitForm(ctx context.Context, leadID uuid.UUID, category string, form []byte, actor *session.Identity) (*models.Document, error) {
	lead, err := s.authorizeLead(leadID, actor, "submit")
	if err != nil {
		return nil, err
	}
	if category == "" {
		return nil, apperr.Validation("document category is required")
	}
	if len(form) == 0 {
		return nil, apperr.Validation("form data is required")
	}

	doc := models.Document{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		Type:             s.categoryType(category),
		DocumentCategory: category,
		Status:           models.DocumentStatusValid,
		IsSubmitted:      true,
		FormJSON:         datatypes.JSON(form),
		UploadedBy:       actor.UserID,
	}

	stalePaths, err := s.replace(&doc)
	if err != nil {
		return nil, err
	}
	s.cleanupArtifacts(ctx, stalePaths)

	s.recordSubmission(lead, &doc, actor)
	s.maybeAdvanceLead(lead, actor)
	return &doc, nil
}

// Delete removes a category's document row and artifact.
func (s *DocumentService) Delete(ctx context.Context, leadID uuid.UUID, category string, actor *session.Identity) error {
	lead, err := s.authorizeLead(leadID, actor, "delete")
	if err != nil {
		return err
	}

	var docs []models.Document
	if err := s.db.Where("lead_id = ? AND document_category = ?", lead.ID, category).Find(&docs).Error; err != nil {
		return apperr.Internal(err)
	}
	if len(docs) == 0 {
		return apperr.NotFound("no document for category " + category)
	}

	if err := s.db.Where("lead_id = ? AND document_category = ?", lead.ID, category).
		Delete(&models.Document{}).Error; err != nil {
		return apperr.Internal(err)
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.FilePath != "" {
			paths = append(paths, d.FilePath)
		}
	}
	s.cleanupArtifacts(ctx, paths)

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionDelete,
		EntityType: "document",
		OldValue:   jsonValue(map[string]string{"document_category": category}),
	})
	return nil
}

// MarkCorrupted flags a document so it no longer counts as submitted.
func (s *DocumentService) MarkCorrupted(leadID uuid.UUID, category string, actor *session.Identity) error {
	lead, err := s.authorizeLead(leadID, actor, "flag")
	if err != nil {
		return err
	}

	res := s.db.Model(&models.Document{}).
		Where("lead_id = ? AND document_category = ? AND status = ?", lead.ID, category, models.DocumentStatusValid).
		Updates(map[string]interface{}{"status": models.DocumentStatusCorrupted, "is_submitted": false})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("no valid document for category " + category)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionUpdate,
		EntityType: "document",
		NewValue:   jsonValue(map[string]string{"document_category": category, "status": models.DocumentStatusCorrupted}),
	})
	return nil
}

// replace deletes any prior valid row for (lead, category) and inserts the
// new one in a single transaction, returning the superseded file paths.
func (s *DocumentService) replace(doc *models.Document) ([]string, error) {
	var stalePaths []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var old []models.Document
		if err := tx.Where("lead_id = ? AND document_category = ? AND status = ?",
			doc.LeadID, doc.DocumentCategory, models.DocumentStatusValid).
			Find(&old).Error; err != nil {
			return err
		}
		for _, d := range old {
			if d.FilePath != "" {
				stalePaths = append(stalePaths, d.FilePath)
			}
		}
		if len(old) > 0 {
			if err := tx.Where("lead_id = ? AND document_category = ? AND status = ?",
				doc.LeadID, doc.DocumentCategory, models.DocumentStatusValid).
				Delete(&models.Document{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stalePaths, nil
}

func (s *DocumentService) cleanupArtifacts(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.store.Remove(ctx, p, ""); err != nil {
			slog.Error("superseded artifact removal failed", "path", p, "error", err)
		}
	}
}

// maybeAdvanceLead fires the automatic interested -> processing edge once
// every mandatory category across all steps has a valid document.
func (s *DocumentService) maybeAdvanceLead(lead *models.Lead, actor *session.Identity) {
	if lead.Status != models.LeadStatusInterested {
		return
	}

	var categories []string
	if err := s.db.Model(&models.StepDocument{}).
		Distinct("document_category").
		Pluck("document_category", &categories).Error; err != nil {
		slog.Error("mandatory category lookup failed", "lead_id", lead.ID.String(), "error", err)
		return
	}
	if len(categories) == 0 {
		return
	}

	var valid int64
	if err := s.db.Model(&models.Document{}).
		Where("lead_id = ? AND status = ? AND is_submitted = true AND document_category IN ?",
			lead.ID, models.DocumentStatusValid, categories).
		Distinct("document_category").
		Count(&valid).Error; err != nil {
		slog.Error("mandatory document count failed", "lead_id", lead.ID.String(), "error", err)
		return
	}
	if valid < int64(len(categories)) {
		return
	}

	// Guarded update: only an interested lead advances, so concurrent
	// submissions cannot double-fire the edge.
	res := s.db.Model(&models.Lead{}).
		Where("id = ? AND status = ?", lead.ID, models.LeadStatusInterested).
		Update("status", models.LeadStatusProcessing)
	if res.Error != nil {
		slog.Error("automatic lead advance failed", "lead_id", lead.ID.String(), "error", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		return
	}
	lead.Status = models.LeadStatusProcessing

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionStatusChange,
		EntityType: "lead",
		EntityID:   &lead.ID,
		OldValue:   jsonValue(map[string]string{"status": models.LeadStatusInterested}),
		NewValue:   jsonValue(map[string]string{"status": models.LeadStatusProcessing, "trigger": "documents_complete"}),
	})
	if lead.CustomerAccountID != nil {
		s.notify.Notify(*lead.CustomerAccountID, &lead.ID,
			"Documents complete",
			"All required documents are in; your installation is now being processed")
	}
}

// categoryType classifies a submission: categories required by any step are
// mandatory, anything else is a customer-provided extra.
func (s *DocumentService) categoryType(category string) string {
	var count int64
	if err := s.db.Model(&models.StepDocument{}).
		Where("document_category = ?", category).
		Count(&count).Error; err != nil || count == 0 {
		return models.DocumentTypeCustomer
	}
	return models.DocumentTypeMandatory
}

func (s *DocumentService) authorizeLead(leadID uuid.UUID, actor *session.Identity, action string) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	switch authz.Check(actor.Role, "documents", action) {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not " + action + " documents")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &lead, actor.UserID) {
			return nil, apperr.Forbidden("not your lead")
		}
	}
	return &lead, nil
}

func (s *DocumentService) recordSubmission(lead *models.Lead, doc *models.Document, actor *session.Identity) {
	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionCreate,
		EntityType: "document",
		EntityID:   &doc.ID,
		NewValue: jsonValue(map[string]string{
			"document_category": doc.DocumentCategory,
			"type":              doc.Type,
		}),
	})
}

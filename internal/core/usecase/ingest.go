package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
)

// IngestRecordUseCase keeps the embedding store consistent with the
// source-of-truth records: derive text, chunk, embed, store. Updates are
// always delete-then-recreate so chunk counts can change safely.
type IngestRecordUseCase struct {
	records  ports.RecordStore
	chunker  ports.Chunker
	embedder ports.Embedder
	vectors  ports.VectorStore
}

func NewIngestRecordUseCase(
	records ports.RecordStore,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectors ports.VectorStore,
) *IngestRecordUseCase {
	return &IngestRecordUseCase{
		records:  records,
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
	}
}

// UpsertRecord re-ingests one record. The returned error covers only the
// record side (unknown type, missing record); embedding and storage
// failures are reported through the outcome and logged, because the owning
// record write has already succeeded and must not be failed retroactively.
func (uc *IngestRecordUseCase) UpsertRecord(ctx context.Context, contentType domain.ContentType, referenceID string) (domain.IngestOutcome, error) {
	outcome := domain.IngestOutcome{
		ContentType: contentType,
		ReferenceID: referenceID,
	}

	text, metadata, err := uc.loadAndDerive(ctx, contentType, referenceID)
	if err != nil {
		return outcome, err
	}

	// Stale chunks go first; a partial failure here leaves the record
	// with zero chunks, which CountChunks exposes and a re-publish heals.
	if err := uc.vectors.DeleteByReference(ctx, contentType, referenceID); err != nil {
		outcome.FailureStage = "evict"
		slog.Warn("record_ingest_failed", "stage", "evict", "content_type", contentType, "reference_id", referenceID, "error", err)
		return outcome, nil
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return outcome, domain.WrapError(domain.ErrInvalidInput, "ingest record", errors.New("derived text produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		outcome.FailureStage = "embed"
		slog.Warn("record_ingest_failed", "stage", "embed", "content_type", contentType, "reference_id", referenceID, "error", err)
		return outcome, nil
	}
	if len(vectors) != len(chunks) {
		outcome.FailureStage = "embed"
		slog.Warn("record_ingest_failed", "stage", "embed", "content_type", contentType, "reference_id", referenceID,
			"error", fmt.Sprintf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
		return outcome, nil
	}

	now := time.Now().UTC()
	records := make([]domain.EmbeddingChunk, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, domain.EmbeddingChunk{
			Text:        chunk,
			ContentType: contentType,
			ReferenceID: referenceID,
			Metadata:    metadata,
			Vector:      vectors[i],
			ChunkIndex:  i,
			ChunkCount:  len(chunks),
			CreatedAt:   now,
		})
	}

	if err := uc.vectors.Insert(ctx, records); err != nil {
		outcome.FailureStage = "store"
		slog.Warn("record_ingest_failed", "stage", "store", "content_type", contentType, "reference_id", referenceID, "error", err)
		return outcome, nil
	}

	outcome.ChunkCount = len(chunks)
	outcome.Refreshed = true
	return outcome, nil
}

func (uc *IngestRecordUseCase) DeleteRecord(ctx context.Context, contentType domain.ContentType, referenceID string) error {
	if !contentType.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "delete record", fmt.Errorf("unknown content type %q", contentType))
	}
	if err := uc.vectors.DeleteByReference(ctx, contentType, referenceID); err != nil {
		return fmt.Errorf("delete chunks by reference: %w", err)
	}
	return nil
}

// CountChunks exposes the consistency check used to detect records left
// with zero chunks by a crash between delete and recreate.
func (uc *IngestRecordUseCase) CountChunks(ctx context.Context, contentType domain.ContentType, referenceID string) (int, error) {
	return uc.vectors.Count(ctx, contentType, referenceID)
}

func (uc *IngestRecordUseCase) loadAndDerive(ctx context.Context, contentType domain.ContentType, referenceID string) (string, map[string]string, error) {
	switch contentType {
	case domain.TypeExperience:
		exp, err := uc.records.GetExperience(ctx, referenceID)
		if err != nil {
			return "", nil, fmt.Errorf("load experience: %w", err)
		}
		text, metadata := deriveExperience(*exp)
		return text, metadata, nil
	case domain.TypeProject:
		proj, err := uc.records.GetProject(ctx, referenceID)
		if err != nil {
			return "", nil, fmt.Errorf("load project: %w", err)
		}
		text, metadata := deriveProject(*proj)
		return text, metadata, nil
	case domain.TypeEducation:
		edu, err := uc.records.GetEducation(ctx, referenceID)
		if err != nil {
			return "", nil, fmt.Errorf("load education: %w", err)
		}
		text, metadata := deriveEducation(*edu)
		return text, metadata, nil
	case domain.TypeSkill:
		skill, err := uc.records.GetSkill(ctx, referenceID)
		if err != nil {
			return "", nil, fmt.Errorf("load skill: %w", err)
		}
		text, metadata := deriveSkill(*skill)
		return text, metadata, nil
	case domain.TypeCertification:
		cert, err := uc.records.GetCertification(ctx, referenceID)
		if err != nil {
			return "", nil, fmt.Errorf("load certification: %w", err)
		}
		text, metadata := deriveCertification(*cert)
		return text, metadata, nil
	case domain.TypeAward:
		award, err := uc.records.GetAward(ctx, referenceID)
		if err != nil {
			return "", nil, fmt.Errorf("load award: %w", err)
		}
		text, metadata := deriveAward(*award)
		return text, metadata, nil
	default:
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "ingest record", fmt.Errorf("unknown content type %q", contentType))
	}
}

package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-docbridge/internal/bridge"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrIngestionAborted signals that a preprocessor dropped the document
// during ingestion. The caller skips the document and moves on.
var ErrIngestionAborted = errors.New("document ingestion aborted")

// LifecycleNotifier fans a document lifecycle event out to subscribers.
// Implemented by the plugin executor behind a wiring-time adapter.
type LifecycleNotifier interface {
	DocumentEvent(ctx context.Context, doc *Document, event string)
}

// PreprocessRunner runs the preprocessor chain over a document being
// ingested, mutating it in place. Returns ErrIngestionAborted when a
// preprocessor drops the document.
type PreprocessRunner interface {
	Preprocess(ctx context.Context, doc *Document) error
}

// CollectionResolver maps a collection identifier to local catalog ids.
type CollectionResolver interface {
	ResolveCollection(ctx context.Context, identifier string) (collectionID, workspaceID *primitive.ObjectID, err error)
}

type DocumentService interface {
	// UpsertFromRemote mirrors a remote document locally, reports whether
	// it was created, and fires the lifecycle events the save represents.
	UpsertFromRemote(ctx context.Context, remote *bridge.RemoteDocument, workspaceID, collectionID *primitive.ObjectID) (bool, error)
	// IngestFile creates a local document for an imported file, running
	// preprocessors inline. Returns ErrIngestionAborted when dropped.
	IngestFile(ctx context.Context, fileName string, collectionIdentifier string) (bool, error)
	GetByIdentifier(ctx context.Context, identifier string) (*Document, error)
	ListSyncEnabled(ctx context.Context, collectionID *primitive.ObjectID) ([]Document, error)
	CountByCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error)
	ArchiveDocument(ctx context.Context, identifier string) error
	SetCustomIdentifier(ctx context.Context, identifier string, customID string) error
	SetSyncEnabled(ctx context.Context, identifier string, enabled bool) error
}

type DocumentServiceImpl struct {
	Repo         DocumentRepository
	Notifier     LifecycleNotifier
	Preprocessor PreprocessRunner
	Collections  CollectionResolver
	Logger       *zap.Logger
}

func NewDocumentService(
	repo DocumentRepository,
	notifier LifecycleNotifier,
	preprocessor PreprocessRunner,
	collections CollectionResolver,
	logger *zap.Logger,
) DocumentService {
	return &DocumentServiceImpl{
		Repo:         repo,
		Notifier:     notifier,
		Preprocessor: preprocessor,
		Collections:  collections,
		Logger:       logger,
	}
}

func (s *DocumentServiceImpl) UpsertFromRemote(ctx context.Context, remote *bridge.RemoteDocument, workspaceID, collectionID *primitive.ObjectID) (bool, error) {
	existing, err := s.Repo.GetByIdentifier(ctx, remote.Identifier)
	if err != nil {
		return false, fmt.Errorf("lookup document %s: %w", remote.Identifier, err)
	}

	doc := mapRemote(remote, workspaceID, collectionID)
	created := existing == nil

	if created {
		if err := s.Repo.Create(ctx, doc); err != nil {
			return false, fmt.Errorf("create document %s: %w", remote.Identifier, err)
		}
	} else {
		doc.ID = existing.ID
		doc.CreatedDt = existing.CreatedDt
		doc.SyncEnabled = existing.SyncEnabled
		if doc.CustomIdentifier == "" {
			doc.CustomIdentifier = existing.CustomIdentifier
		}
		now := time.Now()
		doc.LastUpdatedDt = &now
		if err := s.Repo.Replace(ctx, doc); err != nil {
			return false, fmt.Errorf("update document %s: %w", remote.Identifier, err)
		}
	}

	for _, event := range detectEvents(existing, doc, created) {
		s.Notifier.DocumentEvent(ctx, doc, event)
	}
	return created, nil
}

// IngestFile registers a file brought in by an importer. Preprocessors
// run before the document is stored, so a rename or custom identifier
// lands on the persisted record and an abort leaves no trace.
func (s *DocumentServiceImpl) IngestFile(ctx context.Context, fileName string, collectionIdentifier string) (bool, error) {
	collectionID, workspaceID, err := s.Collections.ResolveCollection(ctx, collectionIdentifier)
	if err != nil {
		return false, fmt.Errorf("resolve collection %q: %w", collectionIdentifier, err)
	}

	doc := &Document{
		Identifier:   uuid.NewString(),
		FileName:     fileName,
		WorkspaceID:  workspaceID,
		CollectionID: collectionID,
		State:        StateReview,
		InReview:     true,
	}

	if err := s.Preprocessor.Preprocess(ctx, doc); err != nil {
		if errors.Is(err, ErrIngestionAborted) {
			s.Logger.Info("document dropped by preprocessor",
				zap.String("file", fileName),
			)
		}
		return false, err
	}

	existing, err := s.Repo.GetByIdentifier(ctx, doc.Identifier)
	if err != nil {
		return false, err
	}
	created := existing == nil
	if created {
		if err := s.Repo.Create(ctx, doc); err != nil {
			return false, err
		}
	} else {
		doc.ID = existing.ID
		if err := s.Repo.Replace(ctx, doc); err != nil {
			return false, err
		}
	}

	s.Notifier.DocumentEvent(ctx, doc, EventUploaded)
	return created, nil
}

func (s *DocumentServiceImpl) GetByIdentifier(ctx context.Context, identifier string) (*Document, error) {
	doc, err := s.Repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s not found", identifier)
	}
	return doc, nil
}

func (s *DocumentServiceImpl) ListSyncEnabled(ctx context.Context, collectionID *primitive.ObjectID) ([]Document, error) {
	return s.Repo.ListSyncEnabled(ctx, collectionID)
}

func (s *DocumentServiceImpl) CountByCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error) {
	return s.Repo.CountByCollection(ctx, collectionID)
}

func (s *DocumentServiceImpl) ArchiveDocument(ctx context.Context, identifier string) error {
	doc, err := s.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if doc.State == StateArchived {
		return nil
	}

	if err := s.Repo.Update(ctx, identifier, bson.M{"state": StateArchived}); err != nil {
		return err
	}

	doc.State = StateArchived
	s.Notifier.DocumentEvent(ctx, doc, EventArchived)
	return nil
}

func (s *DocumentServiceImpl) SetCustomIdentifier(ctx context.Context, identifier string, customID string) error {
	return s.Repo.Update(ctx, identifier, bson.M{"custom_identifier": customID})
}

func (s *DocumentServiceImpl) SetSyncEnabled(ctx context.Context, identifier string, enabled bool) error {
	return s.Repo.Update(ctx, identifier, bson.M{"sync_enabled": enabled})
}

func mapRemote(remote *bridge.RemoteDocument, workspaceID, collectionID *primitive.ObjectID) *Document {
	doc := &Document{
		Identifier:       remote.Identifier,
		CustomIdentifier: remote.CustomIdentifier,
		FileName:         remote.FileName,
		FileURL:          remote.FileURL,
		ReviewURL:        remote.ReviewURL,
		WorkspaceID:      workspaceID,
		CollectionID:     collectionID,
		State:            State(remote.State),
		IsConfirmed:      remote.IsConfirmed,
		InReview:         remote.InReview,
		Failed:           remote.Failed,
		Ready:            remote.Ready,
		Validatable:      remote.Validatable,
		HasChallenges:    remote.HasChallenges,
		Data:             remote.Data,
		Meta:             remote.Meta,
		Tags:             remote.Tags,
	}
	if t, err := time.Parse(time.RFC3339, remote.CreatedDt); err == nil {
		doc.CreatedDt = t
	}
	if t, err := time.Parse(time.RFC3339, remote.UploadedDt); err == nil {
		doc.UploadedDt = &t
	}
	return doc
}

package catalog

import (
	"context"
	"fmt"

	"go-docbridge/internal/bridge"
	"go-docbridge/internal/features/run"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SyncLauncher starts an ad-hoc full-collection sync and returns the run
// id. Implemented by the sync executor and injected at wiring time.
type SyncLauncher interface {
	LaunchFullCollectionSync(ctx context.Context, collectionID primitive.ObjectID) (string, error)
}

// DocumentCounter reports how many documents are mirrored locally for a
// collection. Implemented by the document feature.
type DocumentCounter interface {
	CountByCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error)
}

// CollectionDetail pairs a collection with the number of documents
// mirrored locally for it.
type CollectionDetail struct {
	Collection
	DocumentCount int64 `json:"document_count"`
}

type CatalogService interface {
	ListWorkspaces(ctx context.Context) ([]Workspace, error)
	// WorkspaceCollections lists the collections mirrored under one
	// workspace.
	WorkspaceCollections(ctx context.Context, workspaceIdentifier string) ([]Collection, error)
	ListCollections(ctx context.Context) ([]Collection, error)
	GetCollection(ctx context.Context, identifier string) (*Collection, error)
	// GetCollectionDetail is GetCollection plus the local document count.
	GetCollectionDetail(ctx context.Context, identifier string) (*CollectionDetail, error)
	// FullSync starts an ad-hoc full sync of a collection and returns the
	// run id the caller polls via sync-status.
	FullSync(ctx context.Context, identifier string) (string, error)
	// SyncStatus returns the most recent document sync run touching the
	// collection, or nil when it has never been synced.
	SyncStatus(ctx context.Context, identifier string) (*run.Run, error)
	// Refresh re-mirrors the remote workspace/collection catalog.
	Refresh(ctx context.Context) error
	// ResolveCollection maps a collection identifier to local ids for
	// document ingestion.
	ResolveCollection(ctx context.Context, identifier string) (*primitive.ObjectID, *primitive.ObjectID, error)
}

type CatalogServiceImpl struct {
	Workspaces  WorkspaceRepository
	Collections CollectionRepository
	Runs        run.RunService
	Launcher    SyncLauncher
	Bridge      bridge.Client
	Creds       bridge.Credentials
	Documents   DocumentCounter
	Logger      *zap.Logger
}

func NewCatalogService(
	workspaces WorkspaceRepository,
	collections CollectionRepository,
	runs run.RunService,
	launcher SyncLauncher,
	bridgeClient bridge.Client,
	creds bridge.Credentials,
	documents DocumentCounter,
	logger *zap.Logger,
) CatalogService {
	return &CatalogServiceImpl{
		Workspaces:  workspaces,
		Collections: collections,
		Runs:        runs,
		Launcher:    launcher,
		Bridge:      bridgeClient,
		Creds:       creds,
		Documents:   documents,
		Logger:      logger,
	}
}

func (s *CatalogServiceImpl) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	return s.Workspaces.List(ctx)
}

func (s *CatalogServiceImpl) WorkspaceCollections(ctx context.Context, workspaceIdentifier string) ([]Collection, error) {
	w, err := s.Workspaces.GetByIdentifier(ctx, workspaceIdentifier)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("workspace %s not found", workspaceIdentifier)
	}
	return s.Collections.ListByWorkspace(ctx, w.ID)
}

func (s *CatalogServiceImpl) ListCollections(ctx context.Context) ([]Collection, error) {
	return s.Collections.List(ctx)
}

func (s *CatalogServiceImpl) GetCollection(ctx context.Context, identifier string) (*Collection, error) {
	c, err := s.Collections.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("collection %s not found", identifier)
	}
	return c, nil
}

func (s *CatalogServiceImpl) GetCollectionDetail(ctx context.Context, identifier string) (*CollectionDetail, error) {
	c, err := s.GetCollection(ctx, identifier)
	if err != nil {
		return nil, err
	}
	count, err := s.Documents.CountByCollection(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("count local documents: %w", err)
	}
	return &CollectionDetail{Collection: *c, DocumentCount: count}, nil
}

func (s *CatalogServiceImpl) FullSync(ctx context.Context, identifier string) (string, error) {
	c, err := s.GetCollection(ctx, identifier)
	if err != nil {
		return "", err
	}
	return s.Launcher.LaunchFullCollectionSync(ctx, c.ID)
}

func (s *CatalogServiceImpl) SyncStatus(ctx context.Context, identifier string) (*run.Run, error) {
	c, err := s.GetCollection(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.Runs.LatestForCollection(ctx, c.ID)
}

func (s *CatalogServiceImpl) Refresh(ctx context.Context) error {
	workspaces, err := s.Bridge.ListWorkspaces(ctx, s.Creds.BridgeOrganization())
	if err != nil {
		return fmt.Errorf("list remote workspaces: %w", err)
	}

	for _, rw := range workspaces {
		w := &Workspace{
			Identifier:             rw.Identifier,
			Name:                   rw.Name,
			OrganizationIdentifier: rw.Organization,
			Raw:                    rw.Raw,
		}
		if err := s.Workspaces.Upsert(ctx, w); err != nil {
			return fmt.Errorf("upsert workspace %s: %w", rw.Identifier, err)
		}

		collections, err := s.Bridge.ListCollections(ctx, rw.Identifier)
		if err != nil {
			return fmt.Errorf("list collections for workspace %s: %w", rw.Identifier, err)
		}
		for _, rc := range collections {
			c := &Collection{
				Identifier:          rc.Identifier,
				Name:                rc.Name,
				WorkspaceID:         w.ID,
				WorkspaceIdentifier: rw.Identifier,
				Raw:                 rc.Raw,
			}
			if err := s.Collections.Upsert(ctx, c); err != nil {
				return fmt.Errorf("upsert collection %s: %w", rc.Identifier, err)
			}
		}
	}

	s.Logger.Info("catalog refreshed", zap.Int("workspaces", len(workspaces)))
	return nil
}

func (s *CatalogServiceImpl) ResolveCollection(ctx context.Context, identifier string) (*primitive.ObjectID, *primitive.ObjectID, error) {
	c, err := s.GetCollection(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	return &c.ID, &c.WorkspaceID, nil
}

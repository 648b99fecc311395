package syncer

import (
	"context"
	"fmt"
	"time"

	"go-docbridge/internal/bridge"
	"go-docbridge/internal/features/catalog"
	"go-docbridge/internal/features/document"
	"go-docbridge/internal/features/plugin"
	"go-docbridge/internal/features/run"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const batchSize = 100

// progressPercent stays within 0..100 even when the remote set grows
// between the count query and pagination.
func progressPercent(synced, total int) int {
	p := synced * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}

// ImporterRunner executes one data-source importer instance end to end.
// Implemented by the plugin executor.
type ImporterRunner interface {
	RunImporter(ctx context.Context, instanceID primitive.ObjectID) (plugin.ImportStats, error)
}

// Syncer drives a run through its sync strategy and records progress,
// log entries and the terminal transition on the run ledger. It is the
// single writer of every run it executes.
type Syncer struct {
	Runs        run.RunService
	Documents   document.DocumentService
	Collections catalog.CollectionRepository
	Bridge      bridge.Client
	Importer    ImporterRunner
	Logger      *zap.Logger
}

func NewSyncer(
	runs run.RunService,
	documents document.DocumentService,
	collections catalog.CollectionRepository,
	bridgeClient bridge.Client,
	importer ImporterRunner,
	logger *zap.Logger,
) *Syncer {
	return &Syncer{
		Runs:        runs,
		Documents:   documents,
		Collections: collections,
		Bridge:      bridgeClient,
		Importer:    importer,
		Logger:      logger,
	}
}

// Execute runs r to completion. The run must be in pending state; Execute
// always leaves it terminal.
func (s *Syncer) Execute(ctx context.Context, r *run.Run) {
	s.Runs.Begin(ctx, r.ID)

	var err error
	switch r.SyncType {
	case run.SyncTypeFullCollection:
		err = s.runFullCollection(ctx, r)
	case run.SyncTypeSelective:
		err = s.runSelective(ctx, r)
	case run.SyncTypeDataSource:
		err = s.runDataSource(ctx, r)
	default:
		err = fmt.Errorf("unknown sync type %q", r.SyncType)
	}

	if err != nil {
		s.Logger.Error("sync run failed",
			zap.String("run_id", r.ID.Hex()),
			zap.String("sync_type", string(r.SyncType)),
			zap.Error(err))
		s.Runs.Fail(ctx, r.ID, err)
		return
	}
	s.Runs.Complete(ctx, r.ID)
}

func (s *Syncer) runFullCollection(ctx context.Context, r *run.Run) error {
	if r.CollectionID == nil {
		return fmt.Errorf("full collection sync requires a collection")
	}
	collection, err := s.Collections.GetByID(ctx, *r.CollectionID)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	if collection == nil {
		return fmt.Errorf("collection %s not found", r.CollectionID.Hex())
	}

	query := bridge.DocumentQuery{Collection: collection.Identifier, Limit: 1, Count: true}
	page, err := s.Bridge.ListDocuments(ctx, query)
	if err != nil {
		return fmt.Errorf("count remote documents: %w", err)
	}
	total := page.Count

	// Some collections only list at workspace scope. Retry there before
	// treating the collection as empty.
	if total == 0 && collection.WorkspaceIdentifier != "" {
		s.Runs.Log(ctx, r.ID, run.LevelInfo,
			fmt.Sprintf("collection %s listing returned no documents, retrying at workspace scope", collection.Identifier),
			"", nil)
		query = bridge.DocumentQuery{Workspace: collection.WorkspaceIdentifier, Limit: 1, Count: true}
		page, err = s.Bridge.ListDocuments(ctx, query)
		if err != nil {
			return fmt.Errorf("count remote documents at workspace scope: %w", err)
		}
		total = page.Count
	}

	counters := run.Counters{TotalDocuments: total}
	s.Runs.Progress(ctx, r.ID, counters)
	s.Runs.Log(ctx, r.ID, run.LevelInfo, fmt.Sprintf("starting full sync of %d documents", total), "", nil)

	if total == 0 {
		counters.ProgressPercent = 100
		s.Runs.Progress(ctx, r.ID, counters)
		return nil
	}

	for offset := 0; offset < total; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}

		batch := bridge.DocumentQuery{
			Collection:  query.Collection,
			Workspace:   query.Workspace,
			Offset:      offset,
			Limit:       batchSize,
			IncludeData: true,
		}
		page, err := s.Bridge.ListDocuments(ctx, batch)
		if err != nil {
			return fmt.Errorf("list remote documents at offset %d: %w", offset, err)
		}
		if len(page.Results) == 0 {
			break
		}

		for i := range page.Results {
			remote := &page.Results[i]
			created, err := s.Documents.UpsertFromRemote(ctx, remote, &collection.WorkspaceID, &collection.ID)
			counters.DocumentsSynced++
			if err != nil {
				counters.DocumentsFailed++
				s.Runs.Log(ctx, r.ID, run.LevelError,
					fmt.Sprintf("failed to sync document: %v", err), remote.Identifier, nil)
				continue
			}
			if created {
				counters.DocumentsCreated++
			} else {
				counters.DocumentsUpdated++
			}
		}

		counters.ProgressPercent = progressPercent(counters.DocumentsSynced, total)
		s.Runs.Progress(ctx, r.ID, counters)
		s.Runs.Log(ctx, r.ID, run.LevelInfo,
			fmt.Sprintf("synced %d of %d documents", counters.DocumentsSynced, total), "", nil)
	}

	counters.ProgressPercent = 100
	s.Runs.Progress(ctx, r.ID, counters)
	return nil
}

func (s *Syncer) runSelective(ctx context.Context, r *run.Run) error {
	docs, err := s.Documents.ListSyncEnabled(ctx, r.CollectionID)
	if err != nil {
		return fmt.Errorf("list sync-enabled documents: %w", err)
	}

	counters := run.Counters{TotalDocuments: len(docs)}
	s.Runs.Progress(ctx, r.ID, counters)
	s.Runs.Log(ctx, r.ID, run.LevelInfo,
		fmt.Sprintf("starting selective sync of %d documents", len(docs)), "", nil)

	if len(docs) == 0 {
		counters.ProgressPercent = 100
		s.Runs.Progress(ctx, r.ID, counters)
		return nil
	}

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}
		doc := &docs[i]

		remote, err := s.Bridge.GetDocument(ctx, doc.Identifier)
		counters.DocumentsSynced++
		if err != nil {
			counters.DocumentsFailed++
			s.Runs.Log(ctx, r.ID, run.LevelError,
				fmt.Sprintf("failed to fetch document: %v", err), doc.Identifier, nil)
		} else {
			created, err := s.Documents.UpsertFromRemote(ctx, remote, doc.WorkspaceID, doc.CollectionID)
			if err != nil {
				counters.DocumentsFailed++
				s.Runs.Log(ctx, r.ID, run.LevelError,
					fmt.Sprintf("failed to sync document: %v", err), doc.Identifier, nil)
			} else if created {
				counters.DocumentsCreated++
			} else {
				counters.DocumentsUpdated++
			}
		}

		counters.ProgressPercent = progressPercent(counters.DocumentsSynced, len(docs))
		s.Runs.Progress(ctx, r.ID, counters)
	}
	return nil
}

func (s *Syncer) runDataSource(ctx context.Context, r *run.Run) error {
	if r.PluginInstanceID == nil {
		return fmt.Errorf("data source sync requires a plugin instance")
	}

	s.Runs.Log(ctx, r.ID, run.LevelInfo, "running data source importer", "", nil)
	stats, err := s.Importer.RunImporter(ctx, *r.PluginInstanceID)
	if err != nil {
		return fmt.Errorf("importer failed: %w", err)
	}

	s.Runs.Progress(ctx, r.ID, run.Counters{
		TotalDocuments:   stats.Synced,
		DocumentsSynced:  stats.Synced,
		DocumentsCreated: stats.Created,
		DocumentsUpdated: stats.Updated,
		DocumentsFailed:  stats.Failed,
		ProgressPercent:  100,
	})
	s.Runs.Log(ctx, r.ID, run.LevelInfo,
		fmt.Sprintf("importer finished: %d created, %d updated, %d failed", stats.Created, stats.Updated, stats.Failed),
		"", nil)
	return nil
}

// LaunchFullCollectionSync creates an ad-hoc manual run for a collection
// and executes it in the background.
func (s *Syncer) LaunchFullCollectionSync(ctx context.Context, collectionID primitive.ObjectID) (string, error) {
	r := &run.Run{
		CollectionID: &collectionID,
		SyncType:     run.SyncTypeFullCollection,
		Status:       run.StatusPending,
		TriggeredBy:  run.TriggeredByManual,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.Runs.Create(ctx, r); err != nil {
		return "", fmt.Errorf("create sync run: %w", err)
	}
	go s.Execute(context.Background(), r)
	return r.ID.Hex(), nil
}

// LaunchImporterRun creates an ad-hoc manual run for a data source
// importer instance and executes it in the background.
func (s *Syncer) LaunchImporterRun(ctx context.Context, instanceID primitive.ObjectID) (string, error) {
	r := &run.Run{
		PluginInstanceID: &instanceID,
		SyncType:         run.SyncTypeDataSource,
		Status:           run.StatusPending,
		TriggeredBy:      run.TriggeredByManual,
		StartedAt:        time.Now().UTC(),
	}
	if err := s.Runs.Create(ctx, r); err != nil {
		return "", fmt.Errorf("create sync run: %w", err)
	}
	go s.Execute(context.Background(), r)
	return r.ID.Hex(), nil
}

package document

import (
	"context"
	"errors"
	"testing"

	"go-docbridge/internal/bridge"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memDocRepo struct {
	docs map[string]*Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: map[string]*Document{}}
}

func (m *memDocRepo) Create(_ context.Context, d *Document) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	cp := *d
	m.docs[d.Identifier] = &cp
	return nil
}

func (m *memDocRepo) GetByIdentifier(_ context.Context, identifier string) (*Document, error) {
	d, ok := m.docs[identifier]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memDocRepo) Replace(_ context.Context, d *Document) error {
	cp := *d
	m.docs[d.Identifier] = &cp
	return nil
}

func (m *memDocRepo) Update(_ context.Context, identifier string, updates bson.M) error {
	d, ok := m.docs[identifier]
	if !ok {
		return errors.New("document not found")
	}
	if v, ok := updates["state"]; ok {
		d.State = v.(State)
	}
	if v, ok := updates["custom_identifier"]; ok {
		d.CustomIdentifier = v.(string)
	}
	if v, ok := updates["sync_enabled"]; ok {
		d.SyncEnabled = v.(bool)
	}
	return nil
}

func (m *memDocRepo) ListSyncEnabled(_ context.Context, collectionID *primitive.ObjectID) ([]Document, error) {
	var out []Document
	for _, d := range m.docs {
		if !d.SyncEnabled {
			continue
		}
		if collectionID != nil && (d.CollectionID == nil || *d.CollectionID != *collectionID) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDocRepo) CountByCollection(_ context.Context, collectionID primitive.ObjectID) (int64, error) {
	var n int64
	for _, d := range m.docs {
		if d.CollectionID != nil && *d.CollectionID == collectionID {
			n++
		}
	}
	return n, nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) DocumentEvent(_ context.Context, _ *Document, event string) {
	r.events = append(r.events, event)
}

type stubPreprocessor struct {
	err    error
	rename string
}

func (s *stubPreprocessor) Preprocess(_ context.Context, doc *Document) error {
	if s.rename != "" {
		doc.FileName = s.rename
	}
	return s.err
}

type stubResolver struct {
	collectionID primitive.ObjectID
	workspaceID  primitive.ObjectID
}

func (s *stubResolver) ResolveCollection(_ context.Context, _ string) (*primitive.ObjectID, *primitive.ObjectID, error) {
	return &s.collectionID, &s.workspaceID, nil
}

func newTestService(pre *stubPreprocessor) (DocumentService, *memDocRepo, *recordingNotifier) {
	repo := newMemDocRepo()
	notifier := &recordingNotifier{}
	if pre == nil {
		pre = &stubPreprocessor{}
	}
	svc := NewDocumentService(repo, notifier, pre, &stubResolver{
		collectionID: primitive.NewObjectID(),
		workspaceID:  primitive.NewObjectID(),
	}, zap.NewNop())
	return svc, repo, notifier
}

func remoteDoc(identifier string) *bridge.RemoteDocument {
	return &bridge.RemoteDocument{
		Identifier: identifier,
		FileName:   identifier + ".pdf",
		State:      "review",
		CreatedDt:  "2026-01-10T09:00:00Z",
	}
}

func TestUpsertNewDocumentFiresUploaded(t *testing.T) {
	svc, _, notifier := newTestService(nil)

	created, err := svc.UpsertFromRemote(context.Background(), remoteDoc("doc-1"), nil, nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for new document")
	}
	if len(notifier.events) != 1 || notifier.events[0] != EventUploaded {
		t.Fatalf("events = %v, want [%s]", notifier.events, EventUploaded)
	}
}

func TestUpsertDetectsLifecycleTransitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *bridge.RemoteDocument)
		want   []string
	}{
		{
			name:   "confirmation fires approved",
			mutate: func(r *bridge.RemoteDocument) { r.IsConfirmed = true },
			want:   []string{EventApproved},
		},
		{
			name:   "archive state fires archived",
			mutate: func(r *bridge.RemoteDocument) { r.State = "archived" },
			want:   []string{EventArchived},
		},
		{
			name:   "failure fires rejected",
			mutate: func(r *bridge.RemoteDocument) { r.Failed = true },
			want:   []string{EventRejected},
		},
		{
			name:   "plain save fires updated",
			mutate: func(r *bridge.RemoteDocument) { r.FileName = "renamed.pdf" },
			want:   []string{EventUpdated},
		},
		{
			name: "confirm and archive together fire both",
			mutate: func(r *bridge.RemoteDocument) {
				r.IsConfirmed = true
				r.State = "archived"
			},
			want: []string{EventApproved, EventArchived},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, notifier := newTestService(nil)
			ctx := context.Background()

			if _, err := svc.UpsertFromRemote(ctx, remoteDoc("doc-2"), nil, nil); err != nil {
				t.Fatalf("initial upsert: %v", err)
			}
			notifier.events = nil

			r := remoteDoc("doc-2")
			tt.mutate(r)
			created, err := svc.UpsertFromRemote(ctx, r, nil, nil)
			if err != nil {
				t.Fatalf("second upsert: %v", err)
			}
			if created {
				t.Fatal("expected created=false for existing document")
			}

			if len(notifier.events) != len(tt.want) {
				t.Fatalf("events = %v, want %v", notifier.events, tt.want)
			}
			for i := range tt.want {
				if notifier.events[i] != tt.want[i] {
					t.Fatalf("events = %v, want %v", notifier.events, tt.want)
				}
			}
		})
	}
}

func TestUpsertPreservesSyncEnabled(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.UpsertFromRemote(ctx, remoteDoc("doc-3"), nil, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := svc.SetSyncEnabled(ctx, "doc-3", true); err != nil {
		t.Fatalf("set sync enabled: %v", err)
	}

	if _, err := svc.UpsertFromRemote(ctx, remoteDoc("doc-3"), nil, nil); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	d := repo.docs["doc-3"]
	if !d.SyncEnabled {
		t.Fatal("sync_enabled flag lost on remote upsert")
	}
}

func TestIngestFileRunsPreprocessorsBeforeSave(t *testing.T) {
	svc, repo, notifier := newTestService(&stubPreprocessor{rename: "normalized.pdf"})

	created, err := svc.IngestFile(context.Background(), "Messy Name.PDF", "col-1")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !created {
		t.Fatal("expected created=true")
	}

	var stored *Document
	for _, d := range repo.docs {
		stored = d
	}
	if stored == nil || stored.FileName != "normalized.pdf" {
		t.Fatalf("preprocessor rename not persisted: %+v", stored)
	}
	if len(notifier.events) != 1 || notifier.events[0] != EventUploaded {
		t.Fatalf("events = %v", notifier.events)
	}
}

func TestIngestFileAbortLeavesNoDocument(t *testing.T) {
	svc, repo, notifier := newTestService(&stubPreprocessor{err: ErrIngestionAborted})

	_, err := svc.IngestFile(context.Background(), "spam.pdf", "col-1")
	if !errors.Is(err, ErrIngestionAborted) {
		t.Fatalf("expected ErrIngestionAborted, got %v", err)
	}
	if len(repo.docs) != 0 {
		t.Fatal("aborted document was persisted")
	}
	if len(notifier.events) != 0 {
		t.Fatalf("aborted ingestion fired events: %v", notifier.events)
	}
}

func TestArchiveDocumentIsIdempotent(t *testing.T) {
	svc, _, notifier := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.UpsertFromRemote(ctx, remoteDoc("doc-4"), nil, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	notifier.events = nil

	if err := svc.ArchiveDocument(ctx, "doc-4"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := svc.ArchiveDocument(ctx, "doc-4"); err != nil {
		t.Fatalf("second archive: %v", err)
	}

	if len(notifier.events) != 1 || notifier.events[0] != EventArchived {
		t.Fatalf("events = %v, want one archived event", notifier.events)
	}
}

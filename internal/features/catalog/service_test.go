package catalog

import (
	"context"
	"testing"

	"go-docbridge/internal/bridge"
	"go-docbridge/internal/features/run"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memWorkspaceRepo struct {
	items map[string]*Workspace
}

func newMemWorkspaceRepo() *memWorkspaceRepo {
	return &memWorkspaceRepo{items: map[string]*Workspace{}}
}

func (r *memWorkspaceRepo) Upsert(_ context.Context, w *Workspace) error {
	if existing, ok := r.items[w.Identifier]; ok {
		w.ID = existing.ID
	} else if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	copied := *w
	r.items[w.Identifier] = &copied
	return nil
}

func (r *memWorkspaceRepo) GetByIdentifier(_ context.Context, identifier string) (*Workspace, error) {
	w, ok := r.items[identifier]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (r *memWorkspaceRepo) List(_ context.Context) ([]Workspace, error) {
	out := make([]Workspace, 0, len(r.items))
	for _, w := range r.items {
		out = append(out, *w)
	}
	return out, nil
}

type memCollectionRepo struct {
	items map[string]*Collection
}

func newMemCollectionRepo() *memCollectionRepo {
	return &memCollectionRepo{items: map[string]*Collection{}}
}

func (r *memCollectionRepo) Upsert(_ context.Context, c *Collection) error {
	if existing, ok := r.items[c.Identifier]; ok {
		c.ID = existing.ID
	} else if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	copied := *c
	r.items[c.Identifier] = &copied
	return nil
}

func (r *memCollectionRepo) GetByIdentifier(_ context.Context, identifier string) (*Collection, error) {
	c, ok := r.items[identifier]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *memCollectionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*Collection, error) {
	for _, c := range r.items {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memCollectionRepo) List(_ context.Context) ([]Collection, error) {
	out := make([]Collection, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCollectionRepo) ListByWorkspace(_ context.Context, workspaceID primitive.ObjectID) ([]Collection, error) {
	var out []Collection
	for _, c := range r.items {
		if c.WorkspaceID == workspaceID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type stubBridge struct {
	workspaces  []bridge.RemoteWorkspace
	collections map[string][]bridge.RemoteCollection
}

func (b *stubBridge) ListDocuments(_ context.Context, _ bridge.DocumentQuery) (*bridge.DocumentPage, error) {
	return &bridge.DocumentPage{}, nil
}

func (b *stubBridge) GetDocument(_ context.Context, _ string) (*bridge.RemoteDocument, error) {
	return nil, nil
}

func (b *stubBridge) ListWorkspaces(_ context.Context, _ string) ([]bridge.RemoteWorkspace, error) {
	return b.workspaces, nil
}

func (b *stubBridge) ListCollections(_ context.Context, workspace string) ([]bridge.RemoteCollection, error) {
	return b.collections[workspace], nil
}

type stubDocCounter struct {
	counts map[primitive.ObjectID]int64
}

func (c *stubDocCounter) CountByCollection(_ context.Context, collectionID primitive.ObjectID) (int64, error) {
	return c.counts[collectionID], nil
}

type stubCreds struct {
	organization string
}

func (c *stubCreds) BridgeBaseURL() string      { return "http://bridge.local" }
func (c *stubCreds) BridgeAPIKey() string       { return "test-key" }
func (c *stubCreds) BridgeOrganization() string { return c.organization }

type stubLauncher struct {
	launched []primitive.ObjectID
	syncID   string
}

func (l *stubLauncher) LaunchFullCollectionSync(_ context.Context, collectionID primitive.ObjectID) (string, error) {
	l.launched = append(l.launched, collectionID)
	return l.syncID, nil
}

type stubRuns struct {
	run.RunService
	latest *run.Run
}

func (s *stubRuns) LatestForCollection(_ context.Context, _ primitive.ObjectID) (*run.Run, error) {
	return s.latest, nil
}

func newTestService(b bridge.Client, launcher SyncLauncher, runs run.RunService) (*CatalogServiceImpl, *memWorkspaceRepo, *memCollectionRepo) {
	workspaces := newMemWorkspaceRepo()
	collections := newMemCollectionRepo()
	svc := &CatalogServiceImpl{
		Workspaces:  workspaces,
		Collections: collections,
		Runs:        runs,
		Launcher:    launcher,
		Bridge:      b,
		Creds:       &stubCreds{},
		Documents:   &stubDocCounter{},
		Logger:      zap.NewNop(),
	}
	return svc, workspaces, collections
}

func TestRefreshMirrorsRemoteCatalog(t *testing.T) {
	b := &stubBridge{
		workspaces: []bridge.RemoteWorkspace{
			{Identifier: "ws-1", Name: "Invoices", Organization: "org-1"},
			{Identifier: "ws-2", Name: "Receipts", Organization: "org-1"},
		},
		collections: map[string][]bridge.RemoteCollection{
			"ws-1": {
				{Identifier: "col-a", Name: "Inbound", Workspace: "ws-1"},
				{Identifier: "col-b", Name: "Outbound", Workspace: "ws-1"},
			},
			"ws-2": {
				{Identifier: "col-c", Name: "Scans", Workspace: "ws-2"},
			},
		},
	}
	svc, workspaces, collections := newTestService(b, &stubLauncher{}, &stubRuns{})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := len(workspaces.items); got != 2 {
		t.Fatalf("expected 2 workspaces, got %d", got)
	}
	if got := len(collections.items); got != 3 {
		t.Fatalf("expected 3 collections, got %d", got)
	}

	colA, _ := collections.GetByIdentifier(context.Background(), "col-a")
	wsOne, _ := workspaces.GetByIdentifier(context.Background(), "ws-1")
	if colA.WorkspaceID != wsOne.ID {
		t.Fatalf("collection col-a should link to workspace ws-1")
	}
	if colA.WorkspaceIdentifier != "ws-1" {
		t.Fatalf("expected workspace identifier ws-1, got %q", colA.WorkspaceIdentifier)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	b := &stubBridge{
		workspaces: []bridge.RemoteWorkspace{{Identifier: "ws-1", Name: "Invoices"}},
		collections: map[string][]bridge.RemoteCollection{
			"ws-1": {{Identifier: "col-a", Name: "Inbound", Workspace: "ws-1"}},
		},
	}
	svc, _, collections := newTestService(b, &stubLauncher{}, &stubRuns{})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	first, _ := collections.GetByIdentifier(context.Background(), "col-a")

	b.collections["ws-1"][0].Name = "Inbound Renamed"
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}

	second, _ := collections.GetByIdentifier(context.Background(), "col-a")
	if second.ID != first.ID {
		t.Fatalf("refresh must update in place, got a new record")
	}
	if second.Name != "Inbound Renamed" {
		t.Fatalf("expected renamed collection, got %q", second.Name)
	}
}

func TestFullSyncLaunchesForKnownCollection(t *testing.T) {
	launcher := &stubLauncher{syncID: "run-123"}
	svc, _, collections := newTestService(&stubBridge{}, launcher, &stubRuns{})

	col := &Collection{Identifier: "col-a", Name: "Inbound"}
	if err := collections.Upsert(context.Background(), col); err != nil {
		t.Fatal(err)
	}

	syncID, err := svc.FullSync(context.Background(), "col-a")
	if err != nil {
		t.Fatalf("FullSync failed: %v", err)
	}
	if syncID != "run-123" {
		t.Fatalf("expected run-123, got %q", syncID)
	}
	if len(launcher.launched) != 1 || launcher.launched[0] != col.ID {
		t.Fatalf("launcher should receive the collection id")
	}
}

func TestFullSyncRejectsUnknownCollection(t *testing.T) {
	svc, _, _ := newTestService(&stubBridge{}, &stubLauncher{}, &stubRuns{})

	if _, err := svc.FullSync(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestSyncStatusReturnsLatestRun(t *testing.T) {
	latest := &run.Run{ID: primitive.NewObjectID(), Status: run.StatusCompleted}
	svc, _, collections := newTestService(&stubBridge{}, &stubLauncher{}, &stubRuns{latest: latest})

	if err := collections.Upsert(context.Background(), &Collection{Identifier: "col-a"}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.SyncStatus(context.Background(), "col-a")
	if err != nil {
		t.Fatalf("SyncStatus failed: %v", err)
	}
	if got == nil || got.ID != latest.ID {
		t.Fatalf("expected latest run to be returned")
	}
}

func TestWorkspaceCollectionsFiltersByWorkspace(t *testing.T) {
	svc, workspaces, collections := newTestService(&stubBridge{}, &stubLauncher{}, &stubRuns{})
	ctx := context.Background()

	wsA := &Workspace{Identifier: "ws-a", Name: "Invoices"}
	wsB := &Workspace{Identifier: "ws-b", Name: "Receipts"}
	if err := workspaces.Upsert(ctx, wsA); err != nil {
		t.Fatal(err)
	}
	if err := workspaces.Upsert(ctx, wsB); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*Collection{
		{Identifier: "col-1", WorkspaceID: wsA.ID},
		{Identifier: "col-2", WorkspaceID: wsA.ID},
		{Identifier: "col-3", WorkspaceID: wsB.ID},
	} {
		if err := collections.Upsert(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.WorkspaceCollections(ctx, "ws-a")
	if err != nil {
		t.Fatalf("WorkspaceCollections failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 collections for ws-a, got %d", len(got))
	}
	for _, c := range got {
		if c.WorkspaceID != wsA.ID {
			t.Fatalf("collection %s belongs to another workspace", c.Identifier)
		}
	}

	if _, err := svc.WorkspaceCollections(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown workspace")
	}
}

func TestGetCollectionDetailIncludesLocalCount(t *testing.T) {
	svc, _, collections := newTestService(&stubBridge{}, &stubLauncher{}, &stubRuns{})
	ctx := context.Background()

	col := &Collection{Identifier: "col-a", Name: "Inbound"}
	if err := collections.Upsert(ctx, col); err != nil {
		t.Fatal(err)
	}
	svc.Documents = &stubDocCounter{counts: map[primitive.ObjectID]int64{col.ID: 42}}

	detail, err := svc.GetCollectionDetail(ctx, "col-a")
	if err != nil {
		t.Fatalf("GetCollectionDetail failed: %v", err)
	}
	if detail.Identifier != "col-a" || detail.DocumentCount != 42 {
		t.Fatalf("expected col-a with 42 local documents, got %+v", detail)
	}

	if _, err := svc.GetCollectionDetail(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestResolveCollection(t *testing.T) {
	svc, _, collections := newTestService(&stubBridge{}, &stubLauncher{}, &stubRuns{})

	workspaceID := primitive.NewObjectID()
	col := &Collection{Identifier: "col-a", WorkspaceID: workspaceID}
	if err := collections.Upsert(context.Background(), col); err != nil {
		t.Fatal(err)
	}

	collectionID, resolvedWorkspace, err := svc.ResolveCollection(context.Background(), "col-a")
	if err != nil {
		t.Fatalf("ResolveCollection failed: %v", err)
	}
	if *collectionID != col.ID {
		t.Fatalf("expected collection id %s, got %s", col.ID.Hex(), collectionID.Hex())
	}
	if *resolvedWorkspace != workspaceID {
		t.Fatalf("expected workspace id %s, got %s", workspaceID.Hex(), resolvedWorkspace.Hex())
	}

	if _, _, err := svc.ResolveCollection(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

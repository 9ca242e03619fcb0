package printjob

import (
	"testing"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	printcmd "github.com/HMC-Makerspace/BLUEPRINT/command"
	"github.com/goliatone/go-command/dispatcher"
)

func TestCleanupTask_GetHandler_BuildsMessageAndExecutes(t *testing.T) {
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	store := &fakeArtifactStore{
		refs: []blueprint.ArtifactRef{
			{Key: "previews/stale.png", Class: blueprint.ArtifactPreview, CreatedAt: now.Add(-48 * time.Hour)},
			{Key: "spool/fresh.pdf", Class: blueprint.ArtifactPrint, CreatedAt: now.Add(-time.Hour)},
		},
	}
	handler := printcmd.NewCleanupArtifactsHandler(store, blueprint.RetentionRules{DefaultTTL: 24 * time.Hour})

	sub := dispatcher.SubscribeCommand(handler)
	defer sub.Unsubscribe()

	scheduler := NewScheduler(Config{Now: func() time.Time { return now }})
	task := NewCleanupTask(TaskConfig{MessageBuilder: scheduler.MessageBuilder()})

	if err := task.GetHandler()(); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(store.deleted) != 1 || store.deleted[0] != "previews/stale.png" {
		t.Fatalf("expected the stale preview swept, got %v", store.deleted)
	}
}

func TestCleanupTask_TaskSurface(t *testing.T) {
	task := NewCleanupTask(TaskConfig{})
	if task.GetID() != DefaultCleanupTaskID {
		t.Fatalf("expected default task id, got %q", task.GetID())
	}
	if task.GetPath() != DefaultCleanupTaskPath {
		t.Fatalf("expected default task path, got %q", task.GetPath())
	}
	if task.GetEngine() != nil {
		t.Fatalf("code-driven task must not carry an engine")
	}
}

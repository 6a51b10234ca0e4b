package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"pagecraft/internal/models"
)

func TestSnapshotLatestSQL(t *testing.T) {
	db, mock := newMock(t)
	s := NewSnapshotStore(db)
	templateID := uuid.New()
	snapID := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(`ORDER BY created_at DESC, id DESC LIMIT 1`)).
		WithArgs(templateID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "rev", "full_data", "hash", "created_at"}).
			AddRow(snapID.String(), templateID.String(), 2, []byte(`{"pages":[]}`), "abc", created))

	sn, err := s.Latest(context.Background(), templateID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if sn == nil || sn.ID != snapID || sn.Rev != 2 || sn.Hash != "abc" {
		t.Fatalf("unexpected snapshot: %+v", sn)
	}
	if !sn.CreatedAt.Equal(created) {
		t.Errorf("created_at: got %v", sn.CreatedAt)
	}

	mock.ExpectQuery(q(`ORDER BY created_at DESC, id DESC LIMIT 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "rev", "full_data", "hash", "created_at"}))
	sn, err = s.Latest(context.Background(), uuid.New())
	if err != nil || sn != nil {
		t.Errorf("expected nil, nil without snapshots, got %v, %v", sn, err)
	}
}

func TestSnapshotStoreIntegration(t *testing.T) {
	db := testDB(t)
	s := NewSnapshotStore(db)
	ctx := context.Background()
	tmpl := createTemplate(t, db)

	latest, err := s.Latest(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != nil {
		t.Fatal("expected no snapshots for a new template")
	}

	first, err := s.Create(ctx, &models.Snapshot{
		TemplateID: tmpl.ID, Rev: 0, FullData: []byte(`{"pages":[]}`), Hash: "h0",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Create(ctx, &models.Snapshot{
		TemplateID: tmpl.ID, Rev: 1, FullData: []byte(`{"pages":[{"id":"p1"}]}`), Hash: "h1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err = s.Latest(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("latest: got %+v, want %s", latest, second.ID)
	}

	list, err := s.ListByTemplate(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("ListByTemplate: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("list order: got %d snapshots", len(list))
	}

	found, err := s.FindByID(ctx, first.ID)
	if err != nil || found == nil || found.TemplateID != tmpl.ID {
		t.Errorf("FindByID: got %+v, %v", found, err)
	}
}

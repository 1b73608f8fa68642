package service_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"clarify/internal/journal"
	"clarify/internal/related"
	"clarify/internal/service"
	"clarify/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

func strPtr(s string) *string { return &s }

func TestJournalService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	index := mocks.NewMockRelatedIndex(ctrl)
	svc := service.NewJournalService(store, index)

	created := journal.Entry{ID: "e1", Content: "thinking out loud", Version: 1}

	tests := []struct {
		name         string
		in           journal.EntryInput
		mockSetup    func()
		wantErr      bool
		checkErrType func(error) bool
	}{
		{
			name: "created and indexed",
			in:   journal.EntryInput{Content: "thinking out loud"},
			mockSetup: func() {
				store.EXPECT().Create(gomock.Any(), journal.EntryInput{Content: "thinking out loud"}).Return(created, nil)
				index.EXPECT().IndexEntry(gomock.Any(), created).Return(nil)
			},
		},
		{
			name: "index failure does not fail the write",
			in:   journal.EntryInput{Content: "thinking out loud"},
			mockSetup: func() {
				store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(created, nil)
				index.EXPECT().IndexEntry(gomock.Any(), created).Return(errors.New("qdrant down"))
			},
		},
		{
			name:      "blank content",
			in:        journal.EntryInput{Content: " \n\t "},
			mockSetup: func() {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "content"
			},
		},
		{
			name: "conflict",
			in:   journal.EntryInput{Content: "thinking out loud"},
			mockSetup: func() {
				store.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(journal.Entry{}, fmt.Errorf("%w: stale", journal.ErrConflict))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrConflict) && errors.Is(err, journal.ErrConflict)
			},
		},
		{
			name: "storage failure",
			in:   journal.EntryInput{Content: "thinking out loud"},
			mockSetup: func() {
				store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(journal.Entry{}, errors.New("disk full"))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return !errors.Is(err, service.ErrConflict)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			got, err := svc.Create(testContext(), tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Create() expected error, got nil")
				}
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("Create() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if got.ID != created.ID {
				t.Errorf("Create() id = %v, want %v", got.ID, created.ID)
			}
		})
	}
}

func TestJournalService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	svc := service.NewJournalService(store, nil)

	updated := journal.Entry{ID: "e1", Content: "revised", Version: 2}

	tests := []struct {
		name      string
		patch     journal.EntryPatch
		mockSetup func()
		wantErr   error
	}{
		{
			name:  "updated",
			patch: journal.EntryPatch{Content: strPtr("revised")},
			mockSetup: func() {
				store.EXPECT().Update(gomock.Any(), "e1", journal.EntryPatch{Content: strPtr("revised")}).Return(updated, true, nil)
			},
		},
		{
			name:  "title only patch skips content validation",
			patch: journal.EntryPatch{Title: strPtr("")},
			mockSetup: func() {
				store.EXPECT().Update(gomock.Any(), "e1", gomock.Any()).Return(updated, true, nil)
			},
		},
		{
			name:      "blank content",
			patch:     journal.EntryPatch{Content: strPtr("   ")},
			mockSetup: func() {},
			wantErr:   service.ErrInvalidInput,
		},
		{
			name:  "missing entry",
			patch: journal.EntryPatch{Content: strPtr("revised")},
			mockSetup: func() {
				store.EXPECT().Update(gomock.Any(), "e1", gomock.Any()).Return(journal.Entry{}, false, nil)
			},
			wantErr: service.ErrNotFound,
		},
		{
			name:  "conflict",
			patch: journal.EntryPatch{Content: strPtr("revised")},
			mockSetup: func() {
				store.EXPECT().Update(gomock.Any(), "e1", gomock.Any()).
					Return(journal.Entry{}, false, fmt.Errorf("%w: stale", journal.ErrConflict))
			},
			wantErr: service.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			got, err := svc.Update(testContext(), "e1", tt.patch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() unexpected error: %v", err)
			}
			if got.Version != 2 {
				t.Errorf("Update() version = %d, want 2", got.Version)
			}
		})
	}
}

func TestJournalService_UpdateReindexing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	index := mocks.NewMockRelatedIndex(ctrl)
	svc := service.NewJournalService(store, index)

	updated := journal.Entry{ID: "e1", Content: "revised", Version: 3}

	tests := []struct {
		name        string
		patch       journal.EntryPatch
		wantIndexed bool
	}{
		{
			name:        "content change is reindexed",
			patch:       journal.EntryPatch{Content: strPtr("revised")},
			wantIndexed: true,
		},
		{
			name:        "cleared assumptions are reindexed",
			patch:       journal.EntryPatch{Assumptions: []string{}},
			wantIndexed: true,
		},
		{
			name:        "empty patch is not reindexed",
			patch:       journal.EntryPatch{},
			wantIndexed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.EXPECT().Update(gomock.Any(), "e1", tt.patch).Return(updated, true, nil)
			if tt.wantIndexed {
				index.EXPECT().IndexEntry(gomock.Any(), updated).Return(nil)
			}

			got, err := svc.Update(testContext(), "e1", tt.patch)
			if err != nil {
				t.Fatalf("Update() unexpected error: %v", err)
			}
			if got.Version != 3 {
				t.Errorf("Update() version = %d, want 3", got.Version)
			}
		})
	}
}

func TestJournalService_GetAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	index := mocks.NewMockRelatedIndex(ctrl)
	svc := service.NewJournalService(store, index)

	store.EXPECT().Get(gomock.Any(), "e1").Return(journal.Entry{ID: "e1"}, true)
	store.EXPECT().Get(gomock.Any(), "missing").Return(journal.Entry{}, false)

	if _, err := svc.Get(testContext(), "e1"); err != nil {
		t.Errorf("Get() unexpected error: %v", err)
	}
	if _, err := svc.Get(testContext(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	store.EXPECT().Delete(gomock.Any(), "e1").Return(true, nil)
	index.EXPECT().RemoveEntry(gomock.Any(), "e1").Return(errors.New("qdrant down"))
	if err := svc.Delete(testContext(), "e1"); err != nil {
		t.Errorf("Delete() unexpected error: %v", err)
	}

	store.EXPECT().Delete(gomock.Any(), "missing").Return(false, nil)
	if err := svc.Delete(testContext(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestJournalService_ListAndHistoryPassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	svc := service.NewJournalService(store, nil)

	list := journal.EntryList{Entries: []journal.Entry{}, Recovered: true}
	history := journal.HistoryList{Records: []journal.HistoryRecord{{EntryID: "e1", Version: 1}}}
	store.EXPECT().List(gomock.Any()).Return(list)
	store.EXPECT().GetHistory(gomock.Any(), "e1").Return(history)

	if got := svc.List(testContext()); !reflect.DeepEqual(got, list) {
		t.Errorf("List() = %+v, want %+v", got, list)
	}
	if got := svc.History(testContext(), "e1"); !reflect.DeepEqual(got, history) {
		t.Errorf("History() = %+v, want %+v", got, history)
	}
}

func TestJournalService_Related(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	index := mocks.NewMockRelatedIndex(ctrl)
	svc := service.NewJournalService(store, index)

	e1 := journal.Entry{ID: "e1", Content: "one"}
	e2 := journal.Entry{ID: "e2", Content: "two"}

	store.EXPECT().Get(gomock.Any(), "e1").Return(e1, true)
	index.EXPECT().Similar(gomock.Any(), e1, service.DefaultRelatedLimit).Return([]related.Match{
		{EntryID: "e2", Score: 0.9},
		{EntryID: "deleted", Score: 0.8},
	}, nil)
	store.EXPECT().List(gomock.Any()).Return(journal.EntryList{Entries: []journal.Entry{e1, e2}})

	got, err := svc.Related(testContext(), "e1", 0)
	if err != nil {
		t.Fatalf("Related() unexpected error: %v", err)
	}
	want := []service.RelatedEntry{{Entry: e2, Score: 0.9}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Related() = %+v, want %+v", got, want)
	}

	store.EXPECT().Get(gomock.Any(), "missing").Return(journal.Entry{}, false)
	if _, err := svc.Related(testContext(), "missing", 3); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Related() error = %v, want ErrNotFound", err)
	}

	store.EXPECT().Get(gomock.Any(), "e1").Return(e1, true)
	index.EXPECT().Similar(gomock.Any(), e1, 3).Return(nil, errors.New("qdrant down"))
	if _, err := svc.Related(testContext(), "e1", 3); !errors.Is(err, service.ErrExternalService) {
		t.Errorf("Related() error = %v, want ErrExternalService", err)
	}
}

func TestJournalService_RelatedNotConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewJournalService(mocks.NewMockJournalStore(ctrl), nil)

	if _, err := svc.Related(testContext(), "e1", 3); !errors.Is(err, service.ErrNotConfigured) {
		t.Errorf("Related() error = %v, want ErrNotConfigured", err)
	}
	if _, err := svc.Reindex(testContext()); !errors.Is(err, service.ErrNotConfigured) {
		t.Errorf("Reindex() error = %v, want ErrNotConfigured", err)
	}
}

func TestJournalService_ImportReindexes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	index := mocks.NewMockRelatedIndex(ctrl)
	svc := service.NewJournalService(store, index)

	entries := []journal.Entry{{ID: "a"}, {ID: "b"}}
	blob := []byte(`{"entries":[]}`)

	store.EXPECT().Import(gomock.Any(), blob).Return(journal.ImportResult{Success: true, EntriesImported: 2}, nil)
	store.EXPECT().List(gomock.Any()).Return(journal.EntryList{Entries: entries})
	index.EXPECT().IndexEntry(gomock.Any(), entries[0]).Return(errors.New("embedding failed"))
	index.EXPECT().IndexEntry(gomock.Any(), entries[1]).Return(nil)

	result, err := svc.Import(testContext(), blob)
	if err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}
	if !result.Success || result.EntriesImported != 2 {
		t.Errorf("Import() = %+v", result)
	}

	// A rejected import reindexes nothing.
	store.EXPECT().Import(gomock.Any(), gomock.Any()).Return(journal.ImportResult{}, nil)
	result, err = svc.Import(testContext(), []byte("nope"))
	if err != nil || result.Success {
		t.Errorf("Import() = %+v, %v; want unsuccessful without error", result, err)
	}
}

func TestJournalService_Reindex(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	index := mocks.NewMockRelatedIndex(ctrl)
	svc := service.NewJournalService(store, index)

	entries := []journal.Entry{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	store.EXPECT().List(gomock.Any()).Return(journal.EntryList{Entries: entries})
	index.EXPECT().IndexEntry(gomock.Any(), entries[0]).Return(nil)
	index.EXPECT().IndexEntry(gomock.Any(), entries[1]).Return(errors.New("embedding failed"))
	index.EXPECT().IndexEntry(gomock.Any(), entries[2]).Return(nil)

	indexed, err := svc.Reindex(testContext())
	if indexed != 2 {
		t.Errorf("Reindex() indexed = %d, want 2", indexed)
	}
	if !errors.Is(err, service.ErrExternalService) {
		t.Errorf("Reindex() error = %v, want ErrExternalService", err)
	}
}

func TestJournalService_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockJournalStore(ctrl)
	svc := service.NewJournalService(store, nil)

	store.EXPECT().Export(gomock.Any()).Return([]byte(`{"entries":[]}`), nil)
	data, err := svc.Export(testContext())
	if err != nil || string(data) != `{"entries":[]}` {
		t.Errorf("Export() = %s, %v", data, err)
	}

	store.EXPECT().Export(gomock.Any()).Return(nil, errors.New("io error"))
	if _, err := svc.Export(testContext()); err == nil {
		t.Error("Export() expected error, got nil")
	}
}
